// Package nimph ties the resolution core to its on-disk surroundings: the
// run context, the project manifest, the package depot and the named lock
// rooms.
package nimph

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// DepotEnv overrides where nimph keeps materialized packages.
const DepotEnv = "NIMPH_DEPOT"

// Ctx carries the state every command needs: directories, environment and
// the logging handles for the run. It is built once at startup and passed
// down explicitly; nothing reads ambient globals.
type Ctx struct {
	// WorkingDir is the root project's directory.
	WorkingDir string
	// Depot is where cloned dependencies live.
	Depot string
	Env   []string

	Out     *log.Logger
	Err     *log.Logger
	Debug   *log.Logger
	Verbose bool
}

// RoomsDir is where this project's lock rooms are persisted.
func (c *Ctx) RoomsDir() string {
	return filepath.Join(c.WorkingDir, ".nimph", "rooms")
}

// DefaultDepot resolves the depot directory from the environment, falling
// back to ~/.nimph/pkgs.
func DefaultDepot(env []string) string {
	if depot := GetEnv(env, DepotEnv); depot != "" {
		return depot
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".nimph", "pkgs")
	}
	return filepath.Join(home, ".nimph", "pkgs")
}

// GetEnv returns the last instance of an environment variable.
func GetEnv(env []string, key string) string {
	for i := len(env) - 1; i >= 0; i-- {
		kv := strings.SplitN(env[i], "=", 2)
		if kv[0] == key {
			if len(kv) > 1 {
				return kv[1]
			}
			return ""
		}
	}
	return ""
}
