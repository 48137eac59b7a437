package nimph

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/saem/nimph/vers"
)

// SideConfigName is the optional per-project side configuration.
const SideConfigName = ".nimph.yaml"

// SideConfig carries local tweaks that do not belong in the manifest:
// extra package search roots and requirement overrides applied before
// resolution.
type SideConfig struct {
	Roots     []string          `yaml:"roots"`
	Overrides []overridePackage `yaml:"override"`
}

type overridePackage struct {
	Name    string `yaml:"package"`
	Version string `yaml:"version"`
}

// ReadSideConfig loads the side config from dir. A missing file is not an
// error; a present but unparseable one is fatal like any other config.
func ReadSideConfig(dir string) (*SideConfig, error) {
	path := filepath.Join(dir, SideConfigName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &SideConfig{}, nil
	} else if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	cfg := SideConfig{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: errors.Wrap(err, "unable to parse as YAML")}
	}
	return &cfg, nil
}

// ApplyOverrides replaces the clauses of any requirement named in an
// override, keeping declaration order. Unknown override names are ignored.
func (sc *SideConfig) ApplyOverrides(reqs []vers.Requirement) ([]vers.Requirement, error) {
	if len(sc.Overrides) == 0 {
		return reqs, nil
	}

	byName := make(map[string]string, len(sc.Overrides))
	for _, ovr := range sc.Overrides {
		byName[ovr.Name] = ovr.Version
	}

	out := make([]vers.Requirement, len(reqs))
	for i, req := range reqs {
		expr, overridden := byName[req.Name]
		if !overridden {
			out[i] = req
			continue
		}
		replaced, err := vers.ParseRequirement(req.Name, expr)
		if err != nil {
			return nil, errors.Wrapf(err, "bad override for %s", req.Name)
		}
		out[i] = replaced
	}
	return out, nil
}
