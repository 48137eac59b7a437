package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/saem/nimph"
)

const upgradeShortHelp = `roll dependencies forward to their newest admissible release`
const upgradeLongHelp = `
Upgrade resolves the dependency graph and advances every git-backed
dependency to the newest tag its requirement admits. Releases beyond a
requirement's ceiling are reported as masked but never adopted. With names
given, only those packages are touched; a name absent from the graph is a
failure. The toolchain itself is never upgraded.
`

func (cmd *upgradeCommand) Name() string      { return "upgrade" }
func (cmd *upgradeCommand) Args() string      { return "[name...]" }
func (cmd *upgradeCommand) ShortHelp() string { return upgradeShortHelp }
func (cmd *upgradeCommand) LongHelp() string  { return upgradeLongHelp }
func (cmd *upgradeCommand) Hidden() bool      { return false }

func (cmd *upgradeCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.dryRun, "n", false, "report what would change without touching any checkout")
}

type upgradeCommand struct {
	dryRun bool
}

func (cmd *upgradeCommand) Run(ctx *nimph.Ctx, args []string) error {
	rt, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	g, resolved := rt.resolveGroup()

	if !rt.res.Upgrade(g, args, cmd.dryRun) {
		return errors.New("not all upgrades succeeded")
	}
	if !resolved {
		return errors.Errorf("%d requirements could not be satisfied", len(g.Unresolved()))
	}
	return nil
}
