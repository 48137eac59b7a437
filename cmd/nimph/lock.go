package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/saem/nimph"
)

const lockShortHelp = `snapshot the resolved graph into a named room`
const lockLongHelp = `
Lock resolves the dependency graph and persists, under the given room name,
the exact reference every dependency currently sits on together with the
requirement that selected it. Re-locking an existing room overwrites it.
`

func (cmd *lockCommand) Name() string      { return "lock" }
func (cmd *lockCommand) Args() string      { return "<room>" }
func (cmd *lockCommand) ShortHelp() string { return lockShortHelp }
func (cmd *lockCommand) LongHelp() string  { return lockLongHelp }
func (cmd *lockCommand) Hidden() bool      { return false }

func (cmd *lockCommand) Register(fs *flag.FlagSet) {}

type lockCommand struct{}

func (cmd *lockCommand) Run(ctx *nimph.Ctx, args []string) error {
	if len(args) != 1 {
		return errors.New("lock needs exactly one room name")
	}

	rt, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	g, err := rt.mustResolve()
	if err != nil {
		return err
	}

	return ctx.Lock(g, rt.mat, args[0])
}
