package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/saem/nimph"
)

const unlockShortHelp = `restore dependencies to the references pinned in a room`
const unlockLongHelp = `
Unlock replays a previously locked room: every pinned dependency is forced
back to its captured reference, re-materializing working copies that moved.
Without a room name, the persisted rooms are listed instead.
`

func (cmd *unlockCommand) Name() string      { return "unlock" }
func (cmd *unlockCommand) Args() string      { return "[room]" }
func (cmd *unlockCommand) ShortHelp() string { return unlockShortHelp }
func (cmd *unlockCommand) LongHelp() string  { return unlockLongHelp }
func (cmd *unlockCommand) Hidden() bool      { return false }

func (cmd *unlockCommand) Register(fs *flag.FlagSet) {}

type unlockCommand struct{}

func (cmd *unlockCommand) Run(ctx *nimph.Ctx, args []string) error {
	switch len(args) {
	case 0:
		names, err := ctx.ListRooms()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			ctx.Out.Println("no rooms are locked")
			return nil
		}
		for _, name := range names {
			ctx.Out.Println(name)
		}
		return nil
	case 1:
		rt, err := loadRuntime(ctx)
		if err != nil {
			return err
		}
		g, _ := rt.resolveGroup()
		return ctx.Unlock(g, rt.mat, args[0])
	default:
		return errors.Errorf("too many args (%d)", len(args))
	}
}
