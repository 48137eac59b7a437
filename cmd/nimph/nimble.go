package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/saem/nimph"
	"github.com/saem/nimph/internal/git"
)

const nimbleShortHelp = `pass a command through to nimble`
const nimbleLongHelp = `
Nimble forwards its arguments verbatim to the underlying package tool and
relays the output. Nimph does not interpret the command at all.
`

func (cmd *nimbleCommand) Name() string      { return "nimble" }
func (cmd *nimbleCommand) Args() string      { return "<args...>" }
func (cmd *nimbleCommand) ShortHelp() string { return nimbleShortHelp }
func (cmd *nimbleCommand) LongHelp() string  { return nimbleLongHelp }
func (cmd *nimbleCommand) Hidden() bool      { return false }

func (cmd *nimbleCommand) Register(fs *flag.FlagSet) {}

type nimbleCommand struct{}

func (cmd *nimbleCommand) Run(ctx *nimph.Ctx, args []string) error {
	if len(args) == 0 {
		return errors.New("nothing to pass through to nimble")
	}

	exec := &git.CommandExecutor{Debug: ctx.Debug}
	stdout, stderr, err := exec.ExecCommand("nimble", 10*time.Minute, false, nil, args...)
	if stdout != "" {
		fmt.Print(stdout)
	}
	if stderr != "" {
		fmt.Print(stderr)
	}
	return errors.Wrap(err, "nimble failed")
}
