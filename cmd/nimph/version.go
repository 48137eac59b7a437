package main

import (
	"flag"

	"github.com/saem/nimph"
	"github.com/saem/nimph/internal/git"
	"github.com/saem/nimph/internal/selfupdate"
)

const versionShortHelp = `print the nimph version`
const versionLongHelp = versionShortHelp

func (cmd *versionCommand) Name() string      { return "version" }
func (cmd *versionCommand) Args() string      { return "" }
func (cmd *versionCommand) ShortHelp() string { return versionShortHelp }
func (cmd *versionCommand) LongHelp() string  { return versionLongHelp }
func (cmd *versionCommand) Hidden() bool      { return false }

func (cmd *versionCommand) Register(fs *flag.FlagSet) {}

type versionCommand struct{}

func (cmd *versionCommand) Run(ctx *nimph.Ctx, args []string) error {
	ctx.Out.Printf("nimph %s", nimphVersion)

	info, err := selfupdate.IsLatestVersion(nimphVersion, &git.CommandExecutor{Debug: ctx.Debug})
	if err != nil {
		ctx.Debug.Printf("unable to check the latest release: %v", err)
		return nil
	}
	if info.IsLatest {
		ctx.Out.Println("this is the latest release")
	} else {
		ctx.Out.Printf("the latest release is %s", info.LatestVersion)
	}
	return nil
}
