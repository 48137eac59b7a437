package main

import (
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/saem/nimph"
	"github.com/saem/nimph/resolve"
)

const pathShortHelp = `print the on-disk location of resolved dependencies`
const pathLongHelp = `
Path resolves the project's dependency graph and prints, one per line, the
working-copy directory of each named package. Names that did not resolve are
reported and make the command fail, but do not suppress the paths that did.
`

func (cmd *pathCommand) Name() string      { return "path" }
func (cmd *pathCommand) Args() string      { return "<name> [name...]" }
func (cmd *pathCommand) ShortHelp() string { return pathShortHelp }
func (cmd *pathCommand) LongHelp() string  { return pathLongHelp }
func (cmd *pathCommand) Hidden() bool      { return false }

func (cmd *pathCommand) Register(fs *flag.FlagSet) {}

type pathCommand struct{}

func (cmd *pathCommand) Run(ctx *nimph.Ctx, args []string) error {
	if len(args) == 0 {
		return errors.New("path needs at least one package name")
	}

	rt, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	g, ok := rt.resolveGroup()

	missing := 0
	for _, name := range args {
		path, found := g.PathForName(name)
		if !found {
			ctx.Err.Printf("%v", &resolve.UnknownNameError{Name: name})
			missing++
			continue
		}
		fmt.Println(path)
	}

	if missing > 0 {
		return errors.Errorf("%d of %d names did not resolve", missing, len(args))
	}
	if !ok {
		return errors.Errorf("%d requirements could not be satisfied", len(g.Unresolved()))
	}
	return nil
}
