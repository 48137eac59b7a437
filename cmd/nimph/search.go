package main

import (
	"context"
	"flag"
	"strings"

	"github.com/pkg/errors"

	"github.com/saem/nimph"
	"github.com/saem/nimph/internal/github"
)

const tokenEnv = "NIMPH_GITHUB_TOKEN"

const searchShortHelp = `search github for candidate packages`
const searchLongHelp = `
Search queries github's repository search and lists the matches with their
clone URLs, best first. Set ` + tokenEnv + ` (or GITHUB_TOKEN) for
authenticated requests and their higher rate limits.
`

func (cmd *searchCommand) Name() string      { return "search" }
func (cmd *searchCommand) Args() string      { return "<query...>" }
func (cmd *searchCommand) ShortHelp() string { return searchShortHelp }
func (cmd *searchCommand) LongHelp() string  { return searchLongHelp }
func (cmd *searchCommand) Hidden() bool      { return false }

func (cmd *searchCommand) Register(fs *flag.FlagSet) {}

type searchCommand struct{}

func githubToken(ctx *nimph.Ctx) string {
	if token := nimph.GetEnv(ctx.Env, tokenEnv); token != "" {
		return token
	}
	return nimph.GetEnv(ctx.Env, "GITHUB_TOKEN")
}

func (cmd *searchCommand) Run(ctx *nimph.Ctx, args []string) error {
	if len(args) == 0 {
		return errors.New("search needs a query")
	}

	client := github.NewClient(githubToken(ctx))
	repos, err := client.Search(context.Background(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		ctx.Out.Println("nothing found")
		return nil
	}

	for _, repo := range repos {
		ctx.Out.Printf("%-40s ★ %-6d %s", repo.FullName, repo.Stars, repo.CloneURL)
		if ctx.Verbose && repo.Description != "" {
			ctx.Out.Printf("    %s", repo.Description)
		}
	}
	return nil
}
