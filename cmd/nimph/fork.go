package main

import (
	"context"
	"flag"
	"strings"

	"github.com/pkg/errors"

	"github.com/saem/nimph"
	"github.com/saem/nimph/internal/github"
	"github.com/saem/nimph/resolve"
)

const forkShortHelp = `fork a dependency on github and add it as a remote`
const forkLongHelp = `
Fork creates (or reuses) a github fork of the named dependency's repository
and points a "fork" remote of the local working copy at it, ready for
pushing patches. The dependency must be git-backed and hosted on github;
` + tokenEnv + ` must be set.
`

func (cmd *forkCommand) Name() string      { return "fork" }
func (cmd *forkCommand) Args() string      { return "<name>" }
func (cmd *forkCommand) ShortHelp() string { return forkShortHelp }
func (cmd *forkCommand) LongHelp() string  { return forkLongHelp }
func (cmd *forkCommand) Hidden() bool      { return false }

func (cmd *forkCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.remote, "remote", "fork", "name of the remote to point at the fork")
}

type forkCommand struct {
	remote string
}

func (cmd *forkCommand) Run(ctx *nimph.Ctx, args []string) error {
	if len(args) != 1 {
		return errors.New("fork needs exactly one package name")
	}

	rt, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	g, _ := rt.resolveGroup()

	p, found := g.ProjectForName(args[0])
	if !found {
		return &resolve.UnknownNameError{Name: args[0]}
	}
	if p.Dist != resolve.DistGit {
		return errors.Errorf("%s is %s-distributed and cannot be forked", p.Name, p.Dist)
	}
	owner, repo, ok := githubSlug(p.Remote)
	if !ok {
		return errors.Errorf("%s is not hosted on github (%s)", p.Name, p.Remote)
	}

	client := github.NewClient(githubToken(ctx))
	fork, err := client.Fork(context.Background(), owner, repo)
	if err != nil {
		return errors.Wrapf(err, "unable to fork %s/%s", owner, repo)
	}
	ctx.Out.Printf("forked %s/%s to %s", owner, repo, fork.HTMLURL)

	url := fork.SSHURL
	if url == "" {
		url = fork.CloneURL
	}
	return rt.mat.PromoteRemoteLike(p, url, cmd.remote)
}

// githubSlug extracts owner and repository from a github clone URL in
// https or ssh form.
func githubSlug(remote string) (owner, repo string, ok bool) {
	rest := ""
	switch {
	case strings.HasPrefix(remote, "https://github.com/"):
		rest = strings.TrimPrefix(remote, "https://github.com/")
	case strings.HasPrefix(remote, "http://github.com/"):
		rest = strings.TrimPrefix(remote, "http://github.com/")
	case strings.HasPrefix(remote, "git@github.com:"):
		rest = strings.TrimPrefix(remote, "git@github.com:")
	default:
		return "", "", false
	}
	rest = strings.TrimSuffix(strings.TrimSuffix(rest, "/"), ".git")
	owner, repo, found := strings.Cut(rest, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}
