package main

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/saem/nimph"
	"github.com/saem/nimph/internal/git"
	"github.com/saem/nimph/resolve"
)

const nimphVersion = "v1.1.0"

// ownerEnv marks github repositories as ours for remote promotion.
const ownerEnv = "NIMPH_OWNER"

// nimbleDirEnv points at the underlying tool's package directory.
const nimbleDirEnv = "NIMBLE_DIR"

// runtime wires the collaborators one command invocation needs: the depot
// scanner, the git materializer and the resolver, all around the root
// project read from the working directory.
type runtime struct {
	ctx   *nimph.Ctx
	depot *nimph.Depot
	mat   *git.Materializer
	res   *resolve.Resolver
	root  *resolve.Project
}

// loadRuntime reads the root manifest (fatal when unreadable), applies any
// side-config overrides and wires up the collaborators.
func loadRuntime(ctx *nimph.Ctx) (*runtime, error) {
	manifest, err := nimph.ReadManifest(ctx.WorkingDir)
	if err != nil {
		return nil, err
	}
	side, err := nimph.ReadSideConfig(ctx.WorkingDir)
	if err != nil {
		return nil, err
	}
	requires, err := side.ApplyOverrides(manifest.Requires)
	if err != nil {
		return nil, err
	}

	root := &resolve.Project{
		Name:     manifest.Name,
		Version:  manifest.Version,
		Dist:     resolve.DistLocal,
		Dir:      ctx.WorkingDir,
		Requires: requires,
	}

	exec := &git.CommandExecutor{Debug: ctx.Debug}

	roots := append([]string{filepath.Join(ctx.WorkingDir, "deps"), ctx.Depot}, side.Roots...)
	depot := &nimph.Depot{
		Roots: roots,
		Exec:  exec,
		Debug: ctx.Debug,
	}
	if nimbleDir := nimph.GetEnv(ctx.Env, nimbleDirEnv); nimbleDir != "" {
		depot.ToolRoots = []string{filepath.Join(nimbleDir, "pkgs")}
	}

	mat := &git.Materializer{
		Depot: ctx.Depot,
		Owner: nimph.GetEnv(ctx.Env, ownerEnv),
		Exec:  exec,
		Out:   ctx.Out,
		Debug: ctx.Debug,
	}

	return &runtime{
		ctx:   ctx,
		depot: depot,
		mat:   mat,
		res: &resolve.Resolver{
			Finder: depot,
			Source: mat,
			Reader: depot,
			Out:    ctx.Out,
			Debug:  ctx.Debug,
		},
		root: root,
	}, nil
}

// resolveGroup runs the implicit resolution every graph-touching command
// starts with.
func (rt *runtime) resolveGroup() (*resolve.Group, bool) {
	return rt.res.Resolve(rt.root)
}

// mustResolve is resolveGroup for commands that cannot work on a partial
// graph.
func (rt *runtime) mustResolve() (*resolve.Group, error) {
	g, ok := rt.resolveGroup()
	if !ok {
		return nil, errors.Errorf("%d requirements could not be satisfied", len(g.Unresolved()))
	}
	return g, nil
}
