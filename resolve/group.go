package resolve

import (
	"github.com/saem/nimph/vers"
)

// Dependency binds one requirement to the candidate projects on disk that
// satisfy it. The set may hold more than one installed version of the same
// package at once; every member individually satisfies Req.
type Dependency struct {
	Req      vers.Requirement
	Projects []*Project
}

// add records a candidate, keeping first-added order. The caller has
// already checked satisfaction and cross-group path uniqueness.
func (d *Dependency) add(p *Project) {
	for _, existing := range d.Projects {
		if existing.Dir == p.Dir {
			return
		}
	}
	d.Projects = append(d.Projects, p)
}

// Best returns the candidate whose version is the latest satisfying one,
// preferring determined versions over undetermined clones.
func (d *Dependency) Best() (*Project, bool) {
	var best *Project
	for _, p := range d.Projects {
		if best == nil {
			best = p
			continue
		}
		if best.Version == nil {
			if p.Version != nil {
				best = p
			}
			continue
		}
		if p.Version != nil && p.Version.Greater(*best.Version) {
			best = p
		}
	}
	return best, best != nil
}

// Group is the resolved dependency graph for one root project: a mapping
// from requirement to dependency with a stable iteration order derived
// from declaration order.
//
// Two syntactically different requirements on the same package name stay
// distinct entries unless provably compatible, in which case their
// candidate sets are unioned. Disjoint ranges on one name are therefore
// tolerated, and the group may carry several installed versions of that
// name side by side. Whether that permissiveness is a feature or a missing
// conflict check is an open product question; the behavior is preserved
// here deliberately.
type Group struct {
	deps       []*Dependency
	index      map[string]int // requirement identity -> position in deps
	paths      map[string]int // project dir -> position in deps
	unresolved []vers.Requirement
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	return &Group{
		index: make(map[string]int),
		paths: make(map[string]int),
	}
}

// add returns the dependency entry for req, creating it or merging into a
// compatible same-name entry. Merging keeps the stricter requirement so
// the per-entry satisfaction invariant survives the union.
func (g *Group) add(req vers.Requirement) *Dependency {
	if at, ok := g.index[req.Identity()]; ok {
		return g.deps[at]
	}
	for at, d := range g.deps {
		if d.Req.CompatibleWith(req) {
			if d.Req.Any() && !req.Any() {
				g.tighten(d, req)
			}
			g.index[req.Identity()] = at
			return d
		}
	}
	d := &Dependency{Req: req}
	g.deps = append(g.deps, d)
	g.index[req.Identity()] = len(g.deps) - 1
	return d
}

// tighten narrows an unconstrained entry to a stricter requirement.
// Candidates admitted under the old requirement are re-validated: members
// the new requirement rejects are dropped and their path claims released,
// so every project held by the entry still satisfies its requirement.
func (g *Group) tighten(d *Dependency, req vers.Requirement) {
	d.Req = req
	kept := d.Projects[:0]
	for _, p := range d.Projects {
		if p.Satisfies(req) {
			kept = append(kept, p)
			continue
		}
		delete(g.paths, p.Dir)
	}
	d.Projects = kept
}

// admit places a project under the dependency, refusing candidates that do
// not satisfy the requirement or whose path is already claimed by another
// entry. It reports whether the project is newly admitted to the group.
func (g *Group) admit(d *Dependency, p *Project) bool {
	if !p.Satisfies(d.Req) {
		return false
	}
	if at, taken := g.paths[p.Dir]; taken {
		if g.deps[at] == d {
			d.add(p)
		}
		return false
	}
	d.add(p)
	for at, cand := range g.deps {
		if cand == d {
			g.paths[p.Dir] = at
			break
		}
	}
	return true
}

// markUnresolved records a requirement no reachable candidate satisfies.
func (g *Group) markUnresolved(req vers.Requirement) {
	g.unresolved = append(g.unresolved, req)
}

// Deps returns the dependency entries in stable declaration order.
func (g *Group) Deps() []*Dependency { return g.deps }

// Unresolved returns the requirements left without any candidate.
func (g *Group) Unresolved() []vers.Requirement { return g.unresolved }

// Len is the number of dependency entries.
func (g *Group) Len() int { return len(g.deps) }

// PathForName returns the selected project path for a bare package name.
// The first matching entry in declaration order answers, even when several
// installed versions of the name coexist.
func (g *Group) PathForName(name string) (string, bool) {
	p, ok := g.ProjectForName(name)
	if !ok {
		return "", false
	}
	return p.Dir, true
}

// ProjectForName returns the selected project for a bare package name.
func (g *Group) ProjectForName(name string) (*Project, bool) {
	for _, d := range g.deps {
		if PackageName(d.Req.Name) != name && d.Req.Name != name {
			continue
		}
		if p, ok := d.Best(); ok {
			return p, true
		}
	}
	for _, d := range g.deps {
		for _, p := range d.Projects {
			if p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

// ReqForProject returns the requirement that bound the given project into
// the group.
func (g *Group) ReqForProject(p *Project) (vers.Requirement, bool) {
	if at, ok := g.paths[p.Dir]; ok {
		return g.deps[at].Req, true
	}
	return vers.Requirement{}, false
}

// ProjectForPath returns the project materialized at the given path.
func (g *Group) ProjectForPath(path string) (*Project, bool) {
	if at, ok := g.paths[path]; ok {
		for _, p := range g.deps[at].Projects {
			if p.Dir == path {
				return p, true
			}
		}
	}
	return nil, false
}
