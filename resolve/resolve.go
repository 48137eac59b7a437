package resolve

import (
	"log"

	"github.com/saem/nimph/vers"
)

// Finder locates already-installed candidate projects for a package name.
// Implementations scan the project-local deps directory and the depot.
type Finder interface {
	Candidates(name string) ([]*Project, error)
}

// Source performs the version-control side of materialization. Every call
// is a blocking single-step operation; failures come back as errors, never
// silently.
type Source interface {
	// Clone fetches a remote into the depot, naming the checkout after
	// suggestedName or a slug of the URL when empty.
	Clone(url, suggestedName string) (*Project, error)
	// Tags lists the release tags of a materialized project, refreshed
	// from its working copy.
	Tags(p *Project) ([]vers.Version, error)
	// Roll checks the working copy out at the tag matching v and relocates
	// the directory to reflect the new version.
	Roll(p *Project, v vers.Version) error
	// Pin forces the working copy to an exact reference, bypassing tag
	// selection. Used when replaying lock rooms.
	Pin(p *Project, ref string) error
	// Revision reports the exact commit the working copy sits on.
	Revision(p *Project) (string, error)
}

// Reader yields a project's declared requirements from its manifest. The
// resolver never parses manifests itself.
type Reader interface {
	Requires(p *Project) ([]vers.Requirement, error)
}

// Resolver builds dependency groups. It is single-threaded; one resolution
// pass owns its group and visits each project location at most once.
type Resolver struct {
	Finder Finder
	Source Source
	Reader Reader
	Out    *log.Logger
	Debug  *log.Logger
}

// Resolve builds the dependency group for root by recursively satisfying
// declared requirements. Resolution is best-effort: an unsatisfiable
// requirement is recorded and skipped rather than aborting the pass, and
// the overall ok flag turns false. Traversal is depth-first in declaration
// order; a visited set keyed by project directory guarantees termination
// even over cyclic package references.
func (r *Resolver) Resolve(root *Project) (*Group, bool) {
	g := NewGroup()
	ok := true

	visited := map[string]bool{root.Dir: true}

	// work-list, treated as a stack; requirements are pushed in reverse so
	// they pop in declaration order
	var work []vers.Requirement
	push := func(reqs []vers.Requirement) {
		for i := len(reqs) - 1; i >= 0; i-- {
			work = append(work, reqs[i])
		}
	}
	push(root.Requires)

	for len(work) > 0 {
		req := work[len(work)-1]
		work = work[:len(work)-1]

		dep := g.add(req)
		req = dep.Req

		candidates, err := r.Finder.Candidates(PackageName(req.Name))
		if err != nil {
			r.Debug.Printf("candidate scan for %s failed: %v", req.Name, err)
		}

		if !anySatisfies(candidates, req) && RemoteName(req.Name) && r.Source != nil {
			cloned, err := r.clone(req)
			if err != nil {
				r.Out.Printf("unable to fetch %s: %v", req.Name, err)
			} else {
				candidates = append(candidates, cloned)
			}
		}

		admitted := false
		for _, cand := range candidates {
			if !cand.Satisfies(req) {
				continue
			}
			fresh := g.admit(dep, cand)
			admitted = true
			if !fresh || visited[cand.Dir] {
				continue
			}
			visited[cand.Dir] = true
			reqs, err := r.Reader.Requires(cand)
			if err != nil {
				r.Out.Printf("unreadable manifest for %s at %s: %v", cand.Name, cand.Dir, err)
				ok = false
				continue
			}
			cand.Requires = reqs
			push(reqs)
		}

		if !admitted {
			r.Out.Printf("%v", &UnsatisfiableError{Req: req})
			g.markUnresolved(req)
			ok = false
		}
	}

	return g, ok
}

// clone materializes a remote-backed requirement and rolls the fresh
// checkout to the latest satisfying tag.
func (r *Resolver) clone(req vers.Requirement) (*Project, error) {
	p, err := r.Source.Clone(CloneURL(req.Name), PackageName(req.Name))
	if err != nil {
		return nil, &MaterializationError{Op: "clone", Subject: req.Name, Err: err}
	}

	tags, err := r.Source.Tags(p)
	if err != nil {
		r.Debug.Printf("no tags for fresh clone of %s: %v", req.Name, err)
		return p, nil
	}
	p.Tags = tags

	if want, found := vers.LatestSatisfying(tags, req); found {
		if p.Version == nil || !p.Version.Equal(want) {
			if err := r.Source.Roll(p, want); err != nil {
				return nil, &MaterializationError{Op: "checkout", Subject: req.Name, Err: err}
			}
		}
	}
	return p, nil
}

func anySatisfies(candidates []*Project, req vers.Requirement) bool {
	for _, c := range candidates {
		if c.Satisfies(req) {
			return true
		}
	}
	return false
}
