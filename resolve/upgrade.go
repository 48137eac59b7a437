package resolve

import (
	"github.com/saem/nimph/vers"
)

// UpgradeChild advances one project toward its newest admissible tag. The
// policy, in order: non-git and toolchain projects are left alone; nothing
// happens when no tag is newer than the current checkout; otherwise the
// working copy rolls to the latest tag the requirement admits. A release
// beyond the requirement's ceiling is reported as masked, which is
// informational and never a failure. dryRun reports what would happen
// without touching the working copy.
//
// The return value is false only when an attempted roll fails; siblings
// are unaffected either way.
func (r *Resolver) UpgradeChild(p *Project, req vers.Requirement, dryRun bool) bool {
	if p.Dist != DistGit || p.IsToolchain() {
		r.Debug.Printf("%s is %s-distributed; leaving it alone", p.Name, p.Dist)
		return true
	}

	tags, err := r.Source.Tags(p)
	if err != nil {
		r.Out.Printf("unable to list releases of %s: %v", p.Name, err)
		return false
	}
	p.Tags = tags

	latest, any := vers.MaxOf(tags)
	if !any {
		r.Debug.Printf("%s has no release tags", p.Name)
		return true
	}
	if p.Version != nil && !latest.Greater(*p.Version) {
		r.Debug.Printf("%s is already at its newest release %s", p.Name, p.Version)
		return true
	}

	want, admissible := vers.LatestSatisfying(tags, req)
	if !admissible || (p.Version != nil && !want.Greater(*p.Version)) {
		// nothing newer fits under the requirement; the newer release that
		// got us here must sit beyond the ceiling
		r.reportMasked(p, req, latest)
		return true
	}

	if dryRun {
		r.Out.Printf("%s: would upgrade %s to %s", p.Name, versionLabel(p), want)
	} else {
		if err := r.Source.Roll(p, want); err != nil {
			r.Out.Printf("%v", &MaterializationError{Op: "upgrade", Subject: p.Name, Err: err})
			return false
		}
		r.Out.Printf("%s: upgraded to %s", p.Name, want)
	}

	if latest.Greater(want) {
		r.reportMasked(p, req, latest)
	}
	return true
}

func (r *Resolver) reportMasked(p *Project, req vers.Requirement, latest vers.Version) {
	if ceil, bounded := req.Ceiling(); bounded && !latest.Less(ceil) {
		r.Out.Printf("%s: release %s is masked by requirement %q", p.Name, latest, req)
	}
}

func versionLabel(p *Project) string {
	if p.Version == nil {
		return "(undetermined)"
	}
	return p.Version.String()
}

// Upgrade walks every dependency of a resolved group and upgrades the
// selected project of each. When names are given, only matching projects
// are visited and a name absent from the group is itself a failure. One
// failed roll never stops the siblings; the aggregate result is false if
// any step failed.
func (r *Resolver) Upgrade(g *Group, names []string, dryRun bool) bool {
	ok := true

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	matched := make(map[string]bool, len(names))

	for _, d := range g.Deps() {
		p, found := d.Best()
		if !found {
			continue
		}
		if len(names) > 0 {
			byProject, byReq := wanted[p.Name], wanted[PackageName(d.Req.Name)]
			if !byProject && !byReq {
				continue
			}
			if byProject {
				matched[p.Name] = true
			}
			if byReq {
				matched[PackageName(d.Req.Name)] = true
			}
		}
		if !r.UpgradeChild(p, d.Req, dryRun) {
			ok = false
		}
	}

	for _, n := range names {
		if !matched[n] {
			r.Out.Printf("%v", &UnknownNameError{Name: n})
			ok = false
		}
	}
	return ok
}
