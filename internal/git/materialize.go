// Package git materializes package working copies: cloning remotes into
// the depot, rolling checkouts between release tags, relocating
// directories to match the checked-out release, and promoting remotes to
// their canonical form. Repository plumbing goes through Masterminds/vcs;
// the few operations it does not cover run raw git through the executor.
package git

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/vcs"
	"github.com/pkg/errors"

	"github.com/saem/nimph/internal/fs"
	"github.com/saem/nimph/resolve"
	"github.com/saem/nimph/vers"
)

const gitTimeout = 2 * time.Minute

// Materializer implements resolve.Source over real git working copies.
type Materializer struct {
	// Depot is where fresh clones land.
	Depot string
	// Owner marks github repositories considered ours; Promote rewrites
	// their remotes to SSH form.
	Owner string
	Exec  ExecutorInterface
	Out   *log.Logger
	Debug *log.Logger
}

func (m *Materializer) repo(p *resolve.Project) (vcs.Repo, error) {
	return vcs.NewRepo(p.Remote, p.Dir)
}

// Slug derives a package name from the tail of a clone URL.
func Slug(url string) string {
	url = strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	if at := strings.LastIndexAny(url, "/:"); at >= 0 {
		url = url[at+1:]
	}
	return strings.ToLower(url)
}

// Clone fetches url into the depot. The checkout lands under suggestedName
// or, when empty, a slug of the URL; once a release is checked out the
// directory is relocated to encode the version.
func (m *Materializer) Clone(url, suggestedName string) (*resolve.Project, error) {
	name := suggestedName
	if name == "" {
		name = Slug(url)
	}
	dir := filepath.Join(m.Depot, name)

	if err := fs.EnsureDir(m.Depot, 0777); err != nil {
		return nil, err
	}

	repo, err := vcs.NewRepo(url, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to set up repository for %s", url)
	}
	m.Out.Printf("cloning %s into %s", url, dir)
	if err := repo.Get(); err != nil {
		return nil, errors.Wrapf(err, "clone of %s failed", url)
	}

	p := &resolve.Project{
		Name:   name,
		Dist:   resolve.DistGit,
		Dir:    dir,
		Remote: url,
	}

	m.finish(p)
	return p, nil
}

// finish settles a fresh clone: note the release if HEAD happens to be
// tagged, fold the version into the directory name, and canonicalize the
// remote when the repository is ours. None of these is worth failing a
// successful clone over.
func (m *Materializer) finish(p *resolve.Project) {
	if tag, ok := m.currentTag(p); ok {
		if v, err := vers.ParseVersion(tag); err == nil {
			p.Version = &v
		}
	}
	if err := m.Relocate(p); err != nil {
		m.Debug.Printf("unable to relocate fresh clone %s: %v", p.Name, err)
	}
	if _, err := m.Promote(p); err != nil {
		m.Debug.Printf("unable to promote remote of %s: %v", p.Name, err)
	}
}

// currentTag asks the working copy whether HEAD sits exactly on a tag.
func (m *Materializer) currentTag(p *resolve.Project) (string, bool) {
	stdout, _, err := m.Exec.ExecCommand("git", gitTimeout, false, nil,
		"-C", p.Dir, "describe", "--tags", "--exact-match")
	if err != nil {
		return "", false
	}
	tag := strings.TrimSpace(stdout)
	return tag, tag != ""
}

// Tags lists the project's release tags in ascending version order. Tags
// that do not parse as versions are skipped.
func (m *Materializer) Tags(p *resolve.Project) ([]vers.Version, error) {
	repo, err := m.repo(p)
	if err != nil {
		return nil, err
	}
	raw, err := repo.Tags()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list tags of %s", p.Name)
	}

	var tags []vers.Version
	for _, t := range raw {
		v, err := vers.ParseVersion(t)
		if err != nil {
			continue
		}
		tags = append(tags, v)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Less(tags[j]) })
	return tags, nil
}

// Roll checks the working copy out at the tag matching v and relocates the
// directory accordingly.
func (m *Materializer) Roll(p *resolve.Project, v vers.Version) error {
	repo, err := m.repo(p)
	if err != nil {
		return err
	}

	raw, err := repo.Tags()
	if err != nil {
		return errors.Wrapf(err, "unable to list tags of %s", p.Name)
	}
	tag := ""
	for _, t := range raw {
		parsed, err := vers.ParseVersion(t)
		if err == nil && parsed.Equal(v) {
			tag = t
			break
		}
	}
	if tag == "" {
		return errors.Errorf("%s has no tag for version %s", p.Name, v)
	}

	if err := repo.UpdateVersion(tag); err != nil {
		return errors.Wrapf(err, "checkout of %s at %s failed", p.Name, tag)
	}
	p.Version = &v
	return m.Relocate(p)
}

// Pin forces the working copy to an exact reference, fetching first so
// lock replay works against references the clone has not seen yet.
func (m *Materializer) Pin(p *resolve.Project, ref string) error {
	repo, err := m.repo(p)
	if err != nil {
		return err
	}
	if err := repo.Update(); err != nil {
		m.Debug.Printf("fetch before pinning %s: %v", p.Name, err)
	}
	if err := repo.UpdateVersion(ref); err != nil {
		return errors.Wrapf(err, "unable to pin %s to %s", p.Name, ref)
	}
	return nil
}

// Revision reports the commit the working copy currently sits on.
func (m *Materializer) Revision(p *resolve.Project) (string, error) {
	repo, err := m.repo(p)
	if err != nil {
		return "", err
	}
	rev, err := repo.Version()
	if err != nil {
		return "", errors.Wrapf(err, "unable to read revision of %s", p.Name)
	}
	return strings.TrimSpace(rev), nil
}

// Relocate renames the project directory to <name>-<version> when the
// checked-out version is known and the layout does not reflect it yet.
func (m *Materializer) Relocate(p *resolve.Project) error {
	if p.Version == nil {
		return nil
	}
	want := fmt.Sprintf("%s-%s", p.Name, p.Version)
	if filepath.Base(p.Dir) == want {
		return nil
	}
	dst := filepath.Join(filepath.Dir(p.Dir), want)
	if err := fs.RenameWithFallback(p.Dir, dst); err != nil {
		return errors.Wrapf(err, "unable to relocate %s", p.Name)
	}
	m.Debug.Printf("relocated %s to %s", p.Dir, dst)
	p.Dir = dst
	return nil
}

// Promote rewrites the project's origin remote to canonical SSH form when
// the repository belongs to our configured owner; otherwise it is a no-op.
// It reports whether a rewrite happened.
func (m *Materializer) Promote(p *resolve.Project) (bool, error) {
	if m.Owner == "" {
		return false, nil
	}
	sshURL, ours := promotedURL(p.Remote, m.Owner)
	if !ours {
		return false, nil
	}

	_, stderr, err := m.Exec.ExecCommand("git", gitTimeout, false, nil,
		"-C", p.Dir, "remote", "set-url", "origin", sshURL)
	if err != nil {
		return false, errors.Wrap(err, stderr)
	}
	p.Remote = sshURL
	m.Out.Printf("%s: promoted origin to %s", p.Name, sshURL)
	return true, nil
}

// promotedURL maps https://github.com/<owner>/<repo> to its SSH form when
// owner matches ours.
func promotedURL(remote, owner string) (string, bool) {
	for _, prefix := range []string{"https://github.com/", "http://github.com/"} {
		if !strings.HasPrefix(remote, prefix) {
			continue
		}
		rest := strings.TrimSuffix(strings.TrimPrefix(remote, prefix), ".git")
		repoOwner, repo, found := strings.Cut(rest, "/")
		if !found || !strings.EqualFold(repoOwner, owner) {
			return "", false
		}
		return fmt.Sprintf("git@github.com:%s/%s.git", repoOwner, repo), true
	}
	return "", false
}

// PromoteRemoteLike adds or updates the named remote on the project to
// point at url, typically a freshly created fork.
func (m *Materializer) PromoteRemoteLike(p *resolve.Project, url, name string) error {
	stdout, _, err := m.Exec.ExecCommand("git", gitTimeout, false, nil,
		"-C", p.Dir, "remote")
	if err != nil {
		return errors.Wrapf(err, "unable to list remotes of %s", p.Name)
	}

	action := "add"
	for _, existing := range strings.Fields(stdout) {
		if existing == name {
			action = "set-url"
			break
		}
	}

	_, stderr, err := m.Exec.ExecCommand("git", gitTimeout, false, nil,
		"-C", p.Dir, "remote", action, name, url)
	if err != nil {
		return errors.Wrap(err, stderr)
	}
	m.Out.Printf("%s: remote %q now points at %s", p.Name, name, url)
	return nil
}
