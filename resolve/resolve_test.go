package resolve

import (
	"bytes"
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saem/nimph/vers"
)

// fakeFinder serves candidates from memory.
type fakeFinder struct {
	projects map[string][]*Project
}

func (f *fakeFinder) Candidates(name string) ([]*Project, error) {
	return f.projects[name], nil
}

// fakeSource simulates materialization, recording every roll and pin.
type fakeSource struct {
	tags      map[string][]vers.Version
	revisions map[string]string
	cloneable map[string]*Project

	rolls    []string
	pins     []string
	failRoll map[string]bool
}

func (s *fakeSource) Clone(url, suggestedName string) (*Project, error) {
	if p, ok := s.cloneable[url]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no such remote %s", url)
}

func (s *fakeSource) Tags(p *Project) ([]vers.Version, error) {
	return s.tags[p.Name], nil
}

func (s *fakeSource) Roll(p *Project, v vers.Version) error {
	if s.failRoll[p.Name] {
		return fmt.Errorf("checkout refused for %s", p.Name)
	}
	s.rolls = append(s.rolls, fmt.Sprintf("%s@%s", p.Name, v))
	p.Version = &v
	return nil
}

func (s *fakeSource) Pin(p *Project, ref string) error {
	s.pins = append(s.pins, fmt.Sprintf("%s@%s", p.Name, ref))
	if s.revisions == nil {
		s.revisions = make(map[string]string)
	}
	s.revisions[p.Name] = ref
	return nil
}

func (s *fakeSource) Revision(p *Project) (string, error) {
	if rev, ok := s.revisions[p.Name]; ok {
		return rev, nil
	}
	return "", fmt.Errorf("no revision recorded for %s", p.Name)
}

// fakeReader hands back the requirements already attached to the project.
type fakeReader struct{}

func (fakeReader) Requires(p *Project) ([]vers.Requirement, error) {
	return p.Requires, nil
}

func newTestResolver(f Finder, s Source) (*Resolver, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Resolver{
		Finder: f,
		Source: s,
		Reader: fakeReader{},
		Out:    log.New(out, "", 0),
		Debug:  log.New(&bytes.Buffer{}, "", 0),
	}, out
}

func mkProject(name, version string, dist DistMethod, reqs ...vers.Requirement) *Project {
	p := &Project{
		Name:     name,
		Dist:     dist,
		Dir:      "/depot/" + name + "-" + version,
		Requires: reqs,
	}
	if version != "" {
		v := vers.MustParseVersion(version)
		p.Version = &v
	}
	return p
}

func mkRoot(reqs ...vers.Requirement) *Project {
	return &Project{Name: "root", Dist: DistLocal, Dir: "/work/root", Requires: reqs}
}

func Test_Resolve_SimpleTree(t *testing.T) {
	foo := mkProject("foo", "1.5.0", DistGit, vers.MustParseRequirement("bar", ">= 0.2"))
	bar := mkProject("bar", "0.3.0", DistGit)

	finder := &fakeFinder{projects: map[string][]*Project{
		"foo": {foo},
		"bar": {bar},
	}}
	r, _ := newTestResolver(finder, &fakeSource{})

	g, ok := r.Resolve(mkRoot(vers.MustParseRequirement("foo", ">= 1.0.0, < 2.0.0")))
	require.True(t, ok)
	assert.Equal(t, 2, g.Len())
	assert.Empty(t, g.Unresolved())

	p, found := g.ProjectForName("foo")
	require.True(t, found)
	assert.Equal(t, "1.5.0", p.Version.String())

	_, found = g.ProjectForName("bar")
	assert.True(t, found)
}

func Test_Resolve_CyclicReferencesTerminate(t *testing.T) {
	// a requires b, b requires a; resolution must terminate and visit each
	// project location exactly once
	a := mkProject("a", "1.0.0", DistGit, vers.MustParseRequirement("b", "*"))
	b := mkProject("b", "1.0.0", DistGit, vers.MustParseRequirement("a", "*"))

	finder := &fakeFinder{projects: map[string][]*Project{
		"a": {a},
		"b": {b},
	}}
	r, _ := newTestResolver(finder, &fakeSource{})

	g, ok := r.Resolve(mkRoot(vers.MustParseRequirement("a", "*")))
	require.True(t, ok)
	assert.Equal(t, 2, g.Len())

	// the cycle collapses onto already-merged entries; each distinct
	// location appears exactly once
	seen := map[string]int{}
	for _, d := range g.Deps() {
		for _, p := range d.Projects {
			seen[p.Dir]++
		}
	}
	for dir, n := range seen {
		assert.Equal(t, 1, n, dir)
	}
}

func Test_Resolve_SelfReferenceTerminates(t *testing.T) {
	a := mkProject("a", "1.0.0", DistGit, vers.MustParseRequirement("a", "*"))

	finder := &fakeFinder{projects: map[string][]*Project{"a": {a}}}
	r, _ := newTestResolver(finder, &fakeSource{})

	g, ok := r.Resolve(mkRoot(vers.MustParseRequirement("a", "*")))
	require.True(t, ok)
	assert.Equal(t, 1, g.Len())
}

func Test_Resolve_UnsatisfiableIsBestEffort(t *testing.T) {
	foo := mkProject("foo", "1.5.0", DistGit)

	finder := &fakeFinder{projects: map[string][]*Project{"foo": {foo}}}
	r, out := newTestResolver(finder, &fakeSource{})

	g, ok := r.Resolve(mkRoot(
		vers.MustParseRequirement("missing", ">= 1.0"),
		vers.MustParseRequirement("foo", ">= 1.0.0"),
	))

	// the failure is recorded but foo still resolves
	assert.False(t, ok)
	require.Len(t, g.Unresolved(), 1)
	assert.Equal(t, "missing", g.Unresolved()[0].Name)
	assert.Contains(t, out.String(), "missing")

	_, found := g.PathForName("foo")
	assert.True(t, found)
}

func Test_Resolve_PrefersLatestSatisfying(t *testing.T) {
	old := mkProject("foo", "1.0.0", DistGit)
	newer := mkProject("foo", "1.5.0", DistGit)
	tooNew := mkProject("foo", "2.0.0", DistGit)

	finder := &fakeFinder{projects: map[string][]*Project{"foo": {old, newer, tooNew}}}
	r, _ := newTestResolver(finder, &fakeSource{})

	g, ok := r.Resolve(mkRoot(vers.MustParseRequirement("foo", ">= 1.0.0, < 2.0.0")))
	require.True(t, ok)

	p, found := g.ProjectForName("foo")
	require.True(t, found)
	assert.Equal(t, "1.5.0", p.Version.String())
}

func Test_Resolve_DisjointRangesCoexist(t *testing.T) {
	v1 := mkProject("shared", "1.9.0", DistGit)
	v3 := mkProject("shared", "3.1.0", DistGit)

	finder := &fakeFinder{projects: map[string][]*Project{"shared": {v1, v3}}}
	r, _ := newTestResolver(finder, &fakeSource{})

	g, ok := r.Resolve(mkRoot(
		vers.MustParseRequirement("shared", ">= 1.0, < 2.0"),
		vers.MustParseRequirement("shared", ">= 3.0"),
	))

	// both ranges resolve; the group keeps them as distinct dependencies
	require.True(t, ok)
	assert.Equal(t, 2, g.Len())

	// a name with several installed versions still answers with exactly
	// one path, the first entry in declaration order
	path, found := g.PathForName("shared")
	require.True(t, found)
	assert.Equal(t, v1.Dir, path)
}

func Test_Resolve_TightenedRequirementDropsStaleCandidates(t *testing.T) {
	// shared is first wanted unconstrained and admitted at 1.0.0; a later
	// ">= 2.0" merges into the same entry and must evict the candidate the
	// stricter requirement rejects
	shared := mkProject("shared", "1.0.0", DistGit)
	a := mkProject("a", "1.0.0", DistGit, vers.MustParseRequirement("shared", ">= 2.0"))

	finder := &fakeFinder{projects: map[string][]*Project{
		"shared": {shared},
		"a":      {a},
	}}
	r, _ := newTestResolver(finder, &fakeSource{})

	g, ok := r.Resolve(mkRoot(
		vers.MustParseRequirement("shared", "*"),
		vers.MustParseRequirement("a", "*"),
	))

	assert.False(t, ok)
	require.Len(t, g.Unresolved(), 1)
	assert.Equal(t, "shared", g.Unresolved()[0].Name)

	// every held project satisfies its entry's requirement
	for _, d := range g.Deps() {
		for _, p := range d.Projects {
			assert.True(t, p.Satisfies(d.Req), "%s held under %q", p.Dir, d.Req)
		}
	}

	// the evicted candidate is no longer served by any lookup
	_, found := g.ReqForProject(shared)
	assert.False(t, found)
	_, found = g.PathForName("shared")
	assert.False(t, found)
	_, found = g.ProjectForPath(shared.Dir)
	assert.False(t, found)
}

func Test_Resolve_CompatibleRequirementsMerge(t *testing.T) {
	shared := mkProject("shared", "1.5.0", DistGit)
	a := mkProject("a", "1.0.0", DistGit, vers.MustParseRequirement("shared", ">= 1.0, < 2.0"))
	b := mkProject("b", "1.0.0", DistGit, vers.MustParseRequirement("shared", "< 2.0, >= 1.0"))

	finder := &fakeFinder{projects: map[string][]*Project{
		"a":      {a},
		"b":      {b},
		"shared": {shared},
	}}
	r, _ := newTestResolver(finder, &fakeSource{})

	g, ok := r.Resolve(mkRoot(
		vers.MustParseRequirement("a", "*"),
		vers.MustParseRequirement("b", "*"),
	))
	require.True(t, ok)
	// a, b and one merged entry for shared
	assert.Equal(t, 3, g.Len())
}

func Test_Resolve_ClonesRemoteBacked(t *testing.T) {
	clone := mkProject("bar", "", DistGit)
	clone.Remote = "https://github.com/someone/bar"

	src := &fakeSource{
		cloneable: map[string]*Project{"https://github.com/someone/bar": clone},
		tags: map[string][]vers.Version{
			"bar": {vers.MustParseVersion("0.9.0"), vers.MustParseVersion("1.2.0")},
		},
	}
	finder := &fakeFinder{projects: map[string][]*Project{}}
	r, _ := newTestResolver(finder, src)

	g, ok := r.Resolve(mkRoot(vers.MustParseRequirement("github.com/someone/bar", ">= 1.0")))
	require.True(t, ok)
	assert.Equal(t, []string{"bar@1.2.0"}, src.rolls)

	p, found := g.ProjectForName("bar")
	require.True(t, found)
	assert.Equal(t, "1.2.0", p.Version.String())
}

func Test_Resolve_BareNameNeverHitsNetwork(t *testing.T) {
	src := &fakeSource{cloneable: map[string]*Project{}}
	finder := &fakeFinder{projects: map[string][]*Project{}}
	r, _ := newTestResolver(finder, src)

	g, ok := r.Resolve(mkRoot(vers.MustParseRequirement("bar", ">= 1.0")))
	assert.False(t, ok)
	assert.Len(t, g.Unresolved(), 1)
	assert.Empty(t, src.rolls)
}

func Test_Group_Lookups(t *testing.T) {
	foo := mkProject("foo", "1.5.0", DistGit)
	finder := &fakeFinder{projects: map[string][]*Project{"foo": {foo}}}
	r, _ := newTestResolver(finder, &fakeSource{})

	req := vers.MustParseRequirement("foo", ">= 1.0")
	g, ok := r.Resolve(mkRoot(req))
	require.True(t, ok)

	path, found := g.PathForName("foo")
	assert.True(t, found)
	assert.Equal(t, foo.Dir, path)

	_, found = g.PathForName("nowhere")
	assert.False(t, found)

	gotReq, found := g.ReqForProject(foo)
	require.True(t, found)
	assert.Equal(t, req.Identity(), gotReq.Identity())

	p, found := g.ProjectForPath(foo.Dir)
	require.True(t, found)
	assert.Equal(t, foo, p)

	_, found = g.ProjectForPath("/no/such/path")
	assert.False(t, found)
}

func Test_RemoteName(t *testing.T) {
	assert.True(t, RemoteName("github.com/foo/bar"))
	assert.True(t, RemoteName("https://github.com/foo/bar.git"))
	assert.True(t, RemoteName("git@github.com:foo/bar.git"))
	assert.False(t, RemoteName("bar"))
	assert.False(t, RemoteName("foo/bar"))
}

func Test_PackageName(t *testing.T) {
	assert.Equal(t, "bar", PackageName("github.com/foo/bar"))
	assert.Equal(t, "bar", PackageName("bar.git"))
	assert.Equal(t, "bar", PackageName("bar"))
}
