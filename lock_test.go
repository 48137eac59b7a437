package nimph

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saem/nimph/resolve"
	"github.com/saem/nimph/vers"
)

// memSource is an in-memory stand-in for the git materializer. Revisions
// are tracked per checkout directory so several installed versions of one
// package can carry distinct references.
type memSource struct {
	revisions map[string]string
	pins      []string
	failPin   bool
}

func (s *memSource) Clone(url, suggestedName string) (*resolve.Project, error) {
	return nil, fmt.Errorf("clone not supported in tests")
}

func (s *memSource) Tags(p *resolve.Project) ([]vers.Version, error) {
	return p.Tags, nil
}

func (s *memSource) Roll(p *resolve.Project, v vers.Version) error {
	p.Version = &v
	return nil
}

func (s *memSource) Pin(p *resolve.Project, ref string) error {
	if s.failPin {
		return fmt.Errorf("pin refused for %s", p.Name)
	}
	s.pins = append(s.pins, fmt.Sprintf("%s@%s", filepath.Base(p.Dir), ref))
	s.revisions[p.Dir] = ref
	return nil
}

func (s *memSource) Revision(p *resolve.Project) (string, error) {
	if rev, ok := s.revisions[p.Dir]; ok {
		return rev, nil
	}
	return "", fmt.Errorf("no revision for %s", p.Dir)
}

type memFinder struct {
	projects map[string][]*resolve.Project
}

func (f *memFinder) Candidates(name string) ([]*resolve.Project, error) {
	return f.projects[name], nil
}

type memReader struct{}

func (memReader) Requires(p *resolve.Project) ([]vers.Requirement, error) {
	return p.Requires, nil
}

func testCtx(t *testing.T) *Ctx {
	t.Helper()
	discard := log.New(&bytes.Buffer{}, "", 0)
	return &Ctx{
		WorkingDir: t.TempDir(),
		Out:        discard,
		Err:        discard,
		Debug:      discard,
	}
}

func resolveInto(t *testing.T, finder *memFinder, src resolve.Source, root *resolve.Project) *resolve.Group {
	t.Helper()

	discard := log.New(&bytes.Buffer{}, "", 0)
	r := &resolve.Resolver{
		Finder: finder,
		Source: src,
		Reader: memReader{},
		Out:    discard,
		Debug:  discard,
	}
	g, ok := r.Resolve(root)
	require.True(t, ok)
	return g
}

func testGroup(t *testing.T, src resolve.Source, projects ...*resolve.Project) *resolve.Group {
	t.Helper()

	finder := &memFinder{projects: map[string][]*resolve.Project{}}
	root := &resolve.Project{Name: "root", Dist: resolve.DistLocal, Dir: t.TempDir()}
	for _, p := range projects {
		finder.projects[p.Name] = append(finder.projects[p.Name], p)
		root.Requires = append(root.Requires, vers.MustParseRequirement(p.Name, "*"))
	}
	return resolveInto(t, finder, src, root)
}

func gitProject(name, version, rev string, src *memSource) *resolve.Project {
	v := vers.MustParseVersion(version)
	p := &resolve.Project{
		Name:    name,
		Version: &v,
		Dist:    resolve.DistGit,
		Dir:     filepath.Join("/depot", name+"-"+version),
	}
	src.revisions[p.Dir] = rev
	return p
}

func Test_Lock_RoundTrip(t *testing.T) {
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	foo := gitProject("foo", "1.5.0", "aaaa1111", src)
	bar := gitProject("bar", "0.3.0", "bbbb2222", src)
	g := testGroup(t, src, foo, bar)

	require.NoError(t, ctx.Lock(g, src, "work"))

	room, err := ctx.ReadRoom("work")
	require.NoError(t, err)
	assert.Equal(t, "work", room.Name)
	require.Len(t, room.Pins, 2)

	// pins come back sorted by name
	assert.Equal(t, "bar", room.Pins[0].Name)
	assert.Equal(t, "bbbb2222", room.Pins[0].Reference)
	assert.Equal(t, "foo", room.Pins[1].Name)
	assert.Equal(t, "aaaa1111", room.Pins[1].Reference)
}

func Test_Lock_RoundTripMultiVersion(t *testing.T) {
	// two installed versions of one name under disjoint ranges; each pin
	// must address its own checkout, keyed by the captured requirement text
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	v1 := gitProject("shared", "1.9.0", "aaaa1111", src)
	v3 := gitProject("shared", "3.1.0", "cccc3333", src)

	finder := &memFinder{projects: map[string][]*resolve.Project{"shared": {v1, v3}}}
	root := &resolve.Project{
		Name: "root",
		Dist: resolve.DistLocal,
		Dir:  t.TempDir(),
		Requires: []vers.Requirement{
			vers.MustParseRequirement("shared", ">= 1.0, < 2.0"),
			vers.MustParseRequirement("shared", ">= 3.0"),
		},
	}
	g := resolveInto(t, finder, src, root)

	require.NoError(t, ctx.Lock(g, src, "ci"))

	// replaying immediately is a no-op for both checkouts
	require.NoError(t, ctx.Unlock(g, src, "ci"))
	assert.Empty(t, src.pins)
	assert.Equal(t, "aaaa1111", src.revisions[v1.Dir])
	assert.Equal(t, "cccc3333", src.revisions[v3.Dir])

	// only the checkout that moved is restored
	src.revisions[v3.Dir] = "ffff6666"
	require.NoError(t, ctx.Unlock(g, src, "ci"))
	assert.Equal(t, []string{"shared-3.1.0@cccc3333"}, src.pins)
	assert.Equal(t, "aaaa1111", src.revisions[v1.Dir])
}

func Test_Lock_EmptyNameRefused(t *testing.T) {
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	g := testGroup(t, src)

	err := ctx.Lock(g, src, "  ")
	require.Error(t, err)
	var lwe *LockWriteError
	assert.ErrorAs(t, err, &lwe)
}

func Test_Lock_OverwritesExistingRoom(t *testing.T) {
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	foo := gitProject("foo", "1.5.0", "aaaa1111", src)
	g := testGroup(t, src, foo)

	require.NoError(t, ctx.Lock(g, src, "work"))
	src.revisions[foo.Dir] = "cccc3333"
	require.NoError(t, ctx.Lock(g, src, "work"))

	room, err := ctx.ReadRoom("work")
	require.NoError(t, err)
	require.Len(t, room.Pins, 1)
	assert.Equal(t, "cccc3333", room.Pins[0].Reference)
}

func Test_Unlock_RestoresMovedCheckouts(t *testing.T) {
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	foo := gitProject("foo", "1.5.0", "aaaa1111", src)
	bar := gitProject("bar", "0.3.0", "bbbb2222", src)
	g := testGroup(t, src, foo, bar)

	require.NoError(t, ctx.Lock(g, src, "work"))

	// bar moved since the room was captured; foo did not
	src.revisions[bar.Dir] = "dddd4444"

	require.NoError(t, ctx.Unlock(g, src, "work"))
	assert.Equal(t, []string{"bar-0.3.0@bbbb2222"}, src.pins)
}

func Test_Unlock_NoopWhenNothingMoved(t *testing.T) {
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	foo := gitProject("foo", "1.5.0", "aaaa1111", src)
	g := testGroup(t, src, foo)

	require.NoError(t, ctx.Lock(g, src, "work"))
	require.NoError(t, ctx.Unlock(g, src, "work"))
	assert.Empty(t, src.pins)
}

func Test_Unlock_UnknownRoom(t *testing.T) {
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	g := testGroup(t, src)

	err := ctx.Unlock(g, src, "nowhere")
	require.Error(t, err)
	var lnf *LockNotFoundError
	assert.ErrorAs(t, err, &lnf)
}

func Test_Unlock_PartialFailureReported(t *testing.T) {
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	foo := gitProject("foo", "1.5.0", "aaaa1111", src)
	bar := gitProject("bar", "0.3.0", "bbbb2222", src)
	g := testGroup(t, src, foo, bar)

	require.NoError(t, ctx.Lock(g, src, "work"))

	src.revisions[foo.Dir] = "eeee5555"
	src.revisions[bar.Dir] = "ffff6666"
	src.failPin = true

	err := ctx.Unlock(g, src, "work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `2 of 2 entries in room "work" could not be restored`)
}

func Test_ListRooms(t *testing.T) {
	ctx := testCtx(t)
	src := &memSource{revisions: map[string]string{}}
	g := testGroup(t, src, gitProject("foo", "1.5.0", "aaaa1111", src))

	names, err := ctx.ListRooms()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, ctx.Lock(g, src, "work"))
	require.NoError(t, ctx.Lock(g, src, "airplane"))

	// a stray non-room file is ignored
	require.NoError(t, os.WriteFile(filepath.Join(ctx.RoomsDir(), "notes.txt"), []byte("x"), 0666))

	names, err = ctx.ListRooms()
	require.NoError(t, err)
	assert.Equal(t, []string{"airplane", "work"}, names)
}
