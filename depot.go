package nimph

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/saem/nimph/internal/git"
	"github.com/saem/nimph/resolve"
	"github.com/saem/nimph/vers"
)

// Depot locates installed packages across the known search roots and reads
// their manifests for the resolver. It implements resolve.Finder and
// resolve.Reader.
type Depot struct {
	// Roots are scanned in order: the project-local deps directory first,
	// then the shared depot, then any side-config extras.
	Roots []string
	// ToolRoots hold packages owned by the underlying package tool; their
	// projects come back DistTool and are never touched by upgrades.
	ToolRoots []string
	Exec      git.ExecutorInterface
	Debug     *log.Logger
}

// Candidates scans the roots for directories named after the package,
// either exactly or as <name>-<version>. Several installed versions of one
// name may come back at once.
func (d *Depot) Candidates(name string) ([]*resolve.Project, error) {
	var found []*resolve.Project
	for _, root := range d.Roots {
		found = append(found, d.scanRoot(root, name, false)...)
	}
	for _, root := range d.ToolRoots {
		found = append(found, d.scanRoot(root, name, true)...)
	}
	return found, nil
}

func (d *Depot) scanRoot(root, name string, tool bool) []*resolve.Project {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var found []*resolve.Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() != name && !versionedDirMatch(entry.Name(), name) {
			continue
		}
		p, err := d.ProjectFromDir(filepath.Join(root, entry.Name()), name)
		if err != nil {
			d.Debug.Printf("skipping unreadable candidate %s: %v", entry.Name(), err)
			continue
		}
		if tool {
			p.Dist = resolve.DistTool
		}
		found = append(found, p)
	}
	return found
}

// versionedDirMatch reports whether dir looks like <name>-<version>.
func versionedDirMatch(dir, name string) bool {
	if !strings.HasPrefix(dir, name+"-") {
		return false
	}
	_, err := vers.ParseVersion(dir[len(name)+1:])
	return err == nil
}

// ProjectFromDir builds the project model for one on-disk package
// instance. Identity comes from the manifest when present, from the
// directory layout otherwise.
func (d *Depot) ProjectFromDir(dir, fallbackName string) (*resolve.Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	p := &resolve.Project{
		Name: fallbackName,
		Dist: resolve.DistLocal,
		Dir:  abs,
	}

	if ManifestExists(abs) {
		m, err := ReadManifest(abs)
		if err != nil {
			return nil, err
		}
		p.Name = m.Name
		p.Version = m.Version
		p.Requires = m.Requires
	}
	if p.Name == "" {
		p.Name = resolve.PackageName(filepath.Base(abs))
	}
	if p.Version == nil {
		if v, ok := versionFromDir(filepath.Base(abs), p.Name); ok {
			p.Version = &v
		}
	}

	if _, err := os.Stat(filepath.Join(abs, ".git")); err == nil {
		p.Dist = resolve.DistGit
		p.Remote = d.originURL(abs)
	}
	return p, nil
}

// versionFromDir recovers the version a <name>-<version> directory encodes.
func versionFromDir(dir, name string) (vers.Version, bool) {
	if !strings.HasPrefix(dir, name+"-") {
		return vers.Version{}, false
	}
	v, err := vers.ParseVersion(dir[len(name)+1:])
	return v, err == nil
}

func (d *Depot) originURL(dir string) string {
	stdout, _, err := d.Exec.ExecCommand("git", 30*time.Second, false, nil,
		"-C", dir, "config", "--get", "remote.origin.url")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(stdout)
}

// Requires implements resolve.Reader. A package without a manifest simply
// declares nothing; only a present-but-broken manifest is an error.
func (d *Depot) Requires(p *resolve.Project) ([]vers.Requirement, error) {
	if len(p.Requires) > 0 || !ManifestExists(p.Dir) {
		return p.Requires, nil
	}
	m, err := ReadManifest(p.Dir)
	if err != nil {
		return nil, err
	}
	return m.Requires, nil
}
