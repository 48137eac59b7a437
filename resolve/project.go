// Package resolve builds and queries dependency groups: the resolved
// transitive requirement graph of one root project. It owns the Project
// model, the greedy work-list resolver and the upgrade engine. All on-disk
// and network work is delegated to the Finder and Source collaborators
// wired in by the caller.
package resolve

import (
	"path/filepath"
	"strings"

	"github.com/saem/nimph/vers"
)

// DistMethod says how a project arrived on disk and who maintains it.
type DistMethod int

const (
	// DistGit marks a clone nimph materialized and may roll between tags.
	DistGit DistMethod = iota
	// DistLocal marks a plain directory; never touched by upgrades.
	DistLocal
	// DistTool marks a package owned by the underlying package tool.
	DistTool
)

func (d DistMethod) String() string {
	switch d {
	case DistGit:
		return "git"
	case DistLocal:
		return "local"
	case DistTool:
		return "tool"
	}
	return "unknown"
}

// toolchainNames are packages that ship with the compiler installation and
// are never candidates for automatic upgrade.
var toolchainNames = map[string]bool{
	"nim":      true,
	"compiler": true,
	"nimble":   true,
}

// Project is one concrete package instance on disk.
type Project struct {
	Name string
	// Version is nil while undetermined, e.g. a fresh clone sitting on a
	// default branch before any roll.
	Version *vers.Version
	Dist    DistMethod
	// Dir is the absolute working-copy location; it doubles as the
	// project's identity during resolution.
	Dir string
	// Remote is the clone URL for git-backed projects.
	Remote string
	// Requires holds the declared requirements read from the manifest, in
	// declaration order.
	Requires []vers.Requirement
	// Tags caches the ordered release tags of a git-backed project.
	Tags []vers.Version
}

// IsToolchain reports whether the project is the compiler or another piece
// of the toolchain, which upgrades must leave alone.
func (p *Project) IsToolchain() bool {
	return toolchainNames[strings.ToLower(p.Name)]
}

// Satisfies reports whether the project's current version meets the
// requirement. Projects with an undetermined version satisfy only
// unbounded requirements.
func (p *Project) Satisfies(r vers.Requirement) bool {
	if p.Version == nil {
		return r.Any()
	}
	return r.Satisfied(*p.Version)
}

// RemoteName reports whether a requirement name addresses a remote-backed
// package, e.g. "github.com/foo/bar" or a full git URL, as opposed to a
// bare package name that can only be found locally.
func RemoteName(name string) bool {
	if strings.Contains(name, "://") || strings.HasPrefix(name, "git@") {
		return true
	}
	host, _, found := strings.Cut(name, "/")
	return found && strings.Contains(host, ".")
}

// CloneURL derives the URL to fetch for a remote-backed requirement name.
func CloneURL(name string) string {
	if strings.Contains(name, "://") || strings.HasPrefix(name, "git@") {
		return name
	}
	return "https://" + name
}

// PackageName reduces a requirement name to its bare package name: the last
// path element, minus a trailing ".git".
func PackageName(name string) string {
	base := filepath.Base(strings.TrimSuffix(name, "/"))
	return strings.TrimSuffix(base, ".git")
}
