package nimph

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/saem/nimph/vers"
)

// ManifestName is the per-project manifest file.
const ManifestName = "nimph.toml"

// Manifest is a project's declared identity and requirements, in
// declaration order.
type Manifest struct {
	Name     string
	Version  *vers.Version
	Requires []vers.Requirement
}

type rawManifest struct {
	Package  rawPackage       `toml:"package"`
	Requires []rawRequirement `toml:"requires"`
}

type rawPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version,omitempty"`
}

type rawRequirement struct {
	Name    string `toml:"name"`
	Version string `toml:"version,omitempty"`
}

func readManifest(r io.Reader) (*Manifest, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "unable to read byte stream")
	}

	raw := rawManifest{}
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return nil, errors.Wrap(err, "unable to parse the manifest as TOML")
	}
	return fromRawManifest(raw)
}

func fromRawManifest(raw rawManifest) (*Manifest, error) {
	if raw.Package.Name == "" {
		return nil, errors.New("manifest names no package")
	}
	m := &Manifest{Name: raw.Package.Name}

	if raw.Package.Version != "" {
		v, err := vers.ParseVersion(raw.Package.Version)
		if err != nil {
			return nil, errors.Wrapf(err, "bad version for package %s", m.Name)
		}
		m.Version = &v
	}

	for _, req := range raw.Requires {
		if req.Name == "" {
			return nil, errors.Errorf("manifest of %s has a requirement without a name", m.Name)
		}
		r, err := vers.ParseRequirement(req.Name, req.Version)
		if err != nil {
			return nil, err
		}
		m.Requires = append(m.Requires, r)
	}
	return m, nil
}

// ReadManifest loads the manifest of the project at dir. A missing or
// unparseable manifest surfaces as a ConfigError; callers decide whether
// that is fatal (the root project) or merely a leaf without declared
// requirements.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	defer f.Close()

	m, err := readManifest(f)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return m, nil
}

// ManifestExists reports whether dir carries a manifest at all.
func ManifestExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestName))
	return err == nil
}
