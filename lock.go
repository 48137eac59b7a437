package nimph

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/saem/nimph/internal/fs"
	"github.com/saem/nimph/resolve"
)

// A Room is a named, persisted snapshot of a resolved dependency group:
// for every dependency the exact reference it sat on and the requirement
// text that produced it. Several rooms coexist per project; re-locking
// under an existing name overwrites it in place.
type Room struct {
	Name string
	Pins []Pin
}

// Pin is one dependency's entry in a room. Reference is a commit hash for
// git-backed projects and the version string otherwise.
type Pin struct {
	Name        string
	Reference   string
	Requirement string
}

type rawRoom struct {
	Pins []rawPin `toml:"dependency"`
}

type rawPin struct {
	Name        string `toml:"name"`
	Reference   string `toml:"reference"`
	Requirement string `toml:"requirement"`
}

func (r *Room) toRaw() rawRoom {
	raw := rawRoom{Pins: make([]rawPin, len(r.Pins))}

	sort.Slice(r.Pins, func(i, j int) bool {
		return r.Pins[i].Name < r.Pins[j].Name
	})
	for i, p := range r.Pins {
		raw.Pins[i] = rawPin{Name: p.Name, Reference: p.Reference, Requirement: p.Requirement}
	}
	return raw
}

func fromRawRoom(name string, raw rawRoom) (*Room, error) {
	r := &Room{Name: name, Pins: make([]Pin, len(raw.Pins))}
	for i, p := range raw.Pins {
		if p.Name == "" || p.Reference == "" {
			return nil, errors.Errorf("room %q has an entry without name or reference", name)
		}
		r.Pins[i] = Pin{Name: p.Name, Reference: p.Reference, Requirement: p.Requirement}
	}
	return r, nil
}

// MarshalTOML serializes the room via its raw form, one pin per block.
func (r *Room) MarshalTOML() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf).ArraysWithOneElementPerLine(true)
	err := enc.Encode(r.toRaw())
	return buf.Bytes(), errors.Wrap(err, "unable to marshal room to TOML")
}

func (c *Ctx) roomPath(name string) string {
	return filepath.Join(c.RoomsDir(), name+".toml")
}

// Lock captures the exact state of a resolved group under the given room
// name. The name must be non-empty; an existing room of that name is
// overwritten.
func (c *Ctx) Lock(g *resolve.Group, src resolve.Source, name string) error {
	if strings.TrimSpace(name) == "" {
		return &LockWriteError{Name: name, Err: errors.New("room name must not be empty")}
	}

	room := &Room{Name: name}
	for _, d := range g.Deps() {
		p, ok := d.Best()
		if !ok {
			continue
		}
		ref, err := c.referenceFor(p, src)
		if err != nil {
			return &LockWriteError{Name: name, Err: err}
		}
		room.Pins = append(room.Pins, Pin{
			Name:        p.Name,
			Reference:   ref,
			Requirement: d.Req.String(),
		})
	}

	data, err := room.MarshalTOML()
	if err != nil {
		return &LockWriteError{Name: name, Err: err}
	}
	if err := fs.EnsureDir(c.RoomsDir(), 0777); err != nil {
		return &LockWriteError{Name: name, Err: err}
	}
	if err := os.WriteFile(c.roomPath(name), data, 0666); err != nil {
		return &LockWriteError{Name: name, Err: err}
	}
	c.Out.Printf("locked %d dependencies into room %q", len(room.Pins), name)
	return nil
}

func (c *Ctx) referenceFor(p *resolve.Project, src resolve.Source) (string, error) {
	if p.Dist == resolve.DistGit {
		return src.Revision(p)
	}
	if p.Version != nil {
		return p.Version.String(), nil
	}
	return "", errors.Errorf("%s has neither a revision nor a version to pin", p.Name)
}

// ReadRoom loads a persisted room by name.
func (c *Ctx) ReadRoom(name string) (*Room, error) {
	data, err := os.ReadFile(c.roomPath(name))
	if os.IsNotExist(err) {
		return nil, &LockNotFoundError{Name: name}
	} else if err != nil {
		return nil, err
	}

	raw := rawRoom{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "unable to parse room %q as TOML", name)
	}
	return fromRawRoom(name, raw)
}

// Unlock replays the named room onto the resolved group, forcing every
// pinned project back to its captured reference. A failed entry does not
// stop the others; the aggregate is reported after the walk.
func (c *Ctx) Unlock(g *resolve.Group, src resolve.Source, name string) error {
	room, err := c.ReadRoom(name)
	if err != nil {
		return err
	}

	failed := 0
	for _, pin := range room.Pins {
		p, ok := projectForPin(g, pin)
		if !ok {
			c.Err.Printf("%v", &resolve.UnknownNameError{Name: pin.Name})
			failed++
			continue
		}
		if err := c.restorePin(p, src, pin); err != nil {
			c.Err.Printf("unable to restore %s to %s: %v", pin.Name, pin.Reference, err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d entries in room %q could not be restored", failed, len(room.Pins), name)
	}
	c.Out.Printf("restored %d dependencies from room %q", len(room.Pins), name)
	return nil
}

// projectForPin finds the project a pin addresses. The captured requirement
// text disambiguates between entries when several installed versions of one
// name coexist in the group; a pin without a matching entry falls back to
// the plain name lookup.
func projectForPin(g *resolve.Group, pin Pin) (*resolve.Project, bool) {
	for _, d := range g.Deps() {
		if d.Req.String() != pin.Requirement {
			continue
		}
		if p, ok := d.Best(); ok && p.Name == pin.Name {
			return p, true
		}
	}
	return g.ProjectForName(pin.Name)
}

func (c *Ctx) restorePin(p *resolve.Project, src resolve.Source, pin Pin) error {
	if p.Dist != resolve.DistGit {
		if p.Version != nil && p.Version.String() == pin.Reference {
			return nil
		}
		return errors.Errorf("%s is %s-distributed and not at pinned %s", p.Name, p.Dist, pin.Reference)
	}

	current, err := src.Revision(p)
	if err != nil {
		return err
	}
	if current == pin.Reference {
		return nil
	}
	return src.Pin(p, pin.Reference)
}

// ListRooms enumerates the persisted room names, sorted for reproducible
// output.
func (c *Ctx) ListRooms() ([]string, error) {
	entries, err := os.ReadDir(c.RoomsDir())
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".toml"))
	}
	sort.Strings(names)
	return names, nil
}
