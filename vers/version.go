// Package vers implements the version and requirement model used across
// nimph: dotted release versions of arbitrary arity and AND-combined range
// clauses over them. Everything here is a pure function over immutable
// values; no I/O, no hidden state.
package vers

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A component is one dotted element of a version. Numeric components
// compare numerically; alphanumeric ones compare lexically and always sort
// after numeric components in the same position.
type component struct {
	num     uint64
	alpha   string
	numeric bool
}

// Version is an ordered tuple of components extracted from a tag or
// manifest string. A missing trailing component is equivalent to zero, so
// "1.2" and "1.2.0" are equal while "1.2" < "1.2.1".
type Version struct {
	comps []component
	raw   string
}

// ParseVersion parses a dotted version string. A leading "v" is tolerated,
// as are "-" and "_" separators inside tags like "1.2.0-rc1".
func ParseVersion(s string) (Version, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	if s == "" {
		return Version{}, errors.Errorf("empty version string %q", raw)
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
	if len(fields) == 0 {
		return Version{}, errors.Errorf("unparseable version string %q", raw)
	}

	v := Version{raw: raw}
	for _, f := range fields {
		if n, err := strconv.ParseUint(f, 10, 64); err == nil {
			v.comps = append(v.comps, component{num: n, numeric: true})
		} else {
			v.comps = append(v.comps, component{alpha: f})
		}
	}
	return v, nil
}

// MustParseVersion is ParseVersion for statically known inputs.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (c component) zero() bool {
	return c.numeric && c.num == 0
}

func compareComponent(a, b component) int {
	switch {
	case a.numeric && b.numeric:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case a.numeric:
		// numeric sorts before alphanumeric in the same position
		return -1
	case b.numeric:
		return 1
	}
	return strings.Compare(a.alpha, b.alpha)
}

// Compare returns -1, 0 or 1 as v orders before, equal to or after o.
// Missing trailing components are treated as zero.
func (v Version) Compare(o Version) int {
	n := len(v.comps)
	if len(o.comps) > n {
		n = len(o.comps)
	}
	for i := 0; i < n; i++ {
		a := component{numeric: true}
		b := component{numeric: true}
		if i < len(v.comps) {
			a = v.comps[i]
		}
		if i < len(o.comps) {
			b = o.comps[i]
		}
		if c := compareComponent(a, b); c != 0 {
			return c
		}
	}
	return 0
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Greater reports whether v orders strictly after o.
func (v Version) Greater(o Version) bool { return v.Compare(o) > 0 }

// Equal reports structural equality under Compare, so "1.2" equals "1.2.0".
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Zero reports whether v carries no components, the undetermined version.
func (v Version) Zero() bool { return len(v.comps) == 0 }

// String renders the canonical dotted form. Alphanumeric components are
// preserved verbatim.
func (v Version) String() string {
	if len(v.comps) == 0 {
		return ""
	}
	parts := make([]string, len(v.comps))
	for i, c := range v.comps {
		if c.numeric {
			parts[i] = strconv.FormatUint(c.num, 10)
		} else {
			parts[i] = c.alpha
		}
	}
	return strings.Join(parts, ".")
}

// MaxOf returns the maximum of the given versions under Compare, and false
// when the slice is empty.
func MaxOf(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	max := versions[0]
	for _, v := range versions[1:] {
		if v.Greater(max) {
			max = v
		}
	}
	return max, true
}
