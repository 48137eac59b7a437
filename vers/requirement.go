package vers

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Op is a relational operator appearing in one clause of a requirement.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

func (op Op) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	}
	return "??"
}

// Clause is one relational bound on a version.
type Clause struct {
	Op  Op
	Ver Version
}

func (c Clause) String() string {
	return c.Op.String() + " " + c.Ver.String()
}

func (c Clause) holds(v Version) bool {
	cmp := v.Compare(c.Ver)
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	}
	return false
}

// Requirement is a package name plus zero or more range clauses combined by
// logical AND. A requirement with no clauses is satisfied by any version.
type Requirement struct {
	Name    string
	Clauses []Clause
}

var opsByLength = []struct {
	tok string
	op  Op
}{
	{">=", OpGe},
	{"<=", OpLe},
	{"==", OpEq},
	{"!=", OpNe},
	{">", OpGt},
	{"<", OpLt},
	{"=", OpEq},
}

// ParseRequirement parses a requirement expression for the named package.
// Clauses are separated by "," or "&" and combined by AND; "*" or the empty
// string places no bound at all. A bare version is shorthand for equality.
func ParseRequirement(name, expr string) (Requirement, error) {
	r := Requirement{Name: name}
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "*" || expr == "any" {
		return r, nil
	}

	split := strings.FieldsFunc(expr, func(c rune) bool {
		return c == ',' || c == '&'
	})
	for _, part := range split {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		op := OpEq
		for _, cand := range opsByLength {
			if strings.HasPrefix(part, cand.tok) {
				op = cand.op
				part = strings.TrimSpace(part[len(cand.tok):])
				break
			}
		}
		ver, err := ParseVersion(part)
		if err != nil {
			return Requirement{}, errors.Wrapf(err, "bad clause in requirement %q for %s", expr, name)
		}
		r.Clauses = append(r.Clauses, Clause{Op: op, Ver: ver})
	}
	if len(r.Clauses) == 0 {
		return Requirement{}, errors.Errorf("unparseable requirement %q for %s", expr, name)
	}
	return r, nil
}

// MustParseRequirement is ParseRequirement for statically known inputs.
func MustParseRequirement(name, expr string) Requirement {
	r, err := ParseRequirement(name, expr)
	if err != nil {
		panic(err)
	}
	return r
}

// Satisfied reports whether every clause holds against v. Requirements
// without clauses hold for any version.
func (r Requirement) Satisfied(v Version) bool {
	for _, c := range r.Clauses {
		if !c.holds(v) {
			return false
		}
	}
	return true
}

// Any reports whether the requirement places no bound at all.
func (r Requirement) Any() bool { return len(r.Clauses) == 0 }

// String renders the clause list in declaration order, or "*" for an
// unbounded requirement. The output round-trips through ParseRequirement.
func (r Requirement) String() string {
	if len(r.Clauses) == 0 {
		return "*"
	}
	parts := make([]string, len(r.Clauses))
	for i, c := range r.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Identity is a normalized key for the requirement: the package name plus
// the clause set in a canonical order. Two requirements with equal Identity
// are interchangeable for resolution purposes.
func (r Requirement) Identity() string {
	if len(r.Clauses) == 0 {
		return r.Name + " *"
	}
	parts := make([]string, len(r.Clauses))
	for i, c := range r.Clauses {
		parts[i] = c.String()
	}
	sort.Strings(parts)
	return r.Name + " " + strings.Join(parts, ", ")
}

// CompatibleWith reports whether two requirements on the same package are
// provably interchangeable: identical normalized clause sets, or one side
// entirely unbounded. Weaker overlaps are deliberately not merged; the
// group keeps them as distinct dependencies.
func (r Requirement) CompatibleWith(o Requirement) bool {
	if r.Name != o.Name {
		return false
	}
	if r.Any() || o.Any() {
		return true
	}
	return r.Identity() == o.Identity()
}

// LatestSatisfying returns the maximum candidate under Compare for which
// the requirement holds, and false when no candidate qualifies.
func LatestSatisfying(candidates []Version, r Requirement) (Version, bool) {
	var best Version
	found := false
	for _, v := range candidates {
		if !r.Satisfied(v) {
			continue
		}
		if !found || v.Greater(best) {
			best = v
			found = true
		}
	}
	return best, found
}

// Ceiling returns the tightest upper bound implied by the requirement's
// "<" and "<=" clauses, and false when the requirement is unbounded above.
// It is used to recognize masked releases: tags that exist beyond the bound.
func (r Requirement) Ceiling() (Version, bool) {
	var ceil Version
	found := false
	for _, c := range r.Clauses {
		if c.Op != OpLt && c.Op != OpLe {
			continue
		}
		if !found || c.Ver.Less(ceil) {
			ceil = c.Ver
			found = true
		}
	}
	return ceil, found
}
