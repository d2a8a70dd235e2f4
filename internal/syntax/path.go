package syntax

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Ident is a single name token. Identifiers compare by exact text.
type Ident string

func (i Ident) String() string { return string(i) }

// Path is a scoped reference such as a::b::c. A valid Path always has at
// least one segment; the zero value is only a placeholder and must not be
// used for matching.
type Path struct {
	segs []Ident
}

// PathOf builds a path from one or more identifiers.
func PathOf(first Ident, rest ...Ident) Path {
	segs := make([]Ident, 0, 1+len(rest))
	segs = append(segs, first)
	segs = append(segs, rest...)
	return Path{segs: segs}
}

// ParsePath parses a ::-separated path. Leading "::" is not supported.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, errors.New("empty path")
	}
	parts := strings.Split(s, "::")
	segs := make([]Ident, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Path{}, errors.Newf("path %q has an empty segment", s)
		}
		segs = append(segs, Ident(p))
	}
	return Path{segs: segs}, nil
}

// MustPath is ParsePath for literals known to be valid.
func MustPath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) Len() int { return len(p.segs) }

// Segments returns a copy of the path segments.
func (p Path) Segments() []Ident {
	out := make([]Ident, len(p.segs))
	copy(out, p.segs)
	return out
}

func (p Path) Last() Ident {
	if len(p.segs) == 0 {
		return ""
	}
	return p.segs[len(p.segs)-1]
}

// IsIdent reports whether the path is the single segment name.
func (p Path) IsIdent(name Ident) bool {
	return len(p.segs) == 1 && p.segs[0] == name
}

// HasPrefix reports whether prefix is a leading subsequence of p. Matching is
// per segment; "crate::mod" does not match "crate::models".
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segs) == 0 || len(prefix.segs) > len(p.segs) {
		return false
	}
	for i, s := range prefix.segs {
		if p.segs[i] != s {
			return false
		}
	}
	return true
}

// StripPrefix removes prefix from the front of p. A path that equals the
// prefix is returned unchanged with ok=false so the result is never empty.
func (p Path) StripPrefix(prefix Path) (Path, bool) {
	if !p.HasPrefix(prefix) || len(p.segs) == len(prefix.segs) {
		return p, false
	}
	return Path{segs: p.Segments()[len(prefix.segs):]}, true
}

// Join returns a new path with more appended.
func (p Path) Join(more ...Ident) Path {
	segs := make([]Ident, 0, len(p.segs)+len(more))
	segs = append(segs, p.segs...)
	segs = append(segs, more...)
	return Path{segs: segs}
}

func (p Path) Equal(o Path) bool {
	if len(p.segs) != len(o.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != o.segs[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	var sb strings.Builder
	for i, s := range p.segs {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(string(s))
	}
	return sb.String()
}

func (p Path) clone() Path {
	if p.segs == nil {
		return p
	}
	return Path{segs: p.Segments()}
}
