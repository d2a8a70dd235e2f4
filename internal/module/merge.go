package module

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/syntax"
)

// ErrNameMismatch is returned when partial modules with different names are
// merged together.
var ErrNameMismatch = errors.New("partial modules do not share a name")

// Merge combines partial modules sharing one logical name into a fresh
// module. Parts are ordered by origin, then by content, so the result does
// not depend on the order they were supplied in. Attributes are concatenated
// and every declaration is cloned and pushed in order, which folds split impl
// blocks into their type and drops duplicate imports.
func Merge(parts ...*Module) (*Module, error) {
	if len(parts) == 0 {
		return nil, errors.New("merge: no modules")
	}
	name := parts[0].Name
	for _, p := range parts[1:] {
		if p.Name != name {
			return nil, errors.Wrapf(ErrNameMismatch, "merge: %s and %s", name, p.Name)
		}
	}

	ordered := sortParts(parts)
	out := New(name)
	if len(ordered) == 1 {
		out.Origin = ordered[0].Origin
	}
	for _, p := range ordered {
		out.Attrs = append(out.Attrs, p.Attrs...)
		for _, d := range p.decls {
			if err := out.Push(d.CloneDecl()); err != nil {
				return nil, errors.Wrapf(err, "merge %s (from %s)", name, p.Origin)
			}
		}
	}
	return out, nil
}

func sortParts(parts []*Module) []*Module {
	type keyed struct {
		m      *Module
		origin string
		print  string
	}
	ks := make([]keyed, len(parts))
	for i, p := range parts {
		ks[i] = keyed{m: p, origin: p.Origin, print: p.fingerprint()}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		if c := cmp.Compare(a.origin, b.origin); c != 0 {
			return c
		}
		return cmp.Compare(a.print, b.print)
	})
	out := make([]*Module, len(ks))
	for i, k := range ks {
		out[i] = k.m
	}
	return out
}

// MergeFile groups parts by module name, merges every group and returns the
// modules sorted by name.
func MergeFile(name string, parts []*Module) (*SourceFile, error) {
	groups := map[syntax.Ident][]*Module{}
	for _, p := range parts {
		groups[p.Name] = append(groups[p.Name], p)
	}
	f := &SourceFile{Name: name}
	for _, g := range groups {
		m, err := Merge(g...)
		if err != nil {
			return nil, err
		}
		if err := f.Add(m); err != nil {
			return nil, err
		}
	}
	f.Sort()
	return f, nil
}
