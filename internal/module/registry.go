package module

import (
	"cmp"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/syntax"
)

// ErrGroupCollision is returned when one module name is contributed by two
// input groups.
var ErrGroupCollision = errors.New("module name used by more than one input group")

// Registry owns every module of a run, keyed by name and tagged with the
// input group it came from. Stages receive the registry by pointer and run
// strictly one after another, so it needs no locking.
type Registry struct {
	group  map[syntax.Ident]string
	parts  map[syntax.Ident][]*Module
	merged map[syntax.Ident]*Module
}

func NewRegistry() *Registry {
	return &Registry{
		group:  make(map[syntax.Ident]string),
		parts:  make(map[syntax.Ident][]*Module),
		merged: make(map[syntax.Ident]*Module),
	}
}

// Add records a partial module for group.
func (r *Registry) Add(group string, m *Module) error {
	if g, ok := r.group[m.Name]; ok && g != group {
		return errors.WithHint(
			errors.Wrapf(ErrGroupCollision, "module %s (from %s) is in groups %s and %s", m.Name, m.Origin, g, group),
			"rename one of the input files or set an explicit module: key",
		)
	}
	r.group[m.Name] = group
	r.parts[m.Name] = append(r.parts[m.Name], m)
	return nil
}

// MergeAll merges the partials recorded under every name, one source file
// per group. Merged modules replace the partials; adding more partials
// afterwards and merging again folds them into the existing result.
func (r *Registry) MergeAll() error {
	byGroup := make(map[string][]*Module)
	for _, name := range r.sortedNames() {
		parts := r.parts[name]
		if len(parts) == 0 {
			continue
		}
		if prev, ok := r.merged[name]; ok {
			parts = append([]*Module{prev}, parts...)
		}
		g := r.group[name]
		byGroup[g] = append(byGroup[g], parts...)
	}
	for _, group := range slices.Sorted(maps.Keys(byGroup)) {
		f, err := MergeFile(group, byGroup[group])
		if err != nil {
			return err
		}
		for _, m := range f.Modules {
			r.merged[m.Name] = m
			delete(r.parts, m.Name)
		}
	}
	return nil
}

// Module returns the merged module called name.
func (r *Registry) Module(name syntax.Ident) (*Module, bool) {
	m, ok := r.merged[name]
	return m, ok
}

// Group returns the merged modules of group as a source file sorted by
// module name. The modules are the registry's own, not copies.
func (r *Registry) Group(group string) *SourceFile {
	f := &SourceFile{Name: group}
	for _, name := range r.sortedNames() {
		if r.group[name] != group {
			continue
		}
		if m, ok := r.merged[name]; ok {
			f.Modules = append(f.Modules, m)
		}
	}
	return f
}

// Put stores an already merged module under group, replacing any module of
// the same name in that group.
func (r *Registry) Put(group string, m *Module) error {
	if g, ok := r.group[m.Name]; ok && g != group {
		return errors.Wrapf(ErrGroupCollision, "module %s is in groups %s and %s", m.Name, g, group)
	}
	r.group[m.Name] = group
	r.merged[m.Name] = m
	return nil
}

// Len reports the number of merged modules.
func (r *Registry) Len() int { return len(r.merged) }

func (r *Registry) sortedNames() []syntax.Ident {
	names := make([]syntax.Ident, 0, len(r.group))
	for name := range r.group {
		names = append(names, name)
	}
	slices.SortFunc(names, cmp.Compare[syntax.Ident])
	return names
}
