package module

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/syntax"
)

// SourceFile is an ordered list of modules plus file-level attributes; it is
// the unit stages hand to each other and the unit emitted at the end.
type SourceFile struct {
	Name    string
	Attrs   []syntax.Attr
	Modules []*Module
}

// Module returns the module called name, or nil.
func (f *SourceFile) Module(name syntax.Ident) *Module {
	for _, m := range f.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Add appends m; module names stay unique within a file.
func (f *SourceFile) Add(m *Module) error {
	if f.Module(m.Name) != nil {
		return errors.Newf("%s: duplicate module %s", f.Name, m.Name)
	}
	f.Modules = append(f.Modules, m)
	return nil
}

// Sort orders modules by name for reproducible output.
func (f *SourceFile) Sort() {
	slices.SortFunc(f.Modules, func(a, b *Module) int { return cmp.Compare(a.Name, b.Name) })
}

// Decls counts declarations across all modules.
func (f *SourceFile) Decls() int {
	n := 0
	for _, m := range f.Modules {
		n += m.Len()
	}
	return n
}
