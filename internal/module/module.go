// Package module holds the named declaration containers the pipeline stages
// operate on, the merge that consolidates partial modules, and the registry
// that owns every module for the duration of a run.
package module

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/syntax"
)

// ErrKindClash is returned when a struct and an enum share one identifier.
var ErrKindClash = errors.New("declaration kind clash")

// Pred selects declarations.
type Pred func(syntax.Decl) bool

// Module is a named, ordered collection of declarations plus top-level
// attributes. Declarations are only added through Push so the kind-specific
// insertion rules always hold.
type Module struct {
	Name   syntax.Ident
	Origin string // source file of a partial module; empty after merging many
	Attrs  []syntax.Attr
	decls  []syntax.Decl
}

func New(name syntax.Ident) *Module {
	return &Module{Name: name}
}

// Decls returns the declarations in order. The slice is a copy; the
// declarations are shared.
func (m *Module) Decls() []syntax.Decl {
	return slices.Clone(m.decls)
}

func (m *Module) Len() int { return len(m.decls) }

// Push inserts d according to its kind:
//   - imports are grouped at the top and deduplicated;
//   - a struct or enum whose name already exists hands its impl blocks to the
//     existing declaration instead of being added twice;
//   - an impl block attaches to its struct or enum, or waits as a top-level
//     item until that type is pushed;
//   - functions and opaque items are appended.
func (m *Module) Push(d syntax.Decl) error {
	switch d.Kind() {
	case syntax.KindImport:
		imp := d.(*syntax.Import)
		last := -1
		for i, x := range m.decls {
			if other, ok := x.(*syntax.Import); ok {
				if other.Equal(imp) {
					return nil
				}
				last = i
			}
		}
		m.decls = slices.Insert(m.decls, last+1, d)
	case syntax.KindStruct:
		s := d.(*syntax.Struct)
		if existing := m.typeDecl(s.Name); existing != nil {
			es, ok := existing.(*syntax.Struct)
			if !ok {
				return errors.Wrapf(ErrKindClash, "struct %s already declared as %s", s.Name, existing.Kind())
			}
			for _, impl := range s.Impls {
				es.Impls.Attach(impl)
			}
			return nil
		}
		m.decls = append(m.decls, s)
		m.adoptPending(s.Name, &s.Impls)
	case syntax.KindEnum:
		e := d.(*syntax.Enum)
		if existing := m.typeDecl(e.Name); existing != nil {
			ee, ok := existing.(*syntax.Enum)
			if !ok {
				return errors.Wrapf(ErrKindClash, "enum %s already declared as %s", e.Name, existing.Kind())
			}
			for _, impl := range e.Impls {
				ee.Impls.Attach(impl)
			}
			return nil
		}
		m.decls = append(m.decls, e)
		m.adoptPending(e.Name, &e.Impls)
	case syntax.KindImpl:
		impl := d.(*syntax.Impl)
		if set := m.implsOf(impl.Self); set != nil {
			set.Attach(impl)
			return nil
		}
		for _, x := range m.decls {
			if pending, ok := x.(*syntax.Impl); ok && pending.Self == impl.Self && pending.TraitKey() == impl.TraitKey() {
				var set syntax.ImplSet = []*syntax.Impl{pending}
				set.Attach(impl)
				return nil
			}
		}
		m.decls = append(m.decls, impl)
	case syntax.KindFunc, syntax.KindOpaque:
		m.decls = append(m.decls, d)
	default:
		panic(syntax.Unhandled("module.Push", d))
	}
	return nil
}

// PushAll pushes every declaration in order, stopping at the first error.
func (m *Module) PushAll(ds ...syntax.Decl) error {
	for _, d := range ds {
		if err := m.Push(d); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) typeDecl(name syntax.Ident) syntax.Decl {
	for _, d := range m.decls {
		switch d.Kind() {
		case syntax.KindStruct, syntax.KindEnum:
			if id, _ := d.Ident(); id == name {
				return d
			}
		}
	}
	return nil
}

func (m *Module) implsOf(name syntax.Ident) *syntax.ImplSet {
	switch d := m.typeDecl(name).(type) {
	case *syntax.Struct:
		return &d.Impls
	case *syntax.Enum:
		return &d.Impls
	}
	return nil
}

// adoptPending moves top-level impl blocks for name into set.
func (m *Module) adoptPending(name syntax.Ident, set *syntax.ImplSet) {
	m.decls = slices.DeleteFunc(m.decls, func(d syntax.Decl) bool {
		impl, ok := d.(*syntax.Impl)
		if !ok || impl.Self != name {
			return false
		}
		set.Attach(impl)
		return true
	})
}

// Find returns the first declaration matching pred, or nil.
func (m *Module) Find(pred Pred) syntax.Decl {
	for _, d := range m.decls {
		if pred(d) {
			return d
		}
	}
	return nil
}

// FindStruct returns the struct called name, or nil.
func (m *Module) FindStruct(name syntax.Ident) *syntax.Struct {
	s, _ := m.Find(And(OfKind(syntax.KindStruct), Named(name))).(*syntax.Struct)
	return s
}

// FindFunc returns the free function called name, or nil.
func (m *Module) FindFunc(name syntax.Ident) *syntax.Func {
	f, _ := m.Find(And(OfKind(syntax.KindFunc), Named(name))).(*syntax.Func)
	return f
}

// TakeBy removes every declaration matching pred and returns them in their
// relative order.
func (m *Module) TakeBy(pred Pred) []syntax.Decl {
	var taken []syntax.Decl
	m.decls = slices.DeleteFunc(m.decls, func(d syntax.Decl) bool {
		if pred(d) {
			taken = append(taken, d)
			return true
		}
		return false
	})
	return taken
}

// Remove deletes every declaration matching pred and reports how many.
func (m *Module) Remove(pred Pred) int {
	return len(m.TakeBy(pred))
}

// Funcs returns every function in the module, free functions and those in
// impl blocks, in declaration order.
func (m *Module) Funcs() []*syntax.Func {
	var out []*syntax.Func
	impls := func(set syntax.ImplSet) {
		for _, impl := range set {
			out = append(out, impl.Fns...)
		}
	}
	for _, d := range m.decls {
		switch d.Kind() {
		case syntax.KindStruct:
			impls(d.(*syntax.Struct).Impls)
		case syntax.KindEnum:
			impls(d.(*syntax.Enum).Impls)
		case syntax.KindImpl:
			impls(syntax.ImplSet{d.(*syntax.Impl)})
		case syntax.KindFunc:
			out = append(out, d.(*syntax.Func))
		case syntax.KindImport, syntax.KindOpaque:
		default:
			panic(syntax.Unhandled("module.Funcs", d))
		}
	}
	return out
}

// Clone returns a deep copy.
func (m *Module) Clone() *Module {
	out := &Module{Name: m.Name, Origin: m.Origin, Attrs: slices.Clone(m.Attrs)}
	out.decls = make([]syntax.Decl, len(m.decls))
	for i, d := range m.decls {
		out.decls[i] = d.CloneDecl()
	}
	return out
}

// fingerprint orders partial modules that share an origin.
func (m *Module) fingerprint() string {
	var sb strings.Builder
	for _, a := range m.Attrs {
		sb.WriteString(a.String())
		sb.WriteByte('\n')
	}
	for _, d := range m.decls {
		sb.WriteString(syntax.Fingerprint(d))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Named matches declarations whose identifier is name.
func Named(name syntax.Ident) Pred {
	return func(d syntax.Decl) bool {
		id, ok := d.Ident()
		return ok && id == name
	}
}

// OfKind matches declarations of kind k.
func OfKind(k syntax.Kind) Pred {
	return func(d syntax.Decl) bool { return d.Kind() == k }
}

// IdentHasSuffix matches declarations whose identifier ends with suffix.
// Impl blocks are never matched since their identifier names another item.
func IdentHasSuffix(suffix string) Pred {
	return func(d syntax.Decl) bool {
		if d.Kind() == syntax.KindImpl {
			return false
		}
		id, ok := d.Ident()
		return ok && strings.HasSuffix(string(id), suffix)
	}
}

// And matches when every pred matches.
func And(preds ...Pred) Pred {
	return func(d syntax.Decl) bool {
		for _, p := range preds {
			if !p(d) {
				return false
			}
		}
		return true
	}
}
