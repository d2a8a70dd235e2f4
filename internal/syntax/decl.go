package syntax

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind discriminates the declaration variants.
type Kind uint8

const (
	KindStruct Kind = iota
	KindEnum
	KindFunc
	KindImpl
	KindImport
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindFunc:
		return "fn"
	case KindImpl:
		return "impl"
	case KindImport:
		return "use"
	case KindOpaque:
		return "opaque"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Decl is one top-level declaration. Implementations are exactly *Struct,
// *Enum, *Func, *Impl, *Import and *Opaque; code switching on Kind must panic
// on anything else.
type Decl interface {
	Kind() Kind
	// Ident returns the lookup identifier. Imports and opaque items have none.
	Ident() (Ident, bool)
	CloneDecl() Decl
	declNode()
}

// Unhandled is the panic raised by exhaustive switches on Kind.
func Unhandled(where string, d Decl) string {
	return fmt.Sprintf("%s: unhandled declaration %T", where, d)
}

// Attr is an attribute such as #[serde(rename = "Id")]. Args holds everything
// after the attribute path verbatim.
type Attr struct {
	Path  Path
	Args  string
	Inner bool
}

// ParseAttr accepts both bare ("derive(Debug)") and bracketed
// ("#[derive(Debug)]", "#![allow(unused)]") forms.
func ParseAttr(s string) (Attr, error) {
	s = strings.TrimSpace(s)
	inner := false
	switch {
	case strings.HasPrefix(s, "#![") && strings.HasSuffix(s, "]"):
		inner = true
		s = s[3 : len(s)-1]
	case strings.HasPrefix(s, "#[") && strings.HasSuffix(s, "]"):
		s = s[2 : len(s)-1]
	}
	end := strings.IndexAny(s, "( =[")
	if end < 0 {
		end = len(s)
	}
	p, err := ParsePath(s[:end])
	if err != nil {
		return Attr{}, errors.Wrapf(err, "attribute %q", s)
	}
	return Attr{Path: p, Args: s[end:], Inner: inner}, nil
}

func (a Attr) String() string {
	if a.Inner {
		return "#![" + a.Path.String() + a.Args + "]"
	}
	return "#[" + a.Path.String() + a.Args + "]"
}

// Name is the last segment of the attribute path.
func (a Attr) Name() Ident { return a.Path.Last() }

func cloneAttrs(as []Attr) []Attr {
	if as == nil {
		return nil
	}
	out := make([]Attr, len(as))
	for i, a := range as {
		out[i] = Attr{Path: a.Path.clone(), Args: a.Args, Inner: a.Inner}
	}
	return out
}

// Field is a named struct field.
type Field struct {
	Name  Ident
	Type  Type
	Pub   bool
	Attrs []Attr
}

func (f Field) clone() Field {
	return Field{Name: f.Name, Type: cloneType(f.Type), Pub: f.Pub, Attrs: cloneAttrs(f.Attrs)}
}

// DropAttrs removes every attribute whose name is name and reports how many
// were removed.
func (f *Field) DropAttrs(name Ident) int {
	kept := f.Attrs[:0]
	n := 0
	for _, a := range f.Attrs {
		if a.Name() == name {
			n++
			continue
		}
		kept = append(kept, a)
	}
	f.Attrs = kept
	return n
}

// Struct is a record type with its associated impl blocks.
type Struct struct {
	Name   Ident
	Pub    bool
	Attrs  []Attr
	Fields []Field
	Impls  ImplSet
}

func (*Struct) Kind() Kind              { return KindStruct }
func (s *Struct) Ident() (Ident, bool) { return s.Name, true }
func (*Struct) declNode()               {}
func (s *Struct) CloneDecl() Decl       { return s.Clone() }

func (s *Struct) Clone() *Struct {
	out := &Struct{Name: s.Name, Pub: s.Pub, Attrs: cloneAttrs(s.Attrs), Impls: s.Impls.clone()}
	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		for i, f := range s.Fields {
			out.Fields[i] = f.clone()
		}
	}
	return out
}

// Field returns the field called name, or nil.
func (s *Struct) Field(name Ident) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// RemoveFields deletes every field whose name is in names.
func (s *Struct) RemoveFields(names map[Ident]bool) int {
	kept := s.Fields[:0]
	n := 0
	for _, f := range s.Fields {
		if names[f.Name] {
			n++
			continue
		}
		kept = append(kept, f)
	}
	s.Fields = kept
	return n
}

// Variant is an enum variant with optional tuple payload.
type Variant struct {
	Name  Ident
	Types []Type
	Attrs []Attr
}

// Enum is a sum type with its associated impl blocks.
type Enum struct {
	Name     Ident
	Pub      bool
	Attrs    []Attr
	Variants []Variant
	Impls    ImplSet
}

func (*Enum) Kind() Kind              { return KindEnum }
func (e *Enum) Ident() (Ident, bool) { return e.Name, true }
func (*Enum) declNode()               {}
func (e *Enum) CloneDecl() Decl       { return e.Clone() }

func (e *Enum) Clone() *Enum {
	out := &Enum{Name: e.Name, Pub: e.Pub, Attrs: cloneAttrs(e.Attrs), Impls: e.Impls.clone()}
	if e.Variants != nil {
		out.Variants = make([]Variant, len(e.Variants))
		for i, v := range e.Variants {
			out.Variants[i] = Variant{Name: v.Name, Types: cloneTypes(v.Types), Attrs: cloneAttrs(v.Attrs)}
		}
	}
	return out
}

// Receiver is the self parameter of a method.
type Receiver struct {
	Ref bool
	Mut bool
}

func (r Receiver) String() string {
	switch {
	case r.Ref && r.Mut:
		return "&mut self"
	case r.Ref:
		return "&self"
	case r.Mut:
		return "mut self"
	}
	return "self"
}

// Pattern is a parameter pattern. A simple pattern is a plain identifier,
// optionally `mut`; anything else is kept in Raw.
type Pattern struct {
	Name Ident
	Mut  bool
	Raw  string
}

func (p Pattern) Simple() bool { return p.Raw == "" && p.Name != "" }

func (p Pattern) String() string {
	if p.Raw != "" {
		return p.Raw
	}
	if p.Mut {
		return "mut " + string(p.Name)
	}
	return string(p.Name)
}

// Param is one function parameter.
type Param struct {
	Pat  Pattern
	Type Type
}

// Func is a function or method. Ret is nil for the unit return type.
type Func struct {
	Name   Ident
	Pub    bool
	Async  bool
	Attrs  []Attr
	Recv   *Receiver
	Params []Param
	Ret    Type
	Body   *Block
}

func (*Func) Kind() Kind              { return KindFunc }
func (f *Func) Ident() (Ident, bool) { return f.Name, true }
func (*Func) declNode()               {}
func (f *Func) CloneDecl() Decl       { return f.Clone() }

func (f *Func) Clone() *Func {
	out := &Func{Name: f.Name, Pub: f.Pub, Async: f.Async, Attrs: cloneAttrs(f.Attrs), Ret: cloneType(f.Ret), Body: f.Body.Clone()}
	if f.Recv != nil {
		r := *f.Recv
		out.Recv = &r
	}
	if f.Params != nil {
		out.Params = make([]Param, len(f.Params))
		for i, p := range f.Params {
			out.Params[i] = Param{Pat: p.Pat, Type: cloneType(p.Type)}
		}
	}
	return out
}

// Impl is an implementation block for the type named Self. Trait is nil for
// an inherent impl.
type Impl struct {
	Self  Ident
	Trait *Path
	Attrs []Attr
	Fns   []*Func
}

func (*Impl) Kind() Kind              { return KindImpl }
func (i *Impl) Ident() (Ident, bool) { return i.Self, true }
func (*Impl) declNode()               {}
func (i *Impl) CloneDecl() Decl       { return i.Clone() }

func (i *Impl) Clone() *Impl {
	out := &Impl{Self: i.Self, Attrs: cloneAttrs(i.Attrs)}
	if i.Trait != nil {
		t := i.Trait.clone()
		out.Trait = &t
	}
	if i.Fns != nil {
		out.Fns = make([]*Func, len(i.Fns))
		for k, f := range i.Fns {
			out.Fns[k] = f.Clone()
		}
	}
	return out
}

// TraitKey identifies the block among the impls of one type; "" for inherent.
func (i *Impl) TraitKey() string {
	if i.Trait == nil {
		return ""
	}
	return i.Trait.String()
}

// Fn returns the function called name, or nil.
func (i *Impl) Fn(name Ident) *Func {
	for _, f := range i.Fns {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// absorb appends the functions of o not already present by name.
func (i *Impl) absorb(o *Impl) {
	for _, f := range o.Fns {
		if i.Fn(f.Name) == nil {
			i.Fns = append(i.Fns, f)
		}
	}
}

// ImplSet is the ordered list of impl blocks attached to a struct or enum,
// at most one per trait-or-none.
type ImplSet []*Impl

// Find returns the block for trait (nil for the inherent block).
func (s ImplSet) Find(trait *Path) *Impl {
	key := ""
	if trait != nil {
		key = trait.String()
	}
	for _, i := range s {
		if i.TraitKey() == key {
			return i
		}
	}
	return nil
}

// Attach merges impl into the block with the same trait-or-none, or appends it.
func (s *ImplSet) Attach(impl *Impl) {
	if existing := s.Find(impl.Trait); existing != nil {
		existing.absorb(impl)
		return
	}
	*s = append(*s, impl)
}

func (s ImplSet) clone() ImplSet {
	if s == nil {
		return nil
	}
	out := make(ImplSet, len(s))
	for i, impl := range s {
		out[i] = impl.Clone()
	}
	return out
}

// Import is a use directive.
type Import struct {
	Path  Path
	Alias Ident
	Glob  bool
}

func (*Import) Kind() Kind           { return KindImport }
func (*Import) Ident() (Ident, bool) { return "", false }
func (*Import) declNode()            {}
func (i *Import) CloneDecl() Decl {
	return &Import{Path: i.Path.clone(), Alias: i.Alias, Glob: i.Glob}
}

func (i *Import) Equal(o *Import) bool {
	return i.Glob == o.Glob && i.Alias == o.Alias && i.Path.Equal(o.Path)
}

// Opaque is a declaration the engine never manipulates, kept verbatim.
type Opaque struct {
	Text string
}

func (*Opaque) Kind() Kind           { return KindOpaque }
func (*Opaque) Ident() (Ident, bool) { return "", false }
func (*Opaque) declNode()            {}
func (o *Opaque) CloneDecl() Decl    { return &Opaque{Text: o.Text} }
