// Package rewrite keeps cross-references consistent when declarations move
// to a new enclosing scope: it drops imports that became self-references and
// strips path prefixes from signatures and function bodies.
package rewrite

import (
	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

// RemoveImports deletes every import whose target starts with prefix.
func RemoveImports(m *module.Module, prefix syntax.Path) int {
	return m.Remove(func(d syntax.Decl) bool {
		imp, ok := d.(*syntax.Import)
		return ok && imp.Path.HasPrefix(prefix)
	})
}

// stripper removes one leading prefix from every path-bearing type and
// expression node it is offered.
type stripper struct {
	prefix syntax.Path
}

func (s stripper) RewriteType(t syntax.Type) (syntax.Type, bool) {
	pt, ok := t.(*syntax.PathType)
	if !ok {
		return t, false
	}
	p, ok := pt.Path.StripPrefix(s.prefix)
	if !ok {
		return t, false
	}
	return &syntax.PathType{Path: p, Args: pt.Args}, true
}

func (s stripper) RewriteExpr(e syntax.Expr) (syntax.Expr, bool) {
	switch e := e.(type) {
	case *syntax.PathExpr:
		if p, ok := e.Path.StripPrefix(s.prefix); ok {
			return &syntax.PathExpr{Path: p}, true
		}
	case *syntax.StructLitExpr:
		if p, ok := e.Path.StripPrefix(s.prefix); ok {
			return &syntax.StructLitExpr{Path: p, Fields: e.Fields, Base: e.Base}, true
		}
	}
	return e, false
}

// StripDecls removes prefix from every path in field types, enum payload
// types and function signatures, including functions inside impl blocks. It
// returns the number of paths shortened.
func StripDecls(m *module.Module, prefix syntax.Path) int {
	s := stripper{prefix: prefix}
	n := 0
	fields := func(fs []syntax.Field) {
		for i := range fs {
			var k int
			fs[i].Type, k = syntax.RewriteType(fs[i].Type, s)
			n += k
		}
	}
	for _, d := range m.Decls() {
		switch d.Kind() {
		case syntax.KindStruct:
			fields(d.(*syntax.Struct).Fields)
		case syntax.KindEnum:
			for _, v := range d.(*syntax.Enum).Variants {
				for i := range v.Types {
					var k int
					v.Types[i], k = syntax.RewriteType(v.Types[i], s)
					n += k
				}
			}
		case syntax.KindFunc, syntax.KindImpl, syntax.KindImport, syntax.KindOpaque:
		default:
			panic(syntax.Unhandled("rewrite.StripDecls", d))
		}
	}
	for _, f := range m.Funcs() {
		n += syntax.RewriteSignature(f, s)
	}
	return n
}

// StripBodies removes prefix from every path in function bodies: path
// expressions, struct literal paths and let type annotations.
func StripBodies(m *module.Module, prefix syntax.Path) int {
	s := stripper{prefix: prefix}
	n := 0
	for _, f := range m.Funcs() {
		n += syntax.RewriteBlock(f.Body, s)
	}
	return n
}

// Plan is an ordered list of rewrites applied to every module of a file.
type Plan struct {
	DropImports   []syntax.Path
	StripPrefixes []syntax.Path
}

// Stats counts what a plan changed.
type Stats struct {
	Imports int
	Decls   int
	Bodies  int
}

// Apply runs the plan on m: imports first, then each prefix in order over
// signatures and bodies.
func (p Plan) Apply(m *module.Module) Stats {
	var st Stats
	for _, prefix := range p.DropImports {
		st.Imports += RemoveImports(m, prefix)
	}
	for _, prefix := range p.StripPrefixes {
		st.Decls += StripDecls(m, prefix)
		st.Bodies += StripBodies(m, prefix)
	}
	return st
}
