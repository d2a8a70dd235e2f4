package syntax

import (
	"strings"
)

const indentUnit = "    "

// TypeString renders t; nil renders as the unit type.
func TypeString(t Type) string {
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

func writeType(sb *strings.Builder, t Type) {
	switch t := t.(type) {
	case nil:
		sb.WriteString("()")
	case *PathType:
		sb.WriteString(t.Path.String())
		if len(t.Args) > 0 {
			sb.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeType(sb, a)
			}
			sb.WriteByte('>')
		}
	case *RefType:
		sb.WriteByte('&')
		if t.Mut {
			sb.WriteString("mut ")
		}
		writeType(sb, t.Elem)
	case *TupleType:
		sb.WriteByte('(')
		for i, e := range t.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeType(sb, e)
		}
		if len(t.Elems) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case *SliceType:
		sb.WriteByte('[')
		writeType(sb, t.Elem)
		sb.WriteByte(']')
	case *RawType:
		sb.WriteString(t.Text)
	default:
		panic("syntax: unhandled type node")
	}
}

// printer renders expressions and blocks with a fixed indentation unit. It
// is not a formatter: output is stable, not pretty.
type printer struct {
	sb    strings.Builder
	depth int
}

// ExprString renders e at indentation depth 0.
func ExprString(e Expr) string {
	p := &printer{}
	p.expr(e)
	return p.sb.String()
}

// BlockString renders the statements of b, one per line, each prefixed with
// depth indentation units. The braces are not included.
func BlockString(b *Block, depth int) string {
	p := &printer{depth: depth}
	p.stmts(b)
	return p.sb.String()
}

// SignatureString renders `pub fn name(self, a: A) -> R` without the body.
func SignatureString(f *Func) string {
	var sb strings.Builder
	if f.Pub {
		sb.WriteString("pub ")
	}
	if f.Async {
		sb.WriteString("async ")
	}
	sb.WriteString("fn ")
	sb.WriteString(string(f.Name))
	sb.WriteByte('(')
	n := 0
	if f.Recv != nil {
		sb.WriteString(f.Recv.String())
		n++
	}
	for _, p := range f.Params {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Pat.String())
		sb.WriteString(": ")
		writeType(&sb, p.Type)
		n++
	}
	sb.WriteByte(')')
	if f.Ret != nil {
		sb.WriteString(" -> ")
		writeType(&sb, f.Ret)
	}
	return sb.String()
}

func (p *printer) indent() {
	for range p.depth {
		p.sb.WriteString(indentUnit)
	}
}

func (p *printer) stmts(b *Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		p.indent()
		switch s := s.(type) {
		case *LetStmt:
			p.sb.WriteString("let ")
			p.sb.WriteString(s.Pat)
			if s.Type != nil {
				p.sb.WriteString(": ")
				writeType(&p.sb, s.Type)
			}
			if s.Value != nil {
				p.sb.WriteString(" = ")
				p.expr(s.Value)
			}
			p.sb.WriteByte(';')
		case *ExprStmt:
			p.expr(s.X)
			if s.Semi {
				p.sb.WriteByte(';')
			}
		default:
			panic("syntax: unhandled statement node")
		}
		p.sb.WriteByte('\n')
	}
}

func (p *printer) list(es []Expr) {
	for i, e := range es {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.expr(e)
	}
}

func (p *printer) braced(b *Block) {
	p.sb.WriteString("{\n")
	p.depth++
	p.stmts(b)
	p.depth--
	p.indent()
	p.sb.WriteByte('}')
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case *PathExpr:
		p.sb.WriteString(e.Path.String())
	case *LitExpr:
		p.sb.WriteString(e.Text)
	case *RawExpr:
		p.sb.WriteString(e.Text)
	case *FieldExpr:
		p.expr(e.X)
		p.sb.WriteByte('.')
		p.sb.WriteString(string(e.Name))
	case *CallExpr:
		p.expr(e.Fun)
		p.sb.WriteByte('(')
		p.list(e.Args)
		p.sb.WriteByte(')')
	case *MethodCallExpr:
		p.expr(e.X)
		p.sb.WriteByte('.')
		p.sb.WriteString(string(e.Name))
		p.sb.WriteByte('(')
		p.list(e.Args)
		p.sb.WriteByte(')')
	case *MacroExpr:
		p.sb.WriteString(e.Path.String())
		p.sb.WriteString("!(")
		p.list(e.Args)
		p.sb.WriteByte(')')
	case *StructLitExpr:
		p.sb.WriteString(e.Path.String())
		p.sb.WriteString(" {")
		for i, f := range e.Fields {
			if i > 0 {
				p.sb.WriteByte(',')
			}
			p.sb.WriteByte(' ')
			p.sb.WriteString(string(f.Name))
			if f.Value != nil {
				p.sb.WriteString(": ")
				p.expr(f.Value)
			}
		}
		if e.Base != nil {
			if len(e.Fields) > 0 {
				p.sb.WriteByte(',')
			}
			p.sb.WriteString(" ..")
			p.expr(e.Base)
		}
		p.sb.WriteString(" }")
	case *RefExpr:
		p.sb.WriteByte('&')
		if e.Mut {
			p.sb.WriteString("mut ")
		}
		p.expr(e.X)
	case *TryExpr:
		p.expr(e.X)
		p.sb.WriteByte('?')
	case *LetCondExpr:
		p.sb.WriteString("let ")
		p.sb.WriteString(e.Pat)
		p.sb.WriteString(" = ")
		p.expr(e.X)
	case *IfExpr:
		p.sb.WriteString("if ")
		p.expr(e.Cond)
		p.sb.WriteByte(' ')
		p.braced(e.Then)
		if e.Else != nil {
			p.sb.WriteString(" else ")
			p.braced(e.Else)
		}
	case *BlockExpr:
		p.braced(e.Block)
	default:
		panic("syntax: unhandled expression node")
	}
}

// Fingerprint is a compact, deterministic rendering of d used to order
// otherwise indistinguishable inputs. It is not valid source text.
func Fingerprint(d Decl) string {
	var sb strings.Builder
	sb.WriteString(d.Kind().String())
	sb.WriteByte(' ')
	switch d.Kind() {
	case KindStruct:
		s := d.(*Struct)
		sb.WriteString(string(s.Name))
		for _, f := range s.Fields {
			sb.WriteString(" " + string(f.Name) + ":" + TypeString(f.Type))
		}
		writeImplFingerprints(&sb, s.Impls)
	case KindEnum:
		e := d.(*Enum)
		sb.WriteString(string(e.Name))
		for _, v := range e.Variants {
			sb.WriteString(" " + string(v.Name))
		}
		writeImplFingerprints(&sb, e.Impls)
	case KindFunc:
		f := d.(*Func)
		sb.WriteString(SignatureString(f))
		sb.WriteString(BlockString(f.Body, 0))
	case KindImpl:
		writeImplFingerprints(&sb, ImplSet{d.(*Impl)})
	case KindImport:
		i := d.(*Import)
		sb.WriteString(i.Path.String())
		if i.Glob {
			sb.WriteString("::*")
		}
		if i.Alias != "" {
			sb.WriteString(" as " + string(i.Alias))
		}
	case KindOpaque:
		sb.WriteString(d.(*Opaque).Text)
	default:
		panic(Unhandled("syntax.Fingerprint", d))
	}
	return sb.String()
}

func writeImplFingerprints(sb *strings.Builder, impls ImplSet) {
	for _, impl := range impls {
		sb.WriteString(" impl " + impl.TraitKey() + " for " + string(impl.Self))
		for _, f := range impl.Fns {
			sb.WriteString(" " + SignatureString(f))
		}
	}
}
