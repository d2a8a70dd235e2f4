package syntax

// Rewriter is consulted once per type and expression node. The walk is
// post-order: children are rewritten before their parent is offered, and a
// replacement returned by the rewriter is not walked again. Returning false
// keeps the node as it is.
type Rewriter interface {
	RewriteType(t Type) (Type, bool)
	RewriteExpr(e Expr) (Expr, bool)
}

// RewriteFuncs adapts plain functions to a Rewriter. Nil members never match.
type RewriteFuncs struct {
	Type func(Type) (Type, bool)
	Expr func(Expr) (Expr, bool)
}

func (f RewriteFuncs) RewriteType(t Type) (Type, bool) {
	if f.Type == nil {
		return t, false
	}
	return f.Type(t)
}

func (f RewriteFuncs) RewriteExpr(e Expr) (Expr, bool) {
	if f.Expr == nil {
		return e, false
	}
	return f.Expr(e)
}

// walker counts replacements so callers can report what a pass did.
type walker struct {
	r Rewriter
	n int
}

// RewriteType walks t and returns the possibly replaced root with the number
// of replacements made.
func RewriteType(t Type, r Rewriter) (Type, int) {
	w := &walker{r: r}
	return w.typ(t), w.n
}

// RewriteExpr walks e and returns the possibly replaced root with the number
// of replacements made.
func RewriteExpr(e Expr, r Rewriter) (Expr, int) {
	w := &walker{r: r}
	return w.expr(e), w.n
}

// RewriteBlock rewrites every statement of b in place.
func RewriteBlock(b *Block, r Rewriter) int {
	w := &walker{r: r}
	w.block(b)
	return w.n
}

// RewriteSignature rewrites the parameter and return types of f in place.
func RewriteSignature(f *Func, r Rewriter) int {
	w := &walker{r: r}
	for i := range f.Params {
		f.Params[i].Type = w.typ(f.Params[i].Type)
	}
	f.Ret = w.typ(f.Ret)
	return w.n
}

func (w *walker) typ(t Type) Type {
	if t == nil {
		return nil
	}
	switch t := t.(type) {
	case *PathType:
		for i := range t.Args {
			t.Args[i] = w.typ(t.Args[i])
		}
	case *RefType:
		t.Elem = w.typ(t.Elem)
	case *TupleType:
		for i := range t.Elems {
			t.Elems[i] = w.typ(t.Elems[i])
		}
	case *SliceType:
		t.Elem = w.typ(t.Elem)
	case *RawType:
	default:
		panic("syntax: unhandled type node")
	}
	if out, ok := w.r.RewriteType(t); ok {
		w.n++
		return out
	}
	return t
}

func (w *walker) exprs(es []Expr) {
	for i := range es {
		es[i] = w.expr(es[i])
	}
}

func (w *walker) expr(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *PathExpr, *LitExpr, *RawExpr:
	case *FieldExpr:
		e.X = w.expr(e.X)
	case *CallExpr:
		e.Fun = w.expr(e.Fun)
		w.exprs(e.Args)
	case *MethodCallExpr:
		e.X = w.expr(e.X)
		w.exprs(e.Args)
	case *MacroExpr:
		w.exprs(e.Args)
	case *StructLitExpr:
		for i := range e.Fields {
			e.Fields[i].Value = w.expr(e.Fields[i].Value)
		}
		e.Base = w.expr(e.Base)
	case *RefExpr:
		e.X = w.expr(e.X)
	case *TryExpr:
		e.X = w.expr(e.X)
	case *LetCondExpr:
		e.X = w.expr(e.X)
	case *IfExpr:
		e.Cond = w.expr(e.Cond)
		w.block(e.Then)
		w.block(e.Else)
	case *BlockExpr:
		w.block(e.Block)
	default:
		panic("syntax: unhandled expression node")
	}
	if out, ok := w.r.RewriteExpr(e); ok {
		w.n++
		return out
	}
	return e
}

func (w *walker) block(b *Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *LetStmt:
			s.Type = w.typ(s.Type)
			s.Value = w.expr(s.Value)
		case *ExprStmt:
			s.X = w.expr(s.X)
		default:
			panic("syntax: unhandled statement node")
		}
	}
}
