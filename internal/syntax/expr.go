package syntax

// Expr is an expression node inside a function body. The set of
// implementations is closed.
type Expr interface {
	exprNode()
	CloneExpr() Expr
}

// PathExpr references a local, a constant or an item: x, Self, models::Foo::new.
type PathExpr struct {
	Path Path
}

// LitExpr is a literal kept as written: "text", 42, None-like tokens are paths.
type LitExpr struct {
	Text string
}

// FieldExpr is X.Name.
type FieldExpr struct {
	X    Expr
	Name Ident
}

// CallExpr is Fun(Args...).
type CallExpr struct {
	Fun  Expr
	Args []Expr
}

// MethodCallExpr is X.Name(Args...).
type MethodCallExpr struct {
	X    Expr
	Name Ident
	Args []Expr
}

// MacroExpr is Path!(Args...). Only comma-separated expression arguments are
// modelled.
type MacroExpr struct {
	Path Path
	Args []Expr
}

// FieldValue is one entry of an aggregate construction. A nil Value is the
// shorthand form `name`.
type FieldValue struct {
	Name  Ident
	Value Expr
}

// StructLitExpr is Path { a: x, b, ..Base }.
type StructLitExpr struct {
	Path   Path
	Fields []FieldValue
	Base   Expr
}

// RefExpr is &X or &mut X.
type RefExpr struct {
	Mut bool
	X   Expr
}

// TryExpr is X?.
type TryExpr struct {
	X Expr
}

// LetCondExpr is the `let PAT = X` head of an if-let.
type LetCondExpr struct {
	Pat string
	X   Expr
}

// IfExpr is if Cond { Then } else { Else }.
type IfExpr struct {
	Cond Expr
	Then *Block
	Else *Block
}

// BlockExpr is a nested block used as an expression.
type BlockExpr struct {
	Block *Block
}

// RawExpr is expression text the model does not decompose.
type RawExpr struct {
	Text string
}

func (*PathExpr) exprNode()       {}
func (*LitExpr) exprNode()        {}
func (*FieldExpr) exprNode()      {}
func (*CallExpr) exprNode()       {}
func (*MethodCallExpr) exprNode() {}
func (*MacroExpr) exprNode()      {}
func (*StructLitExpr) exprNode()  {}
func (*RefExpr) exprNode()        {}
func (*TryExpr) exprNode()        {}
func (*LetCondExpr) exprNode()    {}
func (*IfExpr) exprNode()         {}
func (*BlockExpr) exprNode()      {}
func (*RawExpr) exprNode()        {}

func (e *PathExpr) CloneExpr() Expr { return &PathExpr{Path: e.Path.clone()} }
func (e *LitExpr) CloneExpr() Expr  { return &LitExpr{Text: e.Text} }
func (e *FieldExpr) CloneExpr() Expr {
	return &FieldExpr{X: cloneExpr(e.X), Name: e.Name}
}
func (e *CallExpr) CloneExpr() Expr {
	return &CallExpr{Fun: cloneExpr(e.Fun), Args: cloneExprs(e.Args)}
}
func (e *MethodCallExpr) CloneExpr() Expr {
	return &MethodCallExpr{X: cloneExpr(e.X), Name: e.Name, Args: cloneExprs(e.Args)}
}
func (e *MacroExpr) CloneExpr() Expr {
	return &MacroExpr{Path: e.Path.clone(), Args: cloneExprs(e.Args)}
}
func (e *StructLitExpr) CloneExpr() Expr {
	out := &StructLitExpr{Path: e.Path.clone(), Base: cloneExpr(e.Base)}
	if e.Fields != nil {
		out.Fields = make([]FieldValue, len(e.Fields))
		for i, f := range e.Fields {
			out.Fields[i] = FieldValue{Name: f.Name, Value: cloneExpr(f.Value)}
		}
	}
	return out
}
func (e *RefExpr) CloneExpr() Expr     { return &RefExpr{Mut: e.Mut, X: cloneExpr(e.X)} }
func (e *TryExpr) CloneExpr() Expr     { return &TryExpr{X: cloneExpr(e.X)} }
func (e *LetCondExpr) CloneExpr() Expr { return &LetCondExpr{Pat: e.Pat, X: cloneExpr(e.X)} }
func (e *IfExpr) CloneExpr() Expr {
	return &IfExpr{Cond: cloneExpr(e.Cond), Then: e.Then.Clone(), Else: e.Else.Clone()}
}
func (e *BlockExpr) CloneExpr() Expr { return &BlockExpr{Block: e.Block.Clone()} }
func (e *RawExpr) CloneExpr() Expr   { return &RawExpr{Text: e.Text} }

func cloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	return e.CloneExpr()
}

func cloneExprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = cloneExpr(e)
	}
	return out
}

// Stmt is one statement of a Block.
type Stmt interface {
	stmtNode()
	CloneStmt() Stmt
}

// LetStmt is `let Pat: Type = Value;`. Type and Value are optional.
type LetStmt struct {
	Pat   string
	Type  Type
	Value Expr
}

// ExprStmt is an expression statement; Semi is false for a tail expression.
type ExprStmt struct {
	X    Expr
	Semi bool
}

func (*LetStmt) stmtNode()  {}
func (*ExprStmt) stmtNode() {}

func (s *LetStmt) CloneStmt() Stmt {
	return &LetStmt{Pat: s.Pat, Type: cloneType(s.Type), Value: cloneExpr(s.Value)}
}

func (s *ExprStmt) CloneStmt() Stmt { return &ExprStmt{X: cloneExpr(s.X), Semi: s.Semi} }

// Block is an ordered statement list.
type Block struct {
	Stmts []Stmt
}

func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	out := &Block{}
	if b.Stmts != nil {
		out.Stmts = make([]Stmt, len(b.Stmts))
		for i, s := range b.Stmts {
			out.Stmts[i] = s.CloneStmt()
		}
	}
	return out
}

// Tail returns a block whose only statement is the tail expression e.
func Tail(e Expr) *Block {
	return &Block{Stmts: []Stmt{&ExprStmt{X: e}}}
}
