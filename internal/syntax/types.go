package syntax

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// Type is a type expression. The set of implementations is closed.
type Type interface {
	typeNode()
	CloneType() Type
}

// PathType is a named type with optional generic arguments on its last
// segment, e.g. std::sync::Arc<Configuration>.
type PathType struct {
	Path Path
	Args []Type
}

// RefType is &T or &mut T.
type RefType struct {
	Mut  bool
	Elem Type
}

// TupleType is (A, B); the unit type is a tuple with no elements.
type TupleType struct {
	Elems []Type
}

// SliceType is [T].
type SliceType struct {
	Elem Type
}

// RawType holds type syntax the model does not decompose. It carries no paths.
type RawType struct {
	Text string
}

func (*PathType) typeNode()  {}
func (*RefType) typeNode()   {}
func (*TupleType) typeNode() {}
func (*SliceType) typeNode() {}
func (*RawType) typeNode()   {}

func (t *PathType) CloneType() Type {
	return &PathType{Path: t.Path.clone(), Args: cloneTypes(t.Args)}
}

func (t *RefType) CloneType() Type { return &RefType{Mut: t.Mut, Elem: cloneType(t.Elem)} }

func (t *TupleType) CloneType() Type { return &TupleType{Elems: cloneTypes(t.Elems)} }

func (t *SliceType) CloneType() Type { return &SliceType{Elem: cloneType(t.Elem)} }

func (t *RawType) CloneType() Type { return &RawType{Text: t.Text} }

func cloneType(t Type) Type {
	if t == nil {
		return nil
	}
	return t.CloneType()
}

func cloneTypes(ts []Type) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = cloneType(t)
	}
	return out
}

// NamedType is a convenience constructor for a single-segment path type.
func NamedType(name Ident, args ...Type) *PathType {
	return &PathType{Path: PathOf(name), Args: args}
}

// Generic returns the single generic argument of t when t is a path type
// whose last segment is name, e.g. Generic(Option<T>, "Option") yields T.
func Generic(t Type, name Ident) (Type, bool) {
	pt, ok := t.(*PathType)
	if !ok || pt.Path.Last() != name || len(pt.Args) != 1 {
		return nil, false
	}
	return pt.Args[0], true
}

// ParseType parses the textual form of a type. Syntax outside the supported
// subset (trait objects, fn pointers, arrays with lengths, qualified paths)
// is kept verbatim as a RawType. Text with unbalanced brackets is an error.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty type")
	}
	if !balanced(s) {
		return nil, errors.Newf("unbalanced brackets in type %q", s)
	}
	toks, ok := tokenizeType(s)
	if !ok {
		return &RawType{Text: s}, nil
	}
	p := &typeParser{toks: toks}
	t, ok := p.parse()
	if !ok || p.pos != len(p.toks) {
		return &RawType{Text: s}, nil
	}
	return t, nil
}

// MustType is ParseType for literals known to be valid.
func MustType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// balanced reports whether <>, () and [] nest properly in s. The arrow of a
// fn pointer return type is not a closing angle bracket.
func balanced(s string) bool {
	var stack []rune
	closing := map[rune]rune{'>': '<', ')': '(', ']': '['}
	rs := []rune(s)
	for i, r := range rs {
		switch r {
		case '<', '(', '[':
			stack = append(stack, r)
		case '>', ')', ']':
			if r == '>' && i > 0 && rs[i-1] == '-' {
				continue
			}
			if len(stack) == 0 || stack[len(stack)-1] != closing[r] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

func tokenizeType(s string) ([]string, bool) {
	var toks []string
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ':':
			if i+1 >= len(rs) || rs[i+1] != ':' {
				return nil, false
			}
			toks = append(toks, "::")
			i += 2
		case strings.ContainsRune("<>,&()[]", r):
			toks = append(toks, string(r))
			i++
		case r == '\'' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			j := i + 1
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			toks = append(toks, string(rs[i:j]))
			i = j
		default:
			return nil, false
		}
	}
	return toks, true
}

type typeParser struct {
	toks []string
	pos  int
}

func (p *typeParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *typeParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *typeParser) accept(tok string) bool {
	if p.peek() == tok {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) parse() (Type, bool) {
	switch tok := p.peek(); {
	case tok == "&":
		p.next()
		if strings.HasPrefix(p.peek(), "'") {
			return nil, false
		}
		mut := p.accept("mut")
		elem, ok := p.parse()
		if !ok {
			return nil, false
		}
		return &RefType{Mut: mut, Elem: elem}, true
	case tok == "(":
		p.next()
		var elems []Type
		for !p.accept(")") {
			elem, ok := p.parse()
			if !ok {
				return nil, false
			}
			elems = append(elems, elem)
			if !p.accept(",") && p.peek() != ")" {
				return nil, false
			}
		}
		return &TupleType{Elems: elems}, true
	case tok == "[":
		p.next()
		elem, ok := p.parse()
		if !ok || !p.accept("]") {
			return nil, false
		}
		return &SliceType{Elem: elem}, true
	case tok == "dyn" || tok == "impl" || tok == "fn" || tok == "":
		return nil, false
	case isIdentToken(tok):
		return p.parsePath()
	}
	return nil, false
}

func (p *typeParser) parsePath() (Type, bool) {
	segs := []Ident{Ident(p.next())}
	for p.accept("::") {
		tok := p.next()
		if !isIdentToken(tok) {
			return nil, false
		}
		segs = append(segs, Ident(tok))
	}
	pt := &PathType{Path: Path{segs: segs}}
	if p.accept("<") {
		for !p.accept(">") {
			arg, ok := p.parse()
			if !ok {
				return nil, false
			}
			pt.Args = append(pt.Args, arg)
			if !p.accept(",") && p.peek() != ">" {
				return nil, false
			}
		}
		if p.peek() == "::" {
			return nil, false
		}
	}
	return pt, true
}

func isIdentToken(tok string) bool {
	if tok == "" || strings.HasPrefix(tok, "'") {
		return false
	}
	r := []rune(tok)[0]
	return r == '_' || unicode.IsLetter(r)
}
