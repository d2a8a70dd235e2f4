package loader

import (
	"slices"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/calumari/restitch/internal/syntax"
)

// rawExpr captures an expression mapping undecoded. Its keys depend on the
// expression kind, so decodeExpr checks them instead of the document decoder.
type rawExpr struct {
	n *yaml.Node
}

func (r *rawExpr) UnmarshalYAML(n *yaml.Node) error {
	r.n = n
	return nil
}

func (r *rawExpr) node() *yaml.Node {
	if r == nil {
		return nil
	}
	return r.n
}

type fieldExprDoc struct {
	Of   *rawExpr `yaml:"of"`
	Name string   `yaml:"name"`
}

type callDoc struct {
	Fn   *rawExpr  `yaml:"fn"`
	Args []rawExpr `yaml:"args"`
}

type methodDoc struct {
	Of   *rawExpr  `yaml:"of"`
	Name string    `yaml:"name"`
	Args []rawExpr `yaml:"args"`
}

type macroDoc struct {
	Name string    `yaml:"name"`
	Args []rawExpr `yaml:"args"`
}

type structLitDoc struct {
	Path   string          `yaml:"path"`
	Fields []fieldValueDoc `yaml:"fields"`
	Base   *rawExpr        `yaml:"base"`
}

type fieldValueDoc struct {
	Name  string   `yaml:"name"`
	Value *rawExpr `yaml:"value"`
}

type letCondDoc struct {
	Pat   string   `yaml:"pat"`
	Value *rawExpr `yaml:"value"`
}

type ifDoc struct {
	Cond *rawExpr  `yaml:"cond"`
	Then []stmtDoc `yaml:"then"`
	Else []stmtDoc `yaml:"else"`
}

// decodeExpr decodes a single-key mapping whose key names the expression
// kind.
func decodeExpr(n *yaml.Node) (syntax.Expr, error) {
	if n == nil {
		return nil, errors.Wrap(ErrMalformed, "missing expression")
	}
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return nil, errors.Wrapf(ErrMalformed, "line %d: expression must be a mapping with one key", n.Line)
	}
	key, v := n.Content[0].Value, n.Content[1]
	e, err := decodeExprKind(key, v)
	if err != nil {
		return nil, errors.Wrapf(err, "line %d: %s", n.Line, key)
	}
	return e, nil
}

func decodeExprKind(key string, v *yaml.Node) (syntax.Expr, error) {
	switch key {
	case "path":
		p, err := syntax.ParsePath(v.Value)
		if err != nil {
			return nil, malformed(err, "path")
		}
		return &syntax.PathExpr{Path: p}, nil
	case "lit":
		return &syntax.LitExpr{Text: v.Value}, nil
	case "raw":
		return &syntax.RawExpr{Text: v.Value}, nil
	case "field":
		var d fieldExprDoc
		if err := strictDecode(v, &d, "of", "name"); err != nil {
			return nil, err
		}
		x, err := decodeExpr(d.Of.node())
		if err != nil {
			return nil, err
		}
		return &syntax.FieldExpr{X: x, Name: syntax.Ident(d.Name)}, nil
	case "call":
		var d callDoc
		if err := strictDecode(v, &d, "fn", "args"); err != nil {
			return nil, err
		}
		fun, err := decodeExpr(d.Fn.node())
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(d.Args)
		if err != nil {
			return nil, err
		}
		return &syntax.CallExpr{Fun: fun, Args: args}, nil
	case "method":
		var d methodDoc
		if err := strictDecode(v, &d, "of", "name", "args"); err != nil {
			return nil, err
		}
		x, err := decodeExpr(d.Of.node())
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(d.Args)
		if err != nil {
			return nil, err
		}
		return &syntax.MethodCallExpr{X: x, Name: syntax.Ident(d.Name), Args: args}, nil
	case "macro":
		var d macroDoc
		if err := strictDecode(v, &d, "name", "args"); err != nil {
			return nil, err
		}
		p, err := syntax.ParsePath(d.Name)
		if err != nil {
			return nil, malformed(err, "macro name")
		}
		args, err := decodeExprs(d.Args)
		if err != nil {
			return nil, err
		}
		return &syntax.MacroExpr{Path: p, Args: args}, nil
	case "struct":
		var d structLitDoc
		if err := strictDecode(v, &d, "path", "fields", "base"); err != nil {
			return nil, err
		}
		p, err := syntax.ParsePath(d.Path)
		if err != nil {
			return nil, malformed(err, "struct path")
		}
		lit := &syntax.StructLitExpr{Path: p}
		for _, f := range d.Fields {
			fv := syntax.FieldValue{Name: syntax.Ident(f.Name)}
			if f.Value != nil {
				if fv.Value, err = decodeExpr(f.Value.node()); err != nil {
					return nil, err
				}
			}
			lit.Fields = append(lit.Fields, fv)
		}
		if d.Base != nil {
			if lit.Base, err = decodeExpr(d.Base.node()); err != nil {
				return nil, err
			}
		}
		return lit, nil
	case "ref", "refmut":
		x, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		return &syntax.RefExpr{Mut: key == "refmut", X: x}, nil
	case "try":
		x, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		return &syntax.TryExpr{X: x}, nil
	case "letcond":
		var d letCondDoc
		if err := strictDecode(v, &d, "pat", "value"); err != nil {
			return nil, err
		}
		x, err := decodeExpr(d.Value.node())
		if err != nil {
			return nil, err
		}
		return &syntax.LetCondExpr{Pat: d.Pat, X: x}, nil
	case "if":
		var d ifDoc
		if err := strictDecode(v, &d, "cond", "then", "else"); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(d.Cond.node())
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(d.Then)
		if err != nil {
			return nil, err
		}
		out := &syntax.IfExpr{Cond: cond, Then: then}
		if d.Else != nil {
			if out.Else, err = decodeBlock(d.Else); err != nil {
				return nil, err
			}
		}
		return out, nil
	case "block":
		var stmts []stmtDoc
		if err := v.Decode(&stmts); err != nil {
			return nil, malformed(err, "block")
		}
		b, err := decodeBlock(stmts)
		if err != nil {
			return nil, err
		}
		return &syntax.BlockExpr{Block: b}, nil
	}
	return nil, errors.Wrapf(ErrMalformed, "unknown expression kind %q", key)
}

func decodeExprs(ns []rawExpr) ([]syntax.Expr, error) {
	var out []syntax.Expr
	for i := range ns {
		e, err := decodeExpr(ns[i].node())
		if err != nil {
			return nil, errors.Wrapf(err, "args[%d]", i)
		}
		out = append(out, e)
	}
	return out, nil
}

// strictDecode decodes the mapping v into out after checking that it only
// uses the given keys. Node.Decode has no known-fields switch.
func strictDecode(v *yaml.Node, out any, keys ...string) error {
	if v.Kind != yaml.MappingNode {
		return errors.Wrapf(ErrMalformed, "line %d: expected a mapping", v.Line)
	}
	for i := 0; i < len(v.Content); i += 2 {
		if k := v.Content[i]; !slices.Contains(keys, k.Value) {
			return errors.Wrapf(ErrMalformed, "line %d: unknown key %q", k.Line, k.Value)
		}
	}
	if err := v.Decode(out); err != nil {
		return malformed(err, "")
	}
	return nil
}
