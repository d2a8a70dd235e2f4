package loader

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

var (
	// ErrUnsupported is returned for declarations the model cannot represent,
	// such as nested modules.
	ErrUnsupported = errors.New("unsupported declaration")
	// ErrMalformed is returned for documents that do not follow the dump
	// schema.
	ErrMalformed = errors.New("malformed declaration dump")
)

// malformed returns an error whose cause chain ends in ErrMalformed. The
// original error is kept as secondary detail for %+v.
func malformed(err error, what string) error {
	msg := err.Error()
	if what != "" {
		msg = what + ": " + msg
	}
	return errors.WithSecondaryError(errors.Wrap(ErrMalformed, msg), err)
}

type fileDoc struct {
	Module string    `yaml:"module"`
	Attrs  []string  `yaml:"attrs"`
	Decls  []declDoc `yaml:"decls"`
}

// declDoc carries every key any declaration kind may use; exactly one of the
// kind keys must be set.
type declDoc struct {
	Use    string `yaml:"use"`
	Struct string `yaml:"struct"`
	Enum   string `yaml:"enum"`
	Impl   string `yaml:"impl"`
	Fn     string `yaml:"fn"`
	Opaque string `yaml:"opaque"`
	Mod    string `yaml:"mod"`

	Pub   bool     `yaml:"pub"`
	Attrs []string `yaml:"attrs"`

	Alias string `yaml:"alias"`
	Glob  bool   `yaml:"glob"`

	Fields   []fieldDoc   `yaml:"fields"`
	Variants []variantDoc `yaml:"variants"`

	Trait string    `yaml:"trait"`
	Fns   []declDoc `yaml:"fns"`

	Async   bool       `yaml:"async"`
	Self    string     `yaml:"self"`
	Params  []paramDoc `yaml:"params"`
	Returns string     `yaml:"returns"`
	Body    []stmtDoc  `yaml:"body"`
}

type fieldDoc struct {
	Name  string   `yaml:"name"`
	Type  string   `yaml:"type"`
	Pub   bool     `yaml:"pub"`
	Attrs []string `yaml:"attrs"`
}

type variantDoc struct {
	Name  string   `yaml:"name"`
	Types []string `yaml:"types"`
	Attrs []string `yaml:"attrs"`
}

type paramDoc struct {
	Name string `yaml:"name"`
	Mut  bool   `yaml:"mut"`
	Pat  string `yaml:"pat"`
	Type string `yaml:"type"`
}

type stmtDoc struct {
	Let  *letDoc  `yaml:"let"`
	Expr *rawExpr `yaml:"expr"`
	Tail *rawExpr `yaml:"tail"`
	Semi bool     `yaml:"semi"`
}

type letDoc struct {
	Pat   string   `yaml:"pat"`
	Type  string   `yaml:"type"`
	Value *rawExpr `yaml:"value"`
}

// Decode parses one YAML declaration dump. name is the source path; its stem
// names the module unless the document sets module explicitly.
func Decode(name string, data []byte) (*module.Module, error) {
	var doc fileDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, malformed(err, "decode "+name)
	}

	modName := doc.Module
	if modName == "" {
		modName = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	m := module.New(syntax.Ident(modName))
	m.Origin = name

	attrs, err := decodeAttrs(doc.Attrs)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	m.Attrs = attrs

	for i := range doc.Decls {
		d, err := decodeDecl(&doc.Decls[i])
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s: decls[%d]", name, i)
		}
		if err := m.Push(d); err != nil {
			return nil, errors.Wrapf(err, "decode %s: decls[%d]", name, i)
		}
	}
	return m, nil
}

func decodeDecl(d *declDoc) (syntax.Decl, error) {
	if d.Mod != "" {
		return nil, errors.WithHint(
			errors.Wrapf(ErrUnsupported, "nested module %s", d.Mod),
			"dump each nested module as its own file",
		)
	}
	set := 0
	for _, k := range []string{d.Use, d.Struct, d.Enum, d.Impl, d.Fn, d.Opaque} {
		if k != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.Wrapf(ErrMalformed, "expected exactly one of use, struct, enum, impl, fn, opaque; got %d", set)
	}

	attrs, err := decodeAttrs(d.Attrs)
	if err != nil {
		return nil, err
	}
	switch {
	case d.Use != "":
		p, err := syntax.ParsePath(d.Use)
		if err != nil {
			return nil, malformed(err, "use")
		}
		return &syntax.Import{Path: p, Alias: syntax.Ident(d.Alias), Glob: d.Glob}, nil
	case d.Struct != "":
		s := &syntax.Struct{Name: syntax.Ident(d.Struct), Pub: d.Pub, Attrs: attrs}
		for _, f := range d.Fields {
			field, err := decodeField(f)
			if err != nil {
				return nil, errors.Wrapf(err, "struct %s", d.Struct)
			}
			s.Fields = append(s.Fields, field)
		}
		return s, nil
	case d.Enum != "":
		e := &syntax.Enum{Name: syntax.Ident(d.Enum), Pub: d.Pub, Attrs: attrs}
		for _, v := range d.Variants {
			variant, err := decodeVariant(v)
			if err != nil {
				return nil, errors.Wrapf(err, "enum %s", d.Enum)
			}
			e.Variants = append(e.Variants, variant)
		}
		return e, nil
	case d.Impl != "":
		impl := &syntax.Impl{Self: syntax.Ident(d.Impl), Attrs: attrs}
		if d.Trait != "" {
			p, err := syntax.ParsePath(d.Trait)
			if err != nil {
				return nil, malformed(err, "impl "+d.Impl+": trait")
			}
			impl.Trait = &p
		}
		for i := range d.Fns {
			if d.Fns[i].Fn == "" {
				return nil, errors.Wrapf(ErrMalformed, "impl %s: fns[%d] is not a fn", d.Impl, i)
			}
			f, err := decodeFunc(&d.Fns[i])
			if err != nil {
				return nil, errors.Wrapf(err, "impl %s", d.Impl)
			}
			impl.Fns = append(impl.Fns, f)
		}
		return impl, nil
	case d.Fn != "":
		return decodeFunc(d)
	default:
		return &syntax.Opaque{Text: d.Opaque}, nil
	}
}

func decodeAttrs(ss []string) ([]syntax.Attr, error) {
	var out []syntax.Attr
	for _, s := range ss {
		a, err := syntax.ParseAttr(s)
		if err != nil {
			return nil, malformed(err, "attribute")
		}
		out = append(out, a)
	}
	return out, nil
}

func decodeField(f fieldDoc) (syntax.Field, error) {
	if f.Name == "" {
		return syntax.Field{}, errors.Wrap(ErrMalformed, "field without name")
	}
	t, err := parseType(f.Type)
	if err != nil {
		return syntax.Field{}, malformed(err, "field "+f.Name)
	}
	attrs, err := decodeAttrs(f.Attrs)
	if err != nil {
		return syntax.Field{}, errors.Wrapf(err, "field %s", f.Name)
	}
	return syntax.Field{Name: syntax.Ident(f.Name), Type: t, Pub: f.Pub, Attrs: attrs}, nil
}

func decodeVariant(v variantDoc) (syntax.Variant, error) {
	out := syntax.Variant{Name: syntax.Ident(v.Name)}
	for _, s := range v.Types {
		t, err := parseType(s)
		if err != nil {
			return out, malformed(err, "variant "+v.Name)
		}
		out.Types = append(out.Types, t)
	}
	attrs, err := decodeAttrs(v.Attrs)
	if err != nil {
		return out, errors.Wrapf(err, "variant %s", v.Name)
	}
	out.Attrs = attrs
	return out, nil
}

func decodeFunc(d *declDoc) (*syntax.Func, error) {
	attrs, err := decodeAttrs(d.Attrs)
	if err != nil {
		return nil, errors.Wrapf(err, "fn %s", d.Fn)
	}
	f := &syntax.Func{Name: syntax.Ident(d.Fn), Pub: d.Pub, Async: d.Async, Attrs: attrs}
	if d.Self != "" {
		r, err := decodeReceiver(d.Self)
		if err != nil {
			return nil, errors.Wrapf(err, "fn %s", d.Fn)
		}
		f.Recv = r
	}
	for i, p := range d.Params {
		t, err := parseType(p.Type)
		if err != nil {
			return nil, malformed(err, fmt.Sprintf("fn %s: params[%d]", d.Fn, i))
		}
		pat := syntax.Pattern{Name: syntax.Ident(p.Name), Mut: p.Mut, Raw: p.Pat}
		if pat.Raw == "" && pat.Name == "" {
			return nil, errors.Wrapf(ErrMalformed, "fn %s: params[%d] has neither name nor pat", d.Fn, i)
		}
		f.Params = append(f.Params, syntax.Param{Pat: pat, Type: t})
	}
	if d.Returns != "" {
		t, err := parseType(d.Returns)
		if err != nil {
			return nil, malformed(err, "fn "+d.Fn+": returns")
		}
		f.Ret = t
	}
	if d.Body != nil {
		b, err := decodeBlock(d.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "fn %s", d.Fn)
		}
		f.Body = b
	}
	return f, nil
}

func decodeReceiver(s string) (*syntax.Receiver, error) {
	switch strings.Join(strings.Fields(s), " ") {
	case "self":
		return &syntax.Receiver{}, nil
	case "mut self":
		return &syntax.Receiver{Mut: true}, nil
	case "&self":
		return &syntax.Receiver{Ref: true}, nil
	case "&mut self", "& mut self":
		return &syntax.Receiver{Ref: true, Mut: true}, nil
	}
	return nil, errors.Wrapf(ErrMalformed, "receiver %q", s)
}

func decodeBlock(stmts []stmtDoc) (*syntax.Block, error) {
	b := &syntax.Block{}
	for i, s := range stmts {
		st, err := decodeStmt(s)
		if err != nil {
			return nil, errors.Wrapf(err, "stmt %d", i)
		}
		b.Stmts = append(b.Stmts, st)
	}
	return b, nil
}

func decodeStmt(s stmtDoc) (syntax.Stmt, error) {
	switch {
	case s.Let != nil && s.Expr == nil && s.Tail == nil:
		if s.Let.Pat == "" {
			return nil, errors.Wrap(ErrMalformed, "let without pat")
		}
		let := &syntax.LetStmt{Pat: s.Let.Pat}
		if s.Let.Type != "" {
			t, err := parseType(s.Let.Type)
			if err != nil {
				return nil, malformed(err, "let "+s.Let.Pat)
			}
			let.Type = t
		}
		if s.Let.Value != nil {
			v, err := decodeExpr(s.Let.Value.node())
			if err != nil {
				return nil, err
			}
			let.Value = v
		}
		return let, nil
	case s.Expr != nil && s.Let == nil && s.Tail == nil:
		x, err := decodeExpr(s.Expr.node())
		if err != nil {
			return nil, err
		}
		return &syntax.ExprStmt{X: x, Semi: s.Semi}, nil
	case s.Tail != nil && s.Let == nil && s.Expr == nil:
		x, err := decodeExpr(s.Tail.node())
		if err != nil {
			return nil, err
		}
		return &syntax.ExprStmt{X: x}, nil
	}
	return nil, errors.Wrap(ErrMalformed, "statement needs exactly one of let, expr, tail")
}
