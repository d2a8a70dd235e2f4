// Package facade turns a module of free operation functions that share a name
// stem into methods of one generated API struct holding the client
// configuration.
package facade

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

// ErrReceiver is returned when a selected function's first parameter cannot
// be turned into a receiver.
var ErrReceiver = errors.New("first parameter cannot become a receiver")

// Options configures façade generation.
type Options struct {
	// Suffix is removed from the module name to obtain the stem.
	Suffix string
	// Field names the single struct field and the constructor parameter.
	Field syntax.Ident
	// Handle is the type of that field, a shared configuration handle.
	Handle syntax.Type
}

func DefaultOptions() Options {
	return Options{
		Suffix: "_api",
		Field:  "configuration",
		Handle: syntax.MustType("std::sync::Arc<configuration::Configuration>"),
	}
}

// Result describes what Generate produced.
type Result struct {
	Struct  *syntax.Struct
	Methods []syntax.Ident
}

// Stem derives the function name stem from a module name.
func Stem(moduleName syntax.Ident, suffix string) string {
	return strings.TrimSuffix(string(moduleName), suffix)
}

// Applies reports whether m is an operation module named with the suffix.
func Applies(m *module.Module, opts Options) bool {
	name := string(m.Name)
	return opts.Suffix != "" && strings.HasSuffix(name, opts.Suffix) && name != opts.Suffix
}

// Generate converts every function of m whose identifier contains the stem
// into a method of a new <Stem>Api struct. The struct and its impl block are
// pushed back into m; the converted functions are removed from it. Nothing
// is changed when a function cannot be converted.
func Generate(m *module.Module, opts Options) (*Result, error) {
	stem := Stem(m.Name, opts.Suffix)
	if stem == "" {
		return nil, errors.Newf("facade %s: empty stem for suffix %q", m.Name, opts.Suffix)
	}
	selected := func(d syntax.Decl) bool {
		f, ok := d.(*syntax.Func)
		return ok && strings.Contains(string(f.Name), stem)
	}

	var methods []*syntax.Func
	for _, d := range m.Decls() {
		if !selected(d) {
			continue
		}
		method, err := toMethod(d.(*syntax.Func), stem)
		if err != nil {
			return nil, errors.Wrapf(err, "facade %s", m.Name)
		}
		methods = append(methods, method)
	}
	m.TakeBy(selected)

	name := syntax.Ident(pascalCase(stem) + "Api")
	st := &syntax.Struct{
		Name:   name,
		Pub:    true,
		Attrs:  []syntax.Attr{{Path: syntax.PathOf("derive"), Args: "(Clone)"}},
		Fields: []syntax.Field{{Name: opts.Field, Type: opts.Handle.CloneType()}},
	}
	impl := &syntax.Impl{Self: name, Fns: append([]*syntax.Func{constructor(opts)}, methods...)}
	if err := m.PushAll(st, impl); err != nil {
		return nil, errors.Wrapf(err, "facade %s", m.Name)
	}

	res := &Result{Struct: st}
	for _, f := range methods {
		res.Methods = append(res.Methods, f.Name)
	}
	return res, nil
}

func constructor(opts Options) *syntax.Func {
	return &syntax.Func{
		Name:   "new",
		Pub:    true,
		Params: []syntax.Param{{Pat: syntax.Pattern{Name: opts.Field}, Type: opts.Handle.CloneType()}},
		Ret:    syntax.NamedType("Self"),
		Body: syntax.Tail(&syntax.StructLitExpr{
			Path:   syntax.PathOf("Self"),
			Fields: []syntax.FieldValue{{Name: opts.Field}},
		}),
	}
}

// toMethod returns a converted copy of f: stem removed from the name, first
// parameter replaced by &mut self and field accesses on it redirected to self.
func toMethod(f *syntax.Func, stem string) (*syntax.Func, error) {
	if len(f.Params) == 0 {
		return nil, errors.Wrapf(ErrReceiver, "function %s has no parameters", f.Name)
	}
	first := f.Params[0].Pat
	if !first.Simple() {
		return nil, errors.Wrapf(ErrReceiver, "function %s: first parameter %q is not a plain identifier", f.Name, first.String())
	}

	out := f.Clone()
	out.Name = stripStem(f.Name, stem)
	out.Pub = true
	out.Recv = &syntax.Receiver{Ref: true, Mut: true}
	out.Params = out.Params[1:]
	syntax.RewriteBlock(out.Body, receiverRewriter{param: first.Name})
	return out, nil
}

func stripStem(name syntax.Ident, stem string) syntax.Ident {
	stripped := strings.Replace(string(name), stem+"_", "", 1)
	if stripped == "" {
		return name
	}
	return syntax.Ident(stripped)
}

// receiverRewriter turns param.X into self.X.
type receiverRewriter struct {
	param syntax.Ident
}

func (receiverRewriter) RewriteType(t syntax.Type) (syntax.Type, bool) { return t, false }

func (r receiverRewriter) RewriteExpr(e syntax.Expr) (syntax.Expr, bool) {
	fe, ok := e.(*syntax.FieldExpr)
	if !ok {
		return e, false
	}
	base, ok := fe.X.(*syntax.PathExpr)
	if !ok || !base.Path.IsIdent(r.param) {
		return e, false
	}
	return &syntax.FieldExpr{X: &syntax.PathExpr{Path: syntax.PathOf("self")}, Name: fe.Name}, true
}

func pascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	var sb strings.Builder
	for _, part := range parts {
		rs := []rune(part)
		sb.WriteRune(unicode.ToUpper(rs[0]))
		sb.WriteString(string(rs[1:]))
	}
	return sb.String()
}
