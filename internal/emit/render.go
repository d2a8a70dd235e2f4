// Package emit renders source files from the declaration model through
// embedded templates and records what was generated in a manifest.
package emit

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

type Options struct {
	// Version is stamped into the generated header.
	Version string
}

type fileModel struct {
	Version string
	Unit    string
	Attrs   []syntax.Attr
	Modules []moduleModel
}

type moduleModel struct {
	Name  syntax.Ident
	Attrs []syntax.Attr
	Items []itemModel
}

type itemModel struct {
	Decl syntax.Decl
	// Gap requests a blank line before the item; consecutive imports stay
	// together.
	Gap bool
}

var funcs = template.FuncMap{
	"kind":  func(d syntax.Decl) string { return d.Kind().String() },
	"typ":   syntax.TypeString,
	"types": typeList,
	"sig":   syntax.SignatureString,
	"body":  syntax.BlockString,
	"attrs": attrLines,
	"unhandled": func(d syntax.Decl) (string, error) {
		return "", errors.New(syntax.Unhandled("emit", d))
	},
}

func typeList(ts []syntax.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = syntax.TypeString(t)
	}
	return strings.Join(parts, ", ")
}

func attrLines(as []syntax.Attr, depth int) string {
	var sb strings.Builder
	for _, a := range as {
		sb.WriteString(strings.Repeat("    ", depth))
		sb.WriteString(a.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Render renders f as one source text.
func Render(f *module.SourceFile, opts Options) ([]byte, error) {
	if err := ensureTemplates(); err != nil {
		return nil, errors.Wrap(err, "load templates")
	}
	data := fileModel{Version: opts.Version, Unit: f.Name, Attrs: f.Attrs}
	for _, m := range f.Modules {
		mm := moduleModel{Name: m.Name, Attrs: m.Attrs}
		prevImport := false
		for i, d := range m.Decls() {
			isImport := d.Kind() == syntax.KindImport
			mm.Items = append(mm.Items, itemModel{Decl: d, Gap: i > 0 && !(isImport && prevImport)})
			prevImport = isImport
		}
		data.Modules = append(data.Modules, mm)
	}

	var out bytes.Buffer
	if err := fileTmpl.ExecuteTemplate(&out, tmplFile, data); err != nil {
		return nil, errors.Wrapf(err, "render %s", f.Name)
	}
	return out.Bytes(), nil
}
