package emit

import (
	"embed"
	"sync"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/syntax"
)

const (
	tmplFile   = "file"
	tmplModule = "module"
	tmplDecl   = "decl"
	tmplImpl   = "impl_block"
	tmplMethod = "method"
)

const (
	templatePattern      = "templates/*.gtpl"
	templateDeclsPattern = "templates/decls/*.gtpl"
)

//go:embed templates/*.gtpl templates/decls/*.gtpl
var templatesFS embed.FS

var (
	fileTmpl     *template.Template
	tmplInitOnce sync.Once
	tmplInitErr  error
)

// declKinds lists every declaration kind; each needs a decl_<kind> template.
var declKinds = []syntax.Kind{
	syntax.KindStruct,
	syntax.KindEnum,
	syntax.KindFunc,
	syntax.KindImpl,
	syntax.KindImport,
	syntax.KindOpaque,
}

// validateTemplates ensures all required templates are defined.
func validateTemplates() error {
	for _, name := range []string{tmplFile, tmplModule, tmplDecl, tmplImpl, tmplMethod} {
		if fileTmpl.Lookup(name) == nil {
			return errors.Newf("required template %q not found", name)
		}
	}
	// Keeps dispatch.gtpl in sync with the declaration model.
	for _, k := range declKinds {
		name := "decl_" + k.String()
		if fileTmpl.Lookup(name) == nil {
			return errors.Newf("required declaration template %q for kind %s not found", name, k)
		}
	}
	return nil
}

// ensureTemplates parses and validates templates exactly once.
func ensureTemplates() error {
	tmplInitOnce.Do(func() {
		var t *template.Template
		t, tmplInitErr = template.New(tmplFile).Funcs(funcs).ParseFS(templatesFS, templatePattern, templateDeclsPattern)
		if tmplInitErr != nil {
			return
		}
		fileTmpl = t
		tmplInitErr = validateTemplates()
	})
	return tmplInitErr
}
