// Package prune removes authentication state from the generated client
// configuration: the auxiliary credential types, the fields holding them and
// their initialisers in the constructor and the Default impl.
package prune

import (
	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

var (
	// ErrMissing is returned when the target struct or its constructor is
	// absent.
	ErrMissing = errors.New("declaration not found")
	// ErrMissingTrait is returned when the target struct has no Default impl.
	ErrMissingTrait = errors.New("trait impl not found")
)

type Options struct {
	Module      syntax.Ident
	Struct      syntax.Ident
	AuxStructs  []syntax.Ident
	Fields      []syntax.Ident
	Constructor syntax.Ident
}

func DefaultOptions() Options {
	return Options{
		Module:      "configuration",
		Struct:      "Configuration",
		AuxStructs:  []syntax.Ident{"BasicAuth", "ApiKey"},
		Fields:      []syntax.Ident{"basic_auth", "oauth_access_token", "bearer_access_token", "api_key"},
		Constructor: "new",
	}
}

// Stats counts what Prune removed.
type Stats struct {
	AuxStructs int
	Fields     int
	Inits      int
}

var defaultTrait = syntax.PathOf("Default")

// Prune rewrites the configuration module in place. Modules with any other
// name are left untouched. Lookups happen before anything is removed, so a
// failed prune leaves the module as it was.
func Prune(m *module.Module, opts Options) (Stats, error) {
	var st Stats
	if m.Name != opts.Module {
		return st, nil
	}

	target := m.FindStruct(opts.Struct)
	if target == nil {
		return st, errors.Wrapf(ErrMissing, "prune %s: struct %s", m.Name, opts.Struct)
	}
	inherent := target.Impls.Find(nil)
	if inherent == nil || inherent.Fn(opts.Constructor) == nil {
		return st, errors.Wrapf(ErrMissing, "prune %s: constructor %s::%s", m.Name, opts.Struct, opts.Constructor)
	}
	defImpl := target.Impls.Find(&defaultTrait)
	if defImpl == nil || defImpl.Fn("default") == nil {
		return st, errors.Wrapf(ErrMissingTrait, "prune %s: impl Default for %s", m.Name, opts.Struct)
	}

	aux := make(map[syntax.Ident]bool, len(opts.AuxStructs))
	for _, name := range opts.AuxStructs {
		aux[name] = true
	}
	st.AuxStructs = m.Remove(func(d syntax.Decl) bool {
		s, ok := d.(*syntax.Struct)
		return ok && aux[s.Name]
	})

	fields := make(map[syntax.Ident]bool, len(opts.Fields))
	for _, name := range opts.Fields {
		fields[name] = true
	}
	st.Fields = target.RemoveFields(fields)
	st.Inits += filterLiterals(inherent.Fn(opts.Constructor).Body, fields)
	st.Inits += filterLiterals(defImpl.Fn("default").Body, fields)
	return st, nil
}

// filterLiterals drops the named entries from every struct literal in b.
func filterLiterals(b *syntax.Block, names map[syntax.Ident]bool) int {
	n := 0
	syntax.RewriteBlock(b, syntax.RewriteFuncs{Expr: func(e syntax.Expr) (syntax.Expr, bool) {
		lit, ok := e.(*syntax.StructLitExpr)
		if !ok {
			return e, false
		}
		kept := lit.Fields[:0]
		for _, f := range lit.Fields {
			if names[f.Name] {
				n++
				continue
			}
			kept = append(kept, f)
		}
		lit.Fields = kept
		return e, false
	}})
	return n
}
