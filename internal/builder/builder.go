// Package builder synthesizes builder struct declarations from source
// structs according to an ordered set of field rules registered through a
// fluent selector DSL:
//
//	e := builder.NewEngine()
//	e.ForAll().AndAllFields().ThenDiscardAttribute("serde").
//		ForItem("ContainerConfig").WithField("env").ThenRemapToVec(syntax.MustType("String"))
package builder

import (
	"cmp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/logger"
	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

// ErrNotStruct is returned when a declaration other than a struct is handed
// to Build.
var ErrNotStruct = errors.New("builder source is not a struct")

// Engine holds the registered rules in registration order.
type Engine struct {
	rules []Rule
}

func NewEngine() *Engine {
	return &Engine{}
}

// Rules returns a copy of the registered rules.
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// Add registers r after validating that its action is complete.
func (e *Engine) Add(r Rule) error {
	switch r.Action {
	case ActionDiscardAttribute:
		if r.Attr == "" {
			return errors.Newf("rule %s: missing attribute name", r)
		}
	case ActionRemapToVec, ActionMap:
		if r.Target == nil {
			return errors.Newf("rule %s: missing target type", r)
		}
	default:
		return errors.Newf("rule %s: unknown action", r)
	}
	e.rules = append(e.rules, r)
	return nil
}

// TypeSelector is the first step of a rule: which structs it applies to.
type TypeSelector struct {
	e    *Engine
	name syntax.Ident
}

// FieldSelector is the second step of a rule: which fields it applies to.
type FieldSelector struct {
	e     *Engine
	typ   syntax.Ident
	field syntax.Ident
}

// ForAll starts a rule matching every struct.
func (e *Engine) ForAll() *TypeSelector { return &TypeSelector{e: e} }

// ForItem starts a rule matching the struct called name.
func (e *Engine) ForItem(name syntax.Ident) *TypeSelector { return &TypeSelector{e: e, name: name} }

func (s *TypeSelector) AndAllFields() *FieldSelector {
	return &FieldSelector{e: s.e, typ: s.name}
}

func (s *TypeSelector) WithField(name syntax.Ident) *FieldSelector {
	return &FieldSelector{e: s.e, typ: s.name, field: name}
}

// ThenDiscardAttribute removes every attribute called name from the
// selected fields.
func (s *FieldSelector) ThenDiscardAttribute(name syntax.Ident) *Engine {
	return s.then(Rule{Action: ActionDiscardAttribute, Attr: name})
}

// ThenRemapToVec turns the selected fields into Vec<elem>, keeping an outer
// Option.
func (s *FieldSelector) ThenRemapToVec(elem syntax.Type) *Engine {
	return s.then(Rule{Action: ActionRemapToVec, Target: elem})
}

// ThenMap replaces the type of the selected fields with t.
func (s *FieldSelector) ThenMap(t syntax.Type) *Engine {
	return s.then(Rule{Action: ActionMap, Target: t})
}

func (s *FieldSelector) then(r Rule) *Engine {
	r.Type, r.Field = s.typ, s.field
	// Only a nil target or empty attribute name reaches this panic.
	if err := s.e.Add(r); err != nil {
		panic(err)
	}
	return s.e
}

// Build returns the builder declaration for d: a copy of the struct without
// impl blocks, with every field passed through the rules. For each field the
// first matching rule of each action kind wins; rules of different kinds
// compose in registration order.
func (e *Engine) Build(d syntax.Decl) (*syntax.Struct, error) {
	src, ok := d.(*syntax.Struct)
	if !ok {
		id, _ := d.Ident()
		return nil, errors.Wrapf(ErrNotStruct, "builder %s: got %s", id, d.Kind())
	}
	out := src.Clone()
	out.Impls = nil
	for i := range out.Fields {
		f := &out.Fields[i]
		applied := make(map[string]bool)
		for _, r := range e.rules {
			if !r.matches(out.Name, f.Name) {
				continue
			}
			if applied[r.key()] {
				logger.Debugw("builder rule shadowed", "struct", out.Name, "field", f.Name, "rule", r.String())
				continue
			}
			applied[r.key()] = true
			r.apply(f)
		}
	}
	return out, nil
}

// SuffixMatcher selects structs whose identifier ends with any of suffixes.
func SuffixMatcher(suffixes ...string) module.Pred {
	return func(d syntax.Decl) bool {
		if d.Kind() != syntax.KindStruct {
			return false
		}
		id, _ := d.Ident()
		for _, s := range suffixes {
			if strings.HasSuffix(string(id), s) {
				return true
			}
		}
		return false
	}
}

// Generate builds every struct selected by match across mods. Sources are
// stable-sorted by identifier and the result holds one builder per
// identifier, the first one built.
func (e *Engine) Generate(match module.Pred, mods ...*module.Module) ([]*syntax.Struct, error) {
	var sources []syntax.Decl
	for _, m := range mods {
		for _, d := range m.Decls() {
			if match(d) {
				sources = append(sources, d)
			}
		}
	}
	slices.SortStableFunc(sources, func(a, b syntax.Decl) int {
		ia, _ := a.Ident()
		ib, _ := b.Ident()
		return cmp.Compare(ia, ib)
	})

	seen := make(map[syntax.Ident]bool, len(sources))
	out := make([]*syntax.Struct, 0, len(sources))
	for _, d := range sources {
		id, _ := d.Ident()
		if seen[id] {
			logger.Debugw("builder duplicate dropped", "struct", id)
			continue
		}
		b, err := e.Build(d)
		if err != nil {
			return nil, err
		}
		seen[id] = true
		out = append(out, b)
	}
	return out, nil
}
