package pipeline

import (
	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/builder"
	"github.com/calumari/restitch/internal/config"
	"github.com/calumari/restitch/internal/facade"
	"github.com/calumari/restitch/internal/prune"
	"github.com/calumari/restitch/internal/rewrite"
	"github.com/calumari/restitch/internal/syntax"
)

// Settings is everything Run needs, already parsed into model types.
type Settings struct {
	ModelsGroup string
	ApisGroup   string

	Plan   rewrite.Plan
	Facade facade.Options
	Prune  prune.Options

	ParamsSuffix string
	ParamsModule syntax.Ident

	BuilderModule   syntax.Ident
	BuilderSuffixes []string
	Engine          *builder.Engine
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() *Settings {
	e := builder.NewEngine()
	e.ForAll().AndAllFields().ThenDiscardAttribute("serde")
	return &Settings{
		ModelsGroup: "models",
		ApisGroup:   "apis",
		Plan: rewrite.Plan{
			DropImports:   []syntax.Path{syntax.MustPath("crate::models"), syntax.MustPath("crate::apis")},
			StripPrefixes: []syntax.Path{syntax.MustPath("crate::models"), syntax.MustPath("models"), syntax.MustPath("crate::apis")},
		},
		Facade:          facade.DefaultOptions(),
		Prune:           prune.DefaultOptions(),
		ParamsSuffix:    "Params",
		ParamsModule:    "params",
		BuilderModule:   "builders",
		BuilderSuffixes: []string{"Params", "Config"},
		Engine:          e,
	}
}

// FromConfig converts a validated configuration.
func FromConfig(c *config.Config) (*Settings, error) {
	s := &Settings{
		ModelsGroup:     c.Groups.Models,
		ApisGroup:       c.Groups.Apis,
		ParamsSuffix:    c.Params.Suffix,
		ParamsModule:    syntax.Ident(c.Params.Module),
		BuilderModule:   syntax.Ident(c.Builder.Module),
		BuilderSuffixes: c.Builder.Suffixes,
		Engine:          builder.NewEngine(),
	}

	var err error
	if s.Plan.DropImports, err = parsePaths(c.Rewrite.DropImports); err != nil {
		return nil, errors.Wrap(err, "rewrite.drop_imports")
	}
	if s.Plan.StripPrefixes, err = parsePaths(c.Rewrite.StripPrefixes); err != nil {
		return nil, errors.Wrap(err, "rewrite.strip_prefixes")
	}

	handle, err := syntax.ParseType(c.Facade.HandleType)
	if err != nil {
		return nil, errors.Wrap(err, "facade.handle_type")
	}
	s.Facade = facade.Options{Suffix: c.Facade.Suffix, Field: syntax.Ident(c.Facade.Field), Handle: handle}

	s.Prune = prune.Options{
		Module:      syntax.Ident(c.Prune.Module),
		Struct:      syntax.Ident(c.Prune.Struct),
		AuxStructs:  idents(c.Prune.AuxStructs),
		Fields:      idents(c.Prune.Fields),
		Constructor: syntax.Ident(c.Prune.Constructor),
	}

	for i, rc := range c.Builder.Rules {
		if err := registerRule(s.Engine, rc); err != nil {
			return nil, errors.Wrapf(err, "builder.rules[%d]", i)
		}
	}
	return s, nil
}

// registerRule goes through the same DSL hand-written rules use.
func registerRule(e *builder.Engine, rc config.RuleConfig) error {
	if err := rc.Validate(); err != nil {
		return err
	}
	sel := e.ForAll()
	if rc.Type != "" {
		sel = e.ForItem(syntax.Ident(rc.Type))
	}
	fields := sel.AndAllFields()
	if rc.Field != "" {
		fields = sel.WithField(syntax.Ident(rc.Field))
	}
	switch {
	case rc.DiscardAttribute != "":
		fields.ThenDiscardAttribute(syntax.Ident(rc.DiscardAttribute))
	case rc.RemapToVec != "":
		t, err := syntax.ParseType(rc.RemapToVec)
		if err != nil {
			return errors.Wrap(err, "remap_to_vec")
		}
		fields.ThenRemapToVec(t)
	default:
		t, err := syntax.ParseType(rc.Map)
		if err != nil {
			return errors.Wrap(err, "map")
		}
		fields.ThenMap(t)
	}
	return nil
}

func parsePaths(ss []string) ([]syntax.Path, error) {
	out := make([]syntax.Path, 0, len(ss))
	for _, s := range ss {
		p, err := syntax.ParsePath(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func idents(ss []string) []syntax.Ident {
	out := make([]syntax.Ident, len(ss))
	for i, s := range ss {
		out[i] = syntax.Ident(s)
	}
	return out
}
