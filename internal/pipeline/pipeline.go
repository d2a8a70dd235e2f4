// Package pipeline runs the transformation stages over loaded partial
// modules and produces the four output units: models, apis, params and
// builders.
package pipeline

import (
	"cmp"
	"context"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/builder"
	"github.com/calumari/restitch/internal/facade"
	"github.com/calumari/restitch/internal/loader"
	"github.com/calumari/restitch/internal/logger"
	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/prune"
	"github.com/calumari/restitch/internal/syntax"
)

// Unit names of the rendered outputs.
const (
	UnitModels   = "models"
	UnitApis     = "apis"
	UnitParams   = "params"
	UnitBuilders = "builders"
)

// Output holds the four units in emission order.
type Output struct {
	Models   *module.SourceFile
	Apis     *module.SourceFile
	Params   *module.SourceFile
	Builders *module.SourceFile
}

// Units returns the outputs in emission order.
func (o *Output) Units() []*module.SourceFile {
	return []*module.SourceFile{o.Models, o.Apis, o.Params, o.Builders}
}

// Run executes every stage in sequence. The registry is the only shared
// state; each stage mutates the modules it owns in place.
func Run(ctx context.Context, s *Settings, units []loader.Unit) (*Output, error) {
	reg := module.NewRegistry()
	if err := merge(reg, units); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	models := reg.Group(s.ModelsGroup)
	apis := reg.Group(s.ApisGroup)
	rewriteAll(s, models, apis)

	if err := facades(s, apis); err != nil {
		return nil, err
	}
	if err := pruneAll(s, models, apis); err != nil {
		return nil, err
	}

	params, err := extractParams(s, reg, apis)
	if err != nil {
		return nil, err
	}
	builders, err := buildBuilders(s, reg, params, models)
	if err != nil {
		return nil, err
	}

	return &Output{
		Models:   rename(models, UnitModels),
		Apis:     rename(apis, UnitApis),
		Params:   fileOf(UnitParams, params),
		Builders: fileOf(UnitBuilders, builders),
	}, nil
}

func merge(reg *module.Registry, units []loader.Unit) error {
	for _, u := range units {
		if err := reg.Add(u.Group, u.Module); err != nil {
			return errors.Wrap(err, "merge")
		}
	}
	if err := reg.MergeAll(); err != nil {
		return errors.Wrap(err, "merge")
	}
	logger.Infow("merged partial modules", "parts", len(units), "modules", reg.Len())
	return nil
}

func rewriteAll(s *Settings, files ...*module.SourceFile) {
	var imports, decls, bodies int
	for _, f := range files {
		for _, m := range f.Modules {
			st := s.Plan.Apply(m)
			logger.Debugw("rewrote module", "module", m.Name, "imports", st.Imports, "decls", st.Decls, "bodies", st.Bodies)
			imports += st.Imports
			decls += st.Decls
			bodies += st.Bodies
		}
	}
	logger.Infow("rewrote paths", "imports_dropped", imports, "decl_paths", decls, "body_paths", bodies)
}

func facades(s *Settings, apis *module.SourceFile) error {
	n := 0
	for _, m := range apis.Modules {
		if !facade.Applies(m, s.Facade) {
			continue
		}
		res, err := facade.Generate(m, s.Facade)
		if err != nil {
			return err
		}
		logger.Debugw("generated facade", "module", m.Name, "struct", res.Struct.Name, "methods", len(res.Methods))
		n++
	}
	logger.Infow("generated facades", "facades", n)
	return nil
}

func pruneAll(s *Settings, files ...*module.SourceFile) error {
	for _, f := range files {
		for _, m := range f.Modules {
			st, err := prune.Prune(m, s.Prune)
			if err != nil {
				return err
			}
			if m.Name == s.Prune.Module {
				logger.Infow("pruned configuration", "module", m.Name, "aux_structs", st.AuxStructs, "fields", st.Fields, "initialisers", st.Inits)
			}
		}
	}
	return nil
}

// extractParams moves every parameter object out of the operation modules
// into one module sorted by identifier. Modules that lost declarations get a
// glob import of the new module.
func extractParams(s *Settings, reg *module.Registry, apis *module.SourceFile) (*module.Module, error) {
	pm := module.New(s.ParamsModule)
	var taken []syntax.Decl
	for _, m := range apis.Modules {
		got := m.TakeBy(module.IdentHasSuffix(s.ParamsSuffix))
		if len(got) == 0 {
			continue
		}
		if err := m.Push(&syntax.Import{Path: syntax.PathOf("crate", s.ParamsModule), Glob: true}); err != nil {
			return nil, err
		}
		taken = append(taken, got...)
	}
	slices.SortStableFunc(taken, func(a, b syntax.Decl) int {
		ia, _ := a.Ident()
		ib, _ := b.Ident()
		return cmp.Compare(ia, ib)
	})
	if err := pm.PushAll(taken...); err != nil {
		return nil, errors.Wrap(err, "extract params")
	}
	if err := reg.Put(UnitParams, pm); err != nil {
		return nil, errors.Wrap(err, "extract params")
	}
	logger.Infow("extracted parameter objects", "module", pm.Name, "decls", pm.Len())
	return pm, nil
}

func buildBuilders(s *Settings, reg *module.Registry, params *module.Module, models *module.SourceFile) (*module.Module, error) {
	sources := append([]*module.Module{params}, models.Modules...)
	structs, err := s.Engine.Generate(builder.SuffixMatcher(s.BuilderSuffixes...), sources...)
	if err != nil {
		return nil, err
	}
	bm := module.New(s.BuilderModule)
	for _, st := range structs {
		if err := bm.Push(st); err != nil {
			return nil, errors.Wrap(err, "builders")
		}
	}
	if err := reg.Put(UnitBuilders, bm); err != nil {
		return nil, errors.Wrap(err, "builders")
	}
	logger.Infow("generated builders", "module", bm.Name, "builders", len(structs), "rules", len(s.Engine.Rules()))
	return bm, nil
}

func fileOf(name string, m *module.Module) *module.SourceFile {
	return &module.SourceFile{Name: name, Modules: []*module.Module{m}}
}

func rename(f *module.SourceFile, name string) *module.SourceFile {
	return &module.SourceFile{Name: name, Attrs: f.Attrs, Modules: f.Modules}
}
