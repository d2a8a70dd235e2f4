package prune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

var allFields = []syntax.Ident{
	"base_path", "user_agent", "client", "basic_auth", "oauth_access_token", "bearer_access_token", "api_key",
}

func literal(path string, fields ...syntax.Ident) *syntax.StructLitExpr {
	lit := &syntax.StructLitExpr{Path: syntax.MustPath(path)}
	for _, f := range fields {
		lit.Fields = append(lit.Fields, syntax.FieldValue{Name: f, Value: &syntax.PathExpr{Path: syntax.PathOf("None")}})
	}
	return lit
}

type fixture struct {
	ctor    bool
	def     bool
	aux     bool
	literal bool
}

func configurationModule(t *testing.T, fx fixture) *module.Module {
	t.Helper()
	m := module.New("configuration")
	cfg := &syntax.Struct{Name: "Configuration", Pub: true}
	for _, f := range allFields {
		cfg.Fields = append(cfg.Fields, syntax.Field{Name: f, Pub: true, Type: syntax.MustType("Option<String>")})
	}
	require.NoError(t, m.Push(cfg))
	if fx.aux {
		require.NoError(t, m.PushAll(
			&syntax.Struct{Name: "BasicAuth", Pub: true},
			&syntax.Struct{Name: "ApiKey", Pub: true, Fields: []syntax.Field{{Name: "key", Type: syntax.MustType("String")}}},
		))
	}
	if fx.ctor {
		body := syntax.Tail(&syntax.CallExpr{Fun: &syntax.PathExpr{Path: syntax.MustPath("Configuration::default")}})
		if fx.literal {
			body = syntax.Tail(literal("Configuration", allFields...))
		}
		require.NoError(t, m.Push(&syntax.Impl{Self: "Configuration", Fns: []*syntax.Func{
			{Name: "new", Pub: true, Ret: syntax.NamedType("Configuration"), Body: body},
		}}))
	}
	if fx.def {
		trait := syntax.PathOf("Default")
		require.NoError(t, m.Push(&syntax.Impl{Self: "Configuration", Trait: &trait, Fns: []*syntax.Func{
			{Name: "default", Ret: syntax.NamedType("Self"), Body: &syntax.Block{Stmts: []syntax.Stmt{
				&syntax.LetStmt{Pat: "client", Value: &syntax.CallExpr{Fun: &syntax.PathExpr{Path: syntax.MustPath("reqwest::Client::new")}}},
				&syntax.ExprStmt{X: literal("Configuration", allFields...)},
			}}},
		}}))
	}
	return m
}

func TestPrune(t *testing.T) {
	m := configurationModule(t, fixture{ctor: true, def: true, aux: true})
	st, err := Prune(m, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Stats{AuxStructs: 2, Fields: 4, Inits: 4}, st)

	assert.Nil(t, m.FindStruct("BasicAuth"))
	assert.Nil(t, m.FindStruct("ApiKey"))
	cfg := m.FindStruct("Configuration")
	require.NotNil(t, cfg)
	var names []syntax.Ident
	for _, f := range cfg.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []syntax.Ident{"base_path", "user_agent", "client"}, names)

	t.Run("default literal matches the remaining fields", func(t *testing.T) {
		trait := syntax.PathOf("Default")
		body := cfg.Impls.Find(&trait).Fn("default").Body
		assert.Equal(t,
			"let client = reqwest::Client::new();\nConfiguration { base_path: None, user_agent: None, client: None }\n",
			syntax.BlockString(body, 0))
	})
}

func TestPruneKeepsLiteralsConsistent(t *testing.T) {
	m := configurationModule(t, fixture{ctor: true, def: true, aux: true, literal: true})
	_, err := Prune(m, DefaultOptions())
	require.NoError(t, err)

	cfg := m.FindStruct("Configuration")
	for _, impl := range cfg.Impls {
		for _, f := range impl.Fns {
			syntax.RewriteBlock(f.Body, syntax.RewriteFuncs{Expr: func(e syntax.Expr) (syntax.Expr, bool) {
				if lit, ok := e.(*syntax.StructLitExpr); ok {
					assert.Len(t, lit.Fields, len(cfg.Fields), "literal in %s", f.Name)
				}
				return e, false
			}})
		}
	}
}

func TestPruneAuxStructsMayBeAbsent(t *testing.T) {
	m := configurationModule(t, fixture{ctor: true, def: true})
	st, err := Prune(m, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, st.AuxStructs)
	assert.Equal(t, 4, st.Fields)
}

func TestPruneErrors(t *testing.T) {
	t.Run("missing constructor", func(t *testing.T) {
		m := configurationModule(t, fixture{def: true, aux: true})
		_, err := Prune(m, DefaultOptions())
		require.ErrorIs(t, err, ErrMissing)
		assert.NotNil(t, m.FindStruct("BasicAuth"), "module untouched on error")
		assert.Len(t, m.FindStruct("Configuration").Fields, len(allFields))
	})

	t.Run("missing Default impl", func(t *testing.T) {
		m := configurationModule(t, fixture{ctor: true})
		_, err := Prune(m, DefaultOptions())
		require.ErrorIs(t, err, ErrMissingTrait)
	})

	t.Run("missing struct", func(t *testing.T) {
		m := module.New("configuration")
		_, err := Prune(m, DefaultOptions())
		require.ErrorIs(t, err, ErrMissing)
	})
}

func TestPruneIgnoresOtherModules(t *testing.T) {
	m := configurationModule(t, fixture{ctor: true, def: true, aux: true})
	m.Name = "models"
	st, err := Prune(m, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, st)
	assert.NotNil(t, m.FindStruct("BasicAuth"))
}
