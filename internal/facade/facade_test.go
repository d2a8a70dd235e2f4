package facade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

func cfgParam() syntax.Param {
	return syntax.Param{Pat: syntax.Pattern{Name: "configuration"}, Type: syntax.MustType("&configuration::Configuration")}
}

func opFunc(name syntax.Ident, params ...syntax.Param) *syntax.Func {
	return &syntax.Func{
		Name:   name,
		Pub:    true,
		Async:  true,
		Params: params,
		Ret:    syntax.MustType("Result<(), Error>"),
		Body: &syntax.Block{Stmts: []syntax.Stmt{
			&syntax.LetStmt{Pat: "client", Value: &syntax.RefExpr{X: &syntax.FieldExpr{
				X:    &syntax.PathExpr{Path: syntax.PathOf("configuration")},
				Name: "client",
			}}},
			&syntax.LetStmt{Pat: "uri", Value: &syntax.MacroExpr{Path: syntax.PathOf("format"), Args: []syntax.Expr{
				&syntax.LitExpr{Text: `"{}/containers/json"`},
				&syntax.MethodCallExpr{
					X:    &syntax.FieldExpr{X: &syntax.PathExpr{Path: syntax.PathOf("configuration")}, Name: "base_path"},
					Name: "clone",
				},
			}}},
			&syntax.ExprStmt{X: &syntax.PathExpr{Path: syntax.PathOf("client")}},
		}},
	}
}

func containerModule(t *testing.T) *module.Module {
	t.Helper()
	m := module.New("container_api")
	require.NoError(t, m.PushAll(
		&syntax.Import{Path: syntax.MustPath("reqwest")},
		&syntax.Struct{Name: "ContainerListParams", Pub: true},
		opFunc("container_list", cfgParam(), syntax.Param{Pat: syntax.Pattern{Name: "params"}, Type: syntax.MustType("ContainerListParams")}),
		opFunc("container_inspect", cfgParam(), syntax.Param{Pat: syntax.Pattern{Name: "id"}, Type: syntax.MustType("&str")}),
		&syntax.Func{Name: "helper", Params: []syntax.Param{{Pat: syntax.Pattern{Name: "x"}, Type: syntax.MustType("u8")}}},
	))
	return m
}

func TestStem(t *testing.T) {
	assert.Equal(t, "container", Stem("container_api", "_api"))
	assert.Equal(t, "exec", Stem("exec_api", "_api"))
	assert.Equal(t, "models", Stem("models", "_api"))
}

func TestApplies(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, Applies(module.New("container_api"), opts))
	assert.False(t, Applies(module.New("models"), opts))
	assert.False(t, Applies(module.New("_api"), opts))
}

func TestGenerate(t *testing.T) {
	m := containerModule(t)
	res, err := Generate(m, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, syntax.Ident("ContainerApi"), res.Struct.Name)
	assert.Equal(t, []syntax.Ident{"list", "inspect"}, res.Methods)

	t.Run("selected functions leave the top level", func(t *testing.T) {
		assert.Nil(t, m.FindFunc("container_list"))
		assert.Nil(t, m.FindFunc("container_inspect"))
		assert.NotNil(t, m.FindFunc("helper"))
		assert.NotNil(t, m.FindStruct("ContainerListParams"))
	})

	t.Run("struct holds the configuration handle", func(t *testing.T) {
		s := m.FindStruct("ContainerApi")
		require.NotNil(t, s)
		require.Len(t, s.Fields, 1)
		assert.Equal(t, syntax.Ident("configuration"), s.Fields[0].Name)
		assert.Equal(t, "std::sync::Arc<configuration::Configuration>", syntax.TypeString(s.Fields[0].Type))
		require.Len(t, s.Impls, 1)
		assert.Nil(t, s.Impls[0].Trait)
	})

	t.Run("constructor stores the handle", func(t *testing.T) {
		ctor := m.FindStruct("ContainerApi").Impls[0].Fn("new")
		require.NotNil(t, ctor)
		assert.Equal(t, "pub fn new(configuration: std::sync::Arc<configuration::Configuration>) -> Self", syntax.SignatureString(ctor))
		assert.Equal(t, "Self { configuration }\n", syntax.BlockString(ctor.Body, 0))
	})

	t.Run("methods take the receiver and read fields from self", func(t *testing.T) {
		list := m.FindStruct("ContainerApi").Impls[0].Fn("list")
		require.NotNil(t, list)
		assert.Equal(t, "pub async fn list(&mut self, params: ContainerListParams) -> Result<(), Error>", syntax.SignatureString(list))
		body := syntax.BlockString(list.Body, 0)
		assert.Equal(t, "let client = &self.client;\nlet uri = format!(\"{}/containers/json\", self.base_path.clone());\nclient\n", body)
		assert.NotContains(t, body, "configuration")
	})
}

func TestGenerateRoundTrip(t *testing.T) {
	m := containerModule(t)
	before := len(m.Funcs())
	_, err := Generate(m, DefaultOptions())
	require.NoError(t, err)
	// two methods moved, one constructor added
	assert.Equal(t, before+1, len(m.Funcs()))

	methods := m.FindStruct("ContainerApi").Impls[0].Fns
	names := make([]syntax.Ident, 0, len(methods))
	for _, f := range methods {
		names = append(names, f.Name)
		if f.Name != "new" {
			require.NotNil(t, f.Recv)
			assert.Equal(t, "&mut self", f.Recv.String())
		}
	}
	assert.Equal(t, []syntax.Ident{"new", "list", "inspect"}, names)
}

func TestGenerateNoSelectedFunctions(t *testing.T) {
	m := module.New("system_api")
	require.NoError(t, m.Push(&syntax.Func{Name: "unrelated", Params: []syntax.Param{cfgParam()}}))
	res, err := Generate(m, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Methods)
	assert.NotNil(t, m.FindStruct("SystemApi"))
	assert.NotNil(t, m.FindFunc("unrelated"))
}

func TestGenerateErrors(t *testing.T) {
	t.Run("function without parameters", func(t *testing.T) {
		m := module.New("container_api")
		require.NoError(t, m.PushAll(
			opFunc("container_list", cfgParam()),
			&syntax.Func{Name: "container_ping"},
		))
		_, err := Generate(m, DefaultOptions())
		require.ErrorIs(t, err, ErrReceiver)
		assert.NotNil(t, m.FindFunc("container_list"), "module untouched on error")
		assert.Nil(t, m.FindStruct("ContainerApi"))
	})

	t.Run("destructuring first parameter", func(t *testing.T) {
		m := module.New("container_api")
		require.NoError(t, m.Push(&syntax.Func{
			Name:   "container_list",
			Params: []syntax.Param{{Pat: syntax.Pattern{Raw: "(a, b)"}, Type: syntax.MustType("(u8, u8)")}},
		}))
		_, err := Generate(m, DefaultOptions())
		require.ErrorIs(t, err, ErrReceiver)
	})
}

func TestStripStem(t *testing.T) {
	assert.Equal(t, syntax.Ident("list"), stripStem("container_list", "container"))
	assert.Equal(t, syntax.Ident("exec_start"), stripStem("container_exec_start", "container"))
	assert.Equal(t, syntax.Ident("container"), stripStem("container", "container"))
}

func TestPascalCase(t *testing.T) {
	assert.Equal(t, "Container", pascalCase("container"))
	assert.Equal(t, "ImageBuild", pascalCase("image_build"))
	assert.Equal(t, "Exec", pascalCase("exec"))
}
