package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calumari/restitch/internal/module"
	"github.com/calumari/restitch/internal/syntax"
)

func attr(s string) syntax.Attr {
	a, err := syntax.ParseAttr(s)
	if err != nil {
		panic(err)
	}
	return a
}

func containerConfig() *syntax.Struct {
	return &syntax.Struct{
		Name: "ContainerConfig",
		Pub:  true,
		Fields: []syntax.Field{
			{Name: "hostname", Pub: true, Type: syntax.MustType("Option<String>"), Attrs: []syntax.Attr{
				attr(`serde(rename = "Hostname")`), attr(`serde(skip_serializing_if = "Option::is_none")`),
			}},
			{Name: "env", Pub: true, Type: syntax.MustType("Option<Vec<String>>"), Attrs: []syntax.Attr{
				attr(`serde(rename = "Env")`),
			}},
			{Name: "labels", Pub: true, Type: syntax.MustType("HashMap<String, String>"), Attrs: []syntax.Attr{
				attr(`doc = "labels"`),
			}},
		},
		Impls: syntax.ImplSet{{Self: "ContainerConfig", Fns: []*syntax.Func{{Name: "new"}}}},
	}
}

func TestBuild(t *testing.T) {
	e := NewEngine()
	e.ForAll().AndAllFields().ThenDiscardAttribute("serde").
		ForItem("ContainerConfig").WithField("env").ThenRemapToVec(syntax.MustType("EnvVar")).
		ForItem("ContainerConfig").WithField("labels").ThenRemapToVec(syntax.MustType("Label"))

	src := containerConfig()
	b, err := e.Build(src)
	require.NoError(t, err)

	assert.Equal(t, syntax.Ident("ContainerConfig"), b.Name)
	assert.Nil(t, b.Impls)
	require.Len(t, b.Fields, 3)

	t.Run("discard composes with remap", func(t *testing.T) {
		assert.Empty(t, b.Fields[0].Attrs)
		assert.Empty(t, b.Fields[1].Attrs)
		assert.Equal(t, "Option<Vec<EnvVar>>", syntax.TypeString(b.Fields[1].Type))
	})

	t.Run("remap without option wrapper", func(t *testing.T) {
		assert.Equal(t, "Vec<Label>", syntax.TypeString(b.Fields[2].Type))
		require.Len(t, b.Fields[2].Attrs, 1)
		assert.Equal(t, syntax.Ident("doc"), b.Fields[2].Attrs[0].Name())
	})

	t.Run("source is untouched", func(t *testing.T) {
		assert.Len(t, src.Fields[0].Attrs, 2)
		assert.Equal(t, "Option<Vec<String>>", syntax.TypeString(src.Fields[1].Type))
		assert.Len(t, src.Impls, 1)
	})
}

func TestBuildFirstRuleWins(t *testing.T) {
	e := NewEngine()
	e.ForItem("ContainerConfig").WithField("hostname").ThenMap(syntax.MustType("Hostname")).
		ForAll().AndAllFields().ThenMap(syntax.MustType("Never")).
		ForAll().WithField("env").ThenRemapToVec(syntax.MustType("A")).
		ForAll().WithField("env").ThenRemapToVec(syntax.MustType("B"))

	b, err := e.Build(containerConfig())
	require.NoError(t, err)
	assert.Equal(t, "Hostname", syntax.TypeString(b.Fields[0].Type))
	assert.Equal(t, "Never", syntax.TypeString(b.Fields[2].Type))

	t.Run("map and remap are different kinds and compose in order", func(t *testing.T) {
		// env: map to Never first, then remap to Vec<A>; Never has no Option.
		assert.Equal(t, "Vec<A>", syntax.TypeString(b.Fields[1].Type))
	})
}

func TestBuildDiscardRulesKeyedByAttribute(t *testing.T) {
	e := NewEngine()
	e.ForAll().AndAllFields().ThenDiscardAttribute("serde").
		ForAll().AndAllFields().ThenDiscardAttribute("doc")

	b, err := e.Build(containerConfig())
	require.NoError(t, err)
	for _, f := range b.Fields {
		assert.Empty(t, f.Attrs, f.Name)
	}
}

func TestBuildRejectsNonStruct(t *testing.T) {
	e := NewEngine()
	_, err := e.Build(&syntax.Enum{Name: "Kind"})
	require.ErrorIs(t, err, ErrNotStruct)
}

func TestGenerate(t *testing.T) {
	e := NewEngine()
	e.ForAll().AndAllFields().ThenDiscardAttribute("serde")

	params := module.New("params")
	require.NoError(t, params.PushAll(
		&syntax.Struct{Name: "ListParams", Fields: []syntax.Field{{Name: "all", Type: syntax.MustType("bool")}}},
		&syntax.Struct{Name: "CreateParams"},
		&syntax.Enum{Name: "OtherParams"},
	))
	models := module.New("models")
	require.NoError(t, models.PushAll(
		containerConfig(),
		&syntax.Struct{Name: "ListParams", Fields: []syntax.Field{{Name: "shadowed", Type: syntax.MustType("u8")}}},
		&syntax.Struct{Name: "Unrelated"},
	))

	out, err := e.Generate(SuffixMatcher("Params", "Config"), params, models)
	require.NoError(t, err)

	var names []syntax.Ident
	for _, s := range out {
		names = append(names, s.Name)
	}
	assert.Equal(t, []syntax.Ident{"ContainerConfig", "CreateParams", "ListParams"}, names)

	t.Run("duplicate identifiers keep the first module's declaration", func(t *testing.T) {
		require.Len(t, out[2].Fields, 1)
		assert.Equal(t, syntax.Ident("all"), out[2].Fields[0].Name)
	})

	t.Run("one builder per identifier", func(t *testing.T) {
		seen := map[syntax.Ident]bool{}
		for _, s := range out {
			assert.False(t, seen[s.Name], s.Name)
			seen[s.Name] = true
		}
	})
}

func TestGenerateNothingMatches(t *testing.T) {
	e := NewEngine()
	m := module.New("models")
	require.NoError(t, m.Push(&syntax.Struct{Name: "Thing"}))
	out, err := e.Generate(SuffixMatcher("Params"), m)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAddValidates(t *testing.T) {
	e := NewEngine()
	require.Error(t, e.Add(Rule{Action: ActionDiscardAttribute}))
	require.Error(t, e.Add(Rule{Action: ActionMap}))
	require.Error(t, e.Add(Rule{Action: ActionKind(9), Target: syntax.MustType("u8")}))
	require.NoError(t, e.Add(Rule{Type: "A", Action: ActionMap, Target: syntax.MustType("u8")}))
	require.Len(t, e.Rules(), 1)
	assert.Equal(t, "A.* map u8", e.Rules()[0].String())
}
