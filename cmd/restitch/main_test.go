package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calumari/restitch/internal/emit"
)

func TestVersionFrom(t *testing.T) {
	tests := []struct {
		name string
		bi   debug.BuildInfo
		want string
	}{
		{
			name: "module version wins",
			bi:   debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}, Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}},
			want: "v1.2.3",
		},
		{
			name: "short revision for devel builds",
			bi:   debug.BuildInfo{Main: debug.Module{Version: "(devel)"}, Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}},
			want: "0123456789ab",
		},
		{
			name: "short revision kept whole",
			bi:   debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}},
			want: "abc",
		},
		{
			name: "nothing recorded",
			want: "devel",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, versionFrom(&tt.bi))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	noColor := color.NoColor
	t.Cleanup(func() { color.NoColor = noColor })
	var out bytes.Buffer
	root := newRootCmd("v0.4.0")
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--color", "off"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "restitch v0.4.0\n", out.String())

	t.Run("forced colour wraps the version", func(t *testing.T) {
		out.Reset()
		root.SetArgs([]string{"version", "--color", "on"})
		require.NoError(t, root.Execute())
		assert.False(t, color.NoColor)
		assert.Equal(t, "restitch "+versionColor.Sprint("v0.4.0")+"\n", out.String())
		assert.Contains(t, out.String(), "\x1b[32;1mv0.4.0")
	})

	t.Run("unknown colour mode", func(t *testing.T) {
		root.SetArgs([]string{"version", "--color", "sometimes"})
		require.Error(t, root.Execute())
	})
}

func runGenerateCmd(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd("v0.4.0")
	root.SetOut(&out)
	root.SetArgs(append([]string{"generate", "--color", "off"}, args...))
	require.NoError(t, root.ExecuteContext(context.Background()))
	return out.String()
}

func TestGenerate(t *testing.T) {
	archive, err := filepath.Abs(filepath.Join("testdata", "widget.txtar"))
	require.NoError(t, err)
	t.Chdir(t.TempDir())

	first := runGenerateCmd(t, "--archive", archive)
	assert.Equal(t, 4, strings.Count(first, " changed"), first)
	assert.Contains(t, first, "wrote 4 units in generated")

	t.Run("every unit is written", func(t *testing.T) {
		for _, name := range []string{"models.rs", "apis.rs", "params.rs", "builders.rs"} {
			data, err := os.ReadFile(filepath.Join("generated", name))
			require.NoError(t, err, name)
			assert.True(t, strings.HasPrefix(string(data), "// Code generated by restitch v0.4.0. DO NOT EDIT.\n"), name)
		}
	})

	t.Run("operations are folded into an api object", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join("generated", "apis.rs"))
		require.NoError(t, err)
		src := string(data)
		assert.Contains(t, src, "pub struct WidgetApi {")
		assert.Contains(t, src, "pub async fn list(&mut self, params: WidgetListParams) -> Result<(), Error> {")
		assert.Contains(t, src, "send(self.client)")
		assert.NotContains(t, src, "pub struct WidgetListParams")
	})

	t.Run("manifest records every unit", func(t *testing.T) {
		m, err := emit.ReadManifest(filepath.Join("generated", "restitch.manifest.toml"))
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "v0.4.0", m.Version)
		require.Len(t, m.Units, 4)
		e, ok := m.Unit("params")
		require.True(t, ok)
		assert.Equal(t, "params.rs", e.File)
		assert.Equal(t, []string{"params"}, e.Modules)
	})

	t.Run("a second run changes nothing", func(t *testing.T) {
		second := runGenerateCmd(t, "--archive", archive)
		assert.Equal(t, 4, strings.Count(second, "unchanged"), second)
	})
}

func TestGenerateFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join("dump", "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("dump", "models", "bad.yaml"), []byte("decls:\n  - mod: inner\n"), 0o644))

	root := newRootCmd("v0.4.0")
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"generate", "--output", "out"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested module inner")

	_, statErr := os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateConfigFile(t *testing.T) {
	archive, err := filepath.Abs(filepath.Join("testdata", "widget.txtar"))
	require.NoError(t, err)
	t.Chdir(t.TempDir())
	cfg := "output = \"rust\"\nmanifest = \"gen.toml\"\n\n[params]\nsuffix = \"Params\"\nmodule = \"requests\"\n"
	require.NoError(t, os.WriteFile("custom.toml", []byte(cfg), 0o644))

	out := runGenerateCmd(t, "--config", "custom.toml", "--archive", archive)
	assert.Contains(t, out, "wrote 4 units in rust")

	data, err := os.ReadFile(filepath.Join("rust", "params.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "pub mod requests {")
	_, err = os.Stat(filepath.Join("rust", "gen.toml"))
	require.NoError(t, err)
}
