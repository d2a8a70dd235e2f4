package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "restitch.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "dump", c.Input)
	assert.Equal(t, "generated", c.Output)
	assert.Equal(t, "restitch.manifest.toml", c.Manifest)
	assert.Equal(t, GroupsConfig{Models: "models", Apis: "apis"}, c.Groups)
	assert.Equal(t, "_api", c.Facade.Suffix)
	assert.Equal(t, "std::sync::Arc<configuration::Configuration>", c.Facade.HandleType)
	assert.Equal(t, []string{"BasicAuth", "ApiKey"}, c.Prune.AuxStructs)
	assert.Equal(t, "Params", c.Params.Suffix)
	assert.Equal(t, []string{"Params", "Config"}, c.Builder.Suffixes)
	assert.Equal(t, []RuleConfig{{DiscardAttribute: "serde"}}, c.Builder.Rules)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
input = "in"
output = "out"

[facade]
suffix = "_ops"

[builder]
suffixes = ["Params"]

[[builder.rules]]
discard_attribute = "serde"

[[builder.rules]]
type = "ContainerConfig"
field = "env"
remap_to_vec = "EnvVar"
`)
	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "in", c.Input)
	assert.Equal(t, "out", c.Output)
	assert.Equal(t, "_ops", c.Facade.Suffix)
	assert.Equal(t, "configuration", c.Facade.Field, "defaults fill keys the file omits")
	assert.Equal(t, []string{"Params"}, c.Builder.Suffixes)
	assert.Equal(t, []RuleConfig{
		{DiscardAttribute: "serde"},
		{Type: "ContainerConfig", Field: "env", RemapToVec: "EnvVar"},
	}, c.Builder.Rules)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "output = \"from-file\"\n")
	t.Setenv("RESTITCH_OUTPUT", "from-env")
	t.Setenv("RESTITCH_FACADE_SUFFIX", "_svc")
	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Output)
	assert.Equal(t, "_svc", c.Facade.Suffix)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Chdir(t.TempDir())
		c, err := LoadFile("")
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "empty facade suffix", mutate: func(c *Config) { c.Facade.Suffix = "" }, errMsg: "facade.suffix"},
		{name: "empty params suffix", mutate: func(c *Config) { c.Params.Suffix = "" }, errMsg: "params.suffix"},
		{name: "empty builder suffix", mutate: func(c *Config) { c.Builder.Suffixes = []string{"Params", ""} }, errMsg: "builder.suffixes[1]"},
		{name: "same group twice", mutate: func(c *Config) { c.Groups.Apis = "models" }, errMsg: "must differ"},
		{name: "negative jobs", mutate: func(c *Config) { c.Jobs = -1 }, errMsg: "jobs"},
		{name: "no input at all", mutate: func(c *Config) { c.Input, c.Archive = "", "" }, errMsg: "input or archive"},
		{name: "rule without action", mutate: func(c *Config) { c.Builder.Rules = []RuleConfig{{Type: "A"}} }, errMsg: "builder.rules[0]"},
		{
			name:   "rule with two actions",
			mutate: func(c *Config) { c.Builder.Rules = []RuleConfig{{Map: "u8", RemapToVec: "u8"}} },
			errMsg: "got 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid(t)
			require.NoError(t, c.Validate())
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
