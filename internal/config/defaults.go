package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input", "dump")
	v.SetDefault("output", "generated")
	v.SetDefault("manifest", "restitch.manifest.toml")
	v.SetDefault("jobs", 0) // GOMAXPROCS

	v.SetDefault("groups.models", "models")
	v.SetDefault("groups.apis", "apis")

	v.SetDefault("rewrite.drop_imports", []string{"crate::models", "crate::apis"})
	v.SetDefault("rewrite.strip_prefixes", []string{"crate::models", "models", "crate::apis"})

	v.SetDefault("facade.suffix", "_api")
	v.SetDefault("facade.handle_type", "std::sync::Arc<configuration::Configuration>")
	v.SetDefault("facade.field", "configuration")

	v.SetDefault("prune.module", "configuration")
	v.SetDefault("prune.struct", "Configuration")
	v.SetDefault("prune.aux_structs", []string{"BasicAuth", "ApiKey"})
	v.SetDefault("prune.fields", []string{"basic_auth", "oauth_access_token", "bearer_access_token", "api_key"})
	v.SetDefault("prune.constructor", "new")

	v.SetDefault("params.suffix", "Params")
	v.SetDefault("params.module", "params")

	v.SetDefault("builder.module", "builders")
	v.SetDefault("builder.suffixes", []string{"Params", "Config"})
	v.SetDefault("builder.rules", []map[string]any{{"discard_attribute": "serde"}})
}
