// Package config loads restitch settings from restitch.toml, RESTITCH_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "restitch.toml"

type Config struct {
	Input    string `mapstructure:"input"`
	Archive  string `mapstructure:"archive"`
	Output   string `mapstructure:"output"`
	Manifest string `mapstructure:"manifest"`
	Jobs     int    `mapstructure:"jobs"`

	Groups  GroupsConfig  `mapstructure:"groups"`
	Rewrite RewriteConfig `mapstructure:"rewrite"`
	Facade  FacadeConfig  `mapstructure:"facade"`
	Prune   PruneConfig   `mapstructure:"prune"`
	Params  ParamsConfig  `mapstructure:"params"`
	Builder BuilderConfig `mapstructure:"builder"`
}

// GroupsConfig names the input group directories.
type GroupsConfig struct {
	Models string `mapstructure:"models"`
	Apis   string `mapstructure:"apis"`
}

type RewriteConfig struct {
	DropImports   []string `mapstructure:"drop_imports"`
	StripPrefixes []string `mapstructure:"strip_prefixes"`
}

type FacadeConfig struct {
	Suffix     string `mapstructure:"suffix"`
	HandleType string `mapstructure:"handle_type"`
	Field      string `mapstructure:"field"`
}

type PruneConfig struct {
	Module      string   `mapstructure:"module"`
	Struct      string   `mapstructure:"struct"`
	AuxStructs  []string `mapstructure:"aux_structs"`
	Fields      []string `mapstructure:"fields"`
	Constructor string   `mapstructure:"constructor"`
}

type ParamsConfig struct {
	Suffix string `mapstructure:"suffix"`
	Module string `mapstructure:"module"`
}

type BuilderConfig struct {
	Module   string       `mapstructure:"module"`
	Suffixes []string     `mapstructure:"suffixes"`
	Rules    []RuleConfig `mapstructure:"rules"`
}

// RuleConfig is one [[builder.rules]] entry. Empty Type or Field selects
// everything; exactly one action key must be set.
type RuleConfig struct {
	Type             string `mapstructure:"type"`
	Field            string `mapstructure:"field"`
	DiscardAttribute string `mapstructure:"discard_attribute"`
	RemapToVec       string `mapstructure:"remap_to_vec"`
	Map              string `mapstructure:"map"`
}

// NewViper prepares a viper instance with defaults and environment binding,
// then reads configFile. An empty configFile falls back to DefaultFile when
// it exists.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("RESTITCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return v, nil
		}
		configFile = DefaultFile
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile is NewViper followed by Load.
func LoadFile(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return Load(v)
}
