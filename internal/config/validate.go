package config

import "github.com/cockroachdb/errors"

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Input == "" && c.Archive == "" {
		return errors.New("one of input or archive must be set")
	}
	if c.Output == "" {
		return errors.New("output cannot be empty")
	}
	if c.Jobs < 0 {
		return errors.Newf("jobs must be >= 0, got %d", c.Jobs)
	}
	if c.Groups.Models == "" || c.Groups.Apis == "" {
		return errors.New("groups.models and groups.apis cannot be empty")
	}
	if c.Groups.Models == c.Groups.Apis {
		return errors.Newf("groups.models and groups.apis must differ, both are %q", c.Groups.Models)
	}
	if c.Facade.Suffix == "" {
		return errors.New("facade.suffix cannot be empty")
	}
	if c.Facade.HandleType == "" || c.Facade.Field == "" {
		return errors.New("facade.handle_type and facade.field cannot be empty")
	}
	if c.Params.Suffix == "" {
		return errors.New("params.suffix cannot be empty")
	}
	if c.Params.Module == "" || c.Builder.Module == "" {
		return errors.New("params.module and builder.module cannot be empty")
	}
	for i, s := range c.Builder.Suffixes {
		if s == "" {
			return errors.Newf("builder.suffixes[%d] cannot be empty", i)
		}
	}
	for i, r := range c.Builder.Rules {
		if err := r.Validate(); err != nil {
			return errors.Wrapf(err, "builder.rules[%d]", i)
		}
	}
	return nil
}

// Validate checks that exactly one action is set.
func (r RuleConfig) Validate() error {
	n := 0
	for _, a := range []string{r.DiscardAttribute, r.RemapToVec, r.Map} {
		if a != "" {
			n++
		}
	}
	if n != 1 {
		return errors.Newf("exactly one of discard_attribute, remap_to_vec, map must be set, got %d", n)
	}
	return nil
}
