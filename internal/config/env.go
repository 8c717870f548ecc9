package config

import (
	"fmt"
	"strconv"
)

// EnvPrefix is the prefix shared by every environment override.
const EnvPrefix = "UNDOTREE_"

// envSetter applies one environment variable to a config.
type envSetter func(c *Config, val string) error

// envMapping maps environment variables to the settings they override.
var envMapping = map[string]envSetter{
	EnvPrefix + "LOG_LEVEL": func(c *Config, val string) error {
		c.Log.Level = val
		return nil
	},
	EnvPrefix + "LOG_FORMAT": func(c *Config, val string) error {
		c.Log.Format = val
		return nil
	},
	EnvPrefix + "METRICS_NAMESPACE": func(c *Config, val string) error {
		c.Metrics.Namespace = val
		return nil
	},
	EnvPrefix + "SNAPSHOT_COMPRESS_THRESHOLD": func(c *Config, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		c.Snapshot.CompressThreshold = n
		return nil
	},
	EnvPrefix + "TRACING": func(c *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		c.Tracing.Enabled = b
		return nil
	},
}

// applyEnv overrides settings from the environment.
// Note: Empty string values are treated as valid values, not as unset.
func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for name, set := range envMapping {
		val, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(c, val); err != nil {
			return fmt.Errorf("environment %s=%q: %w", name, val, err)
		}
	}
	return nil
}
