package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the complete undotree configuration.
type Config struct {
	Log      LogConfig      `toml:"log" yaml:"log"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
	Snapshot SnapshotConfig `toml:"snapshot" yaml:"snapshot"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`
	Tracing  TracingConfig  `toml:"tracing" yaml:"tracing"`
	Lua      LuaConfig      `toml:"lua" yaml:"lua"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`
	// Format is "text" or "json".
	Format string `toml:"format" yaml:"format"`
}

// HistoryConfig controls history bookkeeping.
type HistoryConfig struct {
	// DebugMoves logs every undo, redo and jump at debug level even when
	// the global level is higher.
	DebugMoves bool `toml:"debug_moves" yaml:"debug_moves"`
}

// SnapshotConfig controls selection snapshots recorded around each step.
type SnapshotConfig struct {
	// CompressThreshold is the size in bytes above which snapshots are
	// zstd-compressed. Zero disables compression.
	CompressThreshold int `toml:"compress_threshold" yaml:"compress_threshold"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Namespace string `toml:"namespace" yaml:"namespace"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	ServiceName string `toml:"service_name" yaml:"service_name"`
}

// LuaConfig controls Lua command scripts.
type LuaConfig struct {
	// Scripts are loaded in order at startup.
	Scripts []string `toml:"scripts" yaml:"scripts"`
	// CallStackSize bounds the Lua call stack.
	CallStackSize int `toml:"call_stack_size" yaml:"call_stack_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Snapshot: SnapshotConfig{
			CompressThreshold: 4096,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "undotree",
		},
		Tracing: TracingConfig{
			ServiceName: "undotree",
		},
		Lua: LuaConfig{
			CallStackSize: 256,
		},
	}
}

// Load builds a configuration from defaults, the file at path and the
// process environment, in increasing precedence. An empty path or a file
// that does not exist is not an error. The result is validated.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with a custom environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// File doesn't exist, not an error
		case err != nil:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := Decode(path, data, &cfg); err != nil {
				return Config{}, err
			}
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses data into cfg, choosing the format from the path's
// extension. Fields absent from data keep their current values.
func Decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			pe := &ParseError{Path: path, Message: err.Error(), Err: err}
			var de *toml.DecodeError
			if errors.As(err, &de) {
				pe.Line, pe.Column = de.Position()
			}
			return pe
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var fields []FieldError

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fields = append(fields, FieldError{Path: "log.level", Message: "must be debug, info, warn or error", Value: c.Log.Level})
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		fields = append(fields, FieldError{Path: "log.format", Message: "must be text or json", Value: c.Log.Format})
	}
	if c.Snapshot.CompressThreshold < 0 {
		fields = append(fields, FieldError{Path: "snapshot.compress_threshold", Message: "must not be negative", Value: c.Snapshot.CompressThreshold})
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		fields = append(fields, FieldError{Path: "metrics.namespace", Message: "required when metrics are enabled", Value: c.Metrics.Namespace})
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		fields = append(fields, FieldError{Path: "tracing.service_name", Message: "required when tracing is enabled", Value: c.Tracing.ServiceName})
	}
	if c.Lua.CallStackSize <= 0 {
		fields = append(fields, FieldError{Path: "lua.call_stack_size", Message: "must be positive", Value: c.Lua.CallStackSize})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
