package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.toml"), noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadWithEnv("", noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "undotree.toml", `
[log]
level = "debug"
format = "json"

[snapshot]
compress_threshold = 128

[lua]
scripts = ["a.lua", "b.lua"]
`)
	cfg, err := LoadWithEnv(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 128, cfg.Snapshot.CompressThreshold)
	assert.Equal(t, []string{"a.lua", "b.lua"}, cfg.Lua.Scripts)
	assert.Equal(t, 256, cfg.Lua.CallStackSize, "unset fields keep defaults")
	assert.Equal(t, "undotree", cfg.Metrics.Namespace)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "undotree.yaml", `
log:
  level: warn
metrics:
  enabled: false
tracing:
  enabled: true
  service_name: editor
`)
	cfg, err := LoadWithEnv(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "editor", cfg.Tracing.ServiceName)
}

func TestLoad_ParseError(t *testing.T) {
	t.Run("toml", func(t *testing.T) {
		path := writeFile(t, "bad.toml", "[log]\nlevel = \n")
		_, err := LoadWithEnv(path, noEnv)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, path, pe.Path)
		assert.Positive(t, pe.Line)
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yml", "log: [unclosed\n")
		_, err := LoadWithEnv(path, noEnv)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := writeFile(t, "undotree.ini", "level=debug")
		_, err := LoadWithEnv(path, noEnv)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "undotree.toml", "[log]\nlevel = \"debug\"\n")
	cfg, err := LoadWithEnv(path, envMap(map[string]string{
		"UNDOTREE_LOG_LEVEL":                   "error",
		"UNDOTREE_LOG_FORMAT":                  "json",
		"UNDOTREE_METRICS_NAMESPACE":           "editor",
		"UNDOTREE_SNAPSHOT_COMPRESS_THRESHOLD": "0",
		"UNDOTREE_TRACING":                     "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "editor", cfg.Metrics.Namespace)
	assert.Equal(t, 0, cfg.Snapshot.CompressThreshold)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_BadEnv(t *testing.T) {
	tests := map[string]string{
		"UNDOTREE_SNAPSHOT_COMPRESS_THRESHOLD": "lots",
		"UNDOTREE_TRACING":                     "maybe",
	}
	for name, val := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadWithEnv("", envMap(map[string]string{name: val}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Snapshot.CompressThreshold = -1
	cfg.Metrics.Namespace = ""
	cfg.Lua.CallStackSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	paths := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{
		"log.level",
		"log.format",
		"snapshot.compress_threshold",
		"metrics.namespace",
		"lua.call_stack_size",
	}, paths)
}

func TestValidate_DisabledSectionsSkipChecks(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Namespace = ""
	cfg.Tracing.ServiceName = ""
	assert.NoError(t, cfg.Validate())
}
