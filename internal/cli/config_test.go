package cli

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/utils"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "mergeme", cfg.Prefix)
	assert.Equal(t, "mergeme_gen.go", cfg.Output)
	assert.True(t, cfg.Assertions)
	assert.True(t, cfg.Features.Generate)
	assert.Empty(t, cfg.Source)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `prefix = "patch"
output = "partials_gen.go"
assertions = false
jobs = 3
log_level = "debug"

[features]
generate = false
`)

	cfg, err := LoadConfig("", dir)
	require.NoError(t, err)

	assert.Equal(t, "patch", cfg.Prefix)
	assert.Equal(t, "partials_gen.go", cfg.Output)
	assert.False(t, cfg.Assertions)
	assert.Equal(t, 3, cfg.JobCount())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Features.Generate)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.Source)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "jobs = 2\n")

	cfg, err := LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Jobs)
	assert.True(t, cfg.Assertions)
	assert.True(t, cfg.Features.Generate)
	assert.Equal(t, "mergeme", cfg.Prefix)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"syntax", "prefix = \n", "line 1"},
		{"unknown key", "colour = \"red\"\n", "unknown keys"},
		{"wrong type", "jobs = \"many\"\n", "failed to parse"},
		{"bad prefix", "prefix = \"merge-me\"\n", "prefix"},
		{"bad output", "output = \"gen.txt\"\n", "output"},
		{"test file output", "output = \"gen_test.go\"\n", "output"},
		{"too many jobs", "jobs = 1000\n", "jobs"},
		{"bad log level", "log_level = \"loud\"\n", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			writeFile(t, path, tt.content)

			_, err := LoadConfig(path, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), "")
	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
}

func TestConfigJobCount(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.JobCount())
	cfg.Jobs = 4
	assert.Equal(t, 4, cfg.JobCount())
}

func TestConfigDiagnosticLevel(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, utils.DiagnosticInfo, cfg.DiagnosticLevel())
	cfg.Verbose = true
	assert.Equal(t, utils.DiagnosticVerbose, cfg.DiagnosticLevel())
	cfg.Quiet = true
	assert.Equal(t, utils.DiagnosticError, cfg.DiagnosticLevel())
}
