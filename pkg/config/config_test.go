package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/ltm-terrify/pkg/render"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir isolates a test from config and login files in the working directory
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	f := pflag.NewFlagSet("ltm-terrify", pflag.ContinueOnError)
	RegisterFlags(f)
	require.NoError(t, f.Parse(args))
	return Load(f)
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, DefaultPartition, cfg.Partition)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "error", cfg.Collisions)
	assert.Equal(t, "comment", cfg.ImportStyle)
	assert.Equal(t, DefaultLoginFile, cfg.LoginFile)
	assert.True(t, cfg.Summary)
	assert.False(t, cfg.Orphans)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadPriority(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, filepath.Join(dir, DefaultConfigFile), `
host = "lb-file.example.com"
filter = "from-file"
partition = "Tenant"
import-style = "block"
`)
	t.Setenv("LTM_TERRIFY_FILTER", "from-env")
	t.Setenv("LTM_TERRIFY_REWRITE_HINTS", "true")

	cfg, err := load(t, "--filter", "/from-flag/", "-vv")
	require.NoError(t, err)

	assert.Equal(t, "lb-file.example.com", cfg.Host, "file beats defaults")
	assert.Equal(t, "Tenant", cfg.Partition)
	assert.Equal(t, "block", cfg.ImportStyle)
	assert.True(t, cfg.RewriteHints, "env beats defaults")
	assert.Equal(t, "/from-flag/", cfg.Filter, "flags beat env and file")
	assert.Equal(t, 2, cfg.VerboseCnt)
}

func TestLoadUnchangedFlagsKeepLowerLayers(t *testing.T) {
	inTempDir(t)
	t.Setenv("LTM_TERRIFY_IMPORT_STYLE", "block")

	cfg, err := load(t, "--orphans")
	require.NoError(t, err)

	assert.Equal(t, "block", cfg.ImportStyle)
	assert.True(t, cfg.Orphans)
}

func TestLoadExplicitConfigMustExist(t *testing.T) {
	inTempDir(t)

	_, err := load(t, "--config", "missing.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.toml")
}

func TestLoadRejectsBrokenConfig(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, filepath.Join(dir, DefaultConfigFile), "host = \n")

	_, err := load(t)
	require.Error(t, err)
}

func TestLoadLoginFile(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, filepath.Join(dir, DefaultLoginFile), `{"bigip": "lb1.example.com", "user": "admin", "password": "secret"}`)

	t.Run("fills credentials", func(t *testing.T) {
		cfg, err := load(t)
		require.NoError(t, err)
		assert.Equal(t, "lb1.example.com", cfg.Host)
		assert.Equal(t, "admin", cfg.User)
		assert.Equal(t, "secret", cfg.Password)
	})

	t.Run("flags win", func(t *testing.T) {
		cfg, err := load(t, "--host", "lb2.example.com")
		require.NoError(t, err)
		assert.Equal(t, "lb2.example.com", cfg.Host)
		assert.Equal(t, "admin", cfg.User)
	})

	t.Run("ignored for snapshots", func(t *testing.T) {
		cfg, err := load(t, "--snapshot", "lb.yaml")
		require.NoError(t, err)
		assert.Empty(t, cfg.Host)
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := load(t, "--login-file", "other.json")
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Snapshot:    "lb.yaml",
			Collisions:  "error",
			ImportStyle: "comment",
			LogFormat:   "text",
			Timeout:     time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"snapshot source", func(c *Config) {}, ""},
		{"live source", func(c *Config) { c.Snapshot = ""; c.Host = "lb1"; c.User = "admin" }, ""},
		{"no source", func(c *Config) { c.Snapshot = "" }, "no source"},
		{"both sources", func(c *Config) { c.Host = "lb1" }, "mutually exclusive"},
		{"host without user", func(c *Config) { c.Snapshot = ""; c.Host = "lb1" }, "--user"},
		{"watch needs snapshot", func(c *Config) { c.Snapshot = ""; c.Host = "lb1"; c.User = "u"; c.Watch = true }, "--watch"},
		{"bad filter", func(c *Config) { c.Filter = "/[/" }, "invalid filter"},
		{"bad collisions", func(c *Config) { c.Collisions = "ignore" }, "collision policy"},
		{"bad import style", func(c *Config) { c.ImportStyle = "hcl" }, "import style"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
		})
	}
}

func TestRenderOptions(t *testing.T) {
	cfg := Config{NoResources: true, Orphans: true, ImportStyle: "block", RewriteHints: true}

	assert.Equal(t, render.Options{
		EmitResources: false,
		ShowOrphans:   true,
		ImportStyle:   render.ImportBlock,
		RewriteHints:  true,
	}, cfg.RenderOptions())
}
