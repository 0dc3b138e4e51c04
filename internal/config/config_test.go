package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10*time.Minute, cfg.Cache.FreshTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.StaleTTL)
	assert.Equal(t, 25, cfg.Scraper.MaxJobs)
	assert.Equal(t, 5, cfg.Enrichment.Concurrency)
	assert.Equal(t, 0.5, cfg.Analysis.InternshipThreshold)
	assert.Empty(t, cfg.Proxy.Host)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 9090
cache:
  fresh_ttl: 5m
  stale_ttl: 12h
proxy:
  host: ${TEST_PROXY_HOST}
  port: "3128"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	t.Setenv("TEST_PROXY_HOST", "proxy.internal")
	t.Setenv("PROXY_USER", "scout")
	t.Setenv("PROXY_PASS", "s3cret")
	t.Setenv("ENRICHMENT_CONCURRENCY", "3")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.FreshTTL)
	assert.Equal(t, 12*time.Hour, cfg.Cache.StaleTTL)
	assert.Equal(t, "proxy.internal", cfg.Proxy.Host)
	assert.Equal(t, "3128", cfg.Proxy.Port)
	assert.Equal(t, "scout", cfg.Proxy.Username)
	assert.Equal(t, "s3cret", cfg.Proxy.Password)
	assert.Equal(t, 3, cfg.Enrichment.Concurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"stale window not wider than fresh", func(c *Config) { c.Cache.StaleTTL = c.Cache.FreshTTL }},
		{"zero fresh ttl", func(c *Config) { c.Cache.FreshTTL = 0 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"no enrichment workers", func(c *Config) { c.Enrichment.Concurrency = 0 }},
		{"no jobs", func(c *Config) { c.Scraper.MaxJobs = 0 }},
		{"threshold out of range", func(c *Config) { c.Analysis.InternshipThreshold = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("JOBSCOUT_TEST_VAR", "value")

	assert.Equal(t, "a value b", expandEnvVars("a ${JOBSCOUT_TEST_VAR} b"))
	assert.Equal(t, "a value b", expandEnvVars("a $JOBSCOUT_TEST_VAR b"))
	assert.Equal(t, "${JOBSCOUT_UNSET_VAR}", expandEnvVars("${JOBSCOUT_UNSET_VAR}"))
}
