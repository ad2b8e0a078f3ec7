package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, cfg.Decision.Budget)
	assert.Equal(t, "v1", cfg.Policy.RuleSetVersion)
	assert.Equal(t, "memory", cfg.Audit.Backend)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
decision:
  budget: 300ms
  signal_timeout: 100ms
  ensemble_weight: 0.7
  anomaly_weight: 0.3
  hard_threshold: 0.9
  challenge_threshold: 0.6
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 300*time.Millisecond, cfg.Decision.Budget)
	assert.Equal(t, 0.7, cfg.Decision.EnsembleWeight)
	// Sections the file does not mention keep their defaults.
	assert.Equal(t, "v1", cfg.Policy.RuleSetVersion)
	assert.NotEmpty(t, cfg.Policy.Rules)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FRAUDSHIELD_ADDR", ":7070")
	t.Setenv("JWT_SIGNING_KEY", "env-key")
	t.Setenv("FRAUDSHIELD_REDIS_URL", "redis://localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "env-key", cfg.Server.JWTSigningKey)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero budget", func(c *Config) { c.Decision.Budget = 0 }},
		{"signal timeout above budget", func(c *Config) { c.Decision.SignalTimeout = c.Decision.Budget }},
		{"weights not summing to one", func(c *Config) { c.Decision.EnsembleWeight = 0.9 }},
		{"hard below challenge", func(c *Config) { c.Decision.HardThreshold = 0.4 }},
		{"missing rule set version", func(c *Config) { c.Policy.RuleSetVersion = "" }},
		{"empty rule set", func(c *Config) { c.Policy.Rules = nil }},
		{"rule without expr", func(c *Config) { c.Policy.Rules[0].Expr = "" }},
		{"duplicate rule id", func(c *Config) { c.Policy.Rules[1].ID = c.Policy.Rules[0].ID }},
		{"unknown rule outcome", func(c *Config) { c.Policy.Rules[0].Outcome = "REVIEW" }},
		{"missing sanitize schema", func(c *Config) { c.Sanitize.SchemaVersion = "" }},
		{"zero agent timeout", func(c *Config) { c.Agents.Timeout = 0 }},
		{"unknown audit backend", func(c *Config) { c.Audit.Backend = "s3" }},
		{"postgres backend without dsn", func(c *Config) { c.Audit.Backend = "postgres" }},
		{"kafka backend without brokers", func(c *Config) { c.Audit.Backend = "kafka" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSnapshotStoreGenerations(t *testing.T) {
	store := NewStore(Default())
	first := store.Current()
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), first.Version)

	cfg := Default()
	cfg.Policy.RuleSetVersion = "v2"
	candidate := store.Next(cfg)
	assert.Equal(t, uint64(2), candidate.Version)

	// Not current until installed.
	assert.Same(t, first, store.Current())
	store.Install(candidate)
	assert.Same(t, candidate, store.Current())
}
