package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"KP", "IR", "SY"}, cfg.Fraud.BlockedCountries)
	assert.True(t, cfg.Fraud.GetHighAmountThreshold().Equal(decimal.NewFromInt(10000)))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"decline threshold above one", func(c *Config) { c.Fraud.DeclineThreshold = 1.2 }},
		{"review not below decline", func(c *Config) { c.Fraud.ManualReviewThreshold = 0.7 }},
		{"blend does not sum to one", func(c *Config) { c.Fraud.ExternalBlendWeight = 0.5 }},
		{"negative ensemble weight", func(c *Config) {
			c.Ensemble.ClassifierWeight = -0.1
			c.Ensemble.RuleBasedWeight = 0.75
		}},
		{"ensemble does not sum to one", func(c *Config) { c.Ensemble.BehavioralWeight = 0.3 }},
		{"zero analysis timeout", func(c *Config) { c.Fraud.AnalysisTimeout = 0 }},
		{"unknown alert driver", func(c *Config) { c.Alerts.Driver = "carrier-pigeon" }},
		{"zero batch concurrency", func(c *Config) { c.Fraud.BatchConcurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
server:
  port: 9090
fraud:
  decline_threshold: 0.8
  analysis_timeout: 3s
alerts:
  driver: nats
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("FRAUD_FRAUD_MANUAL_REVIEW_THRESHOLD", "0.6")
	t.Setenv("FRAUD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.8, cfg.Fraud.DeclineThreshold)
	assert.Equal(t, 0.6, cfg.Fraud.ManualReviewThreshold)
	assert.Equal(t, 3*time.Second, cfg.Fraud.AnalysisTimeout)
	assert.Equal(t, "nats", cfg.Alerts.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}
