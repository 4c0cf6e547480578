package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.NumEpisodes)
	assert.Equal(t, 10000, cfg.MaxSteps)
	assert.Equal(t, 4*52*40, cfg.InputSize())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing env", func(c *Config) { c.EnvID = "" }},
		{"zero height", func(c *Config) { c.ScreenHeight = 0 }},
		{"short history", func(c *Config) { c.HistoryLength = 3 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"unknown policy", func(c *Config) { c.Policy = "softmax" }},
		{"negative epsilon", func(c *Config) { c.ExplorationRateTest = -0.1 }},
		{"epsilon above one", func(c *Config) { c.ExplorationRateTest = 1.1 }},
		{"no episodes", func(c *Config) { c.NumEpisodes = 0 }},
		{"no steps", func(c *Config) { c.MaxSteps = 0 }},
		{"output without tag", func(c *Config) { c.OutputFolder = "out"; c.RunTag = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
