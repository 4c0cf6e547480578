package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cartridge/evaluator/internal/history"
)

// Policy names accepted by Config.Policy
const (
	PolicyEpsilonGreedy = "epsilon-greedy"
	PolicyRandom        = "random"
)

// Config holds all evaluator configuration
type Config struct {
	// Environment
	EnvID        string `mapstructure:"env_id"`
	EngineAddr   string `mapstructure:"engine_addr"`
	ScreenHeight int    `mapstructure:"screen_height"`
	ScreenWidth  int    `mapstructure:"screen_width"`

	// State history
	HistoryLength int `mapstructure:"history_length"`
	BatchSize     int `mapstructure:"batch_size"`

	// Agent
	Policy              string  `mapstructure:"policy"`
	ExplorationRateTest float64 `mapstructure:"exploration_rate_test"`
	LoadWeights         string  `mapstructure:"load_weights"`

	// Main loop
	NumEpisodes int   `mapstructure:"num_episodes"`
	MaxSteps    int   `mapstructure:"max_steps"`
	RandomSeed  int64 `mapstructure:"random_seed"`

	// Run recording
	OutputFolder string `mapstructure:"output_folder"`
	RunTag       string `mapstructure:"run_tag"`
	Overwrite    bool   `mapstructure:"overwrite"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		EnvID:               "cartpole",
		ScreenHeight:        52,
		ScreenWidth:         40,
		HistoryLength:       4,
		BatchSize:           32,
		Policy:              PolicyEpsilonGreedy,
		ExplorationRateTest: 0.05,
		NumEpisodes:         10,
		MaxSteps:            10000,
		RunTag:              "simple-dqn",
		Overwrite:           true,
		LogLevel:            "info",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.EnvID == "" {
		return fmt.Errorf("env_id is required")
	}
	if c.ScreenHeight <= 0 || c.ScreenWidth <= 0 {
		return fmt.Errorf("screen dims must be positive (got %dx%d)", c.ScreenHeight, c.ScreenWidth)
	}
	if c.HistoryLength < history.MinFill {
		return fmt.Errorf("history_length must be at least %d (got %d)", history.MinFill, c.HistoryLength)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.Policy != PolicyEpsilonGreedy && c.Policy != PolicyRandom {
		return fmt.Errorf("policy must be %q or %q (got %q)", PolicyEpsilonGreedy, PolicyRandom, c.Policy)
	}
	if c.ExplorationRateTest < 0 || c.ExplorationRateTest > 1 {
		return fmt.Errorf("exploration_rate_test must be between 0 and 1 (got %.2f)", c.ExplorationRateTest)
	}
	if c.NumEpisodes <= 0 {
		return fmt.Errorf("num_episodes must be positive")
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive")
	}
	if c.OutputFolder != "" && c.RunTag == "" {
		return fmt.Errorf("run_tag is required when output_folder is set")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// InputSize returns the number of values in one flattened state.
func (c *Config) InputSize() int {
	return c.HistoryLength * c.ScreenHeight * c.ScreenWidth
}
