package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cartridge/evaluator/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "evaluate [env_id] [output_folder]",
	Short: "Evaluate a trained policy",
	Long: `Evaluate runs a pretrained action-value policy against an environment
for a number of episodes and reports the reward of each episode and the
average reward over the run.

Frames are stacked into states of --history-length frames; the policy acts
randomly until the history is full and with probability
--exploration-rate-test afterwards.`,
	Args:              cobra.MaximumNArgs(2),
	PersistentPreRunE: loadConfig,
	RunE:              runEvaluate,
}

var serveCmd = &cobra.Command{
	Use:   "serve-env",
	Short: "Serve the built-in environments over the engine gRPC service",
	RunE:  runServe,
}

func init() {
	cfg = config.Default()

	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	flags := rootCmd.PersistentFlags()

	// Environment settings
	flags.StringVar(&cfg.EnvID, "env-id", cfg.EnvID, "Environment to evaluate in (e.g., cartpole)")
	flags.StringVar(&cfg.EngineAddr, "engine-addr", cfg.EngineAddr, "Remote engine service address (empty for built-in environments)")
	flags.IntVar(&cfg.ScreenHeight, "screen-height", cfg.ScreenHeight, "Screen height after resize")
	flags.IntVar(&cfg.ScreenWidth, "screen-width", cfg.ScreenWidth, "Screen width after resize")

	// State settings
	flags.IntVar(&cfg.HistoryLength, "history-length", cfg.HistoryLength, "How many screen frames form a state")
	flags.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Batch size for the predictor")

	// Agent settings
	flags.StringVar(&cfg.Policy, "policy", cfg.Policy, "Policy to evaluate (epsilon-greedy, random)")
	flags.Float64Var(&cfg.ExplorationRateTest, "exploration-rate-test", cfg.ExplorationRateTest, "Exploration rate used during testing")
	flags.StringVar(&cfg.LoadWeights, "load-weights", cfg.LoadWeights, "Load predictor weights from file")

	// Main loop settings
	flags.IntVar(&cfg.NumEpisodes, "num-episodes", cfg.NumEpisodes, "Number of episodes to test")
	flags.IntVar(&cfg.MaxSteps, "max-steps", cfg.MaxSteps, "Maximum steps per episode")
	flags.Int64Var(&cfg.RandomSeed, "random-seed", cfg.RandomSeed, "Random seed for repeatable experiments (0 for time based)")

	// Recording settings
	flags.StringVar(&cfg.OutputFolder, "output-folder", cfg.OutputFolder, "Where to write results to (empty to disable)")
	flags.StringVar(&cfg.RunTag, "run-tag", cfg.RunTag, "Tag used to name result files")
	flags.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Overwrite previous results with the same tag")

	// Logging
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	serveCmd.Flags().String("addr", ":50051", "Engine service listen address")
	rootCmd.AddCommand(serveCmd)

	// Bind flags to viper for environment variable support
	flags.VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	viper.SetEnvPrefix("EVAL")
	viper.AutomaticEnv()
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}
	if len(args) > 0 {
		cfg.EnvID = args[0]
	}
	if len(args) > 1 {
		cfg.OutputFolder = args[1]
	}
	return cfg.Validate()
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
