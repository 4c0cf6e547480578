package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cartridge/evaluator/internal/config"
	"github.com/cartridge/evaluator/internal/engine"
	"github.com/cartridge/evaluator/internal/env"
	"github.com/cartridge/evaluator/internal/evaluator"
	"github.com/cartridge/evaluator/internal/policy"
	"github.com/cartridge/evaluator/internal/predictor"
	"github.com/cartridge/evaluator/internal/recorder"
)

func runEvaluate(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx, cancel := signalContext()
	defer cancel()

	if cfg.RandomSeed == 0 {
		cfg.RandomSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.RandomSeed))
	logger.Info().
		Str("env_id", cfg.EnvID).
		Str("policy", cfg.Policy).
		Int64("seed", cfg.RandomSeed).
		Msg("Starting evaluator")

	environment, closeEnv, err := openEnvironment(ctx, cfg, rng, logger)
	if err != nil {
		return err
	}
	defer closeEnv()

	p, err := buildPolicy(cfg, environment.ActionSpace(), rng, logger)
	if err != nil {
		return err
	}

	var rec recorder.Recorder = recorder.NoopRecorder{}
	if cfg.OutputFolder != "" {
		rec = recorder.NewFileRecorder(cfg)
	}

	ev, err := evaluator.New(cfg, environment, p,
		evaluator.WithRecorder(rec),
		evaluator.WithLogger(logger),
		evaluator.WithOutput(os.Stdout),
	)
	if err != nil {
		return err
	}

	summary, err := ev.Run(ctx)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	logger.Info().
		Str("run_id", summary.RunID).
		Float64("mean_reward", summary.MeanReward).
		Float64("reward_stddev", summary.RewardStdDev).
		Msg("Evaluation finished")
	return nil
}

// openEnvironment returns either a remote engine client or a built-in
// environment. Frame dims reported by a remote engine override cfg.
func openEnvironment(ctx context.Context, cfg *config.Config, rng *rand.Rand, logger zerolog.Logger) (env.Environment, func(), error) {
	if cfg.EngineAddr == "" {
		e, err := env.New(cfg.EnvID, cfg.ScreenHeight, cfg.ScreenWidth, rng)
		if err != nil {
			return nil, nil, err
		}
		return e, func() {}, nil
	}

	client, err := engine.Dial(ctx, cfg.EngineAddr, cfg.EnvID, rng)
	if err != nil {
		return nil, nil, err
	}
	if h, w := client.Dims(); h != cfg.ScreenHeight || w != cfg.ScreenWidth {
		logger.Warn().
			Int("height", h).
			Int("width", w).
			Msg("Engine frame size differs from configuration, using engine size")
		cfg.ScreenHeight, cfg.ScreenWidth = h, w
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close engine connection")
		}
	}
	return client, closeFn, nil
}

func buildPolicy(cfg *config.Config, space env.ActionSpace, rng *rand.Rand, logger zerolog.Logger) (policy.Policy, error) {
	if cfg.Policy == config.PolicyRandom {
		return policy.NewRandom(space)
	}

	lin, err := predictor.NewLinear(space.Size(), cfg.InputSize())
	if err != nil {
		return nil, err
	}
	if cfg.LoadWeights != "" {
		logger.Info().Str("path", cfg.LoadWeights).Msg("Loading weights")
		if err := lin.LoadWeights(cfg.LoadWeights); err != nil {
			return nil, err
		}
	}
	return policy.NewEpsilonGreedy(lin, space, rng, cfg.ExplorationRateTest)
}
