package main

import (
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/cartridge/evaluator/internal/engine"
	"github.com/cartridge/evaluator/internal/env"
)

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e, err := env.New(cfg.EnvID, cfg.ScreenHeight, cfg.ScreenWidth, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	server := grpc.NewServer(grpc.UnaryInterceptor(engine.LoggingInterceptor(logger)))
	engine.NewServer(map[string]env.Environment{cfg.EnvID: e}, cfg.ScreenHeight, cfg.ScreenWidth).Register(server)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Str("env_id", cfg.EnvID).Msg("Engine service listening")
		errCh <- server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down gracefully...")
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("Shutdown timeout exceeded, forcing stop")
		server.Stop()
	case <-stopped:
		logger.Info().Msg("Server stopped gracefully")
	}
	return nil
}
