package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/candorlabs/candor/internal/probe"
	"go.uber.org/zap"
)

func main() {
	cfg := probe.DefaultConfig()
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Candor server base URL")
	flag.Float64Var(&cfg.BPM, "bpm", cfg.BPM, "Simulated pulse rate in BPM")
	flag.Float64Var(&cfg.PitchHz, "pitch", cfg.PitchHz, "Simulated voice fundamental in Hz")
	flag.DurationVar(&cfg.BlinkInterval, "blink-interval", cfg.BlinkInterval, "Time between simulated blinks")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Noise generator seed")
	duration := flag.Duration("duration", 0, "How long to stream (0 = until interrupted)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	producer := probe.NewProducer(cfg, logger)
	if err := producer.Run(ctx); err != nil {
		logger.Fatal("probe error", zap.Error(err))
	}
}
