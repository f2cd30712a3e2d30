package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidgeorgehope/sre-tycoon/internal/config"
	"github.com/davidgeorgehope/sre-tycoon/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadSimFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	catalog, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("catalog load failed", "err", err)
		os.Exit(1)
	}
	policy, ok := game.PolicyByName(cfg.Policy)
	if !ok {
		logger.Error("unknown policy", "policy", cfg.Policy)
		os.Exit(1)
	}
	scenarios := []string{cfg.Scenario}
	if cfg.Scenario == "" {
		scenarios = scenarios[:0]
		for _, s := range catalog.Scenarios {
			scenarios = append(scenarios, s.Key)
		}
	}
	rng := game.NewLockedRand(cfg.Seed)

	runBatch := func() error {
		for _, scenario := range scenarios {
			if err := ctx.Err(); err != nil {
				return err
			}
			started := time.Now()
			sum, err := catalog.Simulate(rng, scenario, policy, cfg.Games, cfg.MaxTurns, time.Now().UTC())
			if err != nil {
				return err
			}
			logger.Info("simulation complete",
				"scenario", sum.Scenario, "policy", cfg.Policy, "games", sum.Games, "wins", sum.Wins,
				"unfinished", sum.Unfinished, "reasons", sum.Reasons, "avg_turns", sum.AvgTurns,
				"avg_score", sum.AvgScore, "best_score", sum.BestScore, "took", time.Since(started).String())
		}
		return nil
	}

	if cfg.RunOnce {
		if err := runBatch(); err != nil {
			logger.Error("simulation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(cfg.Every)
	defer ticker.Stop()

	logger.Info("simulator started", "every", cfg.Every.String(), "policy", cfg.Policy, "games", cfg.Games)
	for {
		select {
		case <-ctx.Done():
			logger.Info("simulator shutdown")
			return
		case <-ticker.C:
			if err := runBatch(); err != nil {
				logger.Error("simulation failed", "err", err)
			}
		}
	}
}
