package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidgeorgehope/sre-tycoon/internal/api"
	"github.com/davidgeorgehope/sre-tycoon/internal/config"
	"github.com/davidgeorgehope/sre-tycoon/internal/db"
	"github.com/davidgeorgehope/sre-tycoon/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
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

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("store open failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	gameSvc := game.NewService(store, catalog, game.NewLockedRand(cfg.Seed), logger)
	server := api.New(cfg, logger, gameSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("sre tycoon api listening", "addr", cfg.Addr, "store", cfg.Store, "scenarios", len(catalog.Scenarios))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.APIConfig) (game.Store, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
		if err != nil {
			return nil, nil, err
		}
		store := db.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}
