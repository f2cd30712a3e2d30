package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type APIConfig struct {
	Addr           string
	Store          string
	DatabaseURL    string
	DBMaxConns     int32
	SQLitePath     string
	CatalogPath    string
	Seed           int64
	RequestTimeout time.Duration
}

type CLIConfig struct {
	APIBaseURL string
}

// SimConfig drives the headless balancing simulator.
type SimConfig struct {
	Games       int
	MaxTurns    int
	Scenario    string
	Policy      string
	Seed        int64
	CatalogPath string
	RunOnce     bool
	Every       time.Duration
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("TYCOON_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:           addr,
		Store:          strings.ToLower(envDefault("TYCOON_STORE", "")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:     int32(envIntDefault("TYCOON_DB_MAX_CONNS", 20)),
		SQLitePath:     envDefault("TYCOON_SQLITE_PATH", filepath.Join("data", "tycoon.db")),
		CatalogPath:    strings.TrimSpace(os.Getenv("TYCOON_CATALOG_PATH")),
		Seed:           int64(envIntDefault("TYCOON_SEED", 0)),
		RequestTimeout: envDurationDefault("TYCOON_REQUEST_TIMEOUT", 60*time.Second),
	}
	if cfg.Store == "" {
		// A database URL implies postgres; otherwise play locally.
		cfg.Store = StoreSQLite
		if cfg.DatabaseURL != "" {
			cfg.Store = StorePostgres
		}
	}
	switch cfg.Store {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			return cfg, fmt.Errorf("TYCOON_SQLITE_PATH is required for the sqlite store")
		}
	default:
		return cfg, fmt.Errorf("unknown TYCOON_STORE %q (want postgres or sqlite)", cfg.Store)
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, fmt.Errorf("TYCOON_REQUEST_TIMEOUT must be positive")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("TYCOON_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func LoadSimFromEnv() (SimConfig, error) {
	cfg := SimConfig{
		Games:       envIntDefault("TYCOON_SIM_GAMES", 200),
		MaxTurns:    envIntDefault("TYCOON_SIM_MAX_TURNS", 200),
		Scenario:    strings.ToLower(strings.TrimSpace(os.Getenv("TYCOON_SIM_SCENARIO"))),
		Policy:      strings.ToLower(envDefault("TYCOON_SIM_POLICY", "steady")),
		Seed:        int64(envIntDefault("TYCOON_SEED", 0)),
		CatalogPath: strings.TrimSpace(os.Getenv("TYCOON_CATALOG_PATH")),
		RunOnce:     envBoolDefault("TYCOON_SIM_RUN_ONCE", true),
		Every:       envDurationDefault("TYCOON_SIM_EVERY", 10*time.Minute),
	}
	if cfg.Games <= 0 {
		return cfg, fmt.Errorf("TYCOON_SIM_GAMES must be positive")
	}
	if cfg.MaxTurns <= 0 {
		return cfg, fmt.Errorf("TYCOON_SIM_MAX_TURNS must be positive")
	}
	if !cfg.RunOnce && cfg.Every <= 0 {
		return cfg, fmt.Errorf("TYCOON_SIM_EVERY must be positive")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
