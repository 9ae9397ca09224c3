package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// devJWTSecret signs tokens when WALLET_JWT_SECRET is unset. Anyone who
// knows it can mint tokens for any identity.
const devJWTSecret = "dev-secret-change-in-production"

const driverMemory = "memory"

// config is the process configuration read from the environment.
type config struct {
	Addr              string
	JWTSecret         string
	JWTIssuer         string
	SnapshotInterval  time.Duration
	SnapshotRetention int
	LogLevel          slog.Level

	// StoreDriver is "memory", "postgres", "sqlite" or "mongo".
	StoreDriver string
	StoreDSN    string
}

// durable reports whether snapshots outlive the process.
func (c config) durable() bool { return c.StoreDriver != driverMemory }

func configFromEnv() (config, error) {
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) (config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := config{
		Addr:      get("WALLET_ADDR", ":8080"),
		JWTSecret: get("WALLET_JWT_SECRET", devJWTSecret),
		JWTIssuer: get("WALLET_JWT_ISSUER", "walletd"),

		StoreDriver: strings.ToLower(get("WALLET_STORE_DRIVER", driverMemory)),
		StoreDSN:    get("WALLET_STORE_DSN", ""),
	}

	switch cfg.StoreDriver {
	case driverMemory:
	case "postgres", "pg", "sqlite", "mongo", "mongodb":
		if cfg.StoreDSN == "" {
			return config{}, fmt.Errorf("WALLET_STORE_DSN: required for driver %q", cfg.StoreDriver)
		}
	default:
		return config{}, fmt.Errorf("WALLET_STORE_DRIVER: unknown driver %q", cfg.StoreDriver)
	}

	interval, err := time.ParseDuration(get("WALLET_SNAPSHOT_INTERVAL", "30s"))
	if err != nil {
		return config{}, fmt.Errorf("WALLET_SNAPSHOT_INTERVAL: %w", err)
	}
	cfg.SnapshotInterval = interval

	retention, err := strconv.Atoi(get("WALLET_SNAPSHOT_RETENTION", "10"))
	if err != nil {
		return config{}, fmt.Errorf("WALLET_SNAPSHOT_RETENTION: %w", err)
	}
	cfg.SnapshotRetention = retention

	if err := cfg.LogLevel.UnmarshalText([]byte(get("WALLET_LOG_LEVEL", "info"))); err != nil {
		return config{}, fmt.Errorf("WALLET_LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// warnInsecureDefaults logs settings that must not reach production.
func warnInsecureDefaults(logger *slog.Logger, cfg config) {
	if cfg.JWTSecret == devJWTSecret {
		logger.Warn("walletd: WALLET_JWT_SECRET is unset, tokens are signed with the development secret")
	}
	if !cfg.durable() {
		logger.Warn("walletd: memory store in use, state is lost on exit")
	}
}
