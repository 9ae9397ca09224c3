package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := configFromLookup(lookupFrom(nil))
	if err != nil {
		t.Fatalf("configFromLookup: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.SnapshotInterval != 30*time.Second {
		t.Errorf("SnapshotInterval = %v, want 30s", cfg.SnapshotInterval)
	}
	if cfg.SnapshotRetention != 10 {
		t.Errorf("SnapshotRetention = %d, want 10", cfg.SnapshotRetention)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.StoreDriver != "memory" || cfg.durable() {
		t.Errorf("StoreDriver = %q, want non-durable memory", cfg.StoreDriver)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Errorf("JWTSecret = %q, want the development secret", cfg.JWTSecret)
	}
}

func TestConfigOverrides(t *testing.T) {
	cfg, err := configFromLookup(lookupFrom(map[string]string{
		"WALLET_ADDR":               "127.0.0.1:9000",
		"WALLET_JWT_SECRET":         "s3cret",
		"WALLET_SNAPSHOT_INTERVAL":  "0s",
		"WALLET_SNAPSHOT_RETENTION": "3",
		"WALLET_LOG_LEVEL":          "debug",
	}))
	if err != nil {
		t.Fatalf("configFromLookup: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.JWTSecret != "s3cret" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.SnapshotInterval != 0 || cfg.SnapshotRetention != 3 {
		t.Errorf("unexpected snapshot settings %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestConfigRejectsBadValues(t *testing.T) {
	for key, val := range map[string]string{
		"WALLET_SNAPSHOT_INTERVAL":  "soon",
		"WALLET_SNAPSHOT_RETENTION": "many",
		"WALLET_LOG_LEVEL":          "loud",
		"WALLET_STORE_DRIVER":       "oracle",
	} {
		if _, err := configFromLookup(lookupFrom(map[string]string{key: val})); err == nil {
			t.Errorf("%s=%q: expected error", key, val)
		}
	}
}

func TestConfigStoreDriver(t *testing.T) {
	cfg, err := configFromLookup(lookupFrom(map[string]string{
		"WALLET_STORE_DRIVER": "SQLite",
		"WALLET_STORE_DSN":    "/var/lib/walletd/wallet.db",
	}))
	if err != nil {
		t.Fatalf("configFromLookup: %v", err)
	}
	if cfg.StoreDriver != "sqlite" || cfg.StoreDSN != "/var/lib/walletd/wallet.db" {
		t.Errorf("unexpected store config %+v", cfg)
	}
	if !cfg.durable() {
		t.Error("sqlite store should be durable")
	}

	if _, err := configFromLookup(lookupFrom(map[string]string{"WALLET_STORE_DRIVER": "postgres"})); err == nil {
		t.Error("expected error for postgres without WALLET_STORE_DSN")
	}
}

func TestWarnInsecureDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	warnInsecureDefaults(logger, config{JWTSecret: devJWTSecret, StoreDriver: driverMemory})
	out := buf.String()
	if !strings.Contains(out, "WALLET_JWT_SECRET") || !strings.Contains(out, "memory store") {
		t.Errorf("missing warnings in %q", out)
	}

	buf.Reset()
	warnInsecureDefaults(logger, config{JWTSecret: "s3cret", StoreDriver: "sqlite"})
	if buf.Len() != 0 {
		t.Errorf("unexpected warnings %q", buf.String())
	}
}
