package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/store/memory"
	"github.com/xraph/wallet/store/sqlite"
)

func TestOpenStore_Memory(t *testing.T) {
	s, err := openStore(context.Background(), config{StoreDriver: driverMemory})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("got %T, want *memory.Store", s)
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	if _, err := openStore(context.Background(), config{StoreDriver: "oracle", StoreDSN: "x"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenStore_SQLiteSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config{
		StoreDriver:       "sqlite",
		StoreDSN:          filepath.Join(t.TempDir(), "wallet.db"),
		SnapshotRetention: 5,
	}

	start := func() *wallet.Wallet {
		t.Helper()
		s, err := openStore(ctx, cfg)
		if err != nil {
			t.Fatalf("openStore: %v", err)
		}
		if _, ok := s.(*sqlite.Store); !ok {
			t.Fatalf("got %T, want *sqlite.Store", s)
		}
		w := wallet.New(s, engineOptions(cfg, logger)...)
		if err := w.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		return w
	}

	first := start()
	if _, err := first.RegisterAccount(ctx, "principal-a", "alice"); err != nil {
		t.Fatalf("RegisterAccount: %v", err)
	}
	if _, err := first.Transfer(ctx, "principal-a", "principal-b", 40); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := first.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	second := start()
	t.Cleanup(func() { _ = second.Stop() })

	if got := second.GetBalance(ctx, "principal-a"); got != 960 {
		t.Errorf("balance after restart = %d, want 960", got)
	}
	if _, acct, ok := second.LookupUsername(ctx, "alice"); !ok || acct.Balance != 960 {
		t.Errorf("LookupUsername after restart = %+v, %v", acct, ok)
	}
}
