package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/snapshot"
	"github.com/xraph/wallet/store/sqlite"
)

func openDB(t *testing.T, path string) *grove.DB {
	t.Helper()
	drv := sqlitedriver.New()
	if err := drv.Open(context.Background(), path); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		t.Fatalf("grove.Open: %v", err)
	}
	return db
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s := sqlite.New(openDB(t, filepath.Join(t.TempDir(), "wallet.db")))
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func snapAt(t time.Time, version uint64) *snapshot.Snapshot {
	s := snapshot.New()
	s.TakenAt = t
	s.Version = version
	return s
}

func TestMigrateTwice(t *testing.T) {
	s := newStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestLatestSnapshotEmpty(t *testing.T) {
	s := newStore(t)
	if _, err := s.LatestSnapshot(context.Background()); !errors.Is(err, wallet.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSaveAndList(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// Sub-second and whole-second offsets must order by time, not by text length.
	offsets := []time.Duration{0, 500 * time.Millisecond, time.Second, 10 * time.Second}
	for i, off := range offsets {
		if err := s.SaveSnapshot(ctx, snapAt(base.Add(off), uint64(i+1))); err != nil {
			t.Fatalf("SaveSnapshot #%d: %v", i, err)
		}
	}

	latest, err := s.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.Version != 4 {
		t.Errorf("latest version = %d, want 4", latest.Version)
	}
	if !latest.TakenAt.Equal(base.Add(10 * time.Second)) {
		t.Errorf("latest taken_at = %v", latest.TakenAt)
	}

	all, err := s.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(all))
	}
	for i, want := range []uint64{4, 3, 2, 1} {
		if all[i].Version != want {
			t.Errorf("all[%d].Version = %d, want %d", i, all[i].Version, want)
		}
	}

	two, err := s.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("ListSnapshots(2): %v", err)
	}
	if len(two) != 2 || two[0].Version != 4 || two[1].Version != 3 {
		t.Errorf("unexpected page: %+v", two)
	}
}

func TestSaveKeepsLargeBalances(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	snap := snapshot.New()
	snap.Accounts["principal-a"] = account.Profile{Username: "alice"}
	snap.Names["alice"] = "principal-a"
	snap.Balances["principal-a"] = 1<<64 - 1
	snap.TotalSupply = 1<<64 - 1

	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	latest, err := s.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.Balances["principal-a"] != 1<<64-1 || latest.ID != snap.ID {
		t.Errorf("round trip lost data: %+v", latest)
	}
}

func TestSaveDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	snap := snapshot.New()

	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveSnapshot(ctx, snap); !errors.Is(err, wallet.ErrSnapshotExists) {
		t.Fatalf("expected ErrSnapshotExists, got %v", err)
	}
}

func TestPruneSnapshots(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := range 5 {
		if err := s.SaveSnapshot(ctx, snapAt(base.Add(time.Duration(i)*time.Second), uint64(i+1))); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	removed, err := s.PruneSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("PruneSnapshots: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	left, err := s.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(left) != 2 || left[0].Version != 5 || left[1].Version != 4 {
		t.Errorf("unexpected survivors: %+v", left)
	}

	removed, err = s.PruneSnapshots(ctx, 10)
	if err != nil || removed != 0 {
		t.Errorf("PruneSnapshots(10) = %d, %v; want 0, nil", removed, err)
	}
}

func TestRestoreOnStart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wallet.db")

	first := wallet.New(sqlite.New(openDB(t, path)), wallet.WithSnapshotInterval(0))
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := first.RegisterAccount(ctx, "principal-a", "alice"); err != nil {
		t.Fatalf("RegisterAccount: %v", err)
	}
	if _, err := first.Transfer(ctx, "principal-a", "principal-b", 250); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	// Stop writes the final snapshot and closes the database.
	if err := first.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	second := wallet.New(sqlite.New(openDB(t, path)),
		wallet.WithSnapshotInterval(0),
		wallet.WithRestoreOnStart(true),
	)
	if err := second.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	t.Cleanup(func() { _ = second.Stop() })

	if got := second.GetSelf(ctx, "principal-a"); got.Username != "alice" || got.Balance != 750 {
		t.Errorf("GetSelf after restore = %+v", got)
	}
	if got := second.GetBalance(ctx, "principal-b"); got != 250 {
		t.Errorf("receiver balance = %d, want 250", got)
	}
	if got := second.TotalSupply(ctx); got != wallet.GrantAmount {
		t.Errorf("TotalSupply = %d, want %d", got, wallet.GrantAmount)
	}
}
