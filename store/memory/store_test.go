package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/snapshot"
	"github.com/xraph/wallet/store/memory"
)

func snapAt(t time.Time, version uint64) *snapshot.Snapshot {
	s := snapshot.New()
	s.TakenAt = t
	s.Version = version
	return s
}

func TestLatestSnapshotEmpty(t *testing.T) {
	s := memory.New()
	if _, err := s.LatestSnapshot(context.Background()); !errors.Is(err, wallet.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSaveAndList(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		if err := s.SaveSnapshot(ctx, snapAt(base.Add(time.Duration(i)*time.Minute), uint64(i+1))); err != nil {
			t.Fatalf("SaveSnapshot #%d: %v", i, err)
		}
	}

	latest, err := s.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.Version != 3 {
		t.Errorf("latest version = %d, want 3", latest.Version)
	}

	all, err := s.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(all))
	}
	for i, want := range []uint64{3, 2, 1} {
		if all[i].Version != want {
			t.Errorf("all[%d].Version = %d, want %d", i, all[i].Version, want)
		}
	}

	two, err := s.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("ListSnapshots(2): %v", err)
	}
	if len(two) != 2 {
		t.Errorf("expected 2 snapshots, got %d", len(two))
	}
}

func TestSaveDuplicate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	snap := snapshot.New()

	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveSnapshot(ctx, snap); !errors.Is(err, wallet.ErrSnapshotExists) {
		t.Fatalf("expected ErrSnapshotExists, got %v", err)
	}
}

func TestStoredSnapshotIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	snap := snapshot.New()
	snap.Balances["principal-a"] = 10
	snap.TotalSupply = 10

	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	snap.Balances["principal-a"] = 99

	latest, err := s.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.Balances["principal-a"] != 10 {
		t.Errorf("stored balance changed to %d", latest.Balances["principal-a"])
	}
}

func TestPruneSnapshots(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
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

	left, _ := s.ListSnapshots(ctx, 0)
	if len(left) != 2 || left[0].Version != 5 || left[1].Version != 4 {
		t.Errorf("unexpected survivors: %+v", left)
	}

	removed, err = s.PruneSnapshots(ctx, 10)
	if err != nil || removed != 0 {
		t.Errorf("PruneSnapshots(10) = %d, %v; want 0, nil", removed, err)
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping on open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := s.Ping(ctx); !errors.Is(err, wallet.ErrStoreClosed) {
		t.Errorf("Ping: expected ErrStoreClosed, got %v", err)
	}
	if err := s.SaveSnapshot(ctx, snapshot.New()); !errors.Is(err, wallet.ErrStoreClosed) {
		t.Errorf("SaveSnapshot: expected ErrStoreClosed, got %v", err)
	}
	if _, err := s.LatestSnapshot(ctx); !errors.Is(err, wallet.ErrStoreClosed) {
		t.Errorf("LatestSnapshot: expected ErrStoreClosed, got %v", err)
	}
}
