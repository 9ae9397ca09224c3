// Package store defines persistence for wallet snapshots.
//
// The wallet keeps its registry state in memory and serializes all access
// itself. Stores only hold whole-state snapshots so that a host can restore
// the registry after a restart.
package store

import (
	"context"

	"github.com/xraph/wallet/snapshot"
)

// Store is the snapshot persistence interface implemented by every backend.
type Store interface {
	// SaveSnapshot persists s. Saving the same snapshot ID twice is an error.
	SaveSnapshot(ctx context.Context, s *snapshot.Snapshot) error

	// LatestSnapshot returns the most recently taken snapshot, or
	// wallet.ErrSnapshotNotFound when none exists.
	LatestSnapshot(ctx context.Context) (*snapshot.Snapshot, error)

	// ListSnapshots returns up to limit snapshots, newest first.
	// A limit of zero or less returns all of them.
	ListSnapshots(ctx context.Context, limit int) ([]*snapshot.Snapshot, error)

	// PruneSnapshots deletes all but the newest keep snapshots and
	// returns how many were removed.
	PruneSnapshots(ctx context.Context, keep int) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
