// Package memory implements store.Store in process memory. Snapshots are
// kept encoded so a stored snapshot cannot be mutated through a returned
// pointer.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/snapshot"
	walletstore "github.com/xraph/wallet/store"
)

// compile-time interface check
var _ walletstore.Store = (*Store)(nil)

type record struct {
	id      string
	takenAt time.Time
	seq     int
	payload []byte
}

// Store is an in-memory snapshot store.
type Store struct {
	mu      sync.RWMutex
	records []record
	ids     map[string]struct{}
	seq     int
	closed  bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		ids: make(map[string]struct{}),
	}
}

func (s *Store) SaveSnapshot(_ context.Context, snap *snapshot.Snapshot) error {
	payload, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("wallet/memory: encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wallet.ErrStoreClosed
	}
	key := snap.ID.String()
	if _, exists := s.ids[key]; exists {
		return wallet.ErrSnapshotExists
	}
	s.seq++
	s.ids[key] = struct{}{}
	s.records = append(s.records, record{id: key, takenAt: snap.TakenAt, seq: s.seq, payload: payload})
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	list, err := s.ListSnapshots(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, wallet.ErrSnapshotNotFound
	}
	return list[0], nil
}

func (s *Store) ListSnapshots(_ context.Context, limit int) ([]*snapshot.Snapshot, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, wallet.ErrStoreClosed
	}
	ordered := s.newestFirst()
	s.mu.RUnlock()

	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}

	result := make([]*snapshot.Snapshot, 0, len(ordered))
	for _, rec := range ordered {
		snap, err := snapshot.Decode(rec.payload)
		if err != nil {
			return nil, fmt.Errorf("wallet/memory: %w", err)
		}
		result = append(result, snap)
	}
	return result, nil
}

func (s *Store) PruneSnapshots(_ context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, wallet.ErrStoreClosed
	}
	if keep < 0 {
		keep = 0
	}
	ordered := s.newestFirst()
	if len(ordered) <= keep {
		return 0, nil
	}

	removed := ordered[keep:]
	for _, rec := range removed {
		delete(s.ids, rec.id)
	}
	s.records = ordered[:keep]
	return int64(len(removed)), nil
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is still open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return wallet.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Further calls fail with wallet.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// newestFirst returns a copy of the records ordered by TakenAt, then by
// insertion, newest first. Callers must hold the lock.
func (s *Store) newestFirst() []record {
	ordered := make([]record, len(s.records))
	copy(ordered, s.records)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].takenAt.Equal(ordered[j].takenAt) {
			return ordered[i].takenAt.After(ordered[j].takenAt)
		}
		return ordered[i].seq > ordered[j].seq
	})
	return ordered
}
