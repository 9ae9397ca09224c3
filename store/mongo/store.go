// Package mongo implements store.Store on MongoDB through the grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/snapshot"
	walletstore "github.com/xraph/wallet/store"
)

const colSnapshots = "wallet_snapshots"

// compile-time interface check
var _ walletstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the wallet collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("wallet/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	m, err := toSnapshotModel(snap)
	if err != nil {
		return fmt.Errorf("wallet/mongo: encode snapshot: %w", err)
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return wallet.ErrSnapshotExists
		}
		return fmt.Errorf("wallet/mongo: save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	var m snapshotModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{}).
		Sort(newestFirst()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, wallet.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("wallet/mongo: latest snapshot: %w", err)
	}
	return fromSnapshotModel(&m)
}

func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]*snapshot.Snapshot, error) {
	var models []snapshotModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(newestFirst())
	if limit > 0 {
		q = q.Limit(int64(limit))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("wallet/mongo: list snapshots: %w", err)
	}

	result := make([]*snapshot.Snapshot, 0, len(models))
	for i := range models {
		snap, err := fromSnapshotModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("wallet/mongo: decode snapshot %s: %w", models[i].ID, err)
		}
		result = append(result, snap)
	}
	return result, nil
}

// PruneSnapshots looks up the ids worth keeping first; MongoDB has no
// delete-with-subquery.
func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	keepIDs := []string{}
	if keep > 0 {
		var kept []snapshotModel
		err := s.mdb.NewFind(&kept).
			Filter(bson.M{}).
			Sort(newestFirst()).
			Limit(int64(keep)).
			Scan(ctx)
		if err != nil {
			return 0, fmt.Errorf("wallet/mongo: prune snapshots: %w", err)
		}
		for i := range kept {
			keepIDs = append(keepIDs, kept[i].ID)
		}
	}

	res, err := s.mdb.NewDelete((*snapshotModel)(nil)).
		Filter(bson.M{"_id": bson.M{"$nin": keepIDs}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("wallet/mongo: prune snapshots: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

func newestFirst() bson.D {
	return bson.D{{Key: "taken_at", Value: -1}, {Key: "_id", Value: -1}}
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the wallet collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSnapshots: {
			{Keys: bson.D{{Key: "taken_at", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "version", Value: -1}}},
		},
	}
}
