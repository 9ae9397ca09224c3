// Package sqlite implements store.Store on SQLite through the grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate" // registers the "sqlite" migration executor
	"github.com/xraph/grove/migrate"

	sqlitelib "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/snapshot"
	walletstore "github.com/xraph/wallet/store"
)

// compile-time interface check
var _ walletstore.Store = (*Store)(nil)

const newestFirst = "taken_at DESC, id DESC"

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("wallet/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("wallet/sqlite: migration failed: %w", err)
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
		return fmt.Errorf("wallet/sqlite: encode snapshot: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isPrimaryKeyViolation(err) {
			return wallet.ErrSnapshotExists
		}
		return fmt.Errorf("wallet/sqlite: save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	m := new(snapshotModel)
	err := s.sdb.NewSelect(m).
		OrderExpr(newestFirst).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, wallet.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("wallet/sqlite: latest snapshot: %w", err)
	}
	return fromSnapshotModel(m)
}

func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]*snapshot.Snapshot, error) {
	var models []snapshotModel
	q := s.sdb.NewSelect(&models).OrderExpr(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("wallet/sqlite: list snapshots: %w", err)
	}

	result := make([]*snapshot.Snapshot, 0, len(models))
	for i := range models {
		snap, err := fromSnapshotModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("wallet/sqlite: decode snapshot %s: %w", models[i].ID, err)
		}
		result = append(result, snap)
	}
	return result, nil
}

func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.sdb.NewDelete((*snapshotModel)(nil)).
		Where(`id NOT IN (SELECT id FROM wallet_snapshots ORDER BY `+newestFirst+` LIMIT ?)`, keep).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("wallet/sqlite: prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isPrimaryKeyViolation(err error) bool {
	var se *sqlitelib.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
