// Package postgres implements store.Store on PostgreSQL through the grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the "pg" migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/snapshot"
	walletstore "github.com/xraph/wallet/store"
)

// compile-time interface check
var _ walletstore.Store = (*Store)(nil)

// newestFirst orders snapshots by capture time; TypeIDs break ties because
// they are K-sortable.
const newestFirst = "taken_at DESC, id DESC"

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("wallet/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("wallet/postgres: migration failed: %w", err)
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
		return fmt.Errorf("wallet/postgres: encode snapshot: %w", err)
	}
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return wallet.ErrSnapshotExists
		}
		return fmt.Errorf("wallet/postgres: save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	m := new(snapshotModel)
	err := s.pg.NewSelect(m).
		OrderExpr(newestFirst).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, wallet.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("wallet/postgres: latest snapshot: %w", err)
	}
	return fromSnapshotModel(m)
}

func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]*snapshot.Snapshot, error) {
	var models []snapshotModel
	q := s.pg.NewSelect(&models).OrderExpr(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("wallet/postgres: list snapshots: %w", err)
	}

	result := make([]*snapshot.Snapshot, len(models))
	for i := range models {
		snap, err := fromSnapshotModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = snap
	}
	return result, nil
}

func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.pg.NewDelete((*snapshotModel)(nil)).
		Where(`id NOT IN (SELECT id FROM wallet_snapshots ORDER BY `+newestFirst+` LIMIT ?)`, keep).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("wallet/postgres: prune snapshots: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a primary key collision (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
