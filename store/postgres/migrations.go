package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the wallet store.
var Migrations = migrate.NewGroup("wallet")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_wallet_snapshots",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS wallet_snapshots (
    id          TEXT PRIMARY KEY,
    version     BIGINT NOT NULL DEFAULT 0,
    accounts    INT NOT NULL DEFAULT 0,
    state       JSONB NOT NULL,
    taken_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_wallet_snapshots_taken_at ON wallet_snapshots (taken_at DESC, id DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS wallet_snapshots`)
				return err
			},
		},
	)
}
