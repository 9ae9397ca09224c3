package main

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/wallet/extension"
	"github.com/xraph/wallet/store"
	"github.com/xraph/wallet/store/memory"
)

// openStore connects the configured snapshot store. Closing the store
// closes the database.
func openStore(ctx context.Context, cfg config) (store.Store, error) {
	if !cfg.durable() {
		return memory.New(), nil
	}

	drv, err := openDriver(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, err
	}
	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("walletd: open grove: %w", err)
	}

	s, err := extension.StoreFor(cfg.StoreDriver, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func openDriver(ctx context.Context, driver, dsn string) (grove.GroveDriver, error) {
	switch driver {
	case "postgres", "pg":
		pg := pgdriver.New()
		if err := pg.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("walletd: open postgres: %w", err)
		}
		return pg, nil
	case "sqlite":
		sq := sqlitedriver.New()
		if err := sq.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("walletd: open sqlite: %w", err)
		}
		return sq, nil
	case "mongo", "mongodb":
		mdb := mongodriver.New()
		if err := mdb.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("walletd: open mongo: %w", err)
		}
		return mdb, nil
	default:
		return nil, fmt.Errorf("walletd: unknown store driver %q", driver)
	}
}
