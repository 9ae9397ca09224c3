// Package plugin provides an extensible plugin system for the wallet.
// Plugins hook into registration, transfer and snapshot events.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/transfer"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the wallet starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, w interface{}) error
}

// OnShutdown is called when the wallet stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Registration hooks
// ──────────────────────────────────────────────────

// OnAccountRegistered is called after a new account received its grant.
type OnAccountRegistered interface {
	Plugin
	OnAccountRegistered(ctx context.Context, who account.Identity, acct account.Account) error
}

// OnRegistrationReplayed is called when a register call hit an existing
// username and returned that name's account unchanged.
type OnRegistrationReplayed interface {
	Plugin
	OnRegistrationReplayed(ctx context.Context, caller, owner account.Identity, username string) error
}

// OnRegistrationRejected is called when a register call failed.
type OnRegistrationRejected interface {
	Plugin
	OnRegistrationRejected(ctx context.Context, caller account.Identity, username string, err error) error
}

// ──────────────────────────────────────────────────
// Transfer hooks
// ──────────────────────────────────────────────────

// OnTransferCompleted is called after balance moved between identities.
type OnTransferCompleted interface {
	Plugin
	OnTransferCompleted(ctx context.Context, r *transfer.Receipt) error
}

// OnTransferRejected is called when a transfer left state unchanged.
type OnTransferRejected interface {
	Plugin
	OnTransferRejected(ctx context.Context, r *transfer.Rejection) error
}

// ──────────────────────────────────────────────────
// Snapshot hooks
// ──────────────────────────────────────────────────

// OnSnapshotSaved is called after a snapshot was written to the store.
type OnSnapshotSaved interface {
	Plugin
	OnSnapshotSaved(ctx context.Context, snapshotID string, elapsed time.Duration) error
}

// OnSnapshotRestored is called after the registry was replaced from a snapshot.
type OnSnapshotRestored interface {
	Plugin
	OnSnapshotRestored(ctx context.Context, snapshotID string) error
}
