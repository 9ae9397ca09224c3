package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/plugin"
	"github.com/xraph/wallet/store"
)

// Option configures the wallet Forge extension.
type Option func(*Extension)

// WithStore sets the store for the wallet engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store from an open grove database. driver picks
// the backend ("postgres", "sqlite" or "mongo") and must match how db was
// opened.
func WithGroveDB(driver string, db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.groveDriver = driver
	}
}

// WithWalletOption passes a wallet.Option through to the underlying engine.
func WithWalletOption(opt wallet.Option) Option {
	return func(e *Extension) {
		e.walletOpts = append(e.walletOpts, opt)
	}
}

// WithPlugin registers a wallet plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.walletOpts = append(e.walletOpts, wallet.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMaxUsernameLength caps usernames in runes.
func WithMaxUsernameLength(n int) Option {
	return func(e *Extension) { e.config.MaxUsernameLength = n }
}

// WithSnapshotInterval sets how often changed state is persisted.
func WithSnapshotInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.SnapshotInterval = d }
}

// WithSnapshotRetention sets how many snapshots the store keeps.
func WithSnapshotRetention(n int) Option {
	return func(e *Extension) { e.config.SnapshotRetention = n }
}

// WithRestoreOnStart loads the latest stored snapshot on start.
func WithRestoreOnStart() Option {
	return func(e *Extension) { e.config.RestoreOnStart = true }
}
