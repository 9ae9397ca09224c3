package extension

import "time"

// Config holds the wallet extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.wallet" or "wallet" keys).
type Config struct {
	// DisableMigrate skips schema migration on start. Restore and the
	// snapshot worker are unaffected.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// MaxUsernameLength caps usernames in runes (default: 64).
	MaxUsernameLength int `json:"max_username_length" mapstructure:"max_username_length" yaml:"max_username_length"`

	// SnapshotInterval is how often changed state is written to the store
	// (default: 30s). A negative value disables the background worker.
	SnapshotInterval time.Duration `json:"snapshot_interval" mapstructure:"snapshot_interval" yaml:"snapshot_interval"`

	// SnapshotRetention is how many snapshots the store keeps (default: 10).
	SnapshotRetention int `json:"snapshot_retention" mapstructure:"snapshot_retention" yaml:"snapshot_retention"`

	// RestoreOnStart loads the latest stored snapshot during Start.
	RestoreOnStart bool `json:"restore_on_start" mapstructure:"restore_on_start" yaml:"restore_on_start"`

	// StoreDriver selects the grove backend for a database passed with
	// WithGroveDB: "postgres", "sqlite" or "mongo".
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxUsernameLength: 64,
		SnapshotInterval:  30 * time.Second,
		SnapshotRetention: 10,
	}
}
