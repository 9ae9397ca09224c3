// Package extension provides the Forge extension adapter for the wallet.
//
// It implements the forge.Extension interface to integrate the wallet
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.wallet" or "wallet" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/store"
	"github.com/xraph/wallet/store/memory"
	"github.com/xraph/wallet/store/mongo"
	"github.com/xraph/wallet/store/postgres"
	"github.com/xraph/wallet/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "wallet"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Username registry and token ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the wallet as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *wallet.Wallet
	store       store.Store
	groveDB     *grove.DB
	groveDriver string
	walletOpts  []wallet.Option
}

// New creates a new wallet Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying wallet instance.
// This is nil until Register is called.
func (e *Extension) Engine() *wallet.Wallet { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the wallet engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.resolveStore(); err != nil {
		return err
	}

	e.engine = wallet.New(e.store, e.buildWalletOpts()...)

	return vessel.Provide(fapp.Container(), func() (*wallet.Wallet, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("wallet: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("wallet: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore fills e.store unless WithStore already set it. The driver
// given to WithGroveDB wins over the configured StoreDriver.
func (e *Extension) resolveStore() error {
	if e.store != nil {
		return nil
	}
	driver := e.groveDriver
	if driver == "" {
		driver = e.config.StoreDriver
	}
	s, err := StoreFor(driver, e.groveDB)
	if err != nil {
		return err
	}
	e.store = s
	return nil
}

// StoreFor picks a store backend for db. Without a grove database the wallet
// runs on the in-memory store.
func StoreFor(driver string, db *grove.DB) (store.Store, error) {
	if db == nil {
		return memory.New(), nil
	}
	switch driver {
	case "postgres", "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	case "mongo", "mongodb":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("wallet: unknown store driver %q", driver)
	}
}

// buildWalletOpts constructs wallet.Option values from the resolved config.
func (e *Extension) buildWalletOpts() []wallet.Option {
	opts := make([]wallet.Option, 0, len(e.walletOpts)+5)

	opts = append(opts,
		wallet.WithSkipMigrate(e.config.DisableMigrate),
		wallet.WithMaxUsernameLength(e.config.MaxUsernameLength),
		wallet.WithSnapshotInterval(e.config.SnapshotInterval),
		wallet.WithSnapshotRetention(e.config.SnapshotRetention),
		wallet.WithRestoreOnStart(e.config.RestoreOnStart),
	)

	// Pass-through options win over config.
	opts = append(opts, e.walletOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("wallet: configuration is required but not found in config files; " +
				"ensure 'extensions.wallet' or 'wallet' key exists in your config")
		}
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("wallet: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("max_username_length", e.config.MaxUsernameLength),
		forge.F("snapshot_interval", e.config.SnapshotInterval),
		forge.F("snapshot_retention", e.config.SnapshotRetention),
		forge.F("restore_on_start", e.config.RestoreOnStart),
		forge.F("store_driver", e.config.StoreDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.wallet", "wallet"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("wallet: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("wallet: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	return mergeWithDefaults(cfg)
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	return mergeWithDefaults(overlay(yamlConfig, programmaticConfig))
}

func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.MaxUsernameLength == 0 {
		cfg.MaxUsernameLength = defaults.MaxUsernameLength
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = defaults.SnapshotInterval
	}
	if cfg.SnapshotRetention == 0 {
		cfg.SnapshotRetention = defaults.SnapshotRetention
	}
	return cfg
}

func overlay(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.RestoreOnStart {
		yamlConfig.RestoreOnStart = true
	}

	if yamlConfig.StoreDriver == "" {
		yamlConfig.StoreDriver = programmaticConfig.StoreDriver
	}
	if yamlConfig.MaxUsernameLength == 0 {
		yamlConfig.MaxUsernameLength = programmaticConfig.MaxUsernameLength
	}
	if yamlConfig.SnapshotInterval == 0 {
		yamlConfig.SnapshotInterval = programmaticConfig.SnapshotInterval
	}
	if yamlConfig.SnapshotRetention == 0 {
		yamlConfig.SnapshotRetention = programmaticConfig.SnapshotRetention
	}
	return yamlConfig
}
