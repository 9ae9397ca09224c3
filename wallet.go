package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/id"
	"github.com/xraph/wallet/plugin"
	"github.com/xraph/wallet/snapshot"
	"github.com/xraph/wallet/store"
	"github.com/xraph/wallet/transfer"
)

// Wallet is the account registry and token ledger engine.
//
// All registry state is owned by the Wallet and guarded by a single mutex:
// every operation below runs as one critical section, so no caller can
// observe a half-applied registration or transfer.
type Wallet struct {
	mu    sync.Mutex
	state *registry

	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time

	// Background workers
	saveMu       sync.Mutex
	savedVersion uint64
	saved        bool
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup

	// Configuration
	maxUsernameLength int
	snapshotInterval  time.Duration
	snapshotRetention int
	restoreOnStart    bool
	skipMigrate       bool
}

// New creates a new Wallet persisting snapshots to s.
func New(s store.Store, opts ...Option) *Wallet {
	w := &Wallet{
		state:             newRegistry(),
		store:             s,
		plugins:           plugin.NewRegistry(),
		logger:            slog.Default(),
		now:               func() time.Time { return time.Now().UTC() },
		stopChan:          make(chan struct{}),
		maxUsernameLength: account.DefaultMaxUsernameLength,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Option configures a Wallet instance.
type Option func(*Wallet)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wallet) {
		w.logger = logger
		w.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(w *Wallet) {
		_ = w.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithHookTimeout bounds how long a single plugin hook may run.
func WithHookTimeout(d time.Duration) Option {
	return func(w *Wallet) {
		w.plugins.WithTimeout(d)
	}
}

// WithMaxUsernameLength sets the rune limit for usernames.
func WithMaxUsernameLength(n int) Option {
	return func(w *Wallet) {
		if n > 0 {
			w.maxUsernameLength = n
		}
	}
}

// WithSnapshotInterval enables periodic snapshots while the wallet runs.
// Zero disables the worker; Stop still saves a final snapshot.
func WithSnapshotInterval(d time.Duration) Option {
	return func(w *Wallet) {
		w.snapshotInterval = d
	}
}

// WithSnapshotRetention keeps only the newest n snapshots after each save.
// Zero keeps everything.
func WithSnapshotRetention(n int) Option {
	return func(w *Wallet) {
		w.snapshotRetention = n
	}
}

// WithRestoreOnStart makes Start load the latest stored snapshot.
func WithRestoreOnStart(enabled bool) Option {
	return func(w *Wallet) {
		w.restoreOnStart = enabled
	}
}

// WithSkipMigrate makes Start leave the store schema alone. Restore and the
// snapshot worker still run.
func WithSkipMigrate(skip bool) Option {
	return func(w *Wallet) {
		w.skipMigrate = skip
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Wallet) {
		w.now = now
	}
}

// Plugins returns the plugin registry.
func (w *Wallet) Plugins() *plugin.Registry { return w.plugins }

// Start migrates the store unless WithSkipMigrate is set, optionally
// restores the latest snapshot and begins the snapshot worker.
func (w *Wallet) Start(ctx context.Context) error {
	if !w.skipMigrate {
		if err := w.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if w.restoreOnStart {
		latest, err := w.store.LatestSnapshot(ctx)
		switch {
		case errors.Is(err, ErrSnapshotNotFound):
			w.logger.Info("wallet: no snapshot to restore")
		case err != nil:
			return fmt.Errorf("wallet: load latest snapshot: %w", err)
		default:
			if err := w.Restore(ctx, latest); err != nil {
				return err
			}
		}
	}

	w.plugins.EmitInit(ctx, w)

	if w.snapshotInterval > 0 {
		w.wg.Add(1)
		go w.snapshotWorker(context.WithoutCancel(ctx))
	}

	w.logger.Info("wallet started",
		"snapshot_interval", w.snapshotInterval,
		"snapshot_retention", w.snapshotRetention,
		"restore_on_start", w.restoreOnStart,
	)

	return nil
}

// Stop halts the snapshot worker, saves a final snapshot when state changed
// and closes the store.
func (w *Wallet) Stop() error {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()

	ctx := context.Background()

	var errs []error
	if _, err := w.saveIfChanged(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wallet: final snapshot: %w", err))
	}

	w.plugins.EmitShutdown(ctx)

	if err := w.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ──────────────────────────────────────────────────
// Registration
// ──────────────────────────────────────────────────

// RegisterAccount binds username to caller and credits GrantAmount.
//
// If the username is already taken the existing owner's account is returned
// unchanged, whoever the caller is. An identity that already owns an account
// under another name gets ErrAlreadyRegistered.
func (w *Wallet) RegisterAccount(ctx context.Context, caller Identity, username string) (Account, error) {
	acct, _, err := w.Register(ctx, caller, username)
	return acct, err
}

// Register is RegisterAccount that also reports whether this call created
// the account and issued the grant.
func (w *Wallet) Register(ctx context.Context, caller Identity, username string) (Account, bool, error) {
	if caller.IsZero() {
		return Account{}, false, ErrUnauthenticated
	}
	if problem := account.CheckUsername(username, w.maxUsernameLength); problem != "" {
		err := ValidationError{Field: "username", Message: string(problem)}
		w.plugins.EmitRegistrationRejected(ctx, caller, username, err)
		return Account{}, false, err
	}

	w.mu.Lock()
	res, err := w.state.register(caller, username, w.now())
	w.mu.Unlock()

	if err != nil {
		w.logger.Debug("wallet: registration rejected",
			"caller", caller,
			"username", username,
			"error", err,
		)
		w.plugins.EmitRegistrationRejected(ctx, caller, username, err)
		return Account{}, false, err
	}

	if !res.created {
		w.plugins.EmitRegistrationReplayed(ctx, caller, res.owner, username)
		return res.acct, false, nil
	}

	w.logger.Debug("wallet: account registered",
		"caller", caller,
		"username", username,
		"grant", GrantAmount,
	)
	w.plugins.EmitAccountRegistered(ctx, caller, res.acct)
	return res.acct, true, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetSelf returns the caller's account, or the zero Account when the caller
// never registered.
func (w *Wallet) GetSelf(_ context.Context, caller Identity) Account {
	w.mu.Lock()
	defer w.mu.Unlock()

	acct, _ := w.state.view(caller)
	return acct
}

// GetBalance returns the caller's ledger balance. Unknown identities hold 0.
func (w *Wallet) GetBalance(_ context.Context, caller Identity) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state.balances[caller]
}

// LookupUsername resolves a username to its owner and account.
func (w *Wallet) LookupUsername(_ context.Context, username string) (Identity, Account, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	owner, ok := w.state.names[username]
	if !ok {
		return "", Account{}, false
	}
	acct, _ := w.state.view(owner)
	return owner, acct, true
}

// TotalSupply returns the sum of all grants ever issued.
func (w *Wallet) TotalSupply(_ context.Context) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state.totalSupply
}

// Stats summarizes the registry.
type Stats struct {
	Accounts    int    `json:"accounts"`
	Holders     int    `json:"holders"`
	TotalSupply uint64 `json:"total_supply"`
	Version     uint64 `json:"version"`
}

// Stats returns registry counters.
func (w *Wallet) Stats(_ context.Context) Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	holders := 0
	for _, bal := range w.state.balances {
		if bal > 0 {
			holders++
		}
	}
	return Stats{
		Accounts:    len(w.state.accounts),
		Holders:     holders,
		TotalSupply: w.state.totalSupply,
		Version:     w.state.version,
	}
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

// Transfer moves amount from caller to to. The receiver need not be
// registered. A transfer larger than the caller's balance fails with an
// error matching ErrInsufficientBalance and changes nothing.
func (w *Wallet) Transfer(ctx context.Context, caller, to Identity, amount uint64) (*transfer.Receipt, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}

	w.mu.Lock()
	balance, err := w.state.transfer(caller, to, amount)
	w.mu.Unlock()

	if err != nil {
		w.logger.Debug("wallet: transfer rejected",
			"from", caller,
			"to", to,
			"amount", amount,
			"balance", balance,
		)
		w.plugins.EmitTransferRejected(ctx, &transfer.Rejection{
			From:    caller,
			To:      to,
			Amount:  amount,
			Balance: balance,
			Reason:  err,
		})
		return nil, err
	}

	receipt := &transfer.Receipt{
		ID:          id.NewTransferID(),
		From:        caller,
		To:          to,
		Amount:      amount,
		FromBalance: balance,
		At:          w.now(),
	}
	w.plugins.EmitTransferCompleted(ctx, receipt)
	return receipt, nil
}

// ──────────────────────────────────────────────────
// Snapshots
// ──────────────────────────────────────────────────

// Snapshot returns a deep copy of the registry state.
func (w *Wallet) Snapshot(_ context.Context) *snapshot.Snapshot {
	w.mu.Lock()
	s := w.state.snapshot()
	w.mu.Unlock()

	s.TakenAt = w.now()
	return s
}

// Restore replaces the registry state with s after verifying its invariants.
// A snapshot that fails verification leaves the current state untouched.
func (w *Wallet) Restore(ctx context.Context, s *snapshot.Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrCorruptSnapshot)
	}
	if err := s.Verify(); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	fresh := registryFrom(s)

	w.mu.Lock()
	w.state = fresh
	w.mu.Unlock()

	w.saveMu.Lock()
	w.savedVersion = s.Version
	w.saved = true
	w.saveMu.Unlock()

	w.logger.Info("wallet: snapshot restored",
		"snapshot_id", s.ID.String(),
		"accounts", len(s.Accounts),
		"total_supply", s.TotalSupply,
	)
	w.plugins.EmitSnapshotRestored(ctx, s.ID.String())
	return nil
}

// Save writes a snapshot of the current state to the store.
func (w *Wallet) Save(ctx context.Context) (*snapshot.Snapshot, error) {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	return w.saveLocked(ctx)
}

// saveIfChanged saves only when state moved since the last save or restore.
// It returns nil when nothing was written.
func (w *Wallet) saveIfChanged(ctx context.Context) (*snapshot.Snapshot, error) {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	version := w.state.version
	w.mu.Unlock()

	if version == w.savedVersion && (w.saved || version == 0) {
		return nil, nil
	}
	return w.saveLocked(ctx)
}

func (w *Wallet) saveLocked(ctx context.Context) (*snapshot.Snapshot, error) {
	start := time.Now()
	s := w.Snapshot(ctx)

	if err := w.store.SaveSnapshot(ctx, s); err != nil {
		return nil, fmt.Errorf("wallet: save snapshot: %w", err)
	}
	w.savedVersion = s.Version
	w.saved = true

	if w.snapshotRetention > 0 {
		if _, err := w.store.PruneSnapshots(ctx, w.snapshotRetention); err != nil {
			w.logger.Warn("wallet: prune snapshots failed", "error", err)
		}
	}

	elapsed := time.Since(start)
	w.logger.Debug("wallet: snapshot saved",
		"snapshot_id", s.ID.String(),
		"version", s.Version,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	w.plugins.EmitSnapshotSaved(ctx, s.ID.String(), elapsed)
	return s, nil
}

// snapshotWorker saves snapshots on an interval until Stop.
func (w *Wallet) snapshotWorker(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if _, err := w.saveIfChanged(ctx); err != nil {
				w.logger.Error("wallet: periodic snapshot failed", "error", err)
			}
		}
	}
}
