package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/transfer"
)

// DefaultHookTimeout bounds how long a single hook may run.
const DefaultHookTimeout = 5 * time.Second

// Registry manages registered plugins. Interfaces are discovered once at
// registration so dispatch only walks the plugins that implement a hook.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onAccountRegistered    []OnAccountRegistered
	onRegistrationReplayed []OnRegistrationReplayed
	onRegistrationRejected []OnRegistrationRejected
	onTransferCompleted    []OnTransferCompleted
	onTransferRejected     []OnTransferRejected
	onSnapshotSaved        []OnSnapshotSaved
	onSnapshotRestored     []OnSnapshotRestored
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnAccountRegistered); ok {
		r.onAccountRegistered = append(r.onAccountRegistered, v)
		hooks = append(hooks, "OnAccountRegistered")
	}
	if v, ok := p.(OnRegistrationReplayed); ok {
		r.onRegistrationReplayed = append(r.onRegistrationReplayed, v)
		hooks = append(hooks, "OnRegistrationReplayed")
	}
	if v, ok := p.(OnRegistrationRejected); ok {
		r.onRegistrationRejected = append(r.onRegistrationRejected, v)
		hooks = append(hooks, "OnRegistrationRejected")
	}
	if v, ok := p.(OnTransferCompleted); ok {
		r.onTransferCompleted = append(r.onTransferCompleted, v)
		hooks = append(hooks, "OnTransferCompleted")
	}
	if v, ok := p.(OnTransferRejected); ok {
		r.onTransferRejected = append(r.onTransferRejected, v)
		hooks = append(hooks, "OnTransferRejected")
	}
	if v, ok := p.(OnSnapshotSaved); ok {
		r.onSnapshotSaved = append(r.onSnapshotSaved, v)
		hooks = append(hooks, "OnSnapshotSaved")
	}
	if v, ok := p.(OnSnapshotRestored); ok {
		r.onSnapshotRestored = append(r.onSnapshotRestored, v)
		hooks = append(hooks, "OnSnapshotRestored")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", hooks,
	)

	return nil
}

// Get returns a plugin by name, or nil.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, w interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, w)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitAccountRegistered emits an account registered event.
func (r *Registry) EmitAccountRegistered(ctx context.Context, who account.Identity, acct account.Account) {
	r.mu.RLock()
	plugins := r.onAccountRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnAccountRegistered", p.Name(), func() error {
			return p.OnAccountRegistered(ctx, who, acct)
		})
	}
}

// EmitRegistrationReplayed emits a registration replayed event.
func (r *Registry) EmitRegistrationReplayed(ctx context.Context, caller, owner account.Identity, username string) {
	r.mu.RLock()
	plugins := r.onRegistrationReplayed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnRegistrationReplayed", p.Name(), func() error {
			return p.OnRegistrationReplayed(ctx, caller, owner, username)
		})
	}
}

// EmitRegistrationRejected emits a registration rejected event.
func (r *Registry) EmitRegistrationRejected(ctx context.Context, caller account.Identity, username string, cause error) {
	r.mu.RLock()
	plugins := r.onRegistrationRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnRegistrationRejected", p.Name(), func() error {
			return p.OnRegistrationRejected(ctx, caller, username, cause)
		})
	}
}

// EmitTransferCompleted emits a transfer completed event.
func (r *Registry) EmitTransferCompleted(ctx context.Context, receipt *transfer.Receipt) {
	r.mu.RLock()
	plugins := r.onTransferCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnTransferCompleted", p.Name(), func() error {
			return p.OnTransferCompleted(ctx, receipt)
		})
	}
}

// EmitTransferRejected emits a transfer rejected event.
func (r *Registry) EmitTransferRejected(ctx context.Context, rej *transfer.Rejection) {
	r.mu.RLock()
	plugins := r.onTransferRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnTransferRejected", p.Name(), func() error {
			return p.OnTransferRejected(ctx, rej)
		})
	}
}

// EmitSnapshotSaved emits a snapshot saved event.
func (r *Registry) EmitSnapshotSaved(ctx context.Context, snapshotID string, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onSnapshotSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSnapshotSaved", p.Name(), func() error {
			return p.OnSnapshotSaved(ctx, snapshotID, elapsed)
		})
	}
}

// EmitSnapshotRestored emits a snapshot restored event.
func (r *Registry) EmitSnapshotRestored(ctx context.Context, snapshotID string) {
	r.mu.RLock()
	plugins := r.onSnapshotRestored
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSnapshotRestored", p.Name(), func() error {
			return p.OnSnapshotRestored(ctx, snapshotID)
		})
	}
}

// dispatch runs one hook and logs its failure. Hook errors never reach
// the wallet caller.
func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
