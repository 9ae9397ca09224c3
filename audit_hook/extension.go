// Package audithook bridges wallet events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit store. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/plugin"
	"github.com/xraph/wallet/transfer"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnAccountRegistered    = (*Extension)(nil)
	_ plugin.OnRegistrationReplayed = (*Extension)(nil)
	_ plugin.OnRegistrationRejected = (*Extension)(nil)
	_ plugin.OnTransferCompleted    = (*Extension)(nil)
	_ plugin.OnTransferRejected     = (*Extension)(nil)
	_ plugin.OnSnapshotSaved        = (*Extension)(nil)
	_ plugin.OnSnapshotRestored     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges wallet events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Registration hooks
// ──────────────────────────────────────────────────

// OnAccountRegistered implements plugin.OnAccountRegistered.
func (e *Extension) OnAccountRegistered(ctx context.Context, who account.Identity, acct account.Account) error {
	return e.record(ctx, ActionAccountRegistered, SeverityInfo, OutcomeSuccess,
		ResourceAccount, who.String(), CategoryIdentity, nil,
		"username", acct.Username,
		"balance", acct.Balance,
	)
}

// OnRegistrationReplayed implements plugin.OnRegistrationReplayed.
func (e *Extension) OnRegistrationReplayed(ctx context.Context, caller, owner account.Identity, username string) error {
	return e.record(ctx, ActionRegistrationReplayed, SeverityInfo, OutcomeSuccess,
		ResourceAccount, owner.String(), CategoryIdentity, nil,
		"caller", caller.String(),
		"username", username,
		"foreign", caller != owner,
	)
}

// OnRegistrationRejected implements plugin.OnRegistrationRejected.
func (e *Extension) OnRegistrationRejected(ctx context.Context, caller account.Identity, username string, err error) error {
	severity := SeverityWarning
	if errors.Is(err, wallet.ErrSupplyExhausted) {
		severity = SeverityCritical
	}
	return e.record(ctx, ActionRegistrationRejected, severity, OutcomeFailure,
		ResourceAccount, caller.String(), CategoryIdentity, err,
		"username", username,
	)
}

// ──────────────────────────────────────────────────
// Transfer hooks
// ──────────────────────────────────────────────────

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (e *Extension) OnTransferCompleted(ctx context.Context, r *transfer.Receipt) error {
	return e.record(ctx, ActionTransferCompleted, SeverityInfo, OutcomeSuccess,
		ResourceTransfer, r.ID.String(), CategoryLedger, nil,
		"from", r.From.String(),
		"to", r.To.String(),
		"amount", r.Amount,
		"from_balance", r.FromBalance,
	)
}

// OnTransferRejected implements plugin.OnTransferRejected.
func (e *Extension) OnTransferRejected(ctx context.Context, r *transfer.Rejection) error {
	return e.record(ctx, ActionTransferRejected, SeverityWarning, OutcomeFailure,
		ResourceTransfer, "", CategoryLedger, r.Reason,
		"from", r.From.String(),
		"to", r.To.String(),
		"amount", r.Amount,
		"balance", r.Balance,
	)
}

// ──────────────────────────────────────────────────
// Snapshot hooks
// ──────────────────────────────────────────────────

// OnSnapshotSaved implements plugin.OnSnapshotSaved.
func (e *Extension) OnSnapshotSaved(ctx context.Context, snapshotID string, elapsed time.Duration) error {
	return e.record(ctx, ActionSnapshotSaved, SeverityInfo, OutcomeSuccess,
		ResourceSnapshot, snapshotID, CategoryPersistence, nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnSnapshotRestored implements plugin.OnSnapshotRestored.
func (e *Extension) OnSnapshotRestored(ctx context.Context, snapshotID string) error {
	return e.record(ctx, ActionSnapshotRestored, SeverityWarning, OutcomeSuccess,
		ResourceSnapshot, snapshotID, CategoryPersistence, nil,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
