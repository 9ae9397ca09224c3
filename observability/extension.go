// Package observability provides a metrics extension for the wallet that
// records event counts through a MetricFactory.
package observability

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/plugin"
	"github.com/xraph/wallet/transfer"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnAccountRegistered    = (*MetricsExtension)(nil)
	_ plugin.OnRegistrationReplayed = (*MetricsExtension)(nil)
	_ plugin.OnRegistrationRejected = (*MetricsExtension)(nil)
	_ plugin.OnTransferCompleted    = (*MetricsExtension)(nil)
	_ plugin.OnTransferRejected     = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotSaved        = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotRestored     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records wallet activity metrics.
// Register it as a wallet plugin to track registrations and transfers.
type MetricsExtension struct {
	factory MetricFactory

	// Registration metrics
	AccountsRegistered    Counter
	RegistrationsReplayed Counter
	RegistrationsInvalid  Counter
	RegistrationsRefused  Counter
	GrantedUnits          Counter

	// Transfer metrics
	TransfersCompleted Counter
	TransfersRejected  Counter
	SelfTransfers      Counter
	TransferredUnits   Counter
	TransferAmount     Histogram

	// Snapshot metrics
	SnapshotsSaved    Counter
	SnapshotsRestored Counter
	SnapshotLatency   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		AccountsRegistered:    factory.Counter("wallet.account.registered"),
		RegistrationsReplayed: factory.Counter("wallet.registration.replayed"),
		RegistrationsInvalid:  factory.Counter("wallet.registration.invalid"),
		RegistrationsRefused:  factory.Counter("wallet.registration.refused"),
		GrantedUnits:          factory.Counter("wallet.supply.granted"),

		TransfersCompleted: factory.Counter("wallet.transfer.completed"),
		TransfersRejected:  factory.Counter("wallet.transfer.rejected"),
		SelfTransfers:      factory.Counter("wallet.transfer.self"),
		TransferredUnits:   factory.Counter("wallet.transfer.units"),
		TransferAmount:     factory.Histogram("wallet.transfer.amount"),

		SnapshotsSaved:    factory.Counter("wallet.snapshot.saved"),
		SnapshotsRestored: factory.Counter("wallet.snapshot.restored"),
		SnapshotLatency:   factory.Histogram("wallet.snapshot.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Registration hooks
// ──────────────────────────────────────────────────

// OnAccountRegistered implements plugin.OnAccountRegistered.
func (m *MetricsExtension) OnAccountRegistered(_ context.Context, _ account.Identity, _ account.Account) error {
	m.AccountsRegistered.Inc()
	m.GrantedUnits.Add(float64(wallet.GrantAmount))
	return nil
}

// OnRegistrationReplayed implements plugin.OnRegistrationReplayed.
func (m *MetricsExtension) OnRegistrationReplayed(_ context.Context, _, _ account.Identity, _ string) error {
	m.RegistrationsReplayed.Inc()
	return nil
}

// OnRegistrationRejected implements plugin.OnRegistrationRejected.
func (m *MetricsExtension) OnRegistrationRejected(_ context.Context, _ account.Identity, _ string, err error) error {
	if errors.Is(err, wallet.ErrInvalidUsername) {
		m.RegistrationsInvalid.Inc()
	} else {
		m.RegistrationsRefused.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Transfer hooks
// ──────────────────────────────────────────────────

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (m *MetricsExtension) OnTransferCompleted(_ context.Context, r *transfer.Receipt) error {
	m.TransfersCompleted.Inc()
	if r.IsSelf() {
		m.SelfTransfers.Inc()
		return nil
	}
	m.TransferredUnits.Add(float64(r.Amount))
	m.TransferAmount.Observe(float64(r.Amount))
	return nil
}

// OnTransferRejected implements plugin.OnTransferRejected.
func (m *MetricsExtension) OnTransferRejected(_ context.Context, _ *transfer.Rejection) error {
	m.TransfersRejected.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Snapshot hooks
// ──────────────────────────────────────────────────

// OnSnapshotSaved implements plugin.OnSnapshotSaved.
func (m *MetricsExtension) OnSnapshotSaved(_ context.Context, _ string, elapsed time.Duration) error {
	m.SnapshotsSaved.Inc()
	m.SnapshotLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnSnapshotRestored implements plugin.OnSnapshotRestored.
func (m *MetricsExtension) OnSnapshotRestored(_ context.Context, _ string) error {
	m.SnapshotsRestored.Inc()
	return nil
}
