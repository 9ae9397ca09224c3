package audithook

// Action constants for audit events.
const (
	// Registration actions
	ActionAccountRegistered    = "account.registered"
	ActionRegistrationReplayed = "registration.replayed"
	ActionRegistrationRejected = "registration.rejected"

	// Transfer actions
	ActionTransferCompleted = "transfer.completed"
	ActionTransferRejected  = "transfer.rejected"

	// Snapshot actions
	ActionSnapshotSaved    = "snapshot.saved"
	ActionSnapshotRestored = "snapshot.restored"
)

// Resource constants for audit events.
const (
	ResourceAccount  = "account"
	ResourceTransfer = "transfer"
	ResourceSnapshot = "snapshot"
)

// Category constants for audit events.
const (
	CategoryIdentity    = "identity"
	CategoryLedger      = "ledger"
	CategoryPersistence = "persistence"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
