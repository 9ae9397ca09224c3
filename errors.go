package wallet

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Registration errors
	ErrInvalidUsername   = errors.New("wallet: invalid username")
	ErrAlreadyRegistered = errors.New("wallet: identity already registered")
	ErrSupplyExhausted   = errors.New("wallet: total supply exhausted")

	// Transfer errors
	ErrInsufficientBalance = errors.New("wallet: insufficient balance")

	// Caller errors
	ErrUnauthenticated = errors.New("wallet: unauthenticated caller")

	// Snapshot errors
	ErrCorruptSnapshot  = errors.New("wallet: corrupt snapshot")
	ErrSnapshotNotFound = errors.New("wallet: snapshot not found")

	// Store errors
	ErrStoreClosed    = errors.New("wallet: store is closed")
	ErrSnapshotExists = errors.New("wallet: snapshot already exists")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("wallet: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes every username ValidationError match ErrInvalidUsername.
func (e ValidationError) Unwrap() error {
	if e.Field == "username" {
		return ErrInvalidUsername
	}
	return nil
}

// InsufficientBalanceError carries the amounts of a rejected transfer.
type InsufficientBalanceError struct {
	Balance uint64
	Amount  uint64
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("wallet: insufficient balance: have %d, need %d", e.Balance, e.Amount)
}

// Unwrap returns ErrInsufficientBalance.
func (e InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// IsClientError returns true if the error was caused by the request and
// retrying it unchanged will fail again.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidUsername) ||
		errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrUnauthenticated)
}

// IsRetryable returns true if the operation may succeed later, for example
// after the sender receives funds.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}
