// Package wallet provides an account registry and token ledger for Go services.
//
// Wallet is a library, not a service. The host authenticates callers and
// passes their Identity into every call; the wallet never reads identities
// from request payloads. It provides:
//
//   - Unique username registration with a one-time grant of GrantAmount units
//   - Balance queries that never fail (unknown identities hold zero)
//   - Atomic transfers that reject, rather than wrap, an overdraft
//   - Whole-state snapshots with invariant checks on restore
//   - Pluggable lifecycle hooks for audit trails and metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/wallet"
//	    "github.com/xraph/wallet/store/memory"
//	)
//
//	w := wallet.New(memory.New(),
//	    wallet.WithSnapshotInterval(time.Minute),
//	)
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
//	acct, err := w.RegisterAccount(ctx, caller, "alice")
//	// acct.Balance == 1000
//
//	_, err = w.Transfer(ctx, caller, recipient, 250)
//	if errors.Is(err, wallet.ErrInsufficientBalance) {
//	    // nothing moved
//	}
//
// # Registration
//
// The first identity to claim a username owns it. Registering a taken name
// returns the owner's account unchanged and issues no grant, so retrying a
// registration is safe. An identity may own a single account; registering a
// second, different name fails with ErrAlreadyRegistered.
//
// # Accounting
//
// Balances live in one ledger map keyed by Identity. Account.Balance is read
// from that map when an account is returned, so the profile and the ledger
// cannot drift apart. The total supply grows only through grants, and the
// balances always sum to it. Receiving a transfer does not require an
// account.
//
// # Concurrency
//
// Every operation holds the wallet's mutex for its whole duration. Plugin
// hooks run after the mutex is released.
package wallet
