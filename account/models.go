// Package account defines the identities and account records held by the wallet.
package account

import "time"

// Identity is the opaque caller credential supplied by the host's
// authentication layer. The wallet only compares and hashes it.
type Identity string

// String returns the identity text.
func (i Identity) String() string { return string(i) }

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool { return i == "" }

// Account is the profile returned to callers. Balance is read from the
// balance ledger at response time and is never stored alongside the profile.
type Account struct {
	Username string `json:"username" bson:"username"`
	Balance  uint64 `json:"balance"  bson:"balance"`
}

// IsZero reports whether a is the zero account returned for unknown identities.
func (a Account) IsZero() bool { return a.Username == "" && a.Balance == 0 }

// Profile is the stored registration record for an Identity.
type Profile struct {
	Username     string    `json:"username"      bson:"username"`
	RegisteredAt time.Time `json:"registered_at" bson:"registered_at"`
}
