// Package snapshot holds the serializable form of the wallet's registry state.
//
// A Snapshot is a deep copy of the three registry mappings plus the total
// supply. Hosts persist it to survive restarts; the wallet verifies every
// snapshot before adopting it.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/id"
)

// ErrInconsistent is returned by Verify when a snapshot breaks a registry invariant.
var ErrInconsistent = errors.New("snapshot: inconsistent state")

// Snapshot is the registry state aggregate at a point in time.
type Snapshot struct {
	ID      id.SnapshotID `json:"id"`
	TakenAt time.Time     `json:"taken_at"`

	// Version is the number of state mutations applied when the snapshot was taken.
	Version uint64 `json:"version"`

	Accounts    map[account.Identity]account.Profile `json:"accounts"`
	Names       map[string]account.Identity          `json:"names"`
	Balances    map[account.Identity]uint64          `json:"balances"`
	TotalSupply uint64                               `json:"total_supply"`
}

// New returns an empty snapshot with a fresh ID.
func New() *Snapshot {
	return &Snapshot{
		ID:       id.NewSnapshotID(),
		TakenAt:  time.Now().UTC(),
		Accounts: make(map[account.Identity]account.Profile),
		Names:    make(map[string]account.Identity),
		Balances: make(map[account.Identity]uint64),
	}
}

// Verify checks the registry invariants: every name resolves to an account
// carrying that name, every account is reachable from its name, and the
// balances sum to the total supply.
func (s *Snapshot) Verify() error {
	for name, owner := range s.Names {
		p, ok := s.Accounts[owner]
		if !ok {
			return fmt.Errorf("%w: name %q points at unregistered identity %q", ErrInconsistent, name, owner)
		}
		if p.Username != name {
			return fmt.Errorf("%w: name %q points at account named %q", ErrInconsistent, name, p.Username)
		}
	}
	for who, p := range s.Accounts {
		if owner, ok := s.Names[p.Username]; !ok || owner != who {
			return fmt.Errorf("%w: account %q is not indexed under %q", ErrInconsistent, who, p.Username)
		}
	}

	var sum uint64
	for who, bal := range s.Balances {
		var carry uint64
		sum, carry = bits.Add64(sum, bal, 0)
		if carry != 0 {
			return fmt.Errorf("%w: balances overflow at %q", ErrInconsistent, who)
		}
	}
	if sum != s.TotalSupply {
		return fmt.Errorf("%w: balances sum to %d, total supply is %d", ErrInconsistent, sum, s.TotalSupply)
	}
	return nil
}

// Encode serializes the snapshot as JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a snapshot produced by Encode. Missing maps are initialized.
func Decode(data []byte) (*Snapshot, error) {
	s := new(Snapshot)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if s.Accounts == nil {
		s.Accounts = make(map[account.Identity]account.Profile)
	}
	if s.Names == nil {
		s.Names = make(map[string]account.Identity)
	}
	if s.Balances == nil {
		s.Balances = make(map[account.Identity]uint64)
	}
	return s, nil
}
