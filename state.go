package wallet

import (
	"math/bits"
	"time"

	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/snapshot"
)

// GrantAmount is the balance credited once to every newly registered account.
const GrantAmount uint64 = 1000

// registry is the mutable ledger state. It is not safe for concurrent use;
// the Wallet serializes every call.
type registry struct {
	accounts    map[Identity]account.Profile
	names       map[string]Identity
	balances    map[Identity]uint64
	totalSupply uint64

	// version counts applied mutations.
	version uint64
}

func newRegistry() *registry {
	return &registry{
		accounts: make(map[Identity]account.Profile),
		names:    make(map[string]Identity),
		balances: make(map[Identity]uint64),
	}
}

// view builds the caller-facing Account for who, reading the balance from
// the balance map.
func (r *registry) view(who Identity) (Account, bool) {
	p, ok := r.accounts[who]
	if !ok {
		return Account{}, false
	}
	return Account{Username: p.Username, Balance: r.balances[who]}, true
}

// registration is the outcome of registry.register.
type registration struct {
	acct    Account
	owner   Identity
	created bool
}

// register binds username to caller and issues the grant. An already bound
// username returns its owner's account without mutating anything.
func (r *registry) register(caller Identity, username string, now time.Time) (registration, error) {
	if owner, taken := r.names[username]; taken {
		acct, _ := r.view(owner)
		return registration{acct: acct, owner: owner}, nil
	}
	if _, has := r.accounts[caller]; has {
		return registration{}, ErrAlreadyRegistered
	}
	supply, carry := bits.Add64(r.totalSupply, GrantAmount, 0)
	if carry != 0 {
		return registration{}, ErrSupplyExhausted
	}

	r.names[username] = caller
	r.accounts[caller] = account.Profile{Username: username, RegisteredAt: now}
	r.balances[caller] += GrantAmount
	r.totalSupply = supply
	r.version++

	acct, _ := r.view(caller)
	return registration{acct: acct, owner: caller, created: true}, nil
}

// transfer moves amount from one identity to another and returns the
// sender's resulting balance. The receiver needs no account.
func (r *registry) transfer(from, to Identity, amount uint64) (uint64, error) {
	balance := r.balances[from]
	if balance < amount {
		return balance, InsufficientBalanceError{Balance: balance, Amount: amount}
	}
	if amount == 0 {
		return balance, nil
	}

	r.balances[from] = balance - amount
	// Read the receiver after the debit so a self-transfer nets to zero.
	r.balances[to] += amount
	r.version++

	return r.balances[from], nil
}

// snapshot deep-copies the state.
func (r *registry) snapshot() *snapshot.Snapshot {
	s := snapshot.New()
	s.Version = r.version
	s.TotalSupply = r.totalSupply
	for who, p := range r.accounts {
		s.Accounts[who] = p
	}
	for name, who := range r.names {
		s.Names[name] = who
	}
	for who, bal := range r.balances {
		s.Balances[who] = bal
	}
	return s
}

// registryFrom deep-copies a verified snapshot into fresh state.
func registryFrom(s *snapshot.Snapshot) *registry {
	r := newRegistry()
	r.version = s.Version
	r.totalSupply = s.TotalSupply
	for who, p := range s.Accounts {
		r.accounts[who] = p
	}
	for name, who := range s.Names {
		r.names[name] = who
	}
	for who, bal := range s.Balances {
		r.balances[who] = bal
	}
	return r
}
