// Package transfer describes completed and rejected balance movements.
package transfer

import (
	"time"

	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/id"
)

// Receipt records a successful transfer.
type Receipt struct {
	ID     id.TransferID    `json:"id"`
	From   account.Identity `json:"from"`
	To     account.Identity `json:"to"`
	Amount uint64           `json:"amount"`

	// FromBalance is the sender's balance after the transfer.
	FromBalance uint64    `json:"from_balance"`
	At          time.Time `json:"at"`
}

// IsSelf reports whether the transfer moved balance back to its sender.
func (r *Receipt) IsSelf() bool { return r.From == r.To }

// Rejection describes a transfer that left state unchanged.
type Rejection struct {
	From    account.Identity `json:"from"`
	To      account.Identity `json:"to"`
	Amount  uint64           `json:"amount"`
	Balance uint64           `json:"balance"`
	Reason  error            `json:"-"`
}
