package wallet

import (
	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/id"
)

// ID is the identifier type for wallet records.
type ID = id.ID

// Identity is the opaque caller credential used as the ledger key.
type Identity = account.Identity

// Account is the profile returned to callers.
type Account = account.Account
