package wallet_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/account"
)

// Concurrent registrations and transfers never mint, burn or overdraw.
func TestConcurrentOperations_ConserveSupply(t *testing.T) {
	ctx := context.Background()
	w := newWallet(t)

	const (
		workers   = 16
		transfers = 200
	)
	ids := make([]account.Identity, workers)
	for i := range ids {
		ids[i] = account.Identity(fmt.Sprintf("id-%02d", i))
	}

	var wg sync.WaitGroup
	for i, who := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every worker races for one shared name; the winner's second
			// registration then fails with ErrAlreadyRegistered.
			_, _ = w.RegisterAccount(ctx, who, "shared")                     //nolint:errcheck // see above
			_, _ = w.RegisterAccount(ctx, who, fmt.Sprintf("user-%02d", i)) //nolint:errcheck // see above
			for n := range transfers {
				to := ids[(i+n+1)%workers]
				_, _ = w.Transfer(ctx, who, to, uint64(n%50)) //nolint:errcheck // rejections are expected
			}
		}()
	}
	wg.Wait()

	owner, _, ok := w.LookupUsername(ctx, "shared")
	if !ok {
		t.Fatal("shared name unbound")
	}

	stats := w.Stats(ctx)
	if stats.Accounts != workers {
		t.Errorf("Accounts: got %d, want %d", stats.Accounts, workers)
	}
	if want := uint64(workers) * wallet.GrantAmount; stats.TotalSupply != want {
		t.Errorf("TotalSupply: got %d, want %d", stats.TotalSupply, want)
	}
	if got := sumBalances(t, w); got != stats.TotalSupply {
		t.Errorf("sum(balances) = %d, TotalSupply = %d", got, stats.TotalSupply)
	}
	if err := w.Snapshot(ctx).Verify(); err != nil {
		t.Errorf("final state inconsistent: %v", err)
	}
	if name := w.GetSelf(ctx, owner).Username; name != "shared" {
		t.Errorf("shared owner holds %q", name)
	}
}
