package wallet_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/store/memory"
)

// TestDocumentationExamples verifies that the package documentation examples work.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		w := wallet.New(memory.New(),
			wallet.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			wallet.WithSnapshotInterval(time.Minute),
		)
		if err := w.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer w.Stop()

		caller := wallet.Identity("principal-1")
		recipient := wallet.Identity("principal-2")

		acct, err := w.RegisterAccount(ctx, caller, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if acct.Balance != 1000 {
			t.Errorf("Balance: got %d, want 1000", acct.Balance)
		}

		if _, err := w.Transfer(ctx, caller, recipient, 250); err != nil {
			t.Fatal(err)
		}
		_, err = w.Transfer(ctx, recipient, caller, 251)
		if !errors.Is(err, wallet.ErrInsufficientBalance) {
			t.Errorf("expected ErrInsufficientBalance, got %v", err)
		}
	})
}
