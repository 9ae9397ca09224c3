package wallet_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/plugin"
	"github.com/xraph/wallet/transfer"
)

var (
	_ plugin.OnAccountRegistered    = (*recorder)(nil)
	_ plugin.OnRegistrationReplayed = (*recorder)(nil)
	_ plugin.OnRegistrationRejected = (*recorder)(nil)
	_ plugin.OnTransferCompleted    = (*recorder)(nil)
	_ plugin.OnTransferRejected     = (*recorder)(nil)
	_ plugin.OnSnapshotSaved        = (*recorder)(nil)
	_ plugin.OnSnapshotRestored     = (*recorder)(nil)
)

// recorder notes every hook it receives.
type recorder struct {
	name    string
	onSaved func()

	mu     sync.Mutex
	events []string
	last   *transfer.Receipt
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OnAccountRegistered(_ context.Context, _ account.Identity, acct account.Account) error {
	r.add("registered:" + acct.Username)
	return nil
}

func (r *recorder) OnRegistrationReplayed(_ context.Context, _, _ account.Identity, username string) error {
	r.add("replayed:" + username)
	return nil
}

func (r *recorder) OnRegistrationRejected(_ context.Context, _ account.Identity, username string, _ error) error {
	r.add("rejected:" + username)
	return nil
}

func (r *recorder) OnTransferCompleted(_ context.Context, receipt *transfer.Receipt) error {
	r.mu.Lock()
	r.last = receipt
	r.mu.Unlock()
	r.add("transfer")
	return nil
}

func (r *recorder) OnTransferRejected(_ context.Context, rej *transfer.Rejection) error {
	if !errors.Is(rej.Reason, wallet.ErrInsufficientBalance) {
		r.add("transfer-rejected:unexpected")
		return nil
	}
	r.add("transfer-rejected")
	return nil
}

func (r *recorder) OnSnapshotSaved(_ context.Context, _ string, _ time.Duration) error {
	r.add("saved")
	if r.onSaved != nil {
		r.onSaved()
	}
	return nil
}

func (r *recorder) OnSnapshotRestored(_ context.Context, _ string) error {
	r.add("restored")
	return nil
}

func TestPlugins_ReceiveEvents(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{name: "recorder"}
	w := newWallet(t, wallet.WithPlugin(rec))

	mustRegister(t, w, "i1", "alice")
	mustRegister(t, w, "i2", "alice")
	if _, err := w.RegisterAccount(ctx, "i1", ""); err == nil {
		t.Fatal("expected invalid username")
	}
	if _, err := w.Transfer(ctx, "i1", "i2", 10); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Transfer(ctx, "i2", "i1", 11); err == nil {
		t.Fatal("expected insufficient balance")
	}
	snap, err := w.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Restore(ctx, snap); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"registered:alice",
		"replayed:alice",
		"rejected:",
		"transfer",
		"transfer-rejected",
		"saved",
		"restored",
	}
	got := rec.seen()
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, got[i], want[i])
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.last == nil || rec.last.From != "i1" || rec.last.To != "i2" || rec.last.Amount != 10 {
		t.Errorf("unexpected receipt %+v", rec.last)
	}
}

type slowPlugin struct{}

func (slowPlugin) Name() string { return "slow" }

func (slowPlugin) OnAccountRegistered(ctx context.Context, _ account.Identity, _ account.Account) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

func TestPlugins_SlowHookIsBounded(t *testing.T) {
	w := newWallet(t,
		wallet.WithHookTimeout(20*time.Millisecond),
		wallet.WithPlugin(slowPlugin{}),
	)

	start := time.Now()
	mustRegister(t, w, "i1", "alice")
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("registration waited %v on a slow hook", elapsed)
	}
	if got := w.GetBalance(context.Background(), "i1"); got != wallet.GrantAmount {
		t.Errorf("GetBalance: got %d", got)
	}
}
