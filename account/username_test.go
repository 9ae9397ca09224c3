package account_test

import (
	"strings"
	"testing"

	"github.com/xraph/wallet/account"
)

func TestCheckUsername(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   account.UsernameProblem
	}{
		{"plain", "alice", 0, ""},
		{"unicode", "zoë", 0, ""},
		{"spaces inside", "mary ann", 0, ""},
		{"empty", "", 0, account.UsernameEmpty},
		{"at default limit", strings.Repeat("a", account.DefaultMaxUsernameLength), 0, ""},
		{"over default limit", strings.Repeat("a", account.DefaultMaxUsernameLength+1), 0, account.UsernameTooLong},
		{"custom limit counts runes", "ééé", 3, ""},
		{"over custom limit", "abcd", 3, account.UsernameTooLong},
		{"invalid utf8", "bad\xff", 0, account.UsernameBadEncoding},
		{"newline", "bob\n", 0, account.UsernameControl},
		{"nul", "b\x00b", 0, account.UsernameControl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := account.CheckUsername(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("CheckUsername(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestAccountIsZero(t *testing.T) {
	if !(account.Account{}).IsZero() {
		t.Error("zero Account should report IsZero")
	}
	if (account.Account{Username: "alice"}).IsZero() {
		t.Error("named Account should not report IsZero")
	}
	if (account.Account{Balance: 1}).IsZero() {
		t.Error("funded Account should not report IsZero")
	}
}
