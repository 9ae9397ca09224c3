package account

import (
	"unicode"
	"unicode/utf8"
)

// DefaultMaxUsernameLength is the rune limit applied when none is configured.
const DefaultMaxUsernameLength = 64

// UsernameProblem describes why a username was rejected. Empty means valid.
type UsernameProblem string

// Username problems reported by CheckUsername.
const (
	UsernameEmpty       UsernameProblem = "must not be empty"
	UsernameTooLong     UsernameProblem = "is too long"
	UsernameBadEncoding UsernameProblem = "must be valid UTF-8"
	UsernameControl     UsernameProblem = "must not contain control characters"
)

// CheckUsername validates name against the registration rules. A maxLen of
// zero or less uses DefaultMaxUsernameLength.
func CheckUsername(name string, maxLen int) UsernameProblem {
	if maxLen <= 0 {
		maxLen = DefaultMaxUsernameLength
	}
	switch {
	case name == "":
		return UsernameEmpty
	case !utf8.ValidString(name):
		return UsernameBadEncoding
	case utf8.RuneCountInString(name) > maxLen:
		return UsernameTooLong
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return UsernameControl
		}
	}
	return ""
}
