package security

import (
	"bitwise74/account-api/pkg/util"
	"crypto/subtle"
)

const tokenSize = 32

// MakeVerificationToken returns a fresh one-time token proving control of an
// email address
func MakeVerificationToken() (string, error) {
	return util.GenerateToken(tokenSize)
}

// TokensMatch compares a stored token with a supplied one in constant time.
// A nil stored token never matches.
func TokensMatch(stored *string, supplied string) bool {
	if stored == nil || *stored == "" || supplied == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(*stored), []byte(supplied)) == 1
}
