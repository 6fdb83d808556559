// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
	ErrEmailTooLong = errors.New("email address is too long")
)

const maxEmailLength = 254

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if len(e) > maxEmailLength {
		return ErrEmailTooLong
	}

	// ParseAddress also accepts "Name <addr>", only the bare address is allowed
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return ErrEmailInvalid
	}

	return nil
}

// NormalizeEmail lower-cases and trims an address before it's stored or looked up
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
