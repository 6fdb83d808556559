package validators

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordWeak     = errors.New("password is too weak")
)

const maxPasswordLength = 128

// PasswordPolicy describes what a password must contain. The zero value only
// enforces the length limits.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy requires 8 characters mixing upper, lower, digit and symbol
func DefaultPasswordPolicy(minLength int) PasswordPolicy {
	if minLength < 8 {
		minLength = 8
	}

	return PasswordPolicy{
		MinLength:     minLength,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// PasswordValidator checks p against the policy. Weak passwords return an
// error wrapping ErrPasswordWeak that lists what is missing.
func (pp PasswordPolicy) PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	n := len([]rune(p))
	if n < pp.MinLength {
		return ErrPasswordTooShort
	}

	if n > maxPasswordLength {
		return ErrPasswordTooLong
	}

	var hasU, hasL, hasD, hasS bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}

	var missing []string
	if pp.RequireUpper && !hasU {
		missing = append(missing, "uppercase letter")
	}
	if pp.RequireLower && !hasL {
		missing = append(missing, "lowercase letter")
	}
	if pp.RequireDigit && !hasD {
		missing = append(missing, "digit")
	}
	if pp.RequireSymbol && !hasS {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return &WeakPasswordError{Missing: missing}
	}

	return nil
}

type WeakPasswordError struct {
	Missing []string
}

func (e *WeakPasswordError) Error() string {
	return "password must contain at least one " + strings.Join(e.Missing, ", ")
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrPasswordWeak
}
