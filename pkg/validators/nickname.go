package validators

import (
	"errors"
	"regexp"
)

var (
	ErrNicknameEmpty   = errors.New("no nickname provided")
	ErrNicknameInvalid = errors.New("nickname may only contain letters, digits, underscores and hyphens")
	ErrNicknameLength  = errors.New("nickname must be between 3 and 50 characters long")
)

var nicknameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func NicknameValidator(n string) error {
	if n == "" {
		return ErrNicknameEmpty
	}

	if len(n) < 3 || len(n) > 50 {
		return ErrNicknameLength
	}

	if !nicknameRe.MatchString(n) {
		return ErrNicknameInvalid
	}

	return nil
}
