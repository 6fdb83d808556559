package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const authTokenType = "auth"

var ErrTokenInvalid = errors.New("authorization token invalid")

// AuthClaims is the payload of the token handed out on login
type AuthClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// MakeAuthToken signs an HS256 token for userID that expires after ttl
func MakeAuthToken(secret, userID, role string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &AuthClaims{
		UserID: userID,
		Role:   role,
		Type:   authTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	s, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token, %w", err)
	}

	return s, exp, nil
}

// ParseAuthToken validates the signature, algorithm, expiry and type of s
func ParseAuthToken(secret, s string) (*AuthClaims, error) {
	var claims AuthClaims

	token, err := jwt.ParseWithClaims(s, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.Type != authTokenType || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return &claims, nil
}
