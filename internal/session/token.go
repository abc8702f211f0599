package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed means the bearer credential could not be decoded or carries no expiry.
	ErrTokenMalformed = errors.New("session: malformed token")
	// ErrTokenExpired means the credential's expiration instant has passed.
	ErrTokenExpired = errors.New("session: token expired")
)

// Codec extracts the expiration instant from a bearer credential.
type Codec interface {
	Expiry(token string) (time.Time, error)
}

// JWTCodec reads the exp claim of a JWT without verifying its signature.
// The console never holds the signing key; the backend verifies every call.
type JWTCodec struct{}

func (JWTCodec) Expiry(token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, ErrTokenMalformed
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("%w: no exp claim", ErrTokenMalformed)
	}
	return exp.Time, nil
}
