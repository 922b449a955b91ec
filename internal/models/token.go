package models

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned when a bearer token is not a readable JWT
var ErrOpaqueToken = errors.New("token is not a JWT")

// TokenClaims is the informational content of a bearer token
type TokenClaims struct {
	Subject   string
	ExpiresAt *time.Time
	IssuedAt  *time.Time
	Demo      bool
}

// Expired reports whether the token carries an expiry in the past
func (c TokenClaims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Claims decodes the token's claims without verifying its signature. The
// server remains the only authority on validity; this is for display.
func (s Session) Claims() (TokenClaims, error) {
	if s.Token == "" {
		return TokenClaims{}, ErrOpaqueToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return TokenClaims{}, ErrOpaqueToken
	}

	var out TokenClaims
	out.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		out.ExpiresAt = &t
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		out.IssuedAt = &t
	}
	if demo, ok := claims["demo"].(bool); ok {
		out.Demo = demo
	}
	return out, nil
}
