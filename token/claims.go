package token

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the backend puts in its access and refresh tokens
type Claims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasExpiry reports whether the token carried an exp claim
func (c Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

// ExpiresWithin reports whether the token expires before now+window
func (c Claims) ExpiresWithin(now time.Time, window time.Duration) bool {
	if !c.HasExpiry() {
		return false
	}
	return !c.ExpiresAt.After(now.Add(window))
}

// DecodeUnverified reads the claims of a JWT without checking its signature.
// The client holds no verification key; the backend remains the authority on validity.
func DecodeUnverified(rawToken string) (Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Claims{}, fmt.Errorf("token: empty token")
	}
	unverified, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("token: parse: %w", err)
	}
	mapClaims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("token: error extracting claims")
	}

	var claims Claims
	claims.Subject, _ = mapClaims.GetSubject()
	claims.Email, _ = mapClaims["email"].(string)
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	return claims, nil
}
