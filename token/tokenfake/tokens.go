// Package tokenfake mints backend-shaped JWTs for tests. The signature uses a fixed HMAC
// secret; the client never verifies it.
package tokenfake

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var secret = []byte("pricetracker-test-secret")

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// AccessToken returns a signed token for email that expires after ttl
func AccessToken(email string, ttl time.Duration) string {
	return sign(jwtlib.MapClaims{
		"sub":   uuid.NewString(),
		"email": email,
		"iat":   NowTimeFunc().Unix(),
		"exp":   NowTimeFunc().Add(ttl).Unix(),
		"jti":   uuid.NewString(),
	})
}

// WithoutExpiry returns a signed token with no exp claim
func WithoutExpiry(email string) string {
	return sign(jwtlib.MapClaims{
		"sub":   uuid.NewString(),
		"email": email,
		"iat":   NowTimeFunc().Unix(),
	})
}

func sign(claims jwtlib.MapClaims) string {
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		panic(err)
	}
	return signed
}
