package client

import (
	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
	"github.com/jrsteele09/go-pricetracker-client/token"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = tokenSource{}

// TokenSource exposes the session's current access token to code built on golang.org/x/oauth2.
// It never refreshes; refreshing stays with Do so the single-flight guarantee holds.
func (c *Client) TokenSource() oauth2.TokenSource {
	return tokenSource{session: c.session}
}

type tokenSource struct {
	session Session
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	pair, ok := ts.session.Credentials()
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	t := &oauth2.Token{
		AccessToken:  pair.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: pair.RefreshToken,
	}
	if claims, err := token.DecodeUnverified(pair.AccessToken); err == nil && claims.HasExpiry() {
		t.Expiry = claims.ExpiresAt
	}
	return t, nil
}
