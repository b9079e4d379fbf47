package credentials

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
)

// Field names inside a store namespace. They match the keys the browser client kept in localStorage.
const (
	FieldAccessToken  = "accessToken"
	FieldRefreshToken = "refreshToken"
	FieldIdentity     = "userEmail"
)

// Pair is the persisted credential set. Either all three fields are set or none are.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Identity     string `json:"userEmail"`
}

// Empty reports whether no field is set
func (p Pair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == "" && p.Identity == ""
}

// Validate enforces the all-or-nothing invariant
func (p Pair) Validate() error {
	if p.Empty() {
		return nil
	}
	if strings.TrimSpace(p.AccessToken) == "" || strings.TrimSpace(p.RefreshToken) == "" || strings.TrimSpace(p.Identity) == "" {
		return errors.ErrPartialCredentials
	}
	return nil
}

// Fields flattens the pair into the namespace layout used by key-value backends
func (p Pair) Fields() map[string]string {
	return map[string]string{
		FieldAccessToken:  p.AccessToken,
		FieldRefreshToken: p.RefreshToken,
		FieldIdentity:     p.Identity,
	}
}

// FromFields is the inverse of Fields. Missing keys read as empty.
func FromFields(fields map[string]string) Pair {
	return Pair{
		AccessToken:  fields[FieldAccessToken],
		RefreshToken: fields[FieldRefreshToken],
		Identity:     fields[FieldIdentity],
	}
}

// Store persists a single credential pair.
// Save must be atomic for readers: a concurrent Load sees the old pair or the new one, never a mix.
type Store interface {
	// Load returns nil when nothing is stored
	Load(ctx context.Context) (*Pair, error)

	// Save replaces all fields
	Save(ctx context.Context, pair Pair) error

	// Clear removes all fields; a following Load returns nil
	Clear(ctx context.Context) error
}
