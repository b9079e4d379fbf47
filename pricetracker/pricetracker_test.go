package pricetracker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/jrsteele09/go-pricetracker-client/auth"
	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/pricetracker"
	"github.com/jrsteele09/go-pricetracker-client/products"
	"github.com/jrsteele09/go-pricetracker-client/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "password123"
)

// backend issues tokens on login and refresh and serves an empty product list to the current token
type backend struct {
	mu      sync.Mutex
	access  string
	refresh string
	issued  int
}

func (b *backend) rotate() auth.AuthResponse {
	b.issued++
	b.access = "access-" + strconv.Itoa(b.issued)
	b.refresh = "refresh-" + strconv.Itoa(b.issued)
	return auth.AuthResponse{AccessToken: b.access, RefreshToken: b.refresh, Email: testUserEmail}
}

// expire invalidates the current access token so the next request gets a 401
func (b *backend) expire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = "expired"
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case auth.RouteLogin:
		_ = json.NewEncoder(w).Encode(b.rotate())
	case auth.RouteRefresh:
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.RefreshToken != b.refresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":401,"error":"Invalid refresh token"}`))
			return
		}
		resp := b.rotate()
		resp.Email = ""
		_ = json.NewEncoder(w).Encode(resp)
	case products.RouteProducts:
		if r.Header.Get("Authorization") != "Bearer "+b.access {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":401,"error":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestTracker_EndToEnd(t *testing.T) {
	ctx := context.Background()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	t.Setenv("API_URL", srv.URL)

	store := credentials.NewInMemoryStore()
	tracker, err := pricetracker.NewFromEnv(ctx,
		pricetracker.WithStore(store),
		pricetracker.WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tracker.Close() })
	require.Equal(t, session.Anonymous(), tracker.Session.Current())

	require.NoError(t, tracker.Auth.Login(ctx, testUserEmail, testUserPassword))
	require.Equal(t, session.AuthenticatedAs(testUserEmail), tracker.Session.Current())

	list, err := tracker.Products.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	b.expire()
	_, err = tracker.Products.List(ctx)
	require.NoError(t, err, "an expired access token is refreshed transparently")

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, credentials.Pair{AccessToken: "access-2", RefreshToken: "refresh-2", Identity: testUserEmail}, *stored)

	// A restart over the same store resumes the session
	restarted, err := pricetracker.NewFromEnv(ctx, pricetracker.WithStore(store))
	require.NoError(t, err)
	require.Equal(t, session.AuthenticatedAs(testUserEmail), restarted.Session.Current())

	require.NoError(t, tracker.Auth.Logout(ctx))
	stored, err = store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestTracker_RefreshFailureEndsSession(t *testing.T) {
	ctx := context.Background()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	t.Setenv("API_URL", srv.URL)

	store := credentials.NewInMemoryStore()
	require.NoError(t, store.Save(ctx, credentials.Pair{AccessToken: "stale", RefreshToken: "revoked", Identity: testUserEmail}))

	tracker, err := pricetracker.NewFromEnv(ctx, pricetracker.WithStore(store))
	require.NoError(t, err)
	require.Equal(t, session.AuthenticatedAs(testUserEmail), tracker.Session.Current())

	var events []session.EventKind
	tracker.Session.Subscribe(func(e session.Event) { events = append(events, e.Kind) })

	_, err = tracker.Products.List(ctx)
	require.Error(t, err)
	require.Equal(t, session.Anonymous(), tracker.Session.Current())
	require.Equal(t, []session.EventKind{session.EventRefreshFailure}, events)
}

func TestNewFromEnv_StoreSelection(t *testing.T) {
	ctx := context.Background()
	t.Setenv("CREDENTIAL_STORE", "file")
	t.Setenv("CREDENTIAL_FILE", filepath.Join(t.TempDir(), "credentials.json"))
	t.Setenv("CREDENTIAL_KEY", "")

	tracker, err := pricetracker.NewFromEnv(ctx)
	require.NoError(t, err)
	require.NoError(t, tracker.Close())

	t.Setenv("CREDENTIAL_STORE", "floppy")
	_, err = pricetracker.NewFromEnv(ctx)
	require.Error(t, err)
}
