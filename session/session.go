// Package session holds the process-wide authentication state of the client.
//
// A Session is created once at startup from a credentials.Store and changes only
// through its transitions: OnLoginSuccess, OnRefreshSuccess, OnLogout and OnRefreshFailure.
// Observers registered with Subscribe run synchronously inside each transition,
// so a view reading Current after a transition returns never sees the old state.
package session

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is either anonymous or authenticated as Identity
type State struct {
	Authenticated bool
	Identity      string
}

func Anonymous() State {
	return State{}
}

func AuthenticatedAs(identity string) State {
	return State{Authenticated: true, Identity: identity}
}

func (s State) String() string {
	if !s.Authenticated {
		return "anonymous"
	}
	return "authenticated as " + s.Identity
}

// EventKind names the transition that produced an Event
type EventKind string

const (
	EventLogin          EventKind = "login"
	EventLogout         EventKind = "logout"
	EventRefreshFailure EventKind = "refresh_failure"
)

// Event is delivered to observers after the state has changed
type Event struct {
	Kind  EventKind
	State State
}

type Session struct {
	store  credentials.Store
	logger zerolog.Logger

	// transition serializes state changes and observer notification
	transition sync.Mutex

	mu        sync.RWMutex
	state     State
	pair      credentials.Pair
	observers map[int]func(Event)
	nextID    int
}

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New reads the store once. A partial pair is treated as no pair and removed.
func New(ctx context.Context, store credentials.Store, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, errors.New("session: credential store is required")
	}
	s := &Session{
		store:     store,
		logger:    log.Logger,
		observers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}

	pair, err := store.Load(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "session: load credentials")
	}
	if pair == nil {
		return s, nil
	}
	if err := pair.Validate(); err != nil || pair.Empty() {
		s.logger.Warn().Msg("Discarding partial stored credentials")
		if err := store.Clear(ctx); err != nil {
			return nil, errors.Wrapf(err, "session: clear partial credentials")
		}
		return s, nil
	}
	s.pair = *pair
	s.state = AuthenticatedAs(pair.Identity)
	return s, nil
}

// Current returns the state as of the last completed transition
func (s *Session) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Credentials returns the current pair; ok is false when anonymous
func (s *Session) Credentials() (credentials.Pair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, !s.pair.Empty()
}

// AccessToken returns the current access token or ""
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.AccessToken
}

// RefreshToken returns the current refresh token or ""
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.RefreshToken
}

// OnLoginSuccess stores pair and moves to Authenticated(pair.Identity).
// A store failure is logged and returned; the in-memory transition still happens.
func (s *Session) OnLoginSuccess(ctx context.Context, pair credentials.Pair) error {
	if pair.Empty() {
		return errors.ErrPartialCredentials
	}
	if err := pair.Validate(); err != nil {
		return err
	}

	s.transition.Lock()
	defer s.transition.Unlock()

	return s.authenticate(ctx, pair)
}

// OnRefreshSuccess applies a refreshed pair only while the session still holds
// expectedRefreshToken. A logout or another login that happened while the exchange was in
// flight wins: nothing is stored and ErrSessionChanged is returned.
func (s *Session) OnRefreshSuccess(ctx context.Context, expectedRefreshToken string, pair credentials.Pair) error {
	if pair.Empty() {
		return errors.ErrPartialCredentials
	}
	if err := pair.Validate(); err != nil {
		return err
	}

	s.transition.Lock()
	defer s.transition.Unlock()

	if current, ok := s.Credentials(); !ok || current.RefreshToken != expectedRefreshToken {
		s.logger.Debug().Str("identity", pair.Identity).Msg("Discarding refreshed credentials for a changed session")
		return errors.ErrSessionChanged
	}
	return s.authenticate(ctx, pair)
}

// authenticate must be called with the transition lock held
func (s *Session) authenticate(ctx context.Context, pair credentials.Pair) error {
	saveErr := s.store.Save(ctx, pair)
	if saveErr != nil {
		s.logger.Err(saveErr).Str("identity", pair.Identity).Msg("Failed to persist credentials")
	}

	state := AuthenticatedAs(pair.Identity)
	s.set(state, pair)
	s.logger.Debug().Str("identity", pair.Identity).Msg("Session authenticated")
	s.notify(Event{Kind: EventLogin, State: state})

	return errors.Wrapf(saveErr, "session: save credentials")
}

// OnLogout clears the store and moves to Anonymous
func (s *Session) OnLogout(ctx context.Context) error {
	return s.toAnonymous(ctx, EventLogout)
}

// OnRefreshFailure clears the store and moves to Anonymous.
// Observers receive EventRefreshFailure and are expected to send the user to a login surface.
func (s *Session) OnRefreshFailure(ctx context.Context) error {
	return s.toAnonymous(ctx, EventRefreshFailure)
}

func (s *Session) toAnonymous(ctx context.Context, kind EventKind) error {
	s.transition.Lock()
	defer s.transition.Unlock()

	clearErr := s.store.Clear(ctx)
	if clearErr != nil {
		s.logger.Err(clearErr).Str("event", string(kind)).Msg("Failed to clear credentials")
	}

	previous := s.Current()
	s.set(Anonymous(), credentials.Pair{})
	s.logger.Debug().Str("event", string(kind)).Str("identity", previous.Identity).Msg("Session anonymous")
	s.notify(Event{Kind: kind, State: Anonymous()})

	return errors.Wrapf(clearErr, "session: clear credentials")
}

// Subscribe registers fn for every later transition and returns a function that removes it.
// fn runs on the transitioning goroutine and must not start another transition itself.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) set(state State, pair credentials.Pair) {
	s.mu.Lock()
	s.state = state
	s.pair = pair
	s.mu.Unlock()
}

func (s *Session) notify(e Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.observers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
