package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
	"github.com/jrsteele09/go-pricetracker-client/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// flightKey is the only key used with the singleflight group: there is one refresh slot per session
const flightKey = "refresh"

// Exchanger trades a refresh token for a new pair at the backend.
// The returned pair may leave Identity empty; the coordinator keeps the current one.
type Exchanger interface {
	Exchange(ctx context.Context, refreshToken string) (credentials.Pair, error)
}

// Session is the part of *session.Session the coordinator drives
type Session interface {
	Credentials() (credentials.Pair, bool)
	OnRefreshSuccess(ctx context.Context, expectedRefreshToken string, pair credentials.Pair) error
	OnRefreshFailure(ctx context.Context) error
}

// Coordinator guarantees at most one refresh exchange in flight. Callers that arrive while one
// is running wait for it and receive the same outcome.
type Coordinator struct {
	exchanger Exchanger
	session   Session
	logger    zerolog.Logger
	metrics   *metrics.Recorder

	group singleflight.Group
}

type Option func(*Coordinator)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func NewCoordinator(exchanger Exchanger, sess Session, opts ...Option) *Coordinator {
	c := &Coordinator{
		exchanger: exchanger,
		session:   sess,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh returns a usable access token.
//
// staleAccessToken is the token the caller's rejected request carried. When the session already
// holds a different token, a refresh completed after that request was sent and the current token
// is returned without another exchange.
//
// When the exchange fails the session has moved to Anonymous before Refresh returns. When the
// session was already anonymous no further transition happens. When the session was logged out
// or replaced while the exchange ran, the new pair is discarded and ErrUnauthorized is returned.
func (c *Coordinator) Refresh(ctx context.Context, staleAccessToken string) (string, error) {
	if current, ok := c.session.Credentials(); ok && current.AccessToken != staleAccessToken {
		return current.AccessToken, nil
	}

	// The exchange must not be abandoned because the first caller gave up: joiners depend on it.
	// It is bounded by the HTTP client timeout like any other request.
	flightCtx := context.WithoutCancel(ctx)
	// led is written by the flight goroutine before the result is delivered on ch
	led := false
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		led = true
		return c.run(flightCtx, staleAccessToken)
	})

	select {
	case res := <-ch:
		if res.Shared && !led {
			c.metrics.RefreshJoined()
			c.logger.Debug().Msg("Joined in-flight refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// run executes inside the flight; its result is the outcome every joiner receives
func (c *Coordinator) run(ctx context.Context, staleAccessToken string) (string, error) {
	issuedAt := NowTimeFunc()

	current, ok := c.session.Credentials()
	if ok && current.AccessToken != staleAccessToken {
		// A flight that resolved between this caller's check and its DoChan already refreshed
		return current.AccessToken, nil
	}
	if !ok {
		// Already anonymous: an earlier failure or a logout ended the session
		c.metrics.RefreshExchange(metrics.OutcomeSkipped, 0)
		return "", errors.ErrNoRefreshToken
	}
	if current.RefreshToken == "" {
		c.metrics.RefreshExchange(metrics.OutcomeSkipped, 0)
		c.logger.Debug().Msg("No refresh token, ending session")
		c.fail(ctx)
		return "", errors.ErrNoRefreshToken
	}

	next, err := c.exchanger.Exchange(ctx, current.RefreshToken)
	if err == nil {
		next = merge(current, next)
		err = next.Validate()
	}
	elapsed := NowTimeFunc().Sub(issuedAt)
	if err != nil {
		c.metrics.RefreshExchange(metrics.OutcomeFailure, elapsed)
		c.logger.Err(err).Str("identity", current.Identity).Dur("elapsed", elapsed).Msg("Refresh exchange failed")
		c.fail(ctx)
		return "", fmt.Errorf("%w: %w", errors.ErrRefreshRejected, err)
	}

	if err := c.session.OnRefreshSuccess(ctx, current.RefreshToken, next); err != nil {
		if errors.Is(err, errors.ErrSessionChanged) {
			// The session the exchange started from is gone; its outcome must not revive it
			c.metrics.RefreshExchange(metrics.OutcomeFailure, elapsed)
			c.logger.Debug().Str("identity", current.Identity).Msg("Session changed during refresh, discarding result")
			return "", fmt.Errorf("%w: %w", errors.ErrUnauthorized, err)
		}
		// The in-memory session is updated even when persisting fails; the new token is usable
		c.logger.Err(err).Str("identity", next.Identity).Msg("Refreshed credentials not persisted")
	}
	c.metrics.RefreshExchange(metrics.OutcomeSuccess, elapsed)
	c.logger.Debug().Str("identity", next.Identity).Dur("elapsed", elapsed).Msg("Refresh exchange succeeded")
	return next.AccessToken, nil
}

func (c *Coordinator) fail(ctx context.Context) {
	if err := c.session.OnRefreshFailure(ctx); err != nil {
		c.logger.Err(err).Msg("Failed to clear session after refresh failure")
	}
}

// merge fills fields the refresh response may omit from the pair being replaced
func merge(current, next credentials.Pair) credentials.Pair {
	if next.Identity == "" {
		next.Identity = current.Identity
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	return next
}
