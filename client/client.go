// Package client is the authenticated request pipeline. Every protected backend call goes
// through Client.Do, which attaches the bearer token, refreshes once on 401 and resends once.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
	"github.com/jrsteele09/go-pricetracker-client/internal/metrics"
	"github.com/jrsteele09/go-pricetracker-client/token"
	"github.com/jrsteele09/go-pricetracker-client/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Sender performs one round trip; *transport.Caller implements it
type Sender interface {
	Send(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Refresher obtains a new access token; *refresh.Coordinator implements it
type Refresher interface {
	Refresh(ctx context.Context, staleAccessToken string) (string, error)
}

// Session supplies the current credentials; *session.Session implements it
type Session interface {
	Credentials() (credentials.Pair, bool)
}

// Request is a logical call. Body is JSON-encoded once and reused for the resend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

type Client struct {
	sender    Sender
	session   Session
	refresher Refresher
	logger    zerolog.Logger
	metrics   *metrics.Recorder

	refreshLeadWindow time.Duration
	nowTime           func() time.Time
	newRequestID      func() string
}

type Option func(*Client)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRefreshLeadWindow refreshes before sending when the access token's exp claim falls within d.
// That refresh is the request's one refresh attempt.
func WithRefreshLeadWindow(d time.Duration) Option {
	return func(c *Client) {
		c.refreshLeadWindow = d
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		c.newRequestID = fn
	}
}

func New(sender Sender, sess Session, refresher Refresher, opts ...Option) *Client {
	c := &Client{
		sender:       sender,
		session:      sess,
		refresher:    refresher,
		logger:       log.Logger,
		nowTime:      time.Now,
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req with the current access token.
//
// A 401 triggers one refresh and one resend; whatever the resend returns is final, including
// another 401. When the refresh fails the original 401 error is returned and the session is
// already anonymous. Any other response or error is returned unchanged.
func (c *Client) Do(ctx context.Context, req Request) (*transport.Response, error) {
	body, err := transport.EncodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	requestID := c.newRequestID()
	logger := c.logger.With().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Logger()

	accessToken := c.currentAccessToken()
	refreshAttempted := false

	if c.expiresSoon(accessToken) {
		refreshAttempted = true
		fresh, err := c.refresher.Refresh(ctx, accessToken)
		if err != nil {
			logger.Err(err).Msg("Proactive refresh failed")
			return nil, fmt.Errorf("%w: %w", errors.ErrUnauthorized, err)
		}
		accessToken = fresh
	}

	resp, err := c.send(ctx, requestID, req, body, accessToken, 1)
	if !transport.IsUnauthorized(err) || refreshAttempted {
		return resp, err
	}

	fresh, refreshErr := c.refresher.Refresh(ctx, accessToken)
	if refreshErr != nil {
		logger.Err(refreshErr).Msg("Refresh after 401 failed")
		return resp, err
	}

	retryResp, retryErr := c.send(ctx, requestID, req, body, fresh, 2)
	if retryErr != nil {
		c.metrics.Replay(metrics.OutcomeFailure)
		logger.Err(retryErr).Int("attempt", 2).Msg("Resent request failed")
	} else {
		c.metrics.Replay(metrics.OutcomeSuccess)
	}
	return retryResp, retryErr
}

// send builds a fresh transport.Request per attempt so nothing is shared between attempts
func (c *Client) send(ctx context.Context, requestID string, req Request, body []byte, accessToken string, attempt int) (*transport.Response, error) {
	header := http.Header{}
	header.Set(transport.HeaderRequestID, requestID)

	var tok *oauth2.Token
	if accessToken != "" {
		tok = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("attempt", attempt).
		Bool("authenticated", tok != nil).
		Msg("Sending request")

	return c.sender.Send(ctx, transport.Request{
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
		Body:   body,
		Header: header,
		Token:  tok,
	})
}

func (c *Client) currentAccessToken() string {
	pair, ok := c.session.Credentials()
	if !ok {
		return ""
	}
	return pair.AccessToken
}

func (c *Client) expiresSoon(accessToken string) bool {
	if c.refreshLeadWindow <= 0 || accessToken == "" {
		return false
	}
	claims, err := token.DecodeUnverified(accessToken)
	if err != nil {
		// Opaque tokens carry no exp; fall back to refresh on 401
		return false
	}
	return claims.ExpiresWithin(c.nowTime(), c.refreshLeadWindow)
}
