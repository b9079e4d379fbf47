// Package pricetracker wires the client together: credential store, session, refresh
// coordinator, authenticated pipeline and the auth and products services.
package pricetracker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-pricetracker-client/auth"
	"github.com/jrsteele09/go-pricetracker-client/client"
	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/internal/config"
	"github.com/jrsteele09/go-pricetracker-client/internal/metrics"
	"github.com/jrsteele09/go-pricetracker-client/products"
	"github.com/jrsteele09/go-pricetracker-client/session"
	"github.com/jrsteele09/go-pricetracker-client/token/refresh"
	"github.com/jrsteele09/go-pricetracker-client/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Tracker is the library surface the views use
type Tracker struct {
	Session  *session.Session
	Auth     *auth.Service
	Products *products.Service
	Client   *client.Client

	closeStore func() error
}

type options struct {
	logger     zerolog.Logger
	store      credentials.Store
	registerer prometheus.Registerer
	httpClient *http.Client
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStore overrides the store selected by configuration
func WithStore(s credentials.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithRegisterer registers the client metrics on reg instead of a private registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithHTTPClient replaces the HTTP client built from the configured request timeout
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// NewFromEnv builds a Tracker configured from environment variables
func NewFromEnv(ctx context.Context, opts ...Option) (*Tracker, error) {
	return New(ctx, config.New(), opts...)
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*Tracker, error) {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	closeStore := func() error { return nil }
	if store == nil {
		var err error
		store, closeStore, err = OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	recorder, err := metrics.New(o.registerer)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	sess, err := session.New(ctx, store, session.WithLogger(o.logger))
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("[pricetracker New] failed to create session: %w", err)
	}

	callerOpts := []transport.CallerOption{transport.WithLogger(o.logger)}
	if o.httpClient != nil {
		callerOpts = append(callerOpts, transport.WithHTTPClient(o.httpClient))
	}
	caller := transport.NewCaller(cfg.GetAPIURL(), cfg.GetRequestTimeout(), callerOpts...)

	authService := auth.NewService(caller, sess, auth.WithLogger(o.logger))
	coordinator := refresh.NewCoordinator(authService, sess,
		refresh.WithLogger(o.logger),
		refresh.WithMetrics(recorder),
	)
	pipeline := client.New(caller, sess, coordinator,
		client.WithLogger(o.logger),
		client.WithMetrics(recorder),
		client.WithRefreshLeadWindow(cfg.GetRefreshLeadWindow()),
	)

	o.logger.Debug().
		Str("app", cfg.GetAppName()).
		Str("api_url", cfg.GetAPIURL()).
		Str("store", string(cfg.GetCredentialStore())).
		Str("session", sess.Current().String()).
		Msg("Price tracker client ready")

	return &Tracker{
		Session:    sess,
		Auth:       authService,
		Products:   products.NewService(pipeline),
		Client:     pipeline,
		closeStore: closeStore,
	}, nil
}

// Close releases the credential store's connections
func (t *Tracker) Close() error {
	if t.closeStore == nil {
		return nil
	}
	return t.closeStore()
}
