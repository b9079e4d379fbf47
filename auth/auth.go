// Package auth performs the unauthenticated calls of the backend: register, login and the
// refresh exchange. None of them go through the refresh pipeline, so a rejected login is
// returned as-is and never triggers a refresh.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
	"github.com/jrsteele09/go-pricetracker-client/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	RouteRegister = "/api/auth/register"
	RouteLogin    = "/api/auth/login"
	RouteRefresh  = "/api/auth/refresh"

	MinPasswordLength = 8
)

// AuthRequest is the register and login body
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login and refresh. Refresh may omit Email.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email,omitempty"`
}

func (r AuthResponse) Pair() credentials.Pair {
	return credentials.Pair{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Identity:     r.Email,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Sender performs one unauthenticated round trip
type Sender interface {
	Send(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Session receives the login and logout transitions
type Session interface {
	OnLoginSuccess(ctx context.Context, pair credentials.Pair) error
	OnLogout(ctx context.Context) error
}

type Service struct {
	sender  Sender
	session Session
	logger  zerolog.Logger
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func NewService(sender Sender, sess Session, opts ...Option) *Service {
	s := &Service{
		sender:  sender,
		session: sess,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and logs in. The password rule is checked before anything is sent.
func (s *Service) Register(ctx context.Context, email, password string) error {
	req := AuthRequest{Email: strings.TrimSpace(email), Password: password}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if len(req.Password) < MinPasswordLength {
		return errors.ErrPasswordTooShort
	}
	return s.authenticate(ctx, RouteRegister, req)
}

// RegisterConfirmed is Register for forms that ask for the password twice
func (s *Service) RegisterConfirmed(ctx context.Context, email, password, confirm string) error {
	if password != confirm {
		return errors.ErrPasswordMismatch
	}
	return s.Register(ctx, email, password)
}

// Login authenticates and moves the session to Authenticated. A rejection leaves the session untouched.
func (s *Service) Login(ctx context.Context, email, password string) error {
	req := AuthRequest{Email: strings.TrimSpace(email), Password: password}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	return s.authenticate(ctx, RouteLogin, req)
}

// Logout ends the session locally; the backend keeps no server-side session to revoke
func (s *Service) Logout(ctx context.Context) error {
	return s.session.OnLogout(ctx)
}

// Exchange trades refreshToken for a new pair. It implements refresh.Exchanger.
func (s *Service) Exchange(ctx context.Context, refreshToken string) (credentials.Pair, error) {
	var out AuthResponse
	if err := s.post(ctx, RouteRefresh, refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return credentials.Pair{}, err
	}
	return out.Pair(), nil
}

func (s *Service) authenticate(ctx context.Context, route string, req AuthRequest) error {
	var out AuthResponse
	if err := s.post(ctx, route, req, &out); err != nil {
		s.logger.Debug().Err(err).Str("route", route).Msg("Authentication rejected")
		return err
	}
	if out.Email == "" {
		out.Email = req.Email
	}
	return s.session.OnLoginSuccess(ctx, out.Pair())
}

func (s *Service) post(ctx context.Context, route string, in, out any) error {
	body, err := transport.EncodeBody(in)
	if err != nil {
		return err
	}
	resp, err := s.sender.Send(ctx, transport.Request{Method: http.MethodPost, Path: route, Body: body})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidEmail, err)
	}
	return nil
}
