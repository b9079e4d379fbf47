package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	HeaderRequestID = "X-Request-ID"

	maxBodyBytes = 4 << 20
)

// Request describes one backend call. Body holds already-encoded JSON so the same
// bytes can be sent again on replay. A nil Token sends the request unauthenticated.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header
	Token  *oauth2.Token
}

// Response is a fully read backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// EncodeBody marshals v for use as Request.Body. A nil v yields a nil body.
func EncodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return b, nil
}

// Caller performs single HTTP round trips against the backend. It never retries.
type Caller struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type CallerOption func(*Caller)

// WithHTTPClient replaces the default client. Its Timeout is the only timeout policy.
func WithHTTPClient(c *http.Client) CallerOption {
	return func(caller *Caller) {
		caller.httpClient = c
	}
}

func WithLogger(l zerolog.Logger) CallerOption {
	return func(caller *Caller) {
		caller.logger = l
	}
}

func NewCaller(baseURL string, timeout time.Duration, opts ...CallerOption) *Caller {
	c := &Caller{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs the round trip. A non-2xx status returns the response together with an *APIError.
// A transport failure returns a nil response and the wrapped network error.
func (c *Caller) Send(ctx context.Context, req Request) (*Response, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", req.Method, req.Path, err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Token != nil && req.Token.AccessToken != "" {
		req.Token.SetAuthHeader(httpReq)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Err(err).Str("method", req.Method).Str("path", req.Path).Msg("Request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", req.Method, req.Path, err)
	}

	c.logger.Debug().
		Str("request_id", httpReq.Header.Get(HeaderRequestID)).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: respBody}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, newAPIError(httpResp.StatusCode, respBody)
	}
	return resp, nil
}
