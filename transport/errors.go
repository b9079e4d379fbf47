package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
)

// APIError is a non-2xx backend response decoded from the error envelope
// {"timestamp": ..., "status": 401, "error": "Invalid email or password", "details": {...}}.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]string
	Body       []byte
}

type errorEnvelope struct {
	Status  int               `json:"status"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Message = env.Error
		apiErr.Details = env.Details
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(http.StatusText(status))
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the package sentinels so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return errors.ErrNotFound
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return errors.ErrValidation
	case e.StatusCode >= http.StatusInternalServerError:
		return errors.ErrServer
	}
	return nil
}

// IsUnauthorized reports whether err carries a 401 backend response
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
