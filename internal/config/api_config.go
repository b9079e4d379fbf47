package config

import (
	"strings"
	"time"
)

const (
	apiURLVar            = "API_URL"
	requestTimeoutVar    = "REQUEST_TIMEOUT"
	refreshLeadWindowVar = "REFRESH_LEAD_WINDOW"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIURL returns the backend base URL without a trailing slash (e.g. "https://api.example.com")
func (API) GetAPIURL() string {
	return strings.TrimRight(GetEnv(apiURLVar, "http://localhost:8080"), "/")
}

// GetRequestTimeout bounds every round trip, refresh exchanges included
func (API) GetRequestTimeout() time.Duration {
	return GetEnvDuration(requestTimeoutVar, 15*time.Second)
}

// GetRefreshLeadWindow enables proactive refresh when positive. Zero means refresh only on 401.
func (API) GetRefreshLeadWindow() time.Duration {
	return GetEnvDuration(refreshLeadWindowVar, 0)
}
