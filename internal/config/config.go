package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

type APIConfig interface {
	GetAPIURL() string
	GetRequestTimeout() time.Duration
	GetRefreshLeadWindow() time.Duration
}

type StoreConfig interface {
	GetCredentialStore() StoreKind
	GetCredentialFile() string
	GetCredentialKey() ([]byte, error)
	GetCredentialNamespace() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSQLiteDSN() string
}

type mainConfig struct {
	EnvVars
	API
	Store
}

func New() Config {
	return mainConfig{}
}
