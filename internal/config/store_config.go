package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// StoreKind selects the credential store backend
type StoreKind string

const (
	MemoryStore StoreKind = "memory"
	FileStore   StoreKind = "file"
	RedisStore  StoreKind = "redis"
	SQLiteStore StoreKind = "sqlite"
)

const (
	credentialStoreVar     = "CREDENTIAL_STORE"
	credentialFileVar      = "CREDENTIAL_FILE"
	credentialKeyVar       = "CREDENTIAL_KEY"
	credentialNamespaceVar = "CREDENTIAL_NAMESPACE"
	redisAddrVar           = "REDIS_ADDR"
	redisPasswordVar       = "REDIS_PASSWORD"
	redisDBVar             = "REDIS_DB"
	sqliteDSNVar           = "SQLITE_DSN"

	credentialKeyLength = 32
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetCredentialStore() StoreKind {
	return StoreKind(strings.ToLower(GetEnv(credentialStoreVar, string(MemoryStore))))
}

func (Store) GetCredentialFile() string {
	return GetEnv(credentialFileVar, "./data/credentials.json")
}

// GetCredentialKey returns the at-rest key for the file store, or nil when none is configured
func (Store) GetCredentialKey() ([]byte, error) {
	value := os.Getenv(credentialKeyVar)
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s is not hex: %w", credentialKeyVar, err)
	}
	if len(key) != credentialKeyLength {
		return nil, fmt.Errorf("%s must be %d bytes, got %d", credentialKeyVar, credentialKeyLength, len(key))
	}
	return key, nil
}

func (Store) GetCredentialNamespace() string {
	return GetEnv(credentialNamespaceVar, "pricetracker")
}

func (Store) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Store) GetRedisDB() int {
	return GetEnvInt(redisDBVar, 0)
}

func (Store) GetSQLiteDSN() string {
	return GetEnv(sqliteDSNVar, "file:./data/credentials.db?_busy_timeout=5000")
}
