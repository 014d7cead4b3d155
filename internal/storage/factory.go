package storage

import (
	"errors"
	"fmt"
)

const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindRedis    = "redis"
)

var errNotInitialized = errors.New("store is not initialized")

// NewStore builds a backend by kind. dsn is the database path for sqlite and
// the connection URL for postgres and redis; memory ignores it.
func NewStore(kind, dsn string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(dsn)
	case KindPostgres:
		if dsn == "" {
			return nil, errors.New("postgres url is required")
		}
		return NewPostgresStore(dsn), nil
	case KindRedis:
		if dsn == "" {
			return nil, errors.New("redis url is required")
		}
		return NewRedisStore(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// Kinds lists the backend names accepted by NewStore.
func Kinds() []string {
	return []string{KindMemory, KindSQLite, KindPostgres, KindRedis}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
