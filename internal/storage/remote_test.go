package storage

import (
	"os"
	"testing"
)

func TestPostgresStoreConformance(t *testing.T) {
	url := os.Getenv("IBIS_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("IBIS_TEST_POSTGRES_URL not set")
	}
	exerciseStore(t, NewPostgresStore(url))
}

func TestRedisStoreConformance(t *testing.T) {
	url := os.Getenv("IBIS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("IBIS_TEST_REDIS_URL not set")
	}
	exerciseStore(t, NewRedisStore(url))
}
