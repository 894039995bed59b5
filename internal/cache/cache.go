package cache

import (
	"context"
	"errors"
)

// CatalogCache stores raw catalog responses by key. Values are the JSON
// payloads already validated by the client.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
