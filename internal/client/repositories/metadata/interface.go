package metadata

import (
	"context"
)

// Repository is a small key/value table for durable client state.
// Get returns (nil, nil) when the key does not exist.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
