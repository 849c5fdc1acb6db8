// Package blob defines the persistent key-value port the expense store
// mirrors its collection to. Each key holds one opaque serialized value.
package blob

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when the key has never been written.
var ErrNotExist = errors.New("blob: key does not exist")

// Storage reads and overwrites whole values by key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
