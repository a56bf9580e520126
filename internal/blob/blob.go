// Package blob abstracts the persistence medium for cache and ledger
// snapshots as a single opaque blob per state kind. The cache and
// ledger logic never assume a specific medium; a file, Redis, or any
// other key-value capable backend can serve.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound signals that no blob has been saved yet.
var ErrNotFound = errors.New("blob: not found")

// Store loads and saves one opaque blob.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
