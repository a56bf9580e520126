// Package redis implements blob.Store on a Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roamspot/placegate/internal/blob"
	"github.com/roamspot/placegate/internal/db"
)

// Compile-time check: Store implements blob.Store.
var _ blob.Store = (*Store)(nil)

// Store persists a blob under a fixed Redis key with a TTL, so
// abandoned deployments do not accumulate stale state.
type Store struct {
	kv  db.KVStore
	key string
	ttl time.Duration
}

// New creates a Redis-backed blob store. ttl <= 0 disables expiry.
func New(kv db.KVStore, key string, ttl time.Duration) *Store {
	return &Store{kv: kv, key: key, ttl: ttl}
}

// Load reads the blob. An absent key maps to blob.ErrNotFound.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("blob GET %s: %w", s.key, err)
	}
	return data, nil
}

// Save overwrites the blob.
func (s *Store) Save(ctx context.Context, data []byte) error {
	var err error
	if s.ttl > 0 {
		err = s.kv.SetWithTTL(ctx, s.key, data, s.ttl)
	} else {
		err = s.kv.Set(ctx, s.key, data)
	}
	if err != nil {
		return fmt.Errorf("blob SET %s: %w", s.key, err)
	}
	return nil
}
