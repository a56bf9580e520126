// Package statekeeper persists cache and ledger snapshots to blob
// stores outside the request path: a restore at startup, a periodic
// save, and a final save on shutdown. Persistence here is best-effort
// by design; every I/O failure is logged and swallowed, and the
// process degrades to empty state rather than failing.
package statekeeper

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/blob"
	"github.com/roamspot/placegate/internal/cache"
	"github.com/roamspot/placegate/internal/ledger"
)

// saveTimeout bounds each blob write.
const saveTimeout = 5 * time.Second

// Keeper coordinates snapshot persistence for one cache and one
// ledger. Either blob store may be nil to disable persistence for
// that piece.
type Keeper struct {
	cache      *cache.Cache
	ledger     *ledger.Ledger
	cacheBlob  blob.Store
	ledgerBlob blob.Store
	interval   time.Duration
	logger     *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  bool
}

// Compile-time check: Keeper serves as the ledger's write-behind saver.
var _ ledger.Saver = (*Keeper)(nil)

// New creates a keeper. interval <= 0 disables the periodic save;
// startup restore and shutdown save still run.
func New(
	c *cache.Cache, l *ledger.Ledger,
	cacheBlob, ledgerBlob blob.Store,
	interval time.Duration, logger *zap.Logger,
) *Keeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Keeper{
		cache:      c,
		ledger:     l,
		cacheBlob:  cacheBlob,
		ledgerBlob: ledgerBlob,
		interval:   interval,
		logger:     logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Restore reloads persisted state. Unreadable or incompatible blobs
// are treated as absent.
func (k *Keeper) Restore(ctx context.Context) {
	if k.cacheBlob != nil {
		var snap cache.Snapshot
		if k.loadInto(ctx, k.cacheBlob, "cache", &snap) {
			restored := k.cache.Restore(snap)
			k.logger.Info("Restored cache snapshot", zap.Int("entries", restored))
		}
	}
	if k.ledgerBlob != nil {
		var snap ledger.Snapshot
		if k.loadInto(ctx, k.ledgerBlob, "ledger", &snap) {
			if k.ledger.Restore(snap) {
				k.logger.Info("Restored ledger snapshot", zap.String("date", snap.Date))
			}
		}
	}
}

func (k *Keeper) loadInto(ctx context.Context, store blob.Store, kind string, v any) bool {
	data, err := store.Load(ctx)
	if err != nil {
		if !errors.Is(err, blob.ErrNotFound) {
			k.logger.Warn("Failed to load snapshot; starting empty",
				zap.String("kind", kind), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		k.logger.Warn("Discarding unreadable snapshot",
			zap.String("kind", kind), zap.Error(err))
		return false
	}
	return true
}

// Start launches the periodic save loop.
func (k *Keeper) Start() {
	k.started = true
	if k.interval <= 0 {
		close(k.done)
		return
	}

	ticker := time.NewTicker(k.interval)
	go func() {
		defer close(k.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				k.SaveAll(context.Background())
			case <-k.stop:
				return
			}
		}
	}()
}

// Stop halts the periodic loop and performs a final save. Safe to call
// whether or not Start ran.
func (k *Keeper) Stop(ctx context.Context) {
	k.stopOnce.Do(func() {
		close(k.stop)
		if !k.started {
			close(k.done)
		}
	})
	<-k.done
	k.SaveAll(ctx)
}

// SaveAll snapshots both pieces. Failures are logged and swallowed.
func (k *Keeper) SaveAll(ctx context.Context) {
	if k.cacheBlob != nil {
		k.save(ctx, k.cacheBlob, "cache", k.cache.Snapshot())
	}
	if k.ledgerBlob != nil {
		k.save(ctx, k.ledgerBlob, "ledger", k.ledger.Snapshot())
	}
}

// SaveLedger implements ledger.Saver for the ledger's write-behind
// persistence after each usage record.
func (k *Keeper) SaveLedger(ctx context.Context, snap ledger.Snapshot) error {
	if k.ledgerBlob == nil {
		return nil
	}
	k.save(ctx, k.ledgerBlob, "ledger", snap)
	return nil
}

func (k *Keeper) save(ctx context.Context, store blob.Store, kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		k.logger.Warn("Failed to encode snapshot",
			zap.String("kind", kind), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := store.Save(ctx, data); err != nil {
		k.logger.Warn("Failed to persist snapshot",
			zap.String("kind", kind), zap.Error(err))
	}
}
