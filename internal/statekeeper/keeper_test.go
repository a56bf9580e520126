package statekeeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/blob"
	"github.com/roamspot/placegate/internal/cache"
	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/ledger"
)

type memBlob struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
}

func (m *memBlob) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, blob.ErrNotFound
	}
	return m.data, nil
}

func (m *memBlob) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func newFixtures(t *testing.T) (*cache.Cache, *ledger.Ledger) {
	t.Helper()
	c := cache.New(cache.Config{MaxSize: 10, DefaultTTL: time.Hour}, zap.NewNop())
	t.Cleanup(c.Stop)
	l, err := ledger.New(ledger.Config{DailyBudget: 10}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error creating ledger: %v", err)
	}
	return c, l
}

func TestSaveAllRestore_RoundTrip(t *testing.T) {
	c, l := newFixtures(t)
	c.Set("k", []byte(`"v"`), time.Hour)
	l.Record(domain.CategoryGeocoding, 2, 1)

	cacheBlob, ledgerBlob := &memBlob{}, &memBlob{}
	k := New(c, l, cacheBlob, ledgerBlob, 0, zap.NewNop())
	k.SaveAll(context.Background())

	c2, l2 := newFixtures(t)
	k2 := New(c2, l2, cacheBlob, ledgerBlob, 0, zap.NewNop())
	k2.Restore(context.Background())

	if !c2.Has("k") {
		t.Fatal("expected cache entry restored")
	}
	if got := l2.Counts()[domain.CategoryGeocoding]; got != 2 {
		t.Fatalf("expected ledger counter restored, got %d", got)
	}
}

func TestRestore_AbsentBlobsStartEmpty(t *testing.T) {
	c, l := newFixtures(t)
	k := New(c, l, &memBlob{}, &memBlob{}, 0, zap.NewNop())

	k.Restore(context.Background()) // must not panic or log-fail loudly

	if c.Len() != 0 {
		t.Fatalf("expected empty cache, len=%d", c.Len())
	}
}

func TestRestore_CorruptBlobTreatedAsAbsent(t *testing.T) {
	c, l := newFixtures(t)
	k := New(c, l, &memBlob{data: []byte("{not json")}, &memBlob{data: []byte("also bad")}, 0, zap.NewNop())

	k.Restore(context.Background())

	if c.Len() != 0 {
		t.Fatalf("expected empty cache for corrupt snapshot, len=%d", c.Len())
	}
	if got := l.Counts()[domain.CategoryGeocoding]; got != 0 {
		t.Fatalf("expected zeroed ledger for corrupt snapshot, got %d", got)
	}
}

func TestRestore_LoadFailureSwallowed(t *testing.T) {
	c, l := newFixtures(t)
	k := New(c, l, &memBlob{loadErr: errors.New("io fail")}, nil, 0, zap.NewNop())

	k.Restore(context.Background()) // must not panic
}

func TestSaveAll_FailureSwallowed(t *testing.T) {
	c, l := newFixtures(t)
	k := New(c, l, &memBlob{saveErr: errors.New("disk full")}, &memBlob{saveErr: errors.New("disk full")}, 0, zap.NewNop())

	k.SaveAll(context.Background()) // must not panic
}

func TestSaveLedger_WriteBehindLandsInBlob(t *testing.T) {
	c, l := newFixtures(t)
	ledgerBlob := &memBlob{}
	k := New(c, l, nil, ledgerBlob, 0, zap.NewNop())
	l.WithSaver(k)

	l.Record(domain.CategoryAutocomplete, 1, 1)

	ledgerBlob.mu.Lock()
	saved := ledgerBlob.data
	ledgerBlob.mu.Unlock()
	if len(saved) == 0 {
		t.Fatal("expected ledger state persisted after Record")
	}
}

func TestStop_WithoutStartDoesNotBlock(t *testing.T) {
	c, l := newFixtures(t)
	cacheBlob := &memBlob{}
	k := New(c, l, cacheBlob, nil, time.Hour, zap.NewNop())

	c.Set("k", []byte(`"v"`), time.Hour)

	stopped := make(chan struct{})
	go func() {
		k.Stop(context.Background())
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked when Start was never called")
	}

	cacheBlob.mu.Lock()
	saved := cacheBlob.data
	cacheBlob.mu.Unlock()
	if len(saved) == 0 {
		t.Fatal("expected final save even without Start")
	}
}

func TestStop_PerformsFinalSave(t *testing.T) {
	c, l := newFixtures(t)
	cacheBlob := &memBlob{}
	k := New(c, l, cacheBlob, nil, time.Hour, zap.NewNop())
	k.Start()

	c.Set("k", []byte(`"v"`), time.Hour)
	k.Stop(context.Background())

	cacheBlob.mu.Lock()
	saved := cacheBlob.data
	cacheBlob.mu.Unlock()
	if len(saved) == 0 {
		t.Fatal("expected final save on Stop")
	}
}
