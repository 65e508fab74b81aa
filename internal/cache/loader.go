// Package cache memoizes workload fetches for a fixed time-to-live.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/workload-radar/internal/workload"
)

const DefaultTTL = 300 * time.Second

// Source produces a fresh dataset. Key identifies the query parameters the
// dataset depends on.
type Source interface {
	Key() string
	Fetch(ctx context.Context) (*workload.Dataset, error)
}

// Observer is told about cache hits and upstream loads.
type Observer interface {
	CacheHit()
	CacheMiss()
	FetchDone(took time.Duration, err error)
}

type entry struct {
	dataset *workload.Dataset
	expires time.Time
}

// Loader serves datasets from memory until they expire. Concurrent misses
// for the same key share one upstream fetch. Failed fetches are not stored.
type Loader struct {
	source   Source
	ttl      time.Duration
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]entry

	// Fetches never outlive the loader.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewLoader(source Source, ttl time.Duration, logger *zap.Logger) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		source:  source,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (l *Loader) SetObserver(o Observer) {
	l.observer = o
}

// Get returns the cached dataset or fetches a new one. On failure it returns
// an empty dataset together with the error. A fetch started by Get keeps
// running for other callers when ctx ends; ctx only bounds the wait.
func (l *Loader) Get(ctx context.Context) (*workload.Dataset, error) {
	key := l.source.Key()

	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()

	if ok && l.now().Before(e.expires) {
		if l.observer != nil {
			l.observer.CacheHit()
		}
		return e.dataset, nil
	}

	if l.observer != nil {
		l.observer.CacheMiss()
	}
	return l.load(ctx, key, true)
}

// Refresh fetches a new dataset regardless of the cached one. The fetch is
// cancelled together with ctx.
func (l *Loader) Refresh(ctx context.Context) (*workload.Dataset, error) {
	return l.load(ctx, l.source.Key(), false)
}

// Close cancels every fetch in flight and every later one.
func (l *Loader) Close() {
	l.cancel()
}

// Invalidate drops every cached dataset.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.entries = make(map[string]entry)
	l.mu.Unlock()
}

func (l *Loader) load(ctx context.Context, key string, detach bool) (*workload.Dataset, error) {
	ch := l.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()

		stopOnClose := context.AfterFunc(l.ctx, cancel)
		defer stopOnClose()
		if !detach {
			stopOnCaller := context.AfterFunc(ctx, cancel)
			defer stopOnCaller()
		}

		start := l.now()
		ds, err := l.source.Fetch(fetchCtx)
		if l.observer != nil {
			l.observer.FetchDone(l.now().Sub(start), err)
		}
		if err != nil {
			return ds, err
		}

		l.mu.Lock()
		l.entries[key] = entry{dataset: ds, expires: l.now().Add(l.ttl)}
		l.mu.Unlock()

		return ds, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		l.logger.Debug("stopped waiting for dataset", zap.String("key", key), zap.Error(ctx.Err()))
		return workload.Empty(), ctx.Err()
	}

	l.logger.Debug("dataset loaded",
		zap.String("key", key),
		zap.Bool("shared", res.Shared),
		zap.Error(res.Err),
	)

	ds, _ := res.Val.(*workload.Dataset)
	if ds == nil {
		ds = workload.Empty()
	}
	return ds, res.Err
}
