// Package views implements the client-side synchronization layer between
// the remote document store and consumers of portfolio state.
//
// A view produces a reactive [Snapshot] (data, loading flag, error) for
// one entity collection or singleton document, and keeps it current in one
// of two modes:
//
//   - Live mode: a standing subscription on the source; every remote change
//     re-derives the snapshot until the view is closed.
//   - One-shot mode: a single fetch at start; the snapshot only changes on
//     an explicit Refresh. This is the default because it bounds remote
//     read volume on metered plans.
//
// Views are cache-first: when a non-expired entry exists in the local
// persistent cache at start, it becomes the first snapshot immediately,
// with Loading already false, before any network response arrives.
//
// Remote errors never escape a view. They are captured into the snapshot,
// and quota exhaustion (store.ErrResourceExhausted) is logged distinctly so
// the caller can render a retry affordance rather than a generic failure.
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliohq/folio/pkg/quota"
	"github.com/foliohq/folio/pkg/store"
)

// CacheStore is the subset of the local persistent cache a view needs.
// *cache.Cache satisfies it.
type CacheStore interface {
	Get(key string, out any) bool
	Set(key string, v any, ttl time.Duration) error
}

// Update is one value delivered by a source subscription.
type Update[T any] struct {
	Data T
	Err  error
}

// Source feeds a view from the remote store. Fetch performs a one-shot
// read of the full current value. Subscribe opens a standing channel that
// delivers a new full value after every remote change; the returned stop
// function tears the subscription down and closes the channel, and must be
// safe to call more than once.
type Source[T any] interface {
	Fetch(ctx context.Context) (T, error)
	Subscribe(ctx context.Context) (<-chan Update[T], func(), error)
}

// Snapshot is the reactive triple exposed to consumers.
type Snapshot[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Options selects the remote-access mode and cache behavior per call site.
type Options struct {
	// Live opens a standing subscription instead of a one-shot fetch.
	Live bool

	// CacheKey and CacheTTL control the local persistent cache. An empty
	// key disables caching for this view.
	CacheKey string
	CacheTTL time.Duration

	// AutoRefetch re-fetches after each mutation in one-shot mode. Live
	// mode ignores it: the subscription already reflects the change.
	AutoRefetch bool
}

// Config carries the shared collaborators of a view.
type Config struct {
	Cache  CacheStore
	Meter  quota.Meter
	Logger zerolog.Logger
}

// Collection is a reactive view over an entity collection or singleton.
type Collection[T any] struct {
	src  Source[T]
	opts Options
	cfg  Config

	mu      sync.Mutex
	snap    Snapshot[T]
	started bool
	closed  bool
	stop    func()

	updates chan Snapshot[T]

	closeOnce sync.Once

	// observer, when set, sees every applied update. Used by Singleton
	// for its ensure-if-absent trigger.
	observer func(data T, err error)
}

// NewCollection creates a view over src. The view is inert until Start.
func NewCollection[T any](src Source[T], opts Options, cfg Config) *Collection[T] {
	if cfg.Meter == nil {
		cfg.Meter = quota.Nop
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Collection[T]{
		src:     src,
		opts:    opts,
		cfg:     cfg,
		snap:    Snapshot[T]{Loading: true},
		updates: make(chan Snapshot[T], 16),
	}
}

// Start performs the cache-first load and begins the remote load in the
// configured mode. It returns an error only on misuse; remote failures are
// captured into the snapshot.
func (v *Collection[T]) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.started {
		v.mu.Unlock()
		return fmt.Errorf("view already started")
	}
	if v.closed {
		v.mu.Unlock()
		return fmt.Errorf("view is closed")
	}
	v.started = true

	if v.cfg.Cache != nil && v.opts.CacheKey != "" {
		var cached T
		if v.cfg.Cache.Get(v.opts.CacheKey, &cached) {
			// Instant first paint; the remote snapshot replaces this
			// once it arrives.
			v.snap = Snapshot[T]{Data: cached, Loading: false}
			v.notifyLocked()
		}
	}
	v.mu.Unlock()

	if v.opts.Live {
		ch, stop, err := v.src.Subscribe(ctx)
		if err != nil {
			v.apply(*new(T), fmt.Errorf("failed to subscribe: %w", err))
			return nil
		}
		v.mu.Lock()
		if v.closed {
			v.mu.Unlock()
			stop()
			return nil
		}
		v.stop = stop
		v.mu.Unlock()

		go func() {
			for upd := range ch {
				v.cfg.Meter.CountLiveEvents(1)
				v.apply(upd.Data, upd.Err)
			}
		}()
	}

	// A live query only streams subsequent changes; both modes need the
	// initial read.
	go v.fetchInto(ctx)

	return nil
}

// Snapshot returns the current state.
func (v *Collection[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Updates delivers a snapshot after every applied change. Slow consumers
// miss intermediate snapshots rather than blocking the view.
func (v *Collection[T]) Updates() <-chan Snapshot[T] {
	return v.updates
}

// Refresh performs a one-shot re-fetch and applies the result. It also
// returns the fetch error so callers can drive a manual retry affordance.
func (v *Collection[T]) Refresh(ctx context.Context) error {
	data, err := v.src.Fetch(ctx)
	v.cfg.Meter.CountReads(1)
	v.apply(data, err)
	return err
}

// Mutate runs one remote write and, in one-shot mode with AutoRefetch set,
// re-fetches so the snapshot reflects the change. In live mode the standing
// subscription is relied upon instead.
func (v *Collection[T]) Mutate(ctx context.Context, write func(context.Context) error) error {
	if err := write(ctx); err != nil {
		v.logErr(err, "mutation failed")
		return err
	}
	v.cfg.Meter.CountWrites(1)

	if v.opts.AutoRefetch && !v.opts.Live {
		if err := v.Refresh(ctx); err != nil {
			v.logErr(err, "refetch after mutation failed")
		}
	}
	return nil
}

// Close tears the view down: the live subscription is killed exactly once
// and any in-flight result is discarded instead of applied.
func (v *Collection[T]) Close() {
	v.closeOnce.Do(func() {
		v.mu.Lock()
		v.closed = true
		stop := v.stop
		v.mu.Unlock()

		if stop != nil {
			stop()
		}
		close(v.updates)
	})
}

func (v *Collection[T]) fetchInto(ctx context.Context) {
	data, err := v.src.Fetch(ctx)
	v.cfg.Meter.CountReads(1)
	v.apply(data, err)
}

// apply installs a new snapshot unless the view has been closed since the
// operation started.
func (v *Collection[T]) apply(data T, err error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}

	if err != nil {
		v.snap.Err = err
		v.snap.Loading = false
		v.notifyLocked()
		v.mu.Unlock()
		v.logErr(err, "remote load failed")
		return
	}

	v.snap = Snapshot[T]{Data: data}
	v.notifyLocked()
	observer := v.observer

	// Written under the lock so Close can never race a late cache write.
	if v.cfg.Cache != nil && v.opts.CacheKey != "" {
		if cerr := v.cfg.Cache.Set(v.opts.CacheKey, data, v.opts.CacheTTL); cerr != nil {
			v.cfg.Logger.Warn().Err(cerr).Str("key", v.opts.CacheKey).Msg("cache update failed")
		}
	}
	v.mu.Unlock()

	if observer != nil {
		observer(data, nil)
	}
}

// notifyLocked pushes the current snapshot to the updates channel without
// blocking. Callers hold v.mu.
func (v *Collection[T]) notifyLocked() {
	select {
	case v.updates <- v.snap:
	default:
		v.cfg.Logger.Debug().Msg("dropping snapshot update for slow consumer")
	}
}

func (v *Collection[T]) logErr(err error, msg string) {
	if errors.Is(err, store.ErrResourceExhausted) {
		v.cfg.Logger.Warn().Str("code", store.CodeResourceExhausted).Msg("store quota exhausted; retry later")
		return
	}
	v.cfg.Logger.Error().Err(err).Msg(msg)
}
