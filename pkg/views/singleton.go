package views

import (
	"context"
	"reflect"
	"sync"
)

// Singleton is a view over a single well-known document (profile image,
// resume metadata, analytics). Absence is a normal state: the source
// reports it as a nil value with no error, and the view can create the
// document with a default on first observation of absence.
type Singleton[T any] struct {
	*Collection[*T]

	ensure     func(context.Context) error
	ensureOnce sync.Once

	equal func(a, b *T) bool
}

// NewSingleton creates a singleton view over src. When ensure is non-nil it
// is invoked at most once per view lifetime, the first time the remote
// document is observed absent, and is expected to create the default
// document; the view re-fetches afterwards.
func NewSingleton[T any](src Source[*T], ensure func(context.Context) error, opts Options, cfg Config) *Singleton[T] {
	s := &Singleton[T]{
		Collection: NewCollection[*T](src, opts, cfg),
		ensure:     ensure,
		equal: func(a, b *T) bool {
			return reflect.DeepEqual(a, b)
		},
	}
	return s
}

// SetEqual replaces the deep-equal comparison used by Update's write
// skipping. Useful when bookkeeping fields such as timestamps should not
// defeat the skip.
func (s *Singleton[T]) SetEqual(fn func(a, b *T) bool) {
	if fn != nil {
		s.equal = fn
	}
}

// Start behaves like Collection.Start, with the ensure-if-absent trigger
// armed.
func (s *Singleton[T]) Start(ctx context.Context) error {
	if s.ensure != nil {
		s.Collection.observer = func(data *T, err error) {
			if data != nil || err != nil {
				return
			}
			s.ensureOnce.Do(func() {
				go s.runEnsure(ctx)
			})
		}
	}
	return s.Collection.Start(ctx)
}

// Update writes next to the remote document, unless it is deep-equal to
// the current snapshot, in which case the remote write is skipped entirely
// and no write is counted. It reports whether a write happened.
func (s *Singleton[T]) Update(ctx context.Context, next *T, write func(context.Context) error) (bool, error) {
	cur := s.Collection.Snapshot().Data
	if cur != nil && next != nil && s.equal(cur, next) {
		s.cfg.Logger.Debug().Msg("document unchanged, skipping remote write")
		return false, nil
	}
	if err := s.Collection.Mutate(ctx, write); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Singleton[T]) runEnsure(ctx context.Context) {
	if err := s.ensure(ctx); err != nil {
		s.logErr(err, "failed to create default document")
		return
	}
	s.cfg.Meter.CountWrites(1)
	if err := s.Refresh(ctx); err != nil {
		s.logErr(err, "refetch after default creation failed")
	}
}
