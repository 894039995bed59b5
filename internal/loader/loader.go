package loader

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrNotFailed  = errors.New("retry is only valid after a failed load")
	ErrNotSettled = errors.New("reload is only valid after a load has finished")
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

type Observer[T any] func(State[T])

type Option func(*options)

type options struct {
	name   string
	logger *zap.Logger
}

func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Loader tracks one remote resource through NotStarted, Loading, Loaded and
// Failed. At most one fetch is in flight per loader.
type Loader[T any] struct {
	name   string
	fetch  FetchFunc[T]
	logger *zap.Logger

	mu        sync.Mutex
	state     State[T]
	done      chan struct{}
	detached  bool
	observers map[int]Observer[T]
	nextObs   int
	fetches   int
}

func New[T any](fetch FetchFunc[T], opts ...Option) *Loader[T] {
	o := options{name: "resource", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[T]{
		name:      o.name,
		fetch:     fetch,
		logger:    o.logger.With(zap.String("loader", o.name)),
		observers: make(map[int]Observer[T]),
	}
}

// Start begins loading from NotStarted or Failed. While Loading it returns the
// channel of the fetch already in flight; when Loaded it does nothing. The
// returned channel is closed once the fetch settles.
func (l *Loader[T]) Start(ctx context.Context) <-chan struct{} {
	done, _ := l.begin(ctx, func(s Status) (bool, error) {
		switch s {
		case StatusNotStarted, StatusFailed:
			return true, nil
		default:
			return false, nil
		}
	})
	return done
}

// Retry re-issues the fetch after a failure.
func (l *Loader[T]) Retry(ctx context.Context) (<-chan struct{}, error) {
	return l.begin(ctx, func(s Status) (bool, error) {
		if s != StatusFailed {
			return false, ErrNotFailed
		}
		return true, nil
	})
}

// Reload re-issues the fetch for a loader that already settled.
func (l *Loader[T]) Reload(ctx context.Context) (<-chan struct{}, error) {
	return l.begin(ctx, func(s Status) (bool, error) {
		if !s.IsSettled() {
			return false, ErrNotSettled
		}
		return true, nil
	})
}

func (l *Loader[T]) begin(ctx context.Context, allowed func(Status) (bool, error)) (<-chan struct{}, error) {
	l.mu.Lock()
	if l.state.Status == StatusLoading {
		done := l.done
		l.mu.Unlock()
		return done, nil
	}
	if l.detached {
		l.mu.Unlock()
		return closed(), nil
	}
	ok, err := allowed(l.state.Status)
	if !ok {
		l.mu.Unlock()
		return closed(), err
	}

	var zero T
	l.state = State[T]{Status: StatusLoading, Value: zero}
	done := make(chan struct{})
	l.done = done
	l.fetches++
	state, observers := l.state, l.observerList()
	l.mu.Unlock()

	l.logger.Debug("fetch started")
	notify(observers, state)

	// in-flight fetches are never cancelled by the caller going away
	go l.run(context.WithoutCancel(ctx), done)
	return done, nil
}

func (l *Loader[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	value, err := l.fetch(ctx)

	l.mu.Lock()
	if l.detached {
		l.mu.Unlock()
		l.logger.Debug("discarding result for detached loader", zap.Error(err))
		return
	}
	if err != nil {
		failure := Classify(err)
		l.state = State[T]{Status: StatusFailed, Failure: failure}
		l.logger.Warn("fetch failed",
			zap.Stringer("kind", failure.Kind),
			zap.Error(err),
		)
	} else {
		l.state = State[T]{Status: StatusLoaded, Value: value}
		l.logger.Debug("fetch succeeded")
	}
	state, observers := l.state, l.observerList()
	l.mu.Unlock()

	notify(observers, state)
}

func (l *Loader[T]) Name() string {
	return l.name
}

func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Wait blocks until the fetch in flight settles or ctx is done and returns the
// state at that moment. It returns immediately when nothing is loading.
func (l *Loader[T]) Wait(ctx context.Context) (State[T], error) {
	l.mu.Lock()
	done := l.done
	loading := l.state.Status == StatusLoading
	l.mu.Unlock()

	if loading && done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return l.State(), ctx.Err()
		}
	}
	return l.State(), nil
}

// Subscribe registers an observer that is called after every transition.
func (l *Loader[T]) Subscribe(fn Observer[T]) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.observers, id)
		l.mu.Unlock()
	}
}

// Detach marks the loader as no longer observed. A result that arrives later is
// dropped and no new fetch can be started.
func (l *Loader[T]) Detach() {
	l.mu.Lock()
	l.detached = true
	l.observers = make(map[int]Observer[T])
	l.mu.Unlock()
}

// Fetches is the number of fetches issued so far.
func (l *Loader[T]) Fetches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches
}

func (l *Loader[T]) observerList() []Observer[T] {
	ids := make([]int, 0, len(l.observers))
	for id := range l.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Observer[T], len(ids))
	for i, id := range ids {
		out[i] = l.observers[id]
	}
	return out
}

func notify[T any](observers []Observer[T], state State[T]) {
	for _, fn := range observers {
		fn(state)
	}
}

func closed() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}
