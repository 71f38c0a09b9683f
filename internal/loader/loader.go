// Package loader tracks the data/error/loading triple of a fetched resource.
package loader

import (
	"context"
	"sync"
)

// Resource is the observable state of one fetch.
type Resource[T any] struct {
	Data    T
	Err     error
	Loading bool
	// Loaded is true once any fetch has settled.
	Loaded bool
}

// FetchFunc retrieves the resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loader runs a fetch and keeps the latest settled result. A result is dropped when a newer
// Load started or Discard ran after its fetch began.
type Loader[T any] struct {
	fetch FetchFunc[T]

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	res    Resource[T]
}

// New creates a loader around fetch.
func New[T any](fetch FetchFunc[T]) *Loader[T] {
	return &Loader[T]{fetch: fetch}
}

// Load fetches and returns the resulting snapshot. When the result is superseded the
// returned snapshot is the loader's current state and the error is the fetch's own.
func (l *Loader[T]) Load(ctx context.Context) (Resource[T], error) {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.cancel = cancel
	l.res.Loading = true
	l.mu.Unlock()

	data, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		cancel()
		return l.res, err
	}
	cancel()
	l.cancel = nil
	if err != nil {
		l.res = Resource[T]{Data: l.res.Data, Err: err, Loaded: true}
	} else {
		l.res = Resource[T]{Data: data, Loaded: true}
	}
	return l.res, err
}

// Snapshot returns the current state.
func (l *Loader[T]) Snapshot() Resource[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.res
}

// Discard cancels the in-flight fetch and ignores its result.
func (l *Loader[T]) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
	l.res.Loading = false
}
