package loader

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of a parallel page load.
type Task func(ctx context.Context) error

// Results holds each task's error at the task's index.
type Results []error

// Err joins every non-nil error.
func (r Results) Err() error {
	return errors.Join(r...)
}

// Failed counts failed tasks.
func (r Results) Failed() int {
	n := 0
	for _, err := range r {
		if err != nil {
			n++
		}
	}
	return n
}

// Settle runs tasks in parallel and returns once every task has settled. A failing task
// does not cancel the others. limit bounds concurrency; zero or less means unbounded.
func Settle(ctx context.Context, limit int, tasks ...Task) Results {
	results := make(Results, len(tasks))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = task(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Into wraps a fetch so its result lands in dst when it succeeds.
func Into[T any](dst *T, fetch FetchFunc[T]) Task {
	return func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}
