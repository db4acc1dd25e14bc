package bucket

import (
	"context"
	"fmt"

	"artifact-store/core/storage"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of backend calls in flight.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a pool with size slots.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

type result[T any] struct {
	val T
	err error
}

// Submit runs fn on its own goroutine once a slot is free and waits for it.
// The caller stops waiting when ctx is done; the slot is released only when
// fn returns. A panic in fn comes back as a CodeInternal error.
func Submit[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	done := make(chan result[T], 1)
	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: &storage.Error{Code: storage.CodeInternal, Msg: fmt.Sprintf("panic: %v", r)}}
			}
		}()
		v, err := fn()
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
