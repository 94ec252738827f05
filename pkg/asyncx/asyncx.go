package asyncx

import (
	"context"
	"fmt"
	"sync"
)

// ─── Future ──────────────────────────────────────────────────────────────────

// Future represents a value that will be available asynchronously.
// Create one with Run and retrieve its value with Await.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Run executes fn in a goroutine and returns a Future for its result.
// A panic in fn resolves the Future with an error instead of crashing.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("asyncx: panic: %v", r)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Await blocks until the Future completes. Every caller gets the same result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

// Done is closed once the Future has a result.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// ─── AllSettled ──────────────────────────────────────────────────────────────

// Result holds the outcome of a single settled async operation.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the result carries no error.
func (r Result[T]) OK() bool { return r.Err == nil }

// AllSettled runs all fns concurrently and waits for every one to finish.
// It never short-circuits: it returns one Result per fn, in input order.
func AllSettled[T any](ctx context.Context, fns ...func(context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(fns))
	var wg sync.WaitGroup
	wg.Add(len(fns))

	for i, fn := range fns {
		go func() {
			defer wg.Done()
			v, err := Run(func() (T, error) { return fn(ctx) }).Await()
			results[i] = Result[T]{Value: v, Err: err}
		}()
	}
	wg.Wait()
	return results
}
