package utils

import (
	"context"
	"sync"
)

// ExecuteWithResults runs functions concurrently, at most maxConcurrency at a
// time, and returns results and errors in the order the functions were given.
// Panics in goroutines are recovered and converted to PanicError.
func ExecuteWithResults[T any](ctx context.Context, maxConcurrency int, functions ...func() (T, error)) ([]T, []error) {
	if len(functions) == 0 {
		return nil, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = GetSemaphoreLimit()
	}

	semaphore := make(chan struct{}, maxConcurrency)
	results := make([]T, len(functions))
	errs := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() (T, error)) {
			defer wg.Done()
			defer RecoverWithCallback(func(err error) {
				errs[index] = err
			})

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				errs[index] = ctx.Err()
				return
			}

			results[index], errs[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return results, errs
}

// FirstError returns the first non-nil error in errs.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Worker processes one item for a WorkerPool
type Worker[T any, R any] func(ctx context.Context, item T) (R, error)

// WorkerPool runs a fixed number of workers over a slice of items.
//
// ProcessItems blocks until every worker has returned. Workers stop early
// when the context is cancelled; items never picked up report ctx.Err().
type WorkerPool[T any, R any] struct {
	numWorkers int
	worker     Worker[T, R]
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool[T any, R any](numWorkers int, worker Worker[T, R]) *WorkerPool[T, R] {
	if numWorkers <= 0 {
		numWorkers = GetSemaphoreLimit()
	}
	return &WorkerPool[T, R]{
		numWorkers: numWorkers,
		worker:     worker,
	}
}

type indexed[T any] struct {
	item  T
	index int
}

// ProcessItems processes items using the worker pool. Results keep the input order.
func (wp *WorkerPool[T, R]) ProcessItems(ctx context.Context, items []T) ([]R, []error) {
	if len(items) == 0 {
		return nil, nil
	}

	itemsChan := make(chan indexed[T], len(items))
	for i, item := range items {
		itemsChan <- indexed[T]{item: item, index: i}
	}
	close(itemsChan)

	results := make([]R, len(items))
	errs := make([]error, len(items))
	done := make([]bool, len(items))
	var wg sync.WaitGroup

	for i := 0; i < min(wp.numWorkers, len(items)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case it, ok := <-itemsChan:
					if !ok {
						return
					}
					func() {
						defer RecoverWithCallback(func(err error) {
							errs[it.index] = err
						})
						results[it.index], errs[it.index] = wp.worker(ctx, it.item)
					}()
					done[it.index] = true
				}
			}
		}()
	}

	wg.Wait()
	if ctx.Err() != nil {
		for i := range items {
			if !done[i] && errs[i] == nil {
				errs[i] = ctx.Err()
			}
		}
	}
	return results, errs
}

// Split divides total into parts shares that differ by at most one, larger
// shares first. Zero shares are omitted.
func Split(total, parts int) []int {
	if parts <= 0 || total <= 0 {
		return nil
	}
	parts = min(parts, total)
	shares := make([]int, parts)
	for i := range shares {
		shares[i] = total / parts
		if i < total%parts {
			shares[i]++
		}
	}
	return shares
}
