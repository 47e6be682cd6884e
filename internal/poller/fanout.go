package poller

import (
	"context"
	"sync"
)

// Gather calls work once for every index in [0, n) and returns the results
// in index order, regardless of the order in which the calls complete.
//
// At most maxConcurrency calls run at the same time. A value <= 0 (or one
// larger than n) starts every call immediately. Gather returns only after
// every call has returned; work is expected to convert its own failures into
// a T rather than panic.
func Gather[T any](ctx context.Context, n, maxConcurrency int, work func(ctx context.Context, i int) T) []T {
	results := make([]T, n)
	if n == 0 {
		return results
	}

	workers := maxConcurrency
	if workers <= 0 || workers > n {
		workers = n
	}

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// each index is written by exactly one worker
				results[i] = work(ctx, i)
			}
		}()
	}

	wg.Wait()
	return results
}
