package util

import (
	"context"
	"sync"
)

// Pool runs job for every index in [0,n) on a fixed number of workers and
// blocks until all jobs finished, the first job error or until ctx is done.
// The first error observed cancels all remaining jobs.
func Pool(ctx context.Context, workers int, n int64, job func(int64) error) error {
	if workers < 1 {
		workers = 1
	}

	run, cancel := context.WithCancel(ctx)
	defer cancel()

	var queue = make(chan int64)
	var errs = make(chan error, workers)
	var wg sync.WaitGroup

	// feed the queue
	go func() {
		defer close(queue)
		for i := int64(0); i < n; i++ {
			select {
			case queue <- i:
			case <-run.Done():
				return
			}
		}
	}()

	// workers
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range queue {
				if err := job(i); err != nil {
					errs <- err
					cancel()
					return
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errs:
		return err
	default:
	}
	// a parent cancellation is an error too
	return ctx.Err()
}
