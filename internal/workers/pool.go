// Package workers provides a bounded, order-preserving worker pool used for batch scoring
// and scenario sweeps.
package workers

import (
	"sync"
)

// ProgressCallback is invoked after each completed item with the number done so far
type ProgressCallback func(current, total int)

// Pool bounds the number of goroutines used to process a batch
type Pool struct {
	numWorkers int
}

// NewPool creates a new pool with the specified number of workers
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 10 // Default to 10 workers
	}
	return &Pool{numWorkers: numWorkers}
}

// Size returns the worker count
func (p *Pool) Size() int {
	return p.numWorkers
}

type jobItem[In any] struct {
	index int
	item  In
}

type resultItem[Out any] struct {
	index  int
	result Out
}

// Map applies fn to every item in parallel and returns results in input order.
// progress may be nil.
func Map[In, Out any](p *Pool, items []In, fn func(int, In) Out, progress ProgressCallback) []Out {
	n := len(items)
	if n == 0 {
		return []Out{}
	}

	jobs := make(chan jobItem[In], n)
	results := make(chan resultItem[Out], n)

	numActualWorkers := p.numWorkers
	if n < numActualWorkers {
		numActualWorkers = n // Don't spawn more workers than items
	}

	var wg sync.WaitGroup
	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- resultItem[Out]{index: job.index, result: fn(job.index, job.item)}
			}
		}()
	}

	for idx, item := range items {
		jobs <- jobItem[In]{index: idx, item: item}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Out, n)
	done := 0
	for r := range results {
		out[r.index] = r.result
		done++
		if progress != nil {
			progress(done, n)
		}
	}

	return out
}
