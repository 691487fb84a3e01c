package hnsw

import (
	"context"
	"runtime"
	"sync"
)

// memCheckInterval is how many inserts a worker performs between memory
// budget checks; checking every insert would make the guard itself a
// bottleneck under many workers.
const memCheckInterval = 256

// Build constructs idx by inserting every item in source using
// cfg.Workers goroutines. Item id is statically assigned to worker
// id%workers, which derives its own SplitMix64 stream from cfg.Seed and
// its worker index, so the level sampled for a given id depends only on
// the seed and the worker count, never on goroutine scheduling order.
//
// If idx.cfg.MemGuard is set, each worker periodically checks it: past
// the soft limit it requests a GC cycle, past the hard limit it aborts
// the build with an error rather than risk an OOM kill mid-construction.
func Build(ctx context.Context, idx *Index) error {
	n := len(idx.nodes)
	if n == 0 {
		return nil
	}

	workers := idx.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	guard := idx.cfg.MemGuard

	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			workerRNG := newRNG(workerSeed(idx.cfg.Seed, w, workers))
			inserted := 0
			for id := w; id < n; id += workers {
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				default:
				}
				if guard != nil && inserted%memCheckInterval == 0 {
					requestGC, abort := guard.Check()
					if abort {
						errs <- newError(ErrMemoryBudgetExceeded, "Build", "Insert", "hard memory limit reached")
						return
					}
					if requestGC {
						runtime.GC()
					}
				}
				if err := idx.Insert(ctx, uint32(id), workerRNG); err != nil {
					errs <- err
					return
				}
				inserted++
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
