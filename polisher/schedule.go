package polisher

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// binDevices assigns count executor instances round-robin across devices so
// that no device is starved while others overflow. The returned slice maps
// executor index to device id.
func binDevices(count, devices int) ([]int, error) {
	if devices < 1 {
		return nil, ErrNoAccelerators
	}
	bins := make([]int, count)
	for i := range bins {
		bins[i] = i % devices
	}
	return bins, nil
}

// runBatches drives one scheduler worker per executor instance over a shared
// cursor. Filling is serialized by the cursor's lock; execution runs in
// parallel and never holds it. The first execute error aborts the run: the
// failing worker records it, every worker observes the abort flag before its
// next cycle, and the error is returned after all workers have drained.
func runBatches[B Batch, T any](
	cursor *WorkCursor[T],
	batches []B,
	tryAdd func(B, T) bool,
	execute func(b B, start, end int) error,
	onFill func(start, end int),
) error {
	var (
		wg      sync.WaitGroup
		abort   atomic.Bool
		errOnce sync.Once
		runErr  error
	)

	for i := range batches {
		wg.Add(1)
		go func(worker int, b B) {
			defer wg.Done()
			for !abort.Load() {
				b.Reset()
				start, end := cursor.Fill(func(item T) bool { return tryAdd(b, item) })
				if end > start {
					if onFill != nil {
						onFill(start, end)
					}
					log.Debug().
						Int("worker", worker).
						Int("device", b.Device()).
						Int("start", start).
						Int("end", end).
						Int("total", cursor.Len()).
						Msg("filled batch")
				}
				if !b.HasPending() {
					return
				}
				if err := execute(b, start, end); err != nil {
					errOnce.Do(func() { runErr = err })
					abort.Store(true)
					log.Error().Err(err).Int("worker", worker).Msg("batch execution failed")
					return
				}
			}
		}(i, batches[i])
	}

	wg.Wait()
	return runErr
}
