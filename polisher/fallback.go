package polisher

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/SHuang-Broad/racon/align"
)

// fallbackPool reprocesses on the CPU exactly the windows the accelerated
// phase could not resolve. Each worker owns the alignment engine in its slot
// for the run's duration; an empty slot is an internal dispatch bug that
// aborts the run.
type fallbackPool struct {
	engines []*align.Engine
}

func newFallbackPool(workers int, scoring align.Scoring, banded bool) *fallbackPool {
	engines := make([]*align.Engine, workers)
	for i := range engines {
		engines[i] = align.NewEngine(scoring, banded)
	}
	return &fallbackPool{engines: engines}
}

// retry resubmits every window whose status is still false and writes the
// outcome back at that window's index. Indices already true are never touched
// again; no further fallback tier exists past this one.
func (p *fallbackPool) retry(windows []*Window, status []bool) error {
	tasks := make(chan int, len(p.engines))

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		runErr  error
	)
	for worker, engine := range p.engines {
		wg.Add(1)
		go func(worker int, engine *align.Engine) {
			defer wg.Done()
			if engine == nil {
				errOnce.Do(func() { runErr = ErrNoEngineBound })
				log.Error().Int("worker", worker).Msg("fallback worker has no engine bound")
				for range tasks {
					// drain so the submitter never blocks on a dead pool
				}
				return
			}
			for idx := range tasks {
				status[idx] = windows[idx].GenerateConsensus(engine)
			}
		}(worker, engine)
	}

	retried := 0
	for i := range status {
		if !status[i] {
			tasks <- i
			retried++
		}
	}
	close(tasks)
	wg.Wait()

	if retried > 0 {
		log.Info().Int("windows", retried).Msg("retried failed windows on CPU")
	}
	return runErr
}
