package polisher

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingReporter struct {
	ticks atomic.Int64
}

func (r *countingReporter) Tick() { r.ticks.Add(1) }

func TestProgressTickCount(t *testing.T) {
	const total = 1000 // bin size 50
	r := &countingReporter{}
	p := newProgressTracker(total, r)

	// simulate sequential fills of varying size
	for i := 0; i < total; i += 13 {
		p.observe(i)
	}
	p.finish()

	ticks := r.ticks.Load()
	assert.GreaterOrEqual(t, ticks, int64(19))
	assert.LessOrEqual(t, ticks, int64(20))
}

func TestProgressConcurrentTicks(t *testing.T) {
	const total = 1000
	r := &countingReporter{}
	p := newProgressTracker(total, r)
	cursor := NewWorkCursor(make([]int, total))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				staged := 0
				start, end := cursor.Fill(func(int) bool {
					if staged == 25 {
						return false
					}
					staged++
					return true
				})
				if end == start {
					return
				}
				p.observe(start)
			}
		}()
	}
	wg.Wait()
	p.finish()

	// concurrent fillers observe boundary crossings slightly out of order;
	// ticks may lag but can never exceed one per bin plus the closing tick
	ticks := r.ticks.Load()
	assert.GreaterOrEqual(t, ticks, int64(12))
	assert.LessOrEqual(t, ticks, int64(ProgressBins))
}

func TestProgressTinyRun(t *testing.T) {
	r := &countingReporter{}
	p := newProgressTracker(7, r) // fewer items than bins: step is zero

	p.observe(0)
	p.observe(3)
	p.finish()
	assert.Equal(t, int64(0), r.ticks.Load(), "runs smaller than the bin count emit no ticks")
}

func TestProgressNilTracker(t *testing.T) {
	var p *progressTracker
	p.observe(10)
	p.finish()
}
