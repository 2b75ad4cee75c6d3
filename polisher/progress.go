package polisher

import (
	"fmt"
	"io"
	"sync/atomic"
)

// ProgressBins is the fixed number of progress ticks emitted over a full
// consensus phase, independent of the window count.
const ProgressBins = 20

// Reporter receives one tick per completed progress bin.
type Reporter interface {
	Tick()
}

// SilentReporter ignores all progress.
type SilentReporter struct{}

func (SilentReporter) Tick() {}

// WriterReporter prints a marker per tick, typically to stderr.
type WriterReporter struct {
	Writer io.Writer
}

func (r *WriterReporter) Tick() { fmt.Fprint(r.Writer, "*") }

// progressTracker divides the item count into ProgressBins bins and emits a
// tick whenever a fill's initial index crosses into a new bin. Concurrent
// fillers race on the last-emitted counter optimistically; a tie can produce
// at most one redundant tick per boundary, which is tolerated.
type progressTracker struct {
	step     int
	lastBin  atomic.Int64
	reporter Reporter
}

func newProgressTracker(total int, reporter Reporter) *progressTracker {
	if reporter == nil {
		reporter = SilentReporter{}
	}
	return &progressTracker{step: total / ProgressBins, reporter: reporter}
}

// observe is called with the initial index of a fill that assigned at least
// one item.
func (p *progressTracker) observe(initial int) {
	if p == nil || p.step == 0 {
		return
	}
	bin := int64(initial / p.step)
	last := p.lastBin.Load()
	if bin > last && p.lastBin.CompareAndSwap(last, last+1) {
		p.reporter.Tick()
	}
}

// finish emits the closing tick the final bin never crosses into.
func (p *progressTracker) finish() {
	if p == nil || p.step == 0 {
		return
	}
	p.reporter.Tick()
}
