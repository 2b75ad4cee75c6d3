package gpu

import (
	"fmt"

	"github.com/SHuang-Broad/racon/align"
	"github.com/SHuang-Broad/racon/polisher"
)

// batchAligner stages overlaps up to its capacity and aligns them in bulk on
// its device.
type batchAligner struct {
	dev      *device
	capacity int
	staged   []*polisher.Overlap
	paths    [][]align.Op
}

func (b *batchAligner) Reset() {
	b.staged = b.staged[:0]
	b.paths = b.paths[:0]
}

func (b *batchAligner) HasPending() bool { return len(b.staged) > 0 }

func (b *batchAligner) Device() int { return b.dev.id }

func (b *batchAligner) TryAdd(o *polisher.Overlap) bool {
	if len(b.staged) >= b.capacity {
		return false
	}
	b.staged = append(b.staged, o)
	return true
}

// AlignAll aligns every staged overlap's query region against its target
// region in one bulk device operation.
func (b *batchAligner) AlignAll() error {
	return b.dev.run(func(e *align.Engine) error {
		b.paths = b.paths[:0]
		for _, o := range b.staged {
			q := o.QueryData()
			if o.QEnd > uint32(len(q)) || o.TEnd > uint32(len(o.Target.Data)) {
				b.paths = append(b.paths, nil)
				continue
			}
			path, _, err := e.Align(q[o.QBegin:o.QEnd], o.Target.Data[o.TBegin:o.TEnd])
			if err != nil {
				b.paths = append(b.paths, nil)
				continue
			}
			b.paths = append(b.paths, path)
		}
		return nil
	})
}

// FindBreakingPoints partitions the aligned regions into fixed-length windows
// as a side effect on the staged overlaps.
func (b *batchAligner) FindBreakingPoints(windowLength uint32) error {
	if len(b.paths) != len(b.staged) {
		return fmt.Errorf("gpu: %w: %d alignments for %d overlaps",
			polisher.ErrResultCountMismatch, len(b.paths), len(b.staged))
	}
	for i, o := range b.staged {
		if b.paths[i] == nil {
			o.BreakingPoints = nil
			continue
		}
		o.BreakingPoints = align.BreakingPoints(b.paths[i], o.QBegin, o.TBegin, windowLength)
	}
	return nil
}
