package gpu

import (
	"github.com/SHuang-Broad/racon/align"
	"github.com/SHuang-Broad/racon/polisher"
)

// batchConsensus stages windows up to its capacity and generates their
// consensus in one bulk device operation, yielding one status per staged
// window in staging order.
type batchConsensus struct {
	dev      *device
	capacity int
	staged   []*polisher.Window
}

func (b *batchConsensus) Reset() { b.staged = b.staged[:0] }

func (b *batchConsensus) HasPending() bool { return len(b.staged) > 0 }

func (b *batchConsensus) Device() int { return b.dev.id }

func (b *batchConsensus) TryAdd(w *polisher.Window) bool {
	if len(b.staged) >= b.capacity {
		return false
	}
	b.staged = append(b.staged, w)
	return true
}

func (b *batchConsensus) GenerateConsensus() ([]bool, error) {
	results := make([]bool, 0, len(b.staged))
	err := b.dev.run(func(e *align.Engine) error {
		for _, w := range b.staged {
			// windows deeper than the per-window limit don't fit the
			// device's working memory; report them failed so the CPU
			// fallback picks them up
			if len(w.Layers()) > MaxDepthPerWindow {
				results = append(results, false)
				continue
			}
			results = append(results, w.GenerateConsensus(e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
