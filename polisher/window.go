package polisher

import "github.com/SHuang-Broad/racon/align"

// Window is one fixed-length slice of a target sequence together with the
// read fragments layered over it. Windows are owned by the Polisher's ordered
// collection; executors only reference them while staged.
type Window struct {
	ID       uint32 // target sequence index
	Rank     uint32 // position within the target's window group; 0 starts a group
	Start    uint32 // offset of the backbone within the target
	Backbone []byte
	Quality  []byte

	layers    []align.Layer
	consensus string
	resolved  bool
}

func NewWindow(id, rank, start uint32, backbone, quality []byte) *Window {
	return &Window{ID: id, Rank: rank, Start: start, Backbone: backbone, Quality: quality}
}

// AddLayer attaches a read fragment covering [begin, end) of the backbone.
func (w *Window) AddLayer(sequence, quality []byte, begin, end uint32) {
	w.layers = append(w.layers, align.Layer{
		Sequence: sequence,
		Quality:  quality,
		Begin:    begin,
		End:      end,
	})
}

func (w *Window) Layers() []align.Layer { return w.layers }

// GenerateConsensus computes the window's consensus with the given engine and
// stores it on the window. Returns whether the window was actually polished;
// on failure the stored text falls back to the backbone.
func (w *Window) GenerateConsensus(e *align.Engine) bool {
	consensus, ok := e.Consensus(w.Backbone, w.layers)
	w.consensus = consensus
	w.resolved = ok
	return ok
}

// Resolved reports whether any executor produced a passing consensus.
func (w *Window) Resolved() bool { return w.resolved }

// ConsensusText returns the stored consensus, or the unpolished backbone when
// no consensus was ever generated.
func (w *Window) ConsensusText() string {
	if w.consensus == "" {
		return string(w.Backbone)
	}
	return w.consensus
}

// SetConsensus records an externally computed consensus (accelerated path).
func (w *Window) SetConsensus(text string, ok bool) {
	w.consensus = text
	w.resolved = ok
}

// Release drops the window's layers and stored consensus after aggregation.
func (w *Window) Release() {
	w.layers = nil
	w.consensus = ""
	w.Backbone = nil
	w.Quality = nil
}
