package polisher

// Batch is the scheduling contract every accelerated executor satisfies: a
// capacity-bounded container that is refilled, bulk-executed, and reset by
// exactly one scheduler worker.
type Batch interface {
	// Reset clears the staged set before a fill cycle.
	Reset()
	// HasPending reports whether any items were staged since the last Reset.
	HasPending() bool
	// Device returns the accelerator this executor is bound to.
	Device() int
}

// AlignerBatch is the overlap-alignment variant of the executor contract.
// FindBreakingPoints mutates the staged overlaps in place; it returns no
// per-item results.
type AlignerBatch interface {
	Batch
	TryAdd(o *Overlap) bool
	AlignAll() error
	FindBreakingPoints(windowLength uint32) error
}

// ConsensusBatch is the window-consensus variant. GenerateConsensus returns
// one pass/fail status per staged window, in staging order; returning any
// other count is a protocol violation that aborts the run.
type ConsensusBatch interface {
	Batch
	TryAdd(w *Window) bool
	GenerateConsensus() ([]bool, error)
}

// Backend is the accelerated runtime behind the executor contracts: device
// discovery, batch construction with device affinity, and teardown.
// Synchronize must block until all in-flight device work is flushed.
type Backend interface {
	Devices() int
	NewAlignerBatch(device int) AlignerBatch
	NewConsensusBatch(device int) ConsensusBatch
	Synchronize() error
	Close() error
}
