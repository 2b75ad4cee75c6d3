package polisher

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend implements Backend with deterministic in-memory executors so
// the scheduling layer can be exercised without a real accelerator.
type stubBackend struct {
	devices  int
	capacity int
	fail     func(w *Window) bool // nil means every window passes

	mu       sync.Mutex
	visits   map[*Window]int
	synced   bool
	closed   bool
	badCount bool // return one result too few per batch
}

func newStubBackend(devices, capacity int) *stubBackend {
	return &stubBackend{devices: devices, capacity: capacity, visits: make(map[*Window]int)}
}

func (s *stubBackend) Devices() int { return s.devices }

func (s *stubBackend) NewAlignerBatch(device int) AlignerBatch {
	return &stubAlignerBatch{device: device, capacity: s.capacity}
}

func (s *stubBackend) NewConsensusBatch(device int) ConsensusBatch {
	return &stubConsensusBatch{backend: s, device: device, capacity: s.capacity}
}

func (s *stubBackend) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = true
	return nil
}

func (s *stubBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.synced {
		return fmt.Errorf("closed before synchronize")
	}
	s.closed = true
	return nil
}

type stubAlignerBatch struct {
	device   int
	capacity int
	staged   []*Overlap
}

func (b *stubAlignerBatch) Reset()           { b.staged = b.staged[:0] }
func (b *stubAlignerBatch) HasPending() bool { return len(b.staged) > 0 }
func (b *stubAlignerBatch) Device() int      { return b.device }
func (b *stubAlignerBatch) TryAdd(o *Overlap) bool {
	if len(b.staged) >= b.capacity {
		return false
	}
	b.staged = append(b.staged, o)
	return true
}
func (b *stubAlignerBatch) AlignAll() error                   { return nil }
func (b *stubAlignerBatch) FindBreakingPoints(_ uint32) error { return nil }

type stubConsensusBatch struct {
	backend  *stubBackend
	device   int
	capacity int
	staged   []*Window
}

func (b *stubConsensusBatch) Reset()           { b.staged = b.staged[:0] }
func (b *stubConsensusBatch) HasPending() bool { return len(b.staged) > 0 }
func (b *stubConsensusBatch) Device() int      { return b.device }
func (b *stubConsensusBatch) TryAdd(w *Window) bool {
	if len(b.staged) >= b.capacity {
		return false
	}
	b.staged = append(b.staged, w)
	return true
}

func (b *stubConsensusBatch) GenerateConsensus() ([]bool, error) {
	b.backend.mu.Lock()
	for _, w := range b.staged {
		b.backend.visits[w]++
	}
	b.backend.mu.Unlock()

	results := make([]bool, 0, len(b.staged))
	for _, w := range b.staged {
		if b.backend.fail != nil && b.backend.fail(w) {
			results = append(results, false)
			continue
		}
		w.SetConsensus(strings.ToUpper(string(w.Backbone)), true)
		results = append(results, true)
	}
	if b.backend.badCount && len(results) > 0 {
		results = results[:len(results)-1]
	}
	return results, nil
}

// polisherFixture builds a Polisher over groups windows per target, each
// window carrying two agreeing layers so the CPU fallback can resolve it.
func polisherFixture(t *testing.T, backend Backend, targets, windowsPerTarget int) *Polisher {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BatchCount = 6
	cfg.FallbackWorkers = 4

	p, err := New(cfg, backend)
	require.NoError(t, err)

	for id := 0; id < targets; id++ {
		p.targets = append(p.targets, NewSequence(fmt.Sprintf("ctg%d", id), nil, nil))
		p.coverages = append(p.coverages, uint32(5+id))
		for rank := 0; rank < windowsPerTarget; rank++ {
			w := NewWindow(uint32(id), uint32(rank), uint32(rank)*8, []byte("acgtacgt"), nil)
			w.AddLayer([]byte("ACGTACGT"), nil, 0, 8)
			w.AddLayer([]byte("ACGTACGT"), nil, 0, 8)
			p.windows = append(p.windows, w)
		}
	}
	return p
}

func TestPolishEndToEnd(t *testing.T) {
	// 3 devices, 6 configured batches (2 per device), 500 windows,
	// executor capacity 50
	backend := newStubBackend(3, 50)
	backend.fail = func(w *Window) bool { return w.Rank%13 == 7 }

	p := polisherFixture(t, backend, 5, 100)
	windows := p.windows

	var dst []*Sequence
	require.NoError(t, p.Polish(&dst, true))

	for i, w := range windows {
		assert.Equal(t, 1, backend.visits[w], "window %d must be visited by exactly one accelerated executor", i)
	}

	// failed windows were retried on the CPU: their layers agree, so every
	// group comes out fully polished
	require.Len(t, dst, 5)
	for _, s := range dst {
		assert.Contains(t, s.Name, "XC:f:1.000000")
		assert.Equal(t, 800, len(s.Data))
	}

	require.NoError(t, p.Close())
	assert.True(t, backend.synced, "teardown must flush device work before release")
	assert.True(t, backend.closed)
}

func TestPolishResultCountMismatchIsFatal(t *testing.T) {
	backend := newStubBackend(2, 50)
	backend.badCount = true

	p := polisherFixture(t, backend, 1, 200)
	var dst []*Sequence
	err := p.Polish(&dst, false)
	require.ErrorIs(t, err, ErrResultCountMismatch)
	assert.Empty(t, dst, "no partial output after a protocol violation")
}

func TestPolishIdempotentWithAlwaysPassingStub(t *testing.T) {
	run := func() []string {
		backend := newStubBackend(3, 50)
		p := polisherFixture(t, backend, 4, 50)
		// no layers: a fallback invocation could never succeed, so a
		// fully-true status array proves fallback was never needed
		for _, w := range p.windows {
			w.layers = nil
		}
		var dst []*Sequence
		require.NoError(t, p.Polish(&dst, true))
		out := make([]string, 0, len(dst))
		for _, s := range dst {
			out = append(out, s.Name+"="+string(s.Data))
		}
		return out
	}

	first := run()
	second := run()
	require.Len(t, first, 4, "no group may fall below the drop threshold")
	assert.Equal(t, first, second)
}

func TestNewRequiresDevices(t *testing.T) {
	_, err := New(DefaultConfig(), newStubBackend(0, 50))
	require.ErrorIs(t, err, ErrNoAccelerators)
}

func TestPolishWithoutInitialize(t *testing.T) {
	p, err := New(DefaultConfig(), newStubBackend(1, 50))
	require.NoError(t, err)
	var dst []*Sequence
	require.Error(t, p.Polish(&dst, false))
}
