package polisher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinDevices(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		devices int
		want    []int
	}{
		{"2 per device", 6, 3, []int{0, 1, 2, 0, 1, 2}},
		{"uneven", 5, 2, []int{0, 1, 0, 1, 0}},
		{"single device", 3, 1, []int{0, 0, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bins, err := binDevices(tc.count, tc.devices)
			require.NoError(t, err)
			assert.Equal(t, tc.want, bins)
		})
	}
}

func TestBinDevicesNoDevices(t *testing.T) {
	_, err := binDevices(4, 0)
	require.ErrorIs(t, err, ErrNoAccelerators)
}

// stubBatch is a minimal Batch over plain ints.
type stubBatch struct {
	device   int
	capacity int
	staged   []int
}

func (b *stubBatch) Reset()           { b.staged = b.staged[:0] }
func (b *stubBatch) HasPending() bool { return len(b.staged) > 0 }
func (b *stubBatch) Device() int      { return b.device }
func (b *stubBatch) tryAdd(v int) bool {
	if len(b.staged) >= b.capacity {
		return false
	}
	b.staged = append(b.staged, v)
	return true
}

func TestRunBatchesVisitsEveryItemOnce(t *testing.T) {
	const n = 500
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	cursor := NewWorkCursor(items)

	batches := make([]*stubBatch, 6)
	for i := range batches {
		batches[i] = &stubBatch{device: i % 3, capacity: 50}
	}

	visits := make([]int, n)
	var mu sync.Mutex
	err := runBatches(cursor, batches,
		func(b *stubBatch, v int) bool { return b.tryAdd(v) },
		func(b *stubBatch, start, end int) error {
			require.Equal(t, end-start, len(b.staged))
			mu.Lock()
			for _, v := range b.staged {
				visits[v]++
			}
			mu.Unlock()
			return nil
		},
		nil,
	)
	require.NoError(t, err)
	for i, v := range visits {
		require.Equal(t, 1, v, "item %d must be visited exactly once", i)
	}
}

func TestRunBatchesAbortsOnError(t *testing.T) {
	items := make([]int, 1000)
	cursor := NewWorkCursor(items)

	batches := make([]*stubBatch, 4)
	for i := range batches {
		batches[i] = &stubBatch{device: 0, capacity: 10}
	}

	err := runBatches(cursor, batches,
		func(b *stubBatch, v int) bool { return b.tryAdd(v) },
		func(b *stubBatch, start, end int) error {
			return ErrResultCountMismatch
		},
		nil,
	)
	require.ErrorIs(t, err, ErrResultCountMismatch)
	assert.Greater(t, cursor.Remaining(), 0, "run must abort before draining the cursor")
}

func TestRunBatchesOnFill(t *testing.T) {
	items := make([]int, 100)
	cursor := NewWorkCursor(items)
	batches := []*stubBatch{{device: 0, capacity: 25}}

	var fills int
	err := runBatches(cursor, batches,
		func(b *stubBatch, v int) bool { return b.tryAdd(v) },
		func(b *stubBatch, start, end int) error { return nil },
		func(start, end int) { fills++ },
	)
	require.NoError(t, err)
	assert.Equal(t, 4, fills)
}
