package polisher

import "sync"

// WorkCursor is the single authority on which items of an ordered collection
// remain unassigned. Concurrent fillers draw disjoint, gap-free, strictly
// increasing index ranges from it.
type WorkCursor[T any] struct {
	mu    sync.Mutex
	items []T
	next  int
}

func NewWorkCursor[T any](items []T) *WorkCursor[T] {
	return &WorkCursor[T]{items: items}
}

// Fill offers unassigned items in order to tryAdd until it refuses (executor
// full) or the collection is exhausted, advancing the cursor only for items
// actually accepted. The returned half-open range [start, end) is the set of
// indices assigned by this call.
func (c *WorkCursor[T]) Fill(tryAdd func(T) bool) (start, end int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start = c.next
	for c.next < len(c.items) && tryAdd(c.items[c.next]) {
		c.next++
	}
	return start, c.next
}

// Len returns the total item count.
func (c *WorkCursor[T]) Len() int { return len(c.items) }

// Remaining reports how many items are still unassigned.
func (c *WorkCursor[T]) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) - c.next
}
