package radar

import "sync"

// queueDepth is the capacity of the latest-value handoff between the
// ingest loop and consumers. The radar streams at a fixed cadence; two
// slots decouple producer and consumer without accumulating stale data.
const queueDepth = 2

// ReadingQueue hands readings from the ingest goroutine to consumers.
// Push never blocks: when full, the oldest reading is evicted first.
// Drain order is FIFO.
type ReadingQueue struct {
	lock  sync.Mutex
	items []*Reading
	depth int
}

// NewReadingQueue creates a queue with the given capacity.
func NewReadingQueue(depth int) *ReadingQueue {
	return &ReadingQueue{depth: depth}
}

// Push appends a reading, evicting the oldest one when full.
func (q *ReadingQueue) Push(r *Reading) {
	q.lock.Lock()
	if len(q.items) >= q.depth {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append(q.items, r)
	q.lock.Unlock()
}

// TryPop removes and returns the oldest reading without blocking. The
// second result is false when no reading is buffered.
func (q *ReadingQueue) TryPop() (*Reading, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	r := q.items[0]
	copy(q.items, q.items[1:])
	q.items = q.items[:len(q.items)-1]
	return r, true
}

// Len returns the number of buffered readings.
func (q *ReadingQueue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}
