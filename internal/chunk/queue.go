package chunk

import (
	"math/rand"
	"sort"
	"sync"
)

// Order is a chunk-queue ordering policy (§4.4, §6 --chunk-order).
type Order int

const (
	// OrderLongToShort minimizes tail latency (largest-processing-time
	// heuristic) and is the default.
	OrderLongToShort Order = iota
	OrderShortToLong
	OrderSequential
	OrderRandom
)

// ParseOrder parses a --chunk-order flag value.
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "long-to-short", "":
		return OrderLongToShort, true
	case "short-to-long":
		return OrderShortToLong, true
	case "sequential":
		return OrderSequential, true
	case "random":
		return OrderRandom, true
	default:
		return OrderLongToShort, false
	}
}

// Queue is the shared mutable chunk work queue consumed by the worker
// pipeline. A single claim call must never return the same chunk twice.
type Queue interface {
	// Next atomically claims the next chunk; returns false when empty.
	Next() (Chunk, bool)
	// MarkComplete records idx as finished (used by dispatch policies
	// that adapt to completion, e.g. the default nearest-to-completed
	// Dispatcher; a no-op for the plain OrderedQueue).
	MarkComplete(idx int)
	// Remaining returns the count of unclaimed chunks.
	Remaining() int
}

// OrderedQueue implements Queue for the four non-adaptive policies:
// long-to-short, short-to-long, sequential, and random. Chunks are sorted
// once up front; Next simply pops from the front under a mutex.
type OrderedQueue struct {
	mu     sync.Mutex
	chunks []Chunk
	pos    int
}

// NewOrderedQueue builds an OrderedQueue for the given policy. Random
// order is permuted with the supplied rng (nil uses the package-level
// default source) so tests can supply a seeded generator.
func NewOrderedQueue(chunks []Chunk, order Order, rng *rand.Rand) *OrderedQueue {
	sorted := append([]Chunk(nil), chunks...)

	switch order {
	case OrderLongToShort:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Frames() > sorted[j].Frames()
		})
	case OrderShortToLong:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Frames() < sorted[j].Frames()
		})
	case OrderSequential:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Start < sorted[j].Start
		})
	case OrderRandom:
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}
		rng.Shuffle(len(sorted), func(i, j int) {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		})
	}

	return &OrderedQueue{chunks: sorted}
}

func (q *OrderedQueue) Next() (Chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pos >= len(q.chunks) {
		return Chunk{}, false
	}
	ch := q.chunks[q.pos]
	q.pos++
	return ch, true
}

func (q *OrderedQueue) MarkComplete(int) {}

func (q *OrderedQueue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks) - q.pos
}

// NewQueue builds the Queue implementation for the given policy. Target-
// quality runs should prefer OrderLongToShort or pass useDispatcher=true
// to get the adaptive nearest-to-completed Dispatcher, which improves the
// CRF tracker's prediction accuracy.
func NewQueue(chunks []Chunk, order Order, useDispatcher bool) Queue {
	if useDispatcher {
		return NewDispatcher(chunks)
	}
	return NewOrderedQueue(chunks, order, nil)
}
