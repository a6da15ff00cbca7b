package vector

import (
	"container/heap"
	"sort"
)

// Scored is a candidate identified by ID with its similarity score.
// Ref is an opaque caller index, typically into the candidate slice.
type Scored struct {
	ID    string
	Score float64
	Ref   int
}

// better reports whether a ranks ahead of b: higher score first,
// then ascending ID. IDs compare as plain strings, so "doc:10" ranks
// ahead of "doc:2" on equal scores.
func better(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// minHeap keeps the weakest kept candidate at the root.
type minHeap []Scored

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) { *h = append(*h, x.(Scored)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopK keeps the best k candidates seen so far in O(log k) per offer.
type TopK struct {
	k int
	h minHeap
}

// NewTopK creates a ranker keeping at most k candidates. k below 1 keeps one.
func NewTopK(k int) *TopK {
	if k < 1 {
		k = 1
	}
	return &TopK{k: k, h: make(minHeap, 0, k)}
}

// Offer considers a candidate. Once full, it replaces the weakest kept
// candidate when the new one has a strictly higher score, or an equal
// score and a lower ID.
func (t *TopK) Offer(s Scored) {
	if len(t.h) < t.k {
		heap.Push(&t.h, s)
		return
	}
	if better(s, t.h[0]) {
		t.h[0] = s
		heap.Fix(&t.h, 0)
	}
}

// Len returns the number of kept candidates.
func (t *TopK) Len() int { return len(t.h) }

// Results returns the kept candidates ordered by descending score,
// ties broken by ascending ID.
func (t *TopK) Results() []Scored {
	out := make([]Scored, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}
