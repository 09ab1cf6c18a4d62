// Package queue provides the bounded priority queue used to collect the k
// nearest training records for a query.
package queue

import "container/heap"

// Compile time check to ensure PriorityQueue satisfies the heap interface.
var _ heap.Interface = (*PriorityQueue)(nil)

// Item is a training record index paired with its distance to the query.
type Item struct {
	Index    int     // Index is the position of the record in the training set.
	Distance float64 // Distance is the priority of the item in the queue.
}

// Before reports whether a ranks ahead of b: smaller distance first, and on
// exactly equal distances the smaller (earlier) training index first.
func Before(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Index < b.Index
}

// PriorityQueue is a max-heap over Before: the top element is the worst of
// the items kept so far, so it can be evicted in O(log k).
type PriorityQueue struct {
	items []Item
}

// NewBounded creates a queue intended to hold at most capacity items.
func NewBounded(capacity int) *PriorityQueue {
	return &PriorityQueue{items: make([]Item, 0, capacity+1)}
}

// Offer inserts item if the queue holds fewer than limit items, or replaces
// the current worst item if item ranks before it. It reports whether the
// item was kept.
func (pq *PriorityQueue) Offer(item Item, limit int) bool {
	if limit <= 0 {
		return false
	}
	if len(pq.items) < limit {
		pq.items = append(pq.items, item)
		pq.siftUp(len(pq.items) - 1)
		return true
	}
	if !Before(item, pq.items[0]) {
		return false
	}
	pq.items[0] = item
	pq.siftDown(0)
	return true
}

// TopItem returns the worst item currently held.
func (pq *PriorityQueue) TopItem() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// PopItem removes and returns the worst item.
func (pq *PriorityQueue) PopItem() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// Drain empties the queue and returns its items ordered best first.
func (pq *PriorityQueue) Drain() []Item {
	out := make([]Item, len(pq.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = pq.PopItem()
	}
	return out
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.Less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		worst := l
		if r := l + 1; r < n && pq.Less(r, l) {
			worst = r
		}
		if !pq.Less(worst, i) {
			return
		}
		pq.items[i], pq.items[worst] = pq.items[worst], pq.items[i]
		i = worst
	}
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Less orders the heap so that the worst-ranked item is on top.
func (pq *PriorityQueue) Less(i, j int) bool {
	return Before(pq.items[j], pq.items[i])
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// Push adds x to the priority queue.
func (pq *PriorityQueue) Push(x any) {
	pq.items = append(pq.items, x.(Item))
}

// Pop removes and returns the last element of the backing slice.
func (pq *PriorityQueue) Pop() any {
	n := len(pq.items)
	if n == 0 {
		return Item{}
	}
	item := pq.items[n-1]
	pq.items = pq.items[:n-1]
	return item
}

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}
