// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package eventset is a sorted set of future time points, popped
// monotonically by the kernel's clock. Insertion is idempotent: adding the
// same time twice collapses to one entry.
package eventset

import "container/heap"

// Set is a min-heap of distinct int64 time points plus a membership index
// so repeated Add calls for the same time are a no-op. This mirrors the
// source simulator's use of a sorted-set container (a Python SortedSet)
// while keeping O(log n) insert and pop-min without a tree library
// dependency the rest of the pack does not otherwise need.
type Set struct {
	h    timeHeap
	seen map[int64]struct{}
}

// New returns an empty Set.
func New() *Set {
	return &Set{seen: make(map[int64]struct{})}
}

// Add inserts t if it is not already present.
func (s *Set) Add(t int64) {
	if _, ok := s.seen[t]; ok {
		return
	}
	s.seen[t] = struct{}{}
	heap.Push(&s.h, t)
}

// PopMin removes and returns the smallest time point. ok is false if the
// set is empty.
func (s *Set) PopMin() (t int64, ok bool) {
	if s.h.Len() == 0 {
		return 0, false
	}
	v := heap.Pop(&s.h).(int64)
	delete(s.seen, v)
	return v, true
}

// Len returns the number of distinct time points currently held.
func (s *Set) Len() int {
	return s.h.Len()
}

type timeHeap []int64

func (h timeHeap) Len() int            { return len(h) }
func (h timeHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h timeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timeHeap) Push(x interface{}) { *h = append(*h, x.(int64)) }
func (h *timeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
