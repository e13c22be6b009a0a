// Copyright © 2020 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package filesort

import "container/heap"

// partEntry is the head record of one partition during the post-sort
// merge, cursor is its index in the chunk.
type partEntry struct {
	rec    Record
	cursor int
}

// partHeap is a min-heap of partition heads. Ties are broken by cursor
// so duplicate collapsing stays deterministic.
type partHeap struct {
	entries []partEntry
	less    LessFunc
}

func (h *partHeap) Len() int { return len(h.entries) }

func (h *partHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if h.less(a.rec, b.rec) {
		return true
	}
	if h.less(b.rec, a.rec) {
		return false
	}
	return a.cursor < b.cursor
}

func (h *partHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *partHeap) Push(x interface{}) {
	h.entries = append(h.entries, x.(partEntry))
}

func (h *partHeap) Pop() interface{} {
	n := len(h.entries)
	x := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return x
}

// partitionOffsets cuts data into contiguous partitions by cumulative
// record size against partSize. It returns the partition offsets
// 0 = o0 < o1 < ... < ok = len(data) and the set of boundary indices.
func partitionOffsets(data []Record, kind Kind, partSize int64) ([]int, map[int]bool) {
	offsets := []int{0}
	bounds := make(map[int]bool)
	acc := int64(kind.Size(data[0]))
	for i := 1; i < len(data); i++ {
		acc += int64(kind.Size(data[i]))
		if acc >= partSize {
			offsets = append(offsets, i)
			bounds[i] = true
			acc = 0
		}
	}
	offsets = append(offsets, len(data))
	bounds[len(data)] = true
	return offsets, bounds
}

// sortChunk sorts one memory-resident chunk. The chunk is partitioned
// by cumulative record size, each partition is sorted on a worker, and
// the sorted partitions are merged back by heap. With a single
// partition or a single worker the chunk is sorted directly. The
// returned slice replaces data.
//
// On deadline expiry the chunk is returned in an unspecified partial
// order with the deadline marked expired, callers must not write it.
func sortChunk(data []Record, kind Kind, less LessFunc, workers int, partSize int64, dedup bool, dl *Deadline) []Record {
	if len(data) == 0 {
		return data
	}

	offsets, bounds := partitionOffsets(data, kind, partSize)
	parts := len(offsets) - 1
	if workers > parts {
		workers = parts
	}

	if parts == 1 || workers == 1 {
		introsort(data, less, 0, len(data), dl, newPivotRand())
		if dl.Expired() {
			return data
		}
		if dedup {
			data = dedupAdjacent(data, less, dl)
		}
		return data
	}

	pool := newWorkerPool(workers)
	children := make([]*Deadline, parts)
	for i := 0; i < parts; i++ {
		lo, hi := offsets[i], offsets[i+1]
		child := dl.child()
		children[i] = child
		pool.enqueue(func() {
			introsort(data, less, lo, hi, child, newPivotRand())
		})
	}
	pool.stop()
	pool.wait()

	// any worker running out of budget aborts the whole chunk
	for _, child := range children {
		if child.Expired() {
			dl.expire()
			return data
		}
	}

	result := make([]Record, 0, len(data))
	h := &partHeap{less: less, entries: make([]partEntry, 0, parts)}
	for i := 0; i < parts; i++ {
		heap.Push(h, partEntry{rec: data[offsets[i]], cursor: offsets[i]})
	}
	for h.Len() > 0 {
		if !dl.Tick() {
			return data
		}
		e := heap.Pop(h).(partEntry)
		result = append(result, e.rec)
		next := e.cursor + 1
		if bounds[next] {
			continue
		}
		heap.Push(h, partEntry{rec: data[next], cursor: next})
	}

	if dedup {
		result = dedupAdjacent(result, less, dl)
	}
	return result
}

// dedupAdjacent collapses runs of adjacent equal records in place.
func dedupAdjacent(data []Record, less LessFunc, dl *Deadline) []Record {
	if len(data) < 2 {
		return data
	}
	out := data[:1]
	for _, rec := range data[1:] {
		if !dl.Tick() {
			return out
		}
		if equalRec(less, out[len(out)-1], rec) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
