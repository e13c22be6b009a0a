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

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"
)

// insertionCutoff is the range length below which insertion sort takes
// over.
const insertionCutoff = 16

var pivotSeq uint64

// newPivotRand returns a pivot generator for one worker. Generators are
// never shared across goroutines.
func newPivotRand() *rand.Rand {
	seed := time.Now().UnixNano() ^ int64(atomic.AddUint64(&pivotSeq, 1)<<32)
	return rand.New(rand.NewSource(seed))
}

// introsort sorts data[lo:hi] under less: random-pivot quicksort with a
// heap-sort fallback once the recursion depth reaches 2*log2(n), and
// insertion sort on small ranges. When the deadline expires the range
// is left partially ordered and control returns.
func introsort(data []Record, less LessFunc, lo, hi int, dl *Deadline, rng *rand.Rand) {
	n := hi - lo
	if n < 2 {
		return
	}
	maxDepth := 2 * int(math.Log2(float64(n)))
	introsortRec(data, less, lo, hi, maxDepth, 0, dl, rng)
}

func introsortRec(data []Record, less LessFunc, lo, hi, maxDepth, depth int, dl *Deadline, rng *rand.Rand) {
	if lo >= hi {
		return
	}
	if !dl.Tick() {
		return
	}
	if hi-lo < insertionCutoff {
		insertionSort(data, less, lo, hi, dl)
		return
	}
	if depth >= maxDepth {
		heapSort(data, less, lo, hi, dl)
		return
	}

	p := partitionRandom(data, less, lo, hi, dl, rng)
	if !dl.Tick() {
		return
	}
	introsortRec(data, less, lo, p, maxDepth, depth+1, dl, rng)
	if !dl.Tick() {
		return
	}
	introsortRec(data, less, p+1, hi, maxDepth, depth+1, dl, rng)
}

// partitionRandom swaps a uniformly chosen pivot into the last slot and
// Lomuto-partitions the range around it.
func partitionRandom(data []Record, less LessFunc, lo, hi int, dl *Deadline, rng *rand.Rand) int {
	pivot := lo + rng.Intn(hi-lo)
	data[pivot], data[hi-1] = data[hi-1], data[pivot]
	return partition(data, less, lo, hi, dl)
}

func partition(data []Record, less LessFunc, lo, hi int, dl *Deadline) int {
	left := lo - 1
	for right := lo; right < hi-1; right++ {
		if !dl.Tick() {
			return lo
		}
		if less(data[right], data[hi-1]) {
			left++
			data[left], data[right] = data[right], data[left]
		}
	}
	data[left+1], data[hi-1] = data[hi-1], data[left+1]
	return left + 1
}

func insertionSort(data []Record, less LessFunc, lo, hi int, dl *Deadline) {
	for j := lo + 1; j < hi; j++ {
		if !dl.Tick() {
			return
		}
		key := data[j]
		i := j - 1
		for i >= lo && less(key, data[i]) {
			data[i+1] = data[i]
			i--
		}
		data[i+1] = key
	}
}

// heapSort is the depth-limit fallback: an in-place max-heap on the
// range with indices kept relative to lo.
func heapSort(data []Record, less LessFunc, lo, hi int, dl *Deadline) {
	size := hi - lo
	buildMaxHeap(data, less, lo, size, dl)
	if !dl.Tick() {
		return
	}
	for i := hi - 1; i >= lo+1; i-- {
		if !dl.Tick() {
			return
		}
		data[lo], data[i] = data[i], data[lo]
		heapify(data, less, lo, lo, i-lo, dl)
	}
}

func buildMaxHeap(data []Record, less LessFunc, lo, size int, dl *Deadline) {
	for i := (size - 2) / 2; i >= 0; i-- {
		heapify(data, less, lo, i+lo, size, dl)
		if !dl.Tick() {
			return
		}
	}
}

func heapify(data []Record, less LessFunc, lo, pos, size int, dl *Deadline) {
	for pos < size+lo {
		if !dl.Tick() {
			return
		}
		l := ((pos - lo) << 1) + lo + 1
		r := l + 1
		max := pos
		if l < size+lo && less(data[pos], data[l]) {
			max = l
		}
		if r < size+lo && less(data[max], data[r]) {
			max = r
		}
		if max == pos {
			break
		}
		data[pos], data[max] = data[max], data[pos]
		pos = max
	}
}
