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
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	pool := newWorkerPool(4)
	var done int64
	for i := 0; i < 100; i++ {
		pool.enqueue(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.stop()
	pool.wait()
	if done != 100 {
		t.Fatalf("expected 100 tasks done, got %d", done)
	}
}

func TestWorkerPoolFIFO(t *testing.T) {
	// a single worker must observe tasks in enqueue order
	pool := newWorkerPool(1)
	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		i := i
		pool.enqueue(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	pool.stop()
	pool.wait()
	if len(order) != 50 {
		t.Fatalf("expected 50 tasks, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestWorkerPoolEnqueueAfterStop(t *testing.T) {
	pool := newWorkerPool(2)
	pool.stop()
	pool.enqueue(func() {
		t.Error("task enqueued after stop must not run")
	})
	pool.wait()
}
