// Copyright © 2020-2021 Wei Shen <shenwei356@gmail.com>
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
	"container/heap"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// mergeEntry is the record at the head of one input run, src is the
// run's index within the pass.
type mergeEntry struct {
	rec Record
	src int
}

// mergeHeap is a min-heap of run heads, ties broken by run index.
type mergeHeap struct {
	entries []mergeEntry
	less    LessFunc
}

func (h *mergeHeap) Len() int { return len(h.entries) }

func (h *mergeHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if h.less(a.rec, b.rec) {
		return true
	}
	if h.less(b.rec, a.rec) {
		return false
	}
	return a.src < b.src
}

func (h *mergeHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *mergeHeap) Push(x interface{}) {
	h.entries = append(h.entries, x.(mergeEntry))
}

func (h *mergeHeap) Pop() interface{} {
	n := len(h.entries)
	x := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return x
}

// mergeInput is one open run during a merge pass: its stream and the
// prefetched block, consumed head first.
type mergeInput struct {
	f     *os.File
	rr    RecordReader // nil once the stream is exhausted
	block []Record
}

// fill refills the block with records until the cumulative in-memory
// size reaches blockSize or the run ends. The stream is closed as soon
// as it is exhausted.
func (m *mergeInput) fill(kind Kind, blockSize int64, dl *Deadline) error {
	if m.rr == nil {
		return nil
	}
	var acc int64
	for acc < blockSize {
		if !dl.Tick() {
			return ErrAborted
		}
		rec, err := m.rr.Read()
		if err == io.EOF {
			m.rr = nil
			m.f.Close()
			m.f = nil
			break
		}
		if err != nil {
			return err
		}
		m.block = append(m.block, rec)
		acc += int64(kind.Size(rec))
	}
	return nil
}

// pop removes and returns the head of the block.
func (m *mergeInput) pop() (Record, bool) {
	if len(m.block) == 0 {
		return nil, false
	}
	rec := m.block[0]
	m.block = m.block[1:]
	return rec, true
}

func (m *mergeInput) close() {
	if m.f != nil {
		m.f.Close()
		m.f = nil
	}
}

// mergePass k-way merges the runs in group into one new run in tmpDir
// and deletes the consumed runs. The new run's path is registered
// before any byte is written so cleanup can always find it.
func mergePass(kind Kind, handler IOHandler, opt Options, less LessFunc, group []string, pool *bufPool, reg *tempRegistry, dl *Deadline) (string, error) {
	out, err := os.CreateTemp(opt.TmpDir, uuid.New().String()+"_m_")
	if err != nil {
		return "", errors.Wrap(err, "filesort: create merge file")
	}
	path := out.Name()
	reg.add(path)
	defer out.Close()

	bw := pool.output(out)
	w, err := handler.NewWriter(bw, out, kind)
	if err != nil {
		return "", err
	}

	inputs := make([]*mergeInput, len(group))
	defer func() {
		for _, in := range inputs {
			if in != nil {
				in.close()
			}
		}
	}()
	for i, p := range group {
		f, err := os.Open(p)
		if err != nil {
			return "", errors.Wrapf(err, "filesort: open run %s", p)
		}
		rr, err := handler.NewReader(pool.reader(i, f), kind)
		if err != nil {
			f.Close()
			return "", err
		}
		inputs[i] = &mergeInput{f: f, rr: rr}
	}

	for _, in := range inputs {
		if err = in.fill(kind, opt.BlockSize, dl); err != nil {
			return "", err
		}
	}

	h := &mergeHeap{less: less, entries: make([]mergeEntry, 0, len(inputs))}
	for i, in := range inputs {
		if rec, ok := in.pop(); ok {
			heap.Push(h, mergeEntry{rec: rec, src: i})
		}
	}

	// dedup compares against the last emitted record, not the last
	// popped one, so duplicates collapse across run boundaries too
	var last Record
	emitted := false
	for h.Len() > 0 {
		if !dl.Tick() {
			return "", ErrAborted
		}
		e := heap.Pop(h).(mergeEntry)
		if !opt.RemoveDuplicates || !emitted || !equalRec(less, e.rec, last) {
			if err = w.Write(e.rec); err != nil {
				return "", err
			}
			last = e.rec
			emitted = true
		}
		in := inputs[e.src]
		if len(in.block) == 0 {
			if err = in.fill(kind, opt.BlockSize, dl); err != nil {
				return "", err
			}
		}
		if rec, ok := in.pop(); ok {
			heap.Push(h, mergeEntry{rec: rec, src: e.src})
		}
	}

	if err = w.Flush(); err != nil {
		return "", err
	}
	if err = out.Close(); err != nil {
		return "", errors.Wrapf(err, "filesort: close merge file %s", path)
	}

	for _, p := range group {
		reg.discard(p)
	}
	return path, nil
}
