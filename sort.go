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

// Package filesort sorts files larger than available memory. The input
// is read as a stream of records of a declared kind, split into sorted
// runs on disk, and the runs are merged back with a k-way merge until
// one sorted file remains, using bounded memory and a caller-chosen
// number of workers.
package filesort

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrAborted is returned when the deadline expires before the sort
// completes. The output path is untouched and every temporary file has
// been removed.
var ErrAborted = errors.New("filesort: aborted by deadline")

const (
	// splitHeadroom divides the memory budget during the split phase,
	// reserving room for the in-memory partition merge which can hold a
	// second copy of the chunk.
	splitHeadroom = 3

	// partitionSize is the per-worker partition budget inside a chunk.
	partitionSize = 100_000_000

	defaultMemoryBudget = 1 << 30
	defaultBlockSize    = 4096
)

// Options configures one sort invocation.
type Options struct {
	InputPath  string
	OutputPath string

	// TmpDir holds the run files, it must exist and be writable.
	TmpDir string

	// Workers bounds the pool sorting chunk partitions, at least 1.
	Workers int

	// MaxFiles is the fan-in of each merge pass, at least 2.
	MaxFiles int

	// MemoryBudget is the ceiling in bytes for the in-memory buffer
	// before a chunk is flushed to disk. Zero means 1 GB.
	MemoryBudget int64

	// BlockSize is the per-run read-ahead budget during a merge and the
	// stream buffer size. Zero means 4096.
	BlockSize int64

	// RemoveDuplicates collapses adjacent equal records.
	RemoveDuplicates bool

	// Less overrides the kind's natural order when non-nil.
	Less LessFunc

	// Deadline bounds the invocation's wall-clock time, nil disables.
	Deadline *Deadline
}

func (opt *Options) validate() error {
	if opt.InputPath == "" {
		return errors.New("filesort: input path required")
	}
	if opt.OutputPath == "" {
		return errors.New("filesort: output path required")
	}
	if opt.Workers < 1 {
		return errors.Errorf("filesort: workers must be at least 1, got %d", opt.Workers)
	}
	if opt.MaxFiles < 2 {
		return errors.Errorf("filesort: max files must be at least 2, got %d", opt.MaxFiles)
	}
	if opt.MemoryBudget < 0 || opt.BlockSize < 0 {
		return errors.New("filesort: negative size options")
	}
	if _, err := os.Stat(opt.InputPath); err != nil {
		return errors.Wrap(err, "filesort: input file")
	}
	info, err := os.Stat(opt.TmpDir)
	if err != nil {
		return errors.Wrap(err, "filesort: tmp dir")
	}
	if !info.IsDir() {
		return errors.Errorf("filesort: tmp dir %s is not a directory", opt.TmpDir)
	}
	return nil
}

// Sort reads the records of opt.InputPath through kind and handler and
// writes them in ascending order to opt.OutputPath, optionally removing
// adjacent duplicates. On deadline expiry it returns ErrAborted with
// the output untouched. On any non-success exit every temporary file is
// removed.
func Sort(kind Kind, handler IOHandler, opt Options) error {
	if err := opt.validate(); err != nil {
		return err
	}
	if opt.MemoryBudget == 0 {
		opt.MemoryBudget = defaultMemoryBudget
	}
	if opt.BlockSize == 0 {
		opt.BlockSize = defaultBlockSize
	}
	less := opt.Less
	if less == nil {
		less = kind.Less
	}

	pool := newBufPool(opt.MaxFiles, opt.BlockSize)
	reg := newTempRegistry()
	dl := opt.Deadline

	runs, err := splitInput(kind, handler, opt, less, pool, reg, dl)
	if err != nil {
		reg.removeAll()
		return err
	}

	for len(runs) > 1 {
		next := make([]string, 0, (len(runs)+opt.MaxFiles-1)/opt.MaxFiles)
		for start := 0; start < len(runs); start += opt.MaxFiles {
			end := start + opt.MaxFiles
			if end > len(runs) {
				end = len(runs)
			}
			merged, err := mergePass(kind, handler, opt, less, runs[start:end], pool, reg, dl)
			if err != nil {
				reg.removeAll()
				return err
			}
			next = append(next, merged)
		}
		runs = next
		if !dl.Tick() {
			reg.removeAll()
			return ErrAborted
		}
	}

	if err := finalize(runs[0], opt.OutputPath, pool); err != nil {
		reg.removeAll()
		return err
	}
	reg.release(runs[0])
	return nil
}

// splitInput reads the input into memory-bounded chunks, sorts each
// chunk and writes it as a run named {inputBase}-p{N} in the tmp dir.
// It returns the ordered run paths. An empty input still produces one
// empty run so the output file always exists on success.
func splitInput(kind Kind, handler IOHandler, opt Options, less LessFunc, pool *bufPool, reg *tempRegistry, dl *Deadline) ([]string, error) {
	in, err := os.Open(opt.InputPath)
	if err != nil {
		return nil, errors.Wrap(err, "filesort: open input")
	}
	defer in.Close()

	rr, err := handler.NewReader(pool.reader(0, in), kind)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(opt.InputPath)
	threshold := opt.MemoryBudget / splitHeadroom

	var (
		runs []string
		data []Record
		acc  int64
		part int
	)

	flush := func() error {
		data = sortChunk(data, kind, less, opt.Workers, partitionSize, opt.RemoveDuplicates, dl)
		if dl.Expired() {
			return ErrAborted
		}
		path := filepath.Join(opt.TmpDir, fmt.Sprintf("%s-p%d", base, part))
		part++
		reg.add(path)
		if err := writeRun(kind, handler, pool, path, data, dl); err != nil {
			return err
		}
		runs = append(runs, path)
		data = data[:0]
		acc = 0
		return nil
	}

	for {
		if !dl.Tick() {
			return nil, ErrAborted
		}
		rec, err := rr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if acc >= threshold && len(data) > 0 {
			if err = flush(); err != nil {
				return nil, err
			}
		}
		data = append(data, rec)
		acc += int64(kind.Size(rec))
	}

	if len(data) > 0 || len(runs) == 0 {
		if err = flush(); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// writeRun writes one sorted chunk to path through the handler.
func writeRun(kind Kind, handler IOHandler, pool *bufPool, path string, data []Record, dl *Deadline) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "filesort: create run %s", path)
	}
	defer f.Close()

	bw := pool.output(f)
	w, err := handler.NewWriter(bw, f, kind)
	if err != nil {
		return err
	}
	for _, rec := range data {
		if !dl.Tick() {
			return ErrAborted
		}
		if err = w.Write(rec); err != nil {
			return err
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// finalize moves the last run to the output path. Rename first, when
// that fails (tmp dir on another filesystem) fall back to copy and
// remove the source.
func finalize(src, dst string, pool *bufPool) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	os.Remove(dst)

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "filesort: finalize")
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "filesort: finalize")
	}
	defer out.Close()

	bw := pool.output(out)
	if _, err = io.Copy(bw, pool.reader(0, in)); err != nil {
		return errors.Wrap(err, "filesort: finalize")
	}
	if err = bw.Flush(); err != nil {
		return errors.Wrap(err, "filesort: finalize")
	}
	if err = out.Close(); err != nil {
		return errors.Wrap(err, "filesort: finalize")
	}
	return os.Remove(src)
}
