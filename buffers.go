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
	"bufio"
	"io"
)

// bufPool holds the maxFiles+1 fixed-size stream buffers of one sort
// invocation: one per input run during a merge plus one for the output
// stream. The buffers are allocated once and reset onto each file they
// serve, bounding both allocation and syscall rate.
type bufPool struct {
	readers []*bufio.Reader
	writer  *bufio.Writer
}

func newBufPool(maxFiles int, blockSize int64) *bufPool {
	p := &bufPool{
		readers: make([]*bufio.Reader, maxFiles),
		writer:  bufio.NewWriterSize(nil, int(blockSize)),
	}
	for i := range p.readers {
		p.readers[i] = bufio.NewReaderSize(nil, int(blockSize))
	}
	return p
}

// reader attaches buffer i to r.
func (p *bufPool) reader(i int, r io.Reader) *bufio.Reader {
	br := p.readers[i]
	br.Reset(r)
	return br
}

// output attaches the write buffer to w.
func (p *bufPool) output(w io.Writer) *bufio.Writer {
	p.writer.Reset(w)
	return p.writer
}
