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

	"github.com/pkg/errors"
)

// RecordReader reads records one at a time, returning io.EOF when the
// stream is exhausted.
type RecordReader interface {
	Read() (Record, error)
}

// RecordWriter writes records one at a time. Flush must be called once
// after the final record, it flushes buffered bytes and fixes up any
// stream header.
type RecordWriter interface {
	Write(rec Record) error
	Flush() error
}

// IOHandler wraps the byte streams the sort opens. It decides whether a
// stream carries a header in front of the encoded records. The same
// handler applies to the input, every temporary run and the output.
type IOHandler interface {
	// NewReader wraps a freshly opened input stream.
	NewReader(br *bufio.Reader, kind Kind) (RecordReader, error)

	// NewWriter wraps a freshly opened output stream. seek is the
	// underlying file when the stream is seekable, nil otherwise.
	NewWriter(bw *bufio.Writer, seek io.Seeker, kind Kind) (RecordWriter, error)
}

// Plain is the IOHandler for raw record streams with no header.
type Plain struct{}

type plainReader struct {
	br   *bufio.Reader
	kind Kind
}

func (r *plainReader) Read() (Record, error) {
	return r.kind.Decode(r.br)
}

type plainWriter struct {
	bw   *bufio.Writer
	kind Kind
}

func (w *plainWriter) Write(rec Record) error {
	return w.kind.Encode(w.bw, rec)
}

func (w *plainWriter) Flush() error {
	return w.bw.Flush()
}

// NewReader returns a reader over the raw stream.
func (Plain) NewReader(br *bufio.Reader, kind Kind) (RecordReader, error) {
	return &plainReader{br: br, kind: kind}, nil
}

// NewWriter returns a writer over the raw stream.
func (Plain) NewWriter(bw *bufio.Writer, seek io.Seeker, kind Kind) (RecordWriter, error) {
	return &plainWriter{bw: bw, kind: kind}, nil
}

// CountHeader is the IOHandler for streams prefixed with an 8-byte
// little-endian element count. The reader declares EOF after that many
// records regardless of the underlying stream state. The writer
// reserves the 8 bytes up front and fixes them on Flush.
type CountHeader struct{}

type headerReader struct {
	br   *bufio.Reader
	kind Kind
	n    uint64
	read uint64
}

func (r *headerReader) Read() (Record, error) {
	if r.read >= r.n {
		return nil, io.EOF
	}
	rec, err := r.kind.Decode(r.br)
	if err == io.EOF {
		return nil, errors.Errorf("filesort: stream ends after %d of %d records", r.read, r.n)
	}
	if err != nil {
		return nil, err
	}
	r.read++
	return rec, nil
}

type headerWriter struct {
	bw        *bufio.Writer
	seek      io.Seeker
	kind      Kind
	headerPos int64
	n         uint64
}

func (w *headerWriter) Write(rec Record) error {
	if err := w.kind.Encode(w.bw, rec); err != nil {
		return err
	}
	w.n++
	return nil
}

func (w *headerWriter) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	end, err := w.seek.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "filesort: fix header")
	}
	if _, err = w.seek.Seek(w.headerPos, io.SeekStart); err != nil {
		return errors.Wrap(err, "filesort: fix header")
	}
	var buf [8]byte
	le.PutUint64(buf[:], w.n)
	if _, err = w.bw.Write(buf[:]); err != nil {
		return err
	}
	if err = w.bw.Flush(); err != nil {
		return err
	}
	if _, err = w.seek.Seek(end, io.SeekStart); err != nil {
		return errors.Wrap(err, "filesort: fix header")
	}
	return nil
}

// NewReader consumes the count and bounds the stream by it.
func (CountHeader) NewReader(br *bufio.Reader, kind Kind) (RecordReader, error) {
	var buf [8]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return nil, errors.Wrap(err, "filesort: read count header")
	}
	return &headerReader{br: br, kind: kind, n: le.Uint64(buf[:])}, nil
}

// NewWriter reserves the count at the current position. The stream must
// be seekable so Flush can write the final count back.
func (CountHeader) NewWriter(bw *bufio.Writer, seek io.Seeker, kind Kind) (RecordWriter, error) {
	if seek == nil {
		return nil, errors.New("filesort: count header needs a seekable stream")
	}
	pos, err := seek.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "filesort: write count header")
	}
	var buf [8]byte
	if _, err = bw.Write(buf[:]); err != nil {
		return nil, errors.Wrap(err, "filesort: write count header")
	}
	return &headerWriter{bw: bw, seek: seek, kind: kind, headerPos: pos}, nil
}
