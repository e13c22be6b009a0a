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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var le = binary.LittleEndian

// Record is one opaque record value handled by the sort.
// The concrete type is owned by the Kind that decoded it.
type Record interface{}

// LessFunc is a total order over records of one kind.
type LessFunc func(a, b Record) bool

// Kind bundles the per-record-kind operations: decoding and encoding
// one record, its in-memory footprint for budgeting, and its natural
// order. The sort calls these and nothing else, it never inspects
// record contents.
type Kind interface {
	// Decode reads the next record from br. It returns io.EOF when the
	// stream ends at a record boundary, any other error means the input
	// is malformed or unreadable.
	Decode(br *bufio.Reader) (Record, error)

	// Encode writes one record in the format Decode accepts.
	Encode(bw *bufio.Writer, rec Record) error

	// Size reports the approximate in-memory footprint of rec in bytes,
	// used only for memory budgeting, not the encoded width.
	Size(rec Record) int

	// Less reports whether a orders before b.
	Less(a, b Record) bool

	// FixedSize reports whether encoded records have a constant width.
	FixedSize() bool
}

// equalRec derives equality from a total order.
func equalRec(less LessFunc, a, b Record) bool {
	return !less(a, b) && !less(b, a)
}

// lineOverhead is the bookkeeping cost charged to one line kept in
// memory beyond its bytes: the size of one string header on 64-bit
// platforms. The chunk slot holding the record is not counted.
const lineOverhead = 16

// Lines handles newline-terminated byte strings. The record type is
// string without the trailing newline. A final line with no newline
// still yields a record.
type Lines struct{}

// Decode reads one line.
func (Lines) Decode(br *bufio.Reader) (Record, error) {
	line, err := br.ReadString('\n')
	if err == io.EOF {
		if len(line) == 0 {
			return nil, io.EOF
		}
		return line, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "filesort: read line")
	}
	return line[:len(line)-1], nil
}

// Encode writes one line followed by '\n'.
func (Lines) Encode(bw *bufio.Writer, rec Record) error {
	if _, err := bw.WriteString(rec.(string)); err != nil {
		return errors.Wrap(err, "filesort: write line")
	}
	return bw.WriteByte('\n')
}

// Size counts the line bytes, the newline and the header overhead.
func (Lines) Size(rec Record) int {
	return len(rec.(string)) + 1 + lineOverhead
}

// Less orders lines bytewise.
func (Lines) Less(a, b Record) bool {
	return a.(string) < b.(string)
}

// FixedSize is false, lines vary in width.
func (Lines) FixedSize() bool { return false }

// Uint64s handles 8-byte little-endian unsigned integers. The record
// type is uint64. A stream ending inside a record is a decode error.
type Uint64s struct{}

// Decode reads one value.
func (Uint64s) Decode(br *bufio.Reader) (Record, error) {
	var buf [8]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "filesort: record cut short")
	}
	return le.Uint64(buf[:]), nil
}

// Encode writes one value.
func (Uint64s) Encode(bw *bufio.Writer, rec Record) error {
	var buf [8]byte
	le.PutUint64(buf[:], rec.(uint64))
	_, err := bw.Write(buf[:])
	return errors.Wrap(err, "filesort: write value")
}

// Size of one value.
func (Uint64s) Size(rec Record) int { return 8 }

// Less orders values numerically.
func (Uint64s) Less(a, b Record) bool {
	return a.(uint64) < b.(uint64)
}

// FixedSize is true.
func (Uint64s) FixedSize() bool { return true }
