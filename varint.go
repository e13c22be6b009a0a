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

// Varints handles unsigned integers stored as a length byte followed
// by the value's significant bytes, most significant first. Small
// values take far fewer than the 9 bytes of the worst case.
type Varints struct{}

// Decode reads one value.
func (Varints) Decode(br *bufio.Reader) (Record, error) {
	n, err := br.ReadByte()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.Wrap(err, "filesort: read varint length")
	}
	if n < 1 || n > 8 {
		return nil, errors.Errorf("filesort: invalid varint length %d", n)
	}
	var buf [8]byte
	if _, err = io.ReadFull(br, buf[:n]); err != nil {
		return nil, errors.Wrap(err, "filesort: record cut short")
	}
	return uvarint(buf[:n]), nil
}

// Encode writes one value.
func (Varints) Encode(bw *bufio.Writer, rec Record) error {
	var buf [8]byte
	n := putUvarint(buf[:], rec.(uint64))
	if err := bw.WriteByte(byte(n)); err != nil {
		return errors.Wrap(err, "filesort: write varint")
	}
	_, err := bw.Write(buf[:n])
	return errors.Wrap(err, "filesort: write varint")
}

// Size of one value in memory.
func (Varints) Size(rec Record) int { return 8 }

// Less orders values numerically.
func (Varints) Less(a, b Record) bool {
	return a.(uint64) < b.(uint64)
}

// FixedSize is false, the encoded width follows the value.
func (Varints) FixedSize() bool { return false }

func putUvarint(buf []byte, x uint64) int {
	n := 1
	for v := x >> 8; v > 0; v >>= 8 {
		n++
	}
	for i := 0; i < n; i++ {
		buf[i] = byte(x >> uint(8*(n-1-i)))
	}
	return n
}

func uvarint(buf []byte) uint64 {
	n := len(buf)
	var x uint64
	for i := n - 1; i >= 0; i-- {
		x |= uint64(buf[i]) << uint((n-1-i)*8)
	}
	return x
}
