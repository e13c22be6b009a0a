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
	"os"
	"path/filepath"
	"testing"
)

func TestCountHeaderWriter(t *testing.T) {
	dir, err := os.MkdirTemp("", "filesort")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "header.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	kind := Uint64s{}
	bw := bufio.NewWriter(f)
	w, err := CountHeader{}.NewWriter(bw, f, kind)
	if err != nil {
		t.Fatal(err)
	}
	values := []uint64{9, 3, 7}
	for _, v := range values {
		if err = w.Write(v); err != nil {
			t.Fatal(err)
		}
	}
	if err = w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err = f.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 8+len(values)*8 {
		t.Fatalf("expected %d bytes, got %d", 8+len(values)*8, len(raw))
	}
	if n := le.Uint64(raw[:8]); n != uint64(len(values)) {
		t.Fatalf("header count = %d, want %d", n, len(values))
	}

	// read back through the handler
	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	rr, err := CountHeader{}.NewReader(bufio.NewReader(in), kind)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range values {
		rec, err := rr.Read()
		if err != nil {
			t.Fatalf("read %d: %s", i, err)
		}
		if rec.(uint64) != v {
			t.Fatalf("read %d: got %d, want %d", i, rec, v)
		}
	}
	if _, err = rr.Read(); err != io.EOF {
		t.Fatalf("expected io.EOF after %d records, got %v", len(values), err)
	}
}

func TestCountHeaderReaderStopsAtCount(t *testing.T) {
	dir, err := os.MkdirTemp("", "filesort")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	// header says 2, stream holds 4: the reader must stop at 2
	path := filepath.Join(dir, "short.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	var buf [8]byte
	le.PutUint64(buf[:], 2)
	f.Write(buf[:])
	kind := Uint64s{}
	bw := bufio.NewWriter(f)
	for _, v := range []uint64{5, 6, 7, 8} {
		kind.Encode(bw, v)
	}
	bw.Flush()
	f.Close()

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	rr, err := CountHeader{}.NewReader(bufio.NewReader(in), kind)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err = rr.Read(); err != nil {
			t.Fatalf("read %d: %s", i, err)
		}
	}
	if _, err = rr.Read(); err != io.EOF {
		t.Fatalf("expected io.EOF after the declared count, got %v", err)
	}
}

func TestCountHeaderTruncatedStream(t *testing.T) {
	dir, err := os.MkdirTemp("", "filesort")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	// header says 5, stream holds 1
	path := filepath.Join(dir, "trunc.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	var buf [8]byte
	le.PutUint64(buf[:], 5)
	f.Write(buf[:])
	le.PutUint64(buf[:], 42)
	f.Write(buf[:])
	f.Close()

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	rr, err := CountHeader{}.NewReader(bufio.NewReader(in), Uint64s{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = rr.Read(); err != nil {
		t.Fatal(err)
	}
	if _, err = rr.Read(); err == nil || err == io.EOF {
		t.Fatalf("truncated stream must be an error, got %v", err)
	}
}

func TestCountHeaderNeedsSeeker(t *testing.T) {
	bw := bufio.NewWriter(io.Discard)
	if _, err := (CountHeader{}).NewWriter(bw, nil, Uint64s{}); err == nil {
		t.Fatal("a nil seeker must be rejected")
	}
}
