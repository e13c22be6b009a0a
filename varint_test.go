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
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestVarintsRoundTrip(t *testing.T) {
	kind := Varints{}
	values := []uint64{0, 1, 255, 256, 65535, 65536, 1 << 24, 1 << 56, ^uint64(0)}

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	for _, v := range values {
		if err := kind.Encode(bw, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}

	br := bufio.NewReader(&buf)
	for i, v := range values {
		rec, err := kind.Decode(br)
		if err != nil {
			t.Fatalf("decode %d: %s", i, err)
		}
		if rec.(uint64) != v {
			t.Fatalf("decode %d: got %d, want %d", i, rec, v)
		}
	}
	if _, err := kind.Decode(br); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestVarintsWidth(t *testing.T) {
	kind := Varints{}
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	if err := kind.Encode(bw, uint64(5)); err != nil {
		t.Fatal(err)
	}
	bw.Flush()
	// small values take one length byte and one value byte
	if buf.Len() != 2 {
		t.Fatalf("expected 2 bytes for a small value, got %d", buf.Len())
	}
}

func TestVarintsCutShort(t *testing.T) {
	kind := Varints{}
	// length byte promises 4 value bytes, only 1 present
	br := bufio.NewReader(bytes.NewReader([]byte{4, 0xff}))
	if _, err := kind.Decode(br); err == nil || err == io.EOF {
		t.Fatalf("a stream ending inside a record must be a decode error, got %v", err)
	}
}

func TestSortVarints(t *testing.T) {
	dir, tmpDir := testDirs(t)
	input := filepath.Join(dir, "in.bin")
	output := filepath.Join(dir, "out.bin")

	rng := rand.New(rand.NewSource(7))
	const n = 3000
	values := make([]uint64, n)
	for i := range values {
		values[i] = uint64(rng.Intn(1 << 20))
	}
	writeVarints(t, input, values)

	err := Sort(Varints{}, Plain{}, Options{
		InputPath:    input,
		OutputPath:   output,
		TmpDir:       tmpDir,
		Workers:      2,
		MaxFiles:     3,
		MemoryBudget: 8 * 1024,
		BlockSize:    256,
	})
	if err != nil {
		t.Fatal(err)
	}

	got := readVarints(t, output)
	if len(got) != n {
		t.Fatalf("expected %d values, got %d", n, len(got))
	}
	kind := Varints{}
	for i := 1; i < len(got); i++ {
		if kind.Less(got[i], got[i-1]) {
			t.Fatalf("output not sorted at %d", i)
		}
	}
	checkTmpDirEmpty(t, tmpDir)
}

func writeVarints(t *testing.T, path string, values []uint64) {
	t.Helper()
	recs := make([]Record, len(values))
	for i, v := range values {
		recs[i] = v
	}
	pool := newBufPool(1, 4096)
	if err := writeRun(Varints{}, Plain{}, pool, path, recs, nil); err != nil {
		t.Fatal(err)
	}
}

func readVarints(t *testing.T, path string) []uint64 {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	kind := Varints{}
	br := bufio.NewReader(bytes.NewReader(raw))
	var values []uint64
	for {
		rec, err := kind.Decode(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		values = append(values, rec.(uint64))
	}
	return values
}
