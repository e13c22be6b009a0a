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

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gzip "github.com/klauspost/pgzip"
)

// plainInputFile returns a plain version of file. Gzipped inputs are
// decompressed into a temp file under tmpDir, the second return value
// reports whether the caller owns (and should remove) the returned
// path.
func plainInputFile(file string, tmpDir string) (string, bool, error) {
	r, err := os.Open(file)
	if err != nil {
		return "", false, fmt.Errorf("fail to read %s: %s", file, err)
	}
	defer r.Close()

	br := bufio.NewReaderSize(r, os.Getpagesize())
	if gzipped, _ := isGzip(br); !gzipped {
		return file, false, nil
	}

	gr, err := gzip.NewReader(br)
	if err != nil {
		return "", false, fmt.Errorf("fail to create gzip reader for %s: %s", file, err)
	}
	defer gr.Close()

	out, err := os.CreateTemp(tmpDir, filepath.Base(file)+".plain_")
	if err != nil {
		return "", false, fmt.Errorf("fail to create plain copy of %s: %s", file, err)
	}
	bw := bufio.NewWriterSize(out, os.Getpagesize())
	if _, err = io.Copy(bw, gr); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", false, fmt.Errorf("fail to decompress %s: %s", file, err)
	}
	if err = bw.Flush(); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", false, err
	}
	if err = out.Close(); err != nil {
		os.Remove(out.Name())
		return "", false, err
	}
	return out.Name(), true, nil
}

func isGzip(b *bufio.Reader) (bool, error) {
	return checkBytes(b, []byte{0x1f, 0x8b})
}

func checkBytes(b *bufio.Reader, buf []byte) (bool, error) {
	m, err := b.Peek(len(buf))
	if err != nil {
		return false, fmt.Errorf("no content")
	}
	for i := range buf {
		if m[i] != buf[i] {
			return false, nil
		}
	}
	return true, nil
}
