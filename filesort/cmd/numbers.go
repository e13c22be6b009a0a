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
	"strconv"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/filesort"
	"github.com/spf13/cobra"
)

// numbersCmd represents the numeric mode
var numbersCmd = &cobra.Command{
	Use:   "numbers",
	Short: "sort a text file of unsigned integers",
	Long: `sort a text file of unsigned integers

Each line holds one non-negative integer. The file is converted to a
binary sibling of 8-byte values, sorted numerically, and converted
back to text. With --header the binary stage carries an 8-byte element
count in front of the values.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		sopt := getSortOptions(cmd)
		defer sopt.cleanup()

		var handler filesort.IOHandler = filesort.Plain{}
		if getFlagBool(cmd, "header") {
			handler = filesort.CountHeader{}
		}

		input, owned, err := plainInputFile(sopt.input, sopt.tmpDir)
		checkError(err)
		if owned {
			defer os.Remove(input)
		}

		binIn := sopt.input + ".binary"
		binOut := sopt.output + ".binary"
		defer os.Remove(binIn)
		defer os.Remove(binOut)

		if opt.Verbose {
			log.Infof("sorting %s (workers: %d, max-memory: %s, tmp-dir: %s)",
				sopt.input, sopt.workers, humanize.Bytes(sopt.maxMemory), sopt.tmpDir)
		}

		checkError(writeBinaryNumbers(input, binIn, handler))

		checkError(filesort.Sort(filesort.Uint64s{}, handler, filesort.Options{
			InputPath:        binIn,
			OutputPath:       binOut,
			TmpDir:           sopt.tmpDir,
			Workers:          sopt.workers,
			MaxFiles:         defaultMaxFiles,
			MemoryBudget:     int64(sopt.maxMemory),
			BlockSize:        defaultBlockSize,
			RemoveDuplicates: sopt.unique,
		}))

		checkError(readBinaryNumbers(binOut, sopt.output, handler))

		if opt.Verbose {
			log.Infof("saved to %s", sopt.output)
		}
	},
}

// writeBinaryNumbers converts a text file of unsigned integers to the
// binary record stream the sort consumes.
func writeBinaryNumbers(src, dst string, handler filesort.IOHandler) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fail to read %s: %s", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("fail to write %s: %s", dst, err)
	}
	defer out.Close()

	bw := bufio.NewWriterSize(out, os.Getpagesize())
	w, err := handler.NewWriter(bw, out, filesort.Uint64s{})
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		value, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return fmt.Errorf("not an unsigned integer: %q", line)
		}
		if err = w.Write(value); err != nil {
			return err
		}
	}
	if err = scanner.Err(); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return err
	}
	return out.Close()
}

// readBinaryNumbers converts a binary record stream back to one
// integer per line.
func readBinaryNumbers(src, dst string, handler filesort.IOHandler) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fail to read %s: %s", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("fail to write %s: %s", dst, err)
	}
	defer out.Close()

	rr, err := handler.NewReader(bufio.NewReaderSize(in, os.Getpagesize()), filesort.Uint64s{})
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(out, os.Getpagesize())
	for {
		rec, err := rr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if _, err = bw.WriteString(strconv.FormatUint(rec.(uint64), 10)); err != nil {
			return err
		}
		if err = bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	return out.Close()
}

func init() {
	RootCmd.AddCommand(numbersCmd)
	addSortFlags(numbersCmd)
	numbersCmd.Flags().BoolP("header", "", false, "store an 8-byte element count in front of the binary values")
}
