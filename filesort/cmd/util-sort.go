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
	"fmt"
	"os"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const (
	// defaultMaxFiles is the fan-in of each merge pass.
	defaultMaxFiles = 10

	// defaultBlockSize is the per-run read-ahead budget in bytes.
	defaultBlockSize = 4096

	// fallbackMaxMemory is used when total RAM cannot be detected.
	fallbackMaxMemory = 1000000000
)

type sortOptions struct {
	input         string
	output        string
	tmpDir        string
	tmpDirCreated bool
	maxMemory     uint64
	workers       int
	unique        bool
}

// cleanup removes the tmp dir when this invocation created it.
func (o *sortOptions) cleanup() {
	if o.tmpDirCreated {
		os.RemoveAll(o.tmpDir)
	}
}

func addSortFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input-file", "i", "", "input file to sort (required)")
	cmd.Flags().StringP("output-file", "o", "", "output file (required)")
	cmd.Flags().StringP("tmp-dir", "t", "", "directory for temporary run files (default: fresh directory under the system temp)")
	cmd.Flags().StringP("max-memory", "m", "", `in-memory buffer ceiling, accepts unit suffixes, e.g. "512M", "4G" (default: half of total RAM)`)
	cmd.Flags().IntP("workers", "w", 1, "number of sort workers")
	cmd.Flags().BoolP("unique-values", "u", false, "remove duplicated records")
}

func getSortOptions(cmd *cobra.Command) *sortOptions {
	input := getFlagString(cmd, "input-file")
	if input == "" {
		checkError(fmt.Errorf("flag -i/--input-file needed"))
	}
	output := getFlagString(cmd, "output-file")
	if output == "" {
		checkError(fmt.Errorf("flag -o/--output-file needed"))
	}
	input = expandPath(input)
	output = expandPath(output)
	checkFiles(input)

	tmpDir := getFlagString(cmd, "tmp-dir")
	created := false
	if tmpDir == "" {
		dir, err := os.MkdirTemp(os.TempDir(), "tmpsort_")
		checkError(err)
		tmpDir = dir
		created = true
	} else {
		tmpDir = expandPath(tmpDir)
	}

	var maxMemory uint64
	if value := getFlagString(cmd, "max-memory"); value != "" {
		m, err := humanize.ParseBytes(value)
		checkError(err)
		maxMemory = m
	} else if total := memTotal(); total > 0 {
		maxMemory = total / 2
	} else {
		maxMemory = fallbackMaxMemory
	}

	return &sortOptions{
		input:         input,
		output:        output,
		tmpDir:        tmpDir,
		tmpDirCreated: created,
		maxMemory:     maxMemory,
		workers:       getFlagPositiveInt(cmd, "workers"),
		unique:        getFlagBool(cmd, "unique-values"),
	}
}
