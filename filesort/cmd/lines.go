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
	"os"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/filesort"
	"github.com/spf13/cobra"
)

// linesCmd represents the text mode
var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "sort a text file of newline-terminated records",
	Long: `sort a text file of newline-terminated records

Records are compared bytewise. Gzip-compressed input is detected and
decompressed into the tmp dir before sorting, the output is always
plain text.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		sopt := getSortOptions(cmd)
		defer sopt.cleanup()

		input, owned, err := plainInputFile(sopt.input, sopt.tmpDir)
		checkError(err)
		if owned {
			defer os.Remove(input)
		}

		if opt.Verbose {
			log.Infof("sorting %s (workers: %d, max-memory: %s, tmp-dir: %s)",
				sopt.input, sopt.workers, humanize.Bytes(sopt.maxMemory), sopt.tmpDir)
		}

		checkError(filesort.Sort(filesort.Lines{}, filesort.Plain{}, filesort.Options{
			InputPath:        input,
			OutputPath:       sopt.output,
			TmpDir:           sopt.tmpDir,
			Workers:          sopt.workers,
			MaxFiles:         defaultMaxFiles,
			MemoryBudget:     int64(sopt.maxMemory),
			BlockSize:        defaultBlockSize,
			RemoveDuplicates: sopt.unique,
		}))

		if opt.Verbose {
			log.Infof("saved to %s", sopt.output)
		}
	},
}

func init() {
	RootCmd.AddCommand(linesCmd)
	addSortFlags(linesCmd)
}
