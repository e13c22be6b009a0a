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

import "os"

// tempRegistry tracks every temporary file owned by one sort
// invocation. Runs enter when created and leave when consumed by a
// merge or promoted to the final output. Only the driver goroutine
// touches it.
type tempRegistry struct {
	paths map[string]struct{}
}

func newTempRegistry() *tempRegistry {
	return &tempRegistry{paths: make(map[string]struct{})}
}

func (t *tempRegistry) add(path string) {
	t.paths[path] = struct{}{}
}

// discard deletes a consumed run and drops it from the registry.
func (t *tempRegistry) discard(path string) {
	os.Remove(path)
	delete(t.paths, path)
}

// release drops a path without deleting the file, used when the last
// run becomes the output.
func (t *tempRegistry) release(path string) {
	delete(t.paths, path)
}

// removeAll deletes every remaining temporary file, best effort. Called
// on any non-success exit.
func (t *tempRegistry) removeAll() {
	for path := range t.paths {
		os.Remove(path)
	}
	t.paths = make(map[string]struct{})
}
