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
	"math/rand"
	"testing"
)

func intLess(a, b Record) bool {
	return a.(int) < b.(int)
}

func checkSorted(t *testing.T, data []Record, less LessFunc, name string) {
	t.Helper()
	for i := 1; i < len(data); i++ {
		if less(data[i], data[i-1]) {
			t.Fatalf("%s: data[%d] orders before data[%d]", name, i, i-1)
		}
	}
}

func TestIntrosort(t *testing.T) {
	const n = 5000

	inputs := map[string]func(i int) int{
		"sorted":   func(i int) int { return i },
		"reversed": func(i int) int { return n - i },
		"equal":    func(i int) int { return 42 },
	}

	for name, gen := range inputs {
		data := make([]Record, n)
		for i := range data {
			data[i] = gen(i)
		}
		introsort(data, intLess, 0, len(data), nil, newPivotRand())
		checkSorted(t, data, intLess, name)
	}

	rng := rand.New(rand.NewSource(1))
	data := make([]Record, n)
	counts := make(map[int]int, n)
	for i := range data {
		v := rng.Intn(1000)
		data[i] = v
		counts[v]++
	}
	introsort(data, intLess, 0, len(data), nil, newPivotRand())
	checkSorted(t, data, intLess, "random")
	for _, rec := range data {
		counts[rec.(int)]--
	}
	for v, c := range counts {
		if c != 0 {
			t.Fatalf("random: value %d count off by %d", v, c)
		}
	}
}

func TestIntrosortRange(t *testing.T) {
	data := make([]Record, 100)
	for i := range data {
		data[i] = 100 - i
	}
	// only [20, 80) must be touched
	introsort(data, intLess, 20, 80, nil, newPivotRand())
	checkSorted(t, data[20:80], intLess, "subrange")
	for i := 0; i < 20; i++ {
		if data[i].(int) != 100-i {
			t.Fatalf("data[%d] outside the range was modified", i)
		}
	}
	for i := 80; i < 100; i++ {
		if data[i].(int) != 100-i {
			t.Fatalf("data[%d] outside the range was modified", i)
		}
	}
}

func TestIntrosortSmall(t *testing.T) {
	for n := 0; n < insertionCutoff+2; n++ {
		data := make([]Record, n)
		for i := range data {
			data[i] = n - i
		}
		introsort(data, intLess, 0, n, nil, newPivotRand())
		checkSorted(t, data, intLess, "small")
	}
}

func TestIntrosortExpiredDeadline(t *testing.T) {
	data := make([]Record, 1000)
	for i := range data {
		data[i] = 1000 - i
	}
	dl := NewDeadline(0, 1)
	dl.expire()
	// must return promptly without sorting
	introsort(data, intLess, 0, len(data), dl, newPivotRand())
	if !dl.Expired() {
		t.Fatal("deadline should stay expired")
	}
}
