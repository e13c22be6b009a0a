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

import "time"

// Deadline bounds the wall-clock time of one sort invocation. Every
// inner loop of the sort calls Tick at its head and unwinds when it
// returns false. The clock is only consulted every ticksUntilCheck
// calls, so the worst-case over-run is one batch of ticks. Expiry is
// sticky.
//
// A nil *Deadline is the disabled variant: Tick always returns true and
// never reads the clock.
type Deadline struct {
	ticksUntilCheck int64
	budget          time.Duration
	start           time.Time
	ticks           int64
	expired         bool
}

// NewDeadline returns a deadline starting now. ticksUntilCheck below 1
// is treated as 1.
func NewDeadline(budget time.Duration, ticksUntilCheck int64) *Deadline {
	if ticksUntilCheck < 1 {
		ticksUntilCheck = 1
	}
	return &Deadline{
		ticksUntilCheck: ticksUntilCheck,
		budget:          budget,
		start:           time.Now(),
	}
}

// Tick advances the counter and reports whether work may continue.
func (d *Deadline) Tick() bool {
	if d == nil {
		return true
	}
	if d.expired {
		return false
	}
	d.ticks++
	if d.ticks < d.ticksUntilCheck {
		return true
	}
	d.ticks = 0
	if time.Since(d.start) > d.budget {
		d.expired = true
		return false
	}
	return true
}

// Expired reports whether the budget has been exceeded.
func (d *Deadline) Expired() bool {
	return d != nil && d.expired
}

// child returns a copy for one worker: same start and budget, its own
// tick counter, so ticks stay thread-local.
func (d *Deadline) child() *Deadline {
	if d == nil {
		return nil
	}
	return &Deadline{
		ticksUntilCheck: d.ticksUntilCheck,
		budget:          d.budget,
		start:           d.start,
	}
}

// expire marks the deadline expired, used when any worker copy ran out.
func (d *Deadline) expire() {
	if d != nil {
		d.expired = true
	}
}
