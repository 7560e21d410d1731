// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"io"
	"log"
	"time"
)

// Log prints tool progress messages prefixed by the time elapsed since the
// log was created. A log without output discards all messages.
type Log struct {
	start  time.Time
	logger *log.Logger
}

// NewLog creates a log writing to out, or a silent log if out is nil.
func NewLog(out io.Writer) *Log {
	if out == nil {
		out = io.Discard
	}
	return &Log{start: time.Now(), logger: log.New(out, "", 0)}
}

func (l *Log) elapsed() string {
	t := uint64(time.Since(l.start).Seconds())
	return fmt.Sprintf("[t=%4d:%02d]", t/60, t%60)
}

// Printf logs a formatted message.
func (l *Log) Printf(format string, v ...any) {
	l.logger.Printf("%s - %s\n", l.elapsed(), fmt.Sprintf(format, v...))
}

// Progress counts processed items of a named task and reports the count
// and the rate every window items.
type Progress struct {
	log     *Log
	task    string
	window  int
	started time.Time
	last    time.Time
	total   int
	pending int
}

// NewProgress starts tracking a task.
func (l *Log) NewProgress(task string, window int) *Progress {
	now := time.Now()
	return &Progress{log: l, task: task, window: max(window, 1), started: now, last: now}
}

// Step records the given number of processed items.
func (p *Progress) Step(items int) {
	p.total += items
	p.pending += items
	if p.pending < p.window {
		return
	}
	now := time.Now()
	p.log.Printf("%s: %d items, %.2f items/s", p.task, p.total, float64(p.pending)/now.Sub(p.last).Seconds())
	p.pending = 0
	p.last = now
}

// Done reports the total number of items and the overall duration.
func (p *Progress) Done() {
	p.log.Printf("%s: done, %d items in %v", p.task, p.total, time.Since(p.started).Round(time.Millisecond))
}

// Total returns the number of items processed so far.
func (p *Progress) Total() int {
	return p.total
}
