// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package bench is the out-of-scope wall-clock wrapper of spec §1,
// generalising the teacher's FEM.onexit CPU-time report (fem/fem.go) into
// a reusable collaborator any host can hand to a Simulation.
package bench

import (
	"sort"
	"time"

	"github.com/cpmech/gosl/io"
)

// Mark is one named checkpoint, recorded at the wall-clock instant Clock
// reached it.
type Mark struct {
	Label string
	At    time.Duration
}

// Clock implements sim.Benchmarker: it records the elapsed time since
// construction at every Mark call.
type Clock struct {
	start time.Time
	marks []Mark
}

// New starts a Clock running.
func New() *Clock {
	return &Clock{start: time.Now()}
}

// Mark implements sim.Benchmarker.
func (c *Clock) Mark(label string) {
	c.marks = append(c.marks, Mark{Label: label, At: time.Since(c.start)})
}

// Marks returns the recorded checkpoints in recording order.
func (c *Clock) Marks() []Mark {
	return append([]Mark(nil), c.marks...)
}

// Elapsed returns the time since the Clock started.
func (c *Clock) Elapsed() time.Duration {
	return time.Since(c.start)
}

// Report prints a one-line-per-mark summary to stdout, in the teacher's
// io.Pf colored-console style (fem/fem.go's own exit report).
func (c *Clock) Report() {
	io.Pf("\n================ wall-clock marks ================\n")
	last := time.Duration(0)
	for _, m := range c.marks {
		io.Pfyel("  %-24s %12v  (+%v)\n", m.Label, m.At, m.At-last)
		last = m.At
	}
	io.Pf("  %-24s %12v\n", "total", c.Elapsed())
}

// Slowest returns the marks sorted by the interval since the previous
// mark, largest first -- a quick way to spot which phase dominated a run.
func (c *Clock) Slowest() []Mark {
	type scored struct {
		mark     Mark
		interval time.Duration
	}
	scoredMarks := make([]scored, len(c.marks))
	last := time.Duration(0)
	for i, m := range c.marks {
		scoredMarks[i] = scored{mark: m, interval: m.At - last}
		last = m.At
	}
	sort.Slice(scoredMarks, func(i, j int) bool {
		return scoredMarks[i].interval > scoredMarks[j].interval
	})
	out := make([]Mark, len(scoredMarks))
	for i, s := range scoredMarks {
		out[i] = s.mark
	}
	return out
}
