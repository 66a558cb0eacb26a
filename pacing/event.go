// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pacing

import (
	"math"
	"sort"

	"cellsim/cherr"
)

// EventSpec describes one entry of an event-based pacing protocol: a level
// applied for Duration starting at Start, repeating every Period, for
// Multiplier occurrences (0 means repeat forever).
type EventSpec struct {
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	Period     float64 `json:"period"`
	Multiplier float64 `json:"multiplier"`
	Level      float64 `json:"level"`
}

// eventRun is the mutable firing state of one EventSpec.
type eventRun struct {
	spec      EventSpec
	firesLeft float64 // remaining occurrences; < 0 means infinite
	nextStart float64 // time of the next not-yet-applied onset
	active    bool
	endTime   float64 // valid when active: time the current pulse ends
}

// Event is the event-list pacing system of spec §3/§4.2.
type Event struct {
	cursor float64
	level  float64
	runs   []*eventRun
}

// NewEvent builds an Event pacing system from its description. Events are
// kept sorted by start time (events with equal starts stay in the order
// given); when several are active at once, the level of the last one in
// that order applies.
func NewEvent(specs []EventSpec) (*Event, error) {
	runs := make([]*eventRun, len(specs))
	for i, s := range specs {
		if s.Duration <= 0 || s.Duration > s.Period && s.Period > 0 {
			return nil, cherr.New(cherr.InvalidPacing, "event %d: duration must be positive and not exceed period", i)
		}
		firesLeft := -1.0
		if s.Multiplier > 0 {
			firesLeft = s.Multiplier
		}
		runs[i] = &eventRun{spec: s, firesLeft: firesLeft, nextStart: s.Start}
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].spec.Start < runs[j].spec.Start })
	e := &Event{cursor: math.Inf(-1), runs: runs}
	return e, nil
}

// AdvanceTime implements System.
func (e *Event) AdvanceTime(t float64) error {
	if t < e.cursor {
		return cherr.New(cherr.InvalidPacing, "advance_time: t=%g precedes cursor=%g", t, e.cursor)
	}
	for {
		changed := false
		for _, r := range e.runs {
			if !r.active && r.firesLeft != 0 && r.nextStart <= t {
				r.active = true
				r.endTime = r.nextStart + r.spec.Duration
				if r.firesLeft > 0 {
					r.firesLeft--
				}
				if r.spec.Period > 0 {
					r.nextStart += r.spec.Period
				} else {
					r.nextStart = math.Inf(1)
				}
				changed = true
			}
			if r.active && r.endTime <= t {
				r.active = false
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	e.cursor = t
	e.level = e.computeLevel()
	return nil
}

// computeLevel returns the level of the last-listed active run, or 0 if
// none are active.
func (e *Event) computeLevel() float64 {
	level := 0.0
	for _, r := range e.runs {
		if r.active {
			level = r.spec.Level
		}
	}
	return level
}

// Level implements System.
func (e *Event) Level(t float64) float64 { return e.level }

// NextTime implements System.
func (e *Event) NextTime() float64 {
	next := math.Inf(1)
	for _, r := range e.runs {
		if r.active {
			if r.endTime < next {
				next = r.endTime
			}
		} else if r.firesLeft != 0 && r.nextStart < next {
			next = r.nextStart
		}
	}
	return next
}
