// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pacing

import (
	"math"
	"sort"

	"cellsim/cherr"
)

// TimeSeries is the time-series pacing system of spec §3/§4.2: a sorted
// (time, value) table sampled with linear interpolation. It never produces
// discrete events, so NextTime is always +Inf.
type TimeSeries struct {
	times  []float64
	values []float64
	cursor float64
}

// NewTimeSeries builds a TimeSeries pacing system from parallel,
// non-decreasing time/value slices.
func NewTimeSeries(times, values []float64) (*TimeSeries, error) {
	if len(times) != len(values) {
		return nil, cherr.New(cherr.InvalidPacing, "time_series: times and values must have the same length")
	}
	if len(times) == 0 {
		return nil, cherr.New(cherr.InvalidPacing, "time_series: at least one sample required")
	}
	if !sort.Float64sAreSorted(times) {
		return nil, cherr.New(cherr.InvalidPacing, "time_series: times must be non-decreasing")
	}
	return &TimeSeries{times: times, values: values, cursor: math.Inf(-1)}, nil
}

// AdvanceTime implements System -- time-series pacing has no discrete
// events to apply, so this only validates monotonic advancement.
func (s *TimeSeries) AdvanceTime(t float64) error {
	if t < s.cursor {
		return cherr.New(cherr.InvalidPacing, "advance_time: t=%g precedes cursor=%g", t, s.cursor)
	}
	s.cursor = t
	return nil
}

// Level implements System by linearly interpolating the table at t.
func (s *TimeSeries) Level(t float64) float64 {
	return s.LevelAt(t)
}

// LevelAt interpolates the table at t, clamping to the boundary values
// outside the table's range.
func (s *TimeSeries) LevelAt(t float64) float64 {
	n := len(s.times)
	if t <= s.times[0] {
		return s.values[0]
	}
	if t >= s.times[n-1] {
		return s.values[n-1]
	}
	i := sort.SearchFloat64s(s.times, t)
	if s.times[i] == t {
		return s.values[i]
	}
	lo, hi := i-1, i
	frac := (t - s.times[lo]) / (s.times[hi] - s.times[lo])
	return s.values[lo] + frac*(s.values[hi]-s.values[lo])
}

// NextTime implements System -- the value may change at any instant, so
// there is no discrete next event.
func (s *TimeSeries) NextTime() float64 { return math.Inf(1) }
