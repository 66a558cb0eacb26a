// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"math"

	"cellsim/cherr"
)

// logMode is the mode selected at init per spec §4.4.
type logMode int

const (
	logDynamic logMode = iota
	logPeriodic
	logPointList
)

// logState tracks which logging point is next due, independent of the
// sampling mode -- interpolated (periodic/point-list) or dynamic
// (integrator-visited times only).
type logState struct {
	mode logMode

	tmin     float64
	interval float64
	ilog     int64 // periodic: next index k, tlog = tmin + k*interval

	times []float64
	idx   int // point-list: index of the next not-yet-logged time

	tlog float64 // next due interpolated-logging time (periodic/point-list only)
}

// selectLogMode implements spec §4.4's table.
func selectLogMode(tmin, tmax, interval float64, times []float64) (*logState, error) {
	st := &logState{}
	switch {
	case interval > 0:
		st.mode = logPeriodic
		st.tmin = tmin
		st.interval = interval
		if tmax+interval == tmax {
			return nil, cherr.New(cherr.LogIntervalTooSmall, "log interval %g is too small relative to tmax=%g: tmax+interval rounds to tmax", interval, tmax)
		}
		st.tlog = tmin
	case len(times) > 0:
		st.mode = logPointList
		prev := math.Inf(-1)
		for _, v := range times {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, cherr.New(cherr.LogTimesNonDecreasing, "log_times must be finite, got %g", v)
			}
			if v < prev {
				return nil, cherr.New(cherr.LogTimesNonDecreasing, "log_times must be non-decreasing")
			}
			prev = v
		}
		st.times = times
		st.tlog = firstOrInf(times)
	default:
		st.mode = logDynamic
	}
	return st, nil
}

func firstOrInf(times []float64) float64 {
	if len(times) == 0 {
		return math.Inf(1)
	}
	return times[0]
}

// Due reports whether the next interpolated logging point is due strictly
// before t. Dynamic mode never has interpolated points.
func (s *logState) Due(t float64) bool {
	if s.mode == logDynamic {
		return false
	}
	return t > s.tlog
}

// Next returns the due time and advances to the following one. The strict
// '>' comparison in Due (rather than '>=') is deliberate: it reproduces the
// source's half-open interval, so a periodic logging point that falls
// exactly on tmax is never logged (spec §9's open question on this point).
func (s *logState) Next() (float64, error) {
	due := s.tlog
	switch s.mode {
	case logPeriodic:
		s.ilog++
		if s.ilog < 0 {
			return 0, cherr.New(cherr.CountOverflow, "periodic logging index overflowed")
		}
		s.tlog = s.tmin + float64(s.ilog)*s.interval
	case logPointList:
		s.idx++
		s.tlog = firstOrInfFrom(s.times, s.idx)
	}
	return due, nil
}

func firstOrInfFrom(times []float64, idx int) float64 {
	if idx >= len(times) {
		return math.Inf(1)
	}
	return times[idx]
}
