// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pacing

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_event_periodic_pulses(tst *testing.T) {
	chk.PrintTitle("event_periodic_pulses")

	e, err := NewEvent([]EventSpec{
		{Start: 10, Duration: 1, Period: 100, Multiplier: 0, Level: 1},
	})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	if err := e.AdvanceTime(0); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "level before onset", 1e-15, e.Level(0), 0)

	if err := e.AdvanceTime(10.5); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "level during pulse", 1e-15, e.Level(10.5), 1)

	if err := e.AdvanceTime(11); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "level after pulse ends", 1e-15, e.Level(11), 0)

	if err := e.AdvanceTime(110.5); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "level at second pulse", 1e-15, e.Level(110.5), 1)
}

func Test_event_rejects_backward_time(tst *testing.T) {
	chk.PrintTitle("event_rejects_backward_time")

	e, err := NewEvent([]EventSpec{{Start: 0, Duration: 1, Period: 10, Level: 1}})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if err := e.AdvanceTime(5); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if err := e.AdvanceTime(1); err == nil {
		tst.Fatalf("expected an error advancing to an earlier time")
	}
}

func Test_event_invalid_duration(tst *testing.T) {
	chk.PrintTitle("event_invalid_duration")

	if _, err := NewEvent([]EventSpec{{Start: 0, Duration: 0, Period: 10, Level: 1}}); err == nil {
		tst.Fatalf("expected an error for zero duration")
	}
	if _, err := NewEvent([]EventSpec{{Start: 0, Duration: 20, Period: 10, Level: 1}}); err == nil {
		tst.Fatalf("expected an error for duration exceeding period")
	}
}

func Test_timeseries_interpolation(tst *testing.T) {
	chk.PrintTitle("timeseries_interpolation")

	ts, err := NewTimeSeries([]float64{0, 1, 2}, []float64{0, 10, 0})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "midpoint", 1e-15, ts.Level(0.5), 5)
	chk.Scalar(tst, "before range clamps", 1e-15, ts.Level(-1), 0)
	chk.Scalar(tst, "after range clamps", 1e-15, ts.Level(5), 0)
	if !math.IsInf(ts.NextTime(), 1) {
		tst.Fatalf("expected NextTime to be +Inf for a time-series protocol")
	}
}

func Test_timeseries_requires_sorted_times(tst *testing.T) {
	chk.PrintTitle("timeseries_requires_sorted_times")

	if _, err := NewTimeSeries([]float64{1, 0}, []float64{0, 1}); err == nil {
		tst.Fatalf("expected an error for non-sorted times")
	}
}

func Test_protocol_build_dispatches_on_kind(tst *testing.T) {
	chk.PrintTitle("protocol_build_dispatches_on_kind")

	p := &Protocol{Kind: KindTimeSeries, Times: []float64{0, 1}, Values: []float64{1, 2}}
	sys, err := p.Build()
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sys.(*TimeSeries); !ok {
		tst.Fatalf("expected a *TimeSeries system")
	}
}
