// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"cellsim/model"
	"cellsim/pacing"
)

// RootSink receives (time, direction) pairs from root-crossing detection
// (spec §4.3 step 4, rf_list).
type RootSink interface {
	AppendRoot(t float64, direction int) error
}

// SliceRootSink is the in-memory RootSink used by tests and the CLI.
type SliceRootSink struct {
	Times      []float64
	Directions []int
}

// AppendRoot implements RootSink.
func (s *SliceRootSink) AppendRoot(t float64, direction int) error {
	s.Times = append(s.Times, t)
	s.Directions = append(s.Directions, direction)
	return nil
}

// CancelFunc consults the host's signal facility; returning true means a
// cancellation is pending (spec §4.3 step 10, §5).
type CancelFunc func() bool

// WarnFunc surfaces integrator warnings (non-negative codes) through the
// host's warning facility rather than raising (spec §7).
type WarnFunc func(msg string)

// Benchmarker is the out-of-scope wall-clock wrapper collaborator (spec
// §1); the driver calls it around the two coarse phases it knows about.
type Benchmarker interface {
	Mark(label string)
}

// InitArgs is the full argument set of the host-callable init operation
// (spec §6).
type InitArgs struct {
	Tmin, Tmax float64

	// State is mutated in place: on entry it holds the initial state, on
	// exit (success or error) it holds the final/last state -- the host
	// recovers results by reading back the same slice it supplied.
	State []float64

	// SState is the per-independent initial-state-sensitivity matrix,
	// mutated in place the same way as State.
	SState [][]float64

	// BoundOut receives exactly one appended value per entry (time,
	// pace[0..n_pace), realtime, evaluations) on error or at completion.
	BoundOut []model.Sink

	Literals   []float64
	Parameters []float64

	Protocols []*pacing.Protocol

	Log         model.Log
	LogInterval float64
	LogTimes    []float64 // nil/empty => not point-list mode

	SensList model.MatrixSink // nil disables sensitivity-matrix logging

	RFIndex     int // state index for root finding; < 0 disables
	RFThreshold float64
	RFList      RootSink

	Benchmarker Benchmarker
	LogRealtime bool

	Tmpl  model.Template
	IsODE bool

	SensIndependents []model.Independent
	SensIsParameter  []bool

	Cancel CancelFunc
	Warn   WarnFunc
}
