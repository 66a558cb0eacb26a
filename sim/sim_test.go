// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"cellsim/model"
	"cellsim/model/lrdemo"
	"cellsim/pacing"
)

func stimulusProtocol() *pacing.Protocol {
	return &pacing.Protocol{
		Kind: pacing.KindEvent,
		Events: []pacing.EventSpec{
			{Start: 5, Duration: 2, Period: 500, Multiplier: 0, Level: 1},
		},
	}
}

func Test_simulation_runs_to_completion_with_periodic_logging(tst *testing.T) {
	chk.PrintTitle("simulation_runs_to_completion_with_periodic_logging")

	tmpl := lrdemo.New()
	vLog := &model.SliceSink{}

	var s Simulation
	args := InitArgs{
		Tmin:        0,
		Tmax:        50,
		State:       append([]float64(nil), tmpl.DefaultStates()...),
		Protocols:   []*pacing.Protocol{stimulusProtocol()},
		Log:         model.Log{"membrane.V": vLog},
		LogInterval: 1,
		RFIndex:     -1,
		Tmpl:        tmpl,
		IsODE:       true,
	}
	if err := s.Init(args); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	for {
		_, done, err := s.Step()
		if err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
		if done {
			break
		}
	}

	if s.NumberOfSteps() == 0 {
		tst.Fatalf("expected at least one accepted integrator step")
	}
	// tmin=0, tmax=50, log_interval=1 logs exactly t=0..49: the half-open
	// interval excludes the terminal point t=50 (spec §4.4/§8 scenario 1).
	if len(vLog.Values) != 50 {
		tst.Fatalf("expected exactly 50 logged samples (t=0..49), got %d", len(vLog.Values))
	}
	chk.Scalar(tst, "resting potential before stimulus", 1e-9, vLog.Values[0], -84)
}

// runWithLogInterval drives a full simulation with the given log_interval
// (0 disables periodic logging, falling back to dynamic mode) and returns
// the accepted-step count.
func runWithLogInterval(tst *testing.T, logInterval float64) int {
	tmpl := lrdemo.New()
	var s Simulation
	args := InitArgs{
		Tmin:        0,
		Tmax:        30,
		State:       append([]float64(nil), tmpl.DefaultStates()...),
		Protocols:   []*pacing.Protocol{stimulusProtocol()},
		LogInterval: logInterval,
		RFIndex:     -1,
		Tmpl:        tmpl,
		IsODE:       true,
	}
	if logInterval > 0 {
		args.Log = model.Log{"membrane.V": &model.SliceSink{}}
	}
	if err := s.Init(args); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	for {
		_, done, err := s.Step()
		if err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
		if done {
			break
		}
	}
	return s.NumberOfSteps()
}

// Test_simulation_step_count_independent_of_log_density is a regression
// test for spec §8 scenario 3: once log points are recovered by dense
// output instead of clamping the integrator's step horizon, the accepted
// step count no longer depends on log_interval density.
func Test_simulation_step_count_independent_of_log_density(tst *testing.T) {
	chk.PrintTitle("simulation_step_count_independent_of_log_density")

	sparse := runWithLogInterval(tst, 5)
	dense := runWithLogInterval(tst, 0.01)
	dynamic := runWithLogInterval(tst, 0)

	if sparse != dense || sparse != dynamic {
		tst.Fatalf("expected step count unaffected by log density: sparse=%d dense=%d dynamic=%d", sparse, dense, dynamic)
	}
}

func Test_simulation_periodic_logging_excludes_terminal_point(tst *testing.T) {
	chk.PrintTitle("simulation_periodic_logging_excludes_terminal_point")

	tmpl := lrdemo.New()
	vLog := &model.SliceSink{}

	var s Simulation
	args := InitArgs{
		Tmin:        0,
		Tmax:        10,
		State:       append([]float64(nil), tmpl.DefaultStates()...),
		Protocols:   []*pacing.Protocol{stimulusProtocol()},
		Log:         model.Log{"membrane.V": vLog},
		LogInterval: 1,
		RFIndex:     -1,
		Tmpl:        tmpl,
		IsODE:       true,
	}
	if err := s.Init(args); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	for {
		_, done, err := s.Step()
		if err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
		if done {
			break
		}
	}

	// t=0,1,...,9: 10 samples, never t=10 (the half-open terminal exclusion
	// this is a regression test for).
	if len(vLog.Values) != 10 {
		tst.Fatalf("expected exactly 10 logged samples (t=0..9), got %d", len(vLog.Values))
	}
}

func Test_simulation_detects_root_crossing(tst *testing.T) {
	chk.PrintTitle("simulation_detects_root_crossing")

	tmpl := lrdemo.New()
	roots := &SliceRootSink{}

	var s Simulation
	args := InitArgs{
		Tmin:        0,
		Tmax:        50,
		State:       append([]float64(nil), tmpl.DefaultStates()...),
		Protocols:   []*pacing.Protocol{stimulusProtocol()},
		RFIndex:     lrdemo.RootVariableIndex,
		RFThreshold: 0,
		RFList:      roots,
		Tmpl:        tmpl,
		IsODE:       true,
	}
	if err := s.Init(args); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	for {
		_, done, err := s.Step()
		if err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
		if done {
			break
		}
	}

	if len(roots.Times) == 0 {
		tst.Fatalf("expected at least one membrane.V root crossing during an action potential")
	}
}

func Test_simulation_reuses_sensitivities(tst *testing.T) {
	chk.PrintTitle("simulation_reuses_sensitivities")

	tmpl := lrdemo.New()
	sensLog := &model.SliceMatrixSink{}

	var s Simulation
	args := InitArgs{
		Tmin:      0,
		Tmax:      20,
		State:     append([]float64(nil), tmpl.DefaultStates()...),
		Protocols: []*pacing.Protocol{stimulusProtocol()},
		SensList:  sensLog,
		SensIndependents: []model.Independent{
			{Group: model.GroupParameter, Index: 0},
		},
		SensIsParameter: []bool{true},
		SState:          [][]float64{{0, 0}},
		Tmpl:            tmpl,
		IsODE:           true,
		RFIndex:         -1,
	}
	if err := s.Init(args); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	for {
		_, done, err := s.Step()
		if err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
		if done {
			break
		}
	}

	if len(sensLog.Rows) == 0 {
		tst.Fatalf("expected at least one logged sensitivity row")
	}
}

func Test_simulation_rejects_double_init(tst *testing.T) {
	chk.PrintTitle("simulation_rejects_double_init")

	tmpl := lrdemo.New()
	var s Simulation
	args := InitArgs{
		Tmin: 0, Tmax: 1,
		State:     append([]float64(nil), tmpl.DefaultStates()...),
		Protocols: []*pacing.Protocol{stimulusProtocol()},
		Tmpl:      tmpl,
		IsODE:     true,
		RFIndex:   -1,
	}
	if err := s.Init(args); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if err := s.Init(args); err == nil {
		tst.Fatalf("expected an error re-initializing a live simulation")
	}
}

func Test_eval_derivatives_one_shot(tst *testing.T) {
	chk.PrintTitle("eval_derivatives_one_shot")

	tmpl := lrdemo.New()
	res, err := EvalDerivatives(tmpl, true, model.Bound{Time: 0, Pace: []float64{0}}, tmpl.DefaultStates(), nil, nil)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if len(res.Derivatives) != lrdemo.NStates {
		tst.Fatalf("expected %d derivatives, got %d", lrdemo.NStates, len(res.Derivatives))
	}
	// at rest, with no stimulus, the membrane derivative should be ~0
	chk.Scalar(tst, "dV/dt at rest", 1e-9, res.Derivatives[0], 0)
}
