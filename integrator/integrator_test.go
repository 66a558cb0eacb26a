// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package integrator

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

// decay is dy/dt = -y, with the exact solution y(t) = y0*exp(-t).
func decayRHS(t float64, y, dy []float64) error {
	dy[0] = -y[0]
	return nil
}

func Test_integrator_tracks_exponential_decay(tst *testing.T) {
	chk.PrintTitle("integrator_tracks_exponential_decay")

	g := New(Config{Neq: 1, RHS: decayRHS, AbsTol: 1e-8, RelTol: 1e-8, InitStep: 1e-3})
	if err := g.Init(0, []float64{1}, nil); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	for g.T() < 1 {
		if _, _, _, err := g.Advance(1); err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
	}

	want := math.Exp(-g.T())
	chk.Scalar(tst, "y(1)", 1e-3, g.Y()[0], want)
	if g.NumberOfSteps() == 0 {
		tst.Fatalf("expected at least one accepted step")
	}
}

func Test_integrator_dense_output_matches_endpoints(tst *testing.T) {
	chk.PrintTitle("integrator_dense_output_matches_endpoints")

	g := New(Config{Neq: 1, RHS: decayRHS, InitStep: 0.5})
	if err := g.Init(0, []float64{1}, nil); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	tNew, _, _, err := g.Advance(0.5)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	y := make([]float64, 1)
	if err := g.DenseOutput(tNew, y); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "dense output at segment end", 1e-9, y[0], g.Y()[0])
}

// root is y - 0.5, crossed once during decay from y0=1.
func rootAtHalf(t float64, y []float64) float64 {
	return y[0] - 0.5
}

func Test_integrator_detects_root_crossing(tst *testing.T) {
	chk.PrintTitle("integrator_detects_root_crossing")

	g := New(Config{Neq: 1, RHS: decayRHS, Root: rootAtHalf, AbsTol: 1e-9, RelTol: 1e-9, InitStep: 1e-3})
	if err := g.Init(0, []float64{1}, nil); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	found := false
	var direction int
	for g.T() < 2 && !found {
		_, rootFound, dir, err := g.Advance(2)
		if err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
		if rootFound {
			found = true
			direction = dir
		}
	}
	if !found {
		tst.Fatalf("expected a root crossing before t=2 (ln 2 ~= 0.693)")
	}
	if direction != -1 {
		tst.Fatalf("expected a downward crossing, got direction=%d", direction)
	}
}

func Test_integrator_sensitivity_matches_finite_difference(tst *testing.T) {
	chk.PrintTitle("integrator_sensitivity_matches_finite_difference")

	run := func(k float64) float64 {
		rhs := func(t float64, y, dy []float64) error {
			dy[0] = -k * y[0]
			return nil
		}
		g := New(Config{Neq: 1, RHS: rhs, AbsTol: 1e-10, RelTol: 1e-10, InitStep: 1e-3})
		if err := g.Init(0, []float64{1}, nil); err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
		for g.T() < 1 {
			if _, _, _, err := g.Advance(1); err != nil {
				tst.Fatalf("unexpected error: %v", err)
			}
		}
		return g.Y()[0]
	}

	k0 := 1.0
	h := 1e-4
	fdSens := (run(k0+h) - run(k0-h)) / (2 * h)

	dfdp := func(t float64, y []float64, i int, out []float64) {
		out[0] = -y[0]
	}
	rhs := func(t float64, y, dy []float64) error {
		dy[0] = -k0 * y[0]
		return nil
	}
	g := New(Config{
		Neq: 1, RHS: rhs, AbsTol: 1e-10, RelTol: 1e-10, InitStep: 1e-3,
		Sens: &SensConfig{N: 1, DfDp: dfdp, Pbar: []float64{1}},
	})
	if err := g.Init(0, []float64{1}, [][]float64{{0}}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	for g.T() < 1 {
		if _, _, _, err := g.Advance(1); err != nil {
			tst.Fatalf("unexpected error: %v", err)
		}
	}

	chk.Scalar(tst, "analytic-vs-finite-difference sensitivity", 5e-3, g.SY()[0][0], fdSens)
}
