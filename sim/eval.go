// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"cellsim/cherr"
	"cellsim/model"
)

// EvalResult is the one-shot output of EvalDerivatives: the model's
// intermediary and derivative groups at a single point, without running
// any simulation.
type EvalResult struct {
	Intermediary []float64
	Derivatives  []float64
}

// EvalDerivatives implements the host-callable eval_derivatives operation
// of spec §4.5: a single right-hand-side evaluation at the caller's
// (bound, states, literals, parameters), independent of any live
// Simulation. It is the stateless sibling Init/Step/Clean are built
// around -- useful for consistency checks (e.g. verifying a hand-written
// Template against a reference trace) without paying for integrator setup.
func EvalDerivatives(tmpl model.Template, isODE bool, bound model.Bound, states, literals, parameters []float64) (*EvalResult, error) {
	m := model.New(tmpl, isODE)

	if len(states) != m.NStates() {
		return nil, cherr.New(cherr.InvalidArgumentShape, "eval_derivatives: expected %d states, got %d", m.NStates(), len(states))
	}
	if err := m.SetStates(states); err != nil {
		return nil, err
	}
	if literals != nil {
		if err := m.SetLiteralVariables(literals); err != nil {
			return nil, err
		}
	}
	if parameters != nil {
		if err := m.SetParameters(parameters); err != nil {
			return nil, err
		}
	}
	m.EvaluateLiteralDerived()
	m.EvaluateParameterDerived()
	if len(bound.Pace) != tmpl.NPace() {
		return nil, cherr.New(cherr.InvalidArgumentShape, "eval_derivatives: expected %d pace inputs, got %d", tmpl.NPace(), len(bound.Pace))
	}
	m.SetBoundVariables(bound.Time, bound.Pace, bound.Realtime, bound.Evaluations)

	m.EvaluateDerivatives()

	return &EvalResult{
		Intermediary: append([]float64(nil), m.Intermediary...),
		Derivatives:  append([]float64(nil), m.Derivatives...),
	}, nil
}
