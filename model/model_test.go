// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

type stubTemplate struct {
	names *Names
}

func newStubTemplate() *stubTemplate {
	return &stubTemplate{names: &Names{
		State:            []string{"x", "y"},
		Derivative:       []string{"dxdt", "dydt"},
		Bound:            []string{"time", "pace", "realtime", "evaluations"},
		Intermediary:     []string{"sum"},
		Literal:          []string{"a"},
		LiteralDerived:   []string{"a2"},
		Parameter:        []string{"k"},
		ParameterDerived: []string{"k2"},
	}}
}

func (t *stubTemplate) Names() *Names              { return t.names }
func (t *stubTemplate) NPace() int                  { return 1 }
func (t *stubTemplate) DefaultLiterals() []float64  { return []float64{2} }
func (t *stubTemplate) DefaultParameters() []float64 { return []float64{3} }
func (t *stubTemplate) DefaultStates() []float64    { return []float64{1, 0} }

func (t *stubTemplate) EvalLiteralDerived(literals, literalDerived []float64) {
	literalDerived[0] = literals[0] * literals[0]
}

func (t *stubTemplate) EvalParameterDerived(literals, literalDerived, parameters, parameterDerived []float64) {
	parameterDerived[0] = parameters[0] * parameters[0]
}

func (t *stubTemplate) EvalDerivatives(bound Bound, states, literals, literalDerived, parameters, parameterDerived, intermediary, derivatives []float64) {
	intermediary[0] = states[0] + states[1]
	derivatives[0] = parameters[0] * bound.Pace[0]
	derivatives[1] = literalDerived[0]
}

func (t *stubTemplate) EvalSensitivityOutputs(bound Bound, states, sStates, literals, literalDerived, parameters, parameterDerived, intermediary, sIntermediary []float64) {
	sIntermediary[0] = sStates[0] + sStates[1]
}

func Test_model_defaults(tst *testing.T) {
	chk.PrintTitle("model_defaults")

	m := New(newStubTemplate(), true)
	chk.Scalar(tst, "state[0]", 1e-15, m.States[0], 1)
	chk.Scalar(tst, "state[1]", 1e-15, m.States[1], 0)
	chk.Scalar(tst, "literal[0]", 1e-15, m.Literals[0], 2)
	chk.Scalar(tst, "parameter[0]", 1e-15, m.Parameters[0], 3)
}

func Test_model_derived_recompute_on_change(tst *testing.T) {
	chk.PrintTitle("model_derived_recompute_on_change")

	m := New(newStubTemplate(), true)
	if err := m.SetLiteralVariables([]float64{2}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "literalDerived unchanged", 1e-15, m.LiteralDerived[0], 0)

	if err := m.SetLiteralVariables([]float64{5}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "literalDerived recomputed", 1e-15, m.LiteralDerived[0], 25)
	chk.Scalar(tst, "parameterDerived recomputed", 1e-15, m.ParameterDerived[0], 9)
}

func Test_model_evaluate_derivatives(tst *testing.T) {
	chk.PrintTitle("model_evaluate_derivatives")

	m := New(newStubTemplate(), true)
	m.EvaluateLiteralDerived()
	m.EvaluateParameterDerived()
	m.SetBoundVariables(0, []float64{4}, 0, 0)
	m.EvaluateDerivatives()

	chk.Scalar(tst, "intermediary[0]", 1e-15, m.Intermediary[0], 1)
	chk.Scalar(tst, "derivatives[0]", 1e-15, m.Derivatives[0], 12)
	chk.Scalar(tst, "derivatives[1]", 1e-15, m.Derivatives[1], 4)
}

func Test_model_logging_groups_by_family(tst *testing.T) {
	chk.PrintTitle("model_logging_groups_by_family")

	m := New(newStubTemplate(), true)
	m.EvaluateLiteralDerived()
	m.EvaluateParameterDerived()
	m.SetBoundVariables(1.5, []float64{4}, 9, 2)
	m.EvaluateDerivatives()

	xSink := &SliceSink{}
	timeSink := &SliceSink{}
	dxSink := &SliceSink{}
	log := Log{"y": xSink, "time": timeSink, "dxdt": dxSink}
	if err := m.InitializeLogging(log); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if !m.NeedsDerivativesForLogging() {
		tst.Fatalf("expected derivatives to be required for logging")
	}
	if err := m.Log(); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	chk.Scalar(tst, "y logged", 1e-15, xSink.Values[0], m.States[1])
	chk.Scalar(tst, "time logged", 1e-15, timeSink.Values[0], 1.5)
	chk.Scalar(tst, "dxdt logged", 1e-15, dxSink.Values[0], m.Derivatives[0])
}

func Test_model_sensitivities(tst *testing.T) {
	chk.PrintTitle("model_sensitivities")

	m := New(newStubTemplate(), true)
	err := m.SetupSensitivities([]Independent{{Group: GroupInitialState, Index: 0}}, []bool{false})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if err := m.SetStateSensitivities(0, []float64{1, 0}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	m.SetBoundVariables(0, []float64{0}, 0, 0)
	m.EvaluateSensitivityOutputs()
	chk.Scalar(tst, "sIntermediary[0]", 1e-15, m.SIntermediary[0], 1)
	chk.Scalar(tst, "independent value", 1e-15, m.IndependentValue(0), m.States[0])
}
