// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package lrdemo is a hand-compiled model.Template standing in for the
// LR1991-like template of spec.md's end-to-end scenarios. It is a reduced
// two-variable (Mitchell-Schaeffer) ionic model rather than the full
// eight-gate Luo-Rudy kinetics: translating a symbolic cell-model
// description into a concrete Template is out of scope (spec §1), and a
// small stand-in is enough to exercise the driver's integration, pacing,
// root-finding and sensitivity machinery end to end.
package lrdemo

import "cellsim/model"

// literal indices
const (
	litVrest = iota
	litVpeak
	litTauIn
	litTauOut
	nLiterals
)

// literal-derived indices
const (
	ldVrange = iota
	nLiteralDerived
)

// parameter indices -- declared as sensitivity independents
const (
	parTauOpen = iota
	parTauClose
	parVgate
	nParameters
)

// state indices
const (
	stV = iota
	stH
	nStates
)

// intermediary indices
const (
	intU = iota
	intIin
	intIout
	nIntermediary
)

// Template implements model.Template for the reduced cardiac model.
type Template struct {
	names *model.Names
}

// New returns the lrdemo Template, with its Names already populated.
func New() *Template {
	return &Template{names: &model.Names{
		State:            []string{"membrane.V", "membrane.h"},
		Derivative:       []string{"membrane.dVdt", "membrane.dhdt"},
		Bound:            []string{"environment.time", "stimulus.pace", "environment.realtime", "environment.evaluations"},
		Intermediary:     []string{"membrane.u", "fast_inward.Iin", "slow_outward.Iout"},
		Literal:          []string{"membrane.Vrest", "membrane.Vpeak", "fast_inward.tau_in", "slow_outward.tau_out"},
		LiteralDerived:   []string{"membrane.Vrange"},
		Parameter:        []string{"gate.tau_open", "gate.tau_close", "gate.v_gate"},
		ParameterDerived: nil,
	}}
}

// Names implements model.Template.
func (t *Template) Names() *model.Names { return t.names }

// NPace implements model.Template -- one pacing channel drives the
// stimulus current.
func (t *Template) NPace() int { return 1 }

// DefaultLiterals implements model.Template.
func (t *Template) DefaultLiterals() []float64 {
	return []float64{-84.0, 20.0, 0.3, 6.0}
}

// DefaultParameters implements model.Template.
func (t *Template) DefaultParameters() []float64 {
	return []float64{120.0, 150.0, 0.13}
}

// DefaultStates implements model.Template -- resting potential, gate open.
func (t *Template) DefaultStates() []float64 {
	return []float64{-84.0, 1.0}
}

// EvalLiteralDerived implements model.Template.
func (t *Template) EvalLiteralDerived(literals, literalDerived []float64) {
	literalDerived[ldVrange] = literals[litVpeak] - literals[litVrest]
}

// EvalParameterDerived implements model.Template -- no parameter-derived
// constants are needed for this model.
func (t *Template) EvalParameterDerived(literals, literalDerived, parameters, parameterDerived []float64) {
}

// stimAmplitude scales the pacing level into a normalised stimulus current;
// kept as a plain constant rather than a literal since it only sets a unit
// convention, not a tunable physical quantity.
const stimAmplitude = 0.5

// EvalDerivatives implements model.Template.
func (t *Template) EvalDerivatives(bound model.Bound, states, literals, literalDerived, parameters, parameterDerived, intermediary, derivatives []float64) {
	vRest := literals[litVrest]
	vRange := literalDerived[ldVrange]
	tauIn := literals[litTauIn]
	tauOut := literals[litTauOut]
	tauOpen := parameters[parTauOpen]
	tauClose := parameters[parTauClose]
	vGate := parameters[parVgate]

	V := states[stV]
	h := states[stH]

	u := (V - vRest) / vRange
	iin := h * u * u * (1 - u) / tauIn
	iout := -u / tauOut

	intermediary[intU] = u
	intermediary[intIin] = iin
	intermediary[intIout] = iout

	stim := stimAmplitude * bound.Pace[0]
	derivatives[stV] = vRange * (iin + iout + stim)
	if u < vGate {
		derivatives[stH] = (1 - h) / tauOpen
	} else {
		derivatives[stH] = -h / tauClose
	}
}

// EvalSensitivityOutputs implements model.Template -- the only sensitivity
// output of interest is dU/dIndependent, the normalised-voltage
// sensitivity, since it tracks the upstroke/repolarisation timing that the
// three gate parameters control.
func (t *Template) EvalSensitivityOutputs(bound model.Bound, states, sStates, literals, literalDerived, parameters, parameterDerived, intermediary, sIntermediary []float64) {
	vRange := literalDerived[ldVrange]
	sIntermediary[intU] = sStates[stV] / vRange
	sIntermediary[intIin] = 0
	sIntermediary[intIout] = 0
}

// RootVariableIndex is the state index conventionally used for the root
// function in scenario 4 (root detection on membrane.V).
const RootVariableIndex = stV

const (
	NStates       = nStates
	NIntermediary = nIntermediary
	NLiterals     = nLiterals
	NParameters   = nParameters
)
