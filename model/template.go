// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Bound carries the externally-driven inputs of a single RHS evaluation:
// the current time, the pacing systems' levels, and the two informational
// counters a host may want logged alongside the state.
type Bound struct {
	Time        float64
	Pace        []float64
	Realtime    float64
	Evaluations float64
}

// Template is the model abstraction's external collaborator: a
// pre-generated, language-appropriate evaluator for one concrete cell
// model. Translating a symbolic model description into a Template is out
// of scope here (§1); a Template is simply plugged in.
//
// All methods are synchronous and side-effect-free on the Template itself;
// they only write into the output slices passed to them.
type Template interface {
	// Names returns the fully-qualified names of every variable group.
	Names() *Names

	// NPace returns the number of bound pace inputs the model consumes.
	NPace() int

	// DefaultLiterals, DefaultParameters and DefaultStates give the
	// Template's built-in defaults, used when a host does not override them.
	DefaultLiterals() []float64
	DefaultParameters() []float64
	DefaultStates() []float64

	// EvalLiteralDerived computes literalDerived from literals alone.
	EvalLiteralDerived(literals []float64, literalDerived []float64)

	// EvalParameterDerived computes parameterDerived from literals,
	// literalDerived and parameters.
	EvalParameterDerived(literals, literalDerived, parameters []float64, parameterDerived []float64)

	// EvalDerivatives computes intermediary and derivatives from states,
	// bound and the two derived-constant groups, in a single pass whose
	// evaluation order already respects data dependencies.
	EvalDerivatives(bound Bound, states, literals, literalDerived, parameters, parameterDerived []float64, intermediary, derivatives []float64)

	// EvalSensitivityOutputs computes sIntermediary from the current model
	// state and the sensitivity state matrix row for one independent.
	EvalSensitivityOutputs(bound Bound, states, sStates []float64, literals, literalDerived, parameters, parameterDerived, intermediary []float64, sIntermediary []float64)
}
