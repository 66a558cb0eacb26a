// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package model holds the simulation-wide mutable record (states,
// derivatives, intermediaries, bound inputs, literals, parameters and their
// derived constants, and forward-sensitivity state) together with the
// evaluation routines that keep derived groups consistent. This is the
// "Model" of spec §3/§4.1, grounded on gofem's msolid.Driver + State
// pattern: a Template (cf. msolid.Model) supplies the physics, the Model
// owns all storage and keeps it consistent across calls.
package model

import "github.com/cpmech/gosl/chk"

// IndependentGroup tags which storage a sensitivity independent references.
type IndependentGroup int

const (
	// GroupParameter -- the independent is parameters[index].
	GroupParameter IndependentGroup = iota
	// GroupInitialState -- the independent is states[index]; its initial
	// value is only semantically relevant at t=tmin.
	GroupInitialState
)

// Independent is an ownership-free (group, index) reference into Model's
// own storage, replacing the source's raw pointers (spec §9).
type Independent struct {
	Group IndependentGroup
	Index int
}

// Model is the simulation-wide mutable record described in spec §3.
type Model struct {
	tmpl Template

	IsODE            bool
	HasSensitivities bool

	States      []float64
	Derivatives []float64
	Intermediary []float64

	Bound Bound

	Literals       []float64
	LiteralDerived []float64

	Parameters       []float64
	ParameterDerived []float64

	// forward sensitivities
	NIndependents int
	IsParameter   []bool        // s_is_parameter
	Independents  []Independent // s_independents
	SStates       []float64     // row-major, NIndependents x NStates
	SIntermediary []float64

	log        *logState
}

// New allocates a Model around tmpl with default literals/parameters/states
// and nPace bound pace inputs. Sensitivities are disabled until
// SetupSensitivities is called.
func New(tmpl Template, isODE bool) *Model {
	names := tmpl.Names()
	m := &Model{
		tmpl:             tmpl,
		IsODE:            isODE,
		States:           append([]float64(nil), tmpl.DefaultStates()...),
		Derivatives:      make([]float64, len(names.State)),
		Intermediary:     make([]float64, len(names.Intermediary)),
		Bound:            Bound{Pace: make([]float64, tmpl.NPace())},
		Literals:         append([]float64(nil), tmpl.DefaultLiterals()...),
		LiteralDerived:   make([]float64, len(names.LiteralDerived)),
		Parameters:       append([]float64(nil), tmpl.DefaultParameters()...),
		ParameterDerived: make([]float64, len(names.ParameterDerived)),
	}
	return m
}

// Names exposes the Template's variable names.
func (m *Model) Names() *Names { return m.tmpl.Names() }

// NStates, NIntermediary report the sizes of the two groups the driver
// integrates/recomputes every RHS call.
func (m *Model) NStates() int       { return len(m.States) }
func (m *Model) NIntermediary() int { return len(m.Intermediary) }

// SetLiteralVariables copies values into Literals; if any value changed, it
// recomputes LiteralDerived and ParameterDerived.
func (m *Model) SetLiteralVariables(values []float64) error {
	if len(values) != len(m.Literals) {
		return chk.Err("set_literal_variables: expected %d literals, got %d", len(m.Literals), len(values))
	}
	changed := !equalFloats(m.Literals, values)
	copy(m.Literals, values)
	if changed {
		m.EvaluateLiteralDerived()
		m.EvaluateParameterDerived()
	}
	return nil
}

// SetParameters copies values into Parameters; if any value changed, it
// recomputes ParameterDerived.
func (m *Model) SetParameters(values []float64) error {
	if len(values) != len(m.Parameters) {
		return chk.Err("set_parameters: expected %d parameters, got %d", len(m.Parameters), len(values))
	}
	changed := !equalFloats(m.Parameters, values)
	copy(m.Parameters, values)
	if changed {
		m.EvaluateParameterDerived()
	}
	return nil
}

// SetParametersFromIndependents copies only the entries tagged as parameter
// by IsParameter into Parameters, in their declared order, and recomputes
// ParameterDerived on any change.
func (m *Model) SetParametersFromIndependents(independents []float64) error {
	if len(independents) != m.NIndependents {
		return chk.Err("set_parameters_from_independents: expected %d independents, got %d", m.NIndependents, len(independents))
	}
	changed := false
	for i, isParam := range m.IsParameter {
		if !isParam {
			continue
		}
		ref := m.Independents[i]
		if m.Parameters[ref.Index] != independents[i] {
			changed = true
		}
		m.Parameters[ref.Index] = independents[i]
	}
	if changed {
		m.EvaluateParameterDerived()
	}
	return nil
}

// SetBoundVariables updates the externally driven inputs.
func (m *Model) SetBoundVariables(t float64, pace []float64, realtime, evaluations float64) {
	m.Bound.Time = t
	copy(m.Bound.Pace, pace)
	m.Bound.Realtime = realtime
	m.Bound.Evaluations = evaluations
}

// SetStates copies values into States.
func (m *Model) SetStates(values []float64) error {
	if len(values) != len(m.States) {
		return chk.Err("set_states: expected %d states, got %d", len(m.States), len(values))
	}
	copy(m.States, values)
	return nil
}

// EvaluateLiteralDerived recomputes LiteralDerived from Literals alone.
func (m *Model) EvaluateLiteralDerived() {
	m.tmpl.EvalLiteralDerived(m.Literals, m.LiteralDerived)
}

// EvaluateParameterDerived recomputes ParameterDerived from Literals,
// LiteralDerived and Parameters.
func (m *Model) EvaluateParameterDerived() {
	m.tmpl.EvalParameterDerived(m.Literals, m.LiteralDerived, m.Parameters, m.ParameterDerived)
}

// EvaluateDerivatives computes Intermediary and Derivatives from the
// current (States, Bound, constants) in one pass.
func (m *Model) EvaluateDerivatives() {
	m.tmpl.EvalDerivatives(m.Bound, m.States, m.Literals, m.LiteralDerived, m.Parameters, m.ParameterDerived, m.Intermediary, m.Derivatives)
}

// SetupSensitivities configures the sensitivity independents. isParameter[i]
// true means independents[i] is GroupParameter at the given index; false
// means GroupInitialState at the given index. SStates/SIntermediary are
// (re)allocated to match.
func (m *Model) SetupSensitivities(refs []Independent, isParameter []bool) error {
	if len(refs) != len(isParameter) {
		return chk.Err("setup_sensitivities: refs and isParameter must have the same length")
	}
	m.NIndependents = len(refs)
	m.Independents = append([]Independent(nil), refs...)
	m.IsParameter = append([]bool(nil), isParameter...)
	m.SStates = make([]float64, m.NIndependents*len(m.States))
	m.SIntermediary = make([]float64, m.NIndependents*len(m.Intermediary))
	m.HasSensitivities = m.NIndependents > 0
	return nil
}

// SetStateSensitivities copies values into row i of SStates.
func (m *Model) SetStateSensitivities(i int, values []float64) error {
	if i < 0 || i >= m.NIndependents {
		return chk.Err("set_state_sensitivities: independent index %d out of range [0,%d)", i, m.NIndependents)
	}
	n := len(m.States)
	if len(values) != n {
		return chk.Err("set_state_sensitivities: expected %d states, got %d", n, len(values))
	}
	copy(m.SStates[i*n:(i+1)*n], values)
	return nil
}

// StateSensitivityRow returns row i of SStates (a view, not a copy).
func (m *Model) StateSensitivityRow(i int) []float64 {
	n := len(m.States)
	return m.SStates[i*n : (i+1)*n]
}

// EvaluateSensitivityOutputs computes SIntermediary from SStates and the
// current model state, one independent at a time.
func (m *Model) EvaluateSensitivityOutputs() {
	ni := len(m.Intermediary)
	for i := 0; i < m.NIndependents; i++ {
		m.tmpl.EvalSensitivityOutputs(m.Bound, m.States, m.StateSensitivityRow(i), m.Literals, m.LiteralDerived, m.Parameters, m.ParameterDerived, m.Intermediary, m.SIntermediary[i*ni:(i+1)*ni])
	}
}

// IndependentValue returns the current value of sensitivity independent i,
// looking it up on demand from the group it references -- spec §9's
// "indexed groups" replacement for the source's raw pointers.
func (m *Model) IndependentValue(i int) float64 {
	ref := m.Independents[i]
	switch ref.Group {
	case GroupParameter:
		return m.Parameters[ref.Index]
	default:
		return m.States[ref.Index]
	}
}

func equalFloats(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
