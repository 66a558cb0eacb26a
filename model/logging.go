// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"sort"

	"github.com/cpmech/gosl/chk"

	"cellsim/cherr"
)

// binding is one resolved (source variable -> sink) entry.
type binding struct {
	fam  Family
	idx  int
	name string
	sink Sink
}

// logState holds the resolved logging bindings for one initialize_logging
// call, ordered by family (states, derivatives, bound, intermediaries, ...)
// as required by spec §3's Model invariants, irrespective of the order
// keys appear in the caller's map.
type logState struct {
	bindings     []binding
	hasDeriv     bool
	hasBound     bool
	hasInter     bool
}

// InitializeLogging resolves every key in log against the Model's known
// variable names and records the bindings. Fails with a Kind-tagged error
// if any key is unresolved.
func (m *Model) InitializeLogging(log Log) error {
	names := m.tmpl.Names()
	keys := make([]string, 0, len(log))
	for k := range log {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	st := &logState{}
	for _, k := range keys {
		fam, idx, ok := names.resolve(k)
		if !ok {
			return cherr.New(cherr.UnknownLoggedVariable, "unknown logged variable %q", k)
		}
		st.bindings = append(st.bindings, binding{fam: fam, idx: idx, name: k, sink: log[k]})
		switch fam {
		case FamilyDerivative:
			st.hasDeriv = true
		case FamilyBound:
			st.hasBound = true
		case FamilyIntermediary:
			st.hasInter = true
		}
	}
	// stable re-order by family so that bindings group states, derivatives,
	// bound and intermediaries together, per spec §3's invariant on binding
	// order; within a family, bindings keep the key-name order of the first
	// sort.
	sort.SliceStable(st.bindings, func(i, j int) bool { return st.bindings[i].fam < st.bindings[j].fam })
	m.log = st
	return nil
}

// NeedsDerivativesForLogging reports whether any logged variable requires
// evaluate_derivatives to have run before log() is called -- i.e. whether
// derivatives, bound-refreshing intermediaries, or sensitivities are
// logged. Bound variables alone do not require an RHS evaluation.
func (m *Model) NeedsDerivativesForLogging() bool {
	if m.log == nil {
		return false
	}
	return m.log.hasDeriv || m.log.hasInter || m.HasSensitivities
}

// Log appends the current value of every bound source to its sink, in
// binding order (grouped by family, then by key name).
func (m *Model) Log() error {
	if m.log == nil {
		return nil
	}
	for _, b := range m.log.bindings {
		v := m.value(b)
		if err := b.sink.Append(v); err != nil {
			return chk.Err("log append failed for %q: %v", b.name, err)
		}
	}
	return nil
}

func (m *Model) value(b binding) float64 {
	switch b.fam {
	case FamilyState:
		return m.States[b.idx]
	case FamilyDerivative:
		return m.Derivatives[b.idx]
	case FamilyBound:
		return m.boundValue(b.idx)
	case FamilyIntermediary:
		return m.Intermediary[b.idx]
	case FamilyLiteral:
		return m.Literals[b.idx]
	case FamilyLiteralDerived:
		return m.LiteralDerived[b.idx]
	case FamilyParameter:
		return m.Parameters[b.idx]
	default:
		return m.ParameterDerived[b.idx]
	}
}

// boundValue maps a bound index back to time/pace[.]/realtime/evaluations,
// in the order Names().Bound declares them: [time, pace..., realtime, evaluations].
func (m *Model) boundValue(idx int) float64 {
	if idx == 0 {
		return m.Bound.Time
	}
	nPace := len(m.Bound.Pace)
	if idx-1 < nPace {
		return m.Bound.Pace[idx-1]
	}
	if idx-1 == nPace {
		return m.Bound.Realtime
	}
	return m.Bound.Evaluations
}

// DeinitializeLogging releases the bindings.
func (m *Model) DeinitializeLogging() {
	m.log = nil
}

// LogSensitivityMatrix appends an ns_dependents x ns_independents snapshot
// of the current sensitivity outputs to sink. The "dependents" are the
// intermediary variables registered for sensitivity output, in Template
// declaration order.
func (m *Model) LogSensitivityMatrix(sink MatrixSink) error {
	ni := len(m.Intermediary)
	row := make([]float64, ni*m.NIndependents)
	for i := 0; i < m.NIndependents; i++ {
		copy(row[i*ni:(i+1)*ni], m.SIntermediary[i*ni:(i+1)*ni])
	}
	if err := sink.AppendRow(row); err != nil {
		return chk.Err("sensitivity append failed: %v", err)
	}
	return nil
}
