// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Names holds the fully-qualified variable names of each group, in the
// order the Template stores them. These are the names the logging
// sub-interface resolves against, and the ones a sensitivity independent is
// declared relative to (parameters or initial states).
type Names struct {
	State           []string
	Derivative      []string
	Bound           []string // time, pace[0..n_pace), realtime, evaluations
	Intermediary    []string
	Literal         []string
	LiteralDerived  []string
	Parameter       []string
	ParameterDerived []string
}

// Family identifies which variable group a resolved name belongs to.
type Family int

const (
	FamilyState Family = iota
	FamilyDerivative
	FamilyBound
	FamilyIntermediary
	FamilyLiteral
	FamilyLiteralDerived
	FamilyParameter
	FamilyParameterDerived
)

// resolve looks up name across every family, in the order states,
// derivatives, bound, intermediaries, literals, literal-derived, parameters,
// parameter-derived -- this is also the order logging bindings are grouped
// in once registered.
func (n *Names) resolve(name string) (fam Family, idx int, ok bool) {
	if i := indexOf(n.State, name); i >= 0 {
		return FamilyState, i, true
	}
	if i := indexOf(n.Derivative, name); i >= 0 {
		return FamilyDerivative, i, true
	}
	if i := indexOf(n.Bound, name); i >= 0 {
		return FamilyBound, i, true
	}
	if i := indexOf(n.Intermediary, name); i >= 0 {
		return FamilyIntermediary, i, true
	}
	if i := indexOf(n.Literal, name); i >= 0 {
		return FamilyLiteral, i, true
	}
	if i := indexOf(n.LiteralDerived, name); i >= 0 {
		return FamilyLiteralDerived, i, true
	}
	if i := indexOf(n.Parameter, name); i >= 0 {
		return FamilyParameter, i, true
	}
	if i := indexOf(n.ParameterDerived, name); i >= 0 {
		return FamilyParameterDerived, i, true
	}
	return 0, 0, false
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
