// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cellin

import (
	"github.com/cpmech/gosl/chk"

	"cellsim/model"
	"cellsim/sim"
)

// overrideByName copies base, then overwrites entries named in values
// against names, failing if a name is unknown.
func overrideByName(base []float64, names []string, values map[string]float64) ([]float64, error) {
	out := append([]float64(nil), base...)
	for k, v := range values {
		idx := -1
		for i, n := range names {
			if n == k {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, chk.Err("cellin: unknown variable %q", k)
		}
		out[idx] = v
	}
	return out, nil
}

// BuildInitArgs resolves d against tmpl's Names and returns the
// sim.InitArgs the CLI hands to a Simulation. BoundOut/Cancel/Warn/
// Benchmarker are left for the caller to attach.
func (d *Data) BuildInitArgs(tmpl model.Template) (sim.InitArgs, error) {
	names := tmpl.Names()

	literals, err := overrideByName(tmpl.DefaultLiterals(), names.Literal, d.Literals)
	if err != nil {
		return sim.InitArgs{}, err
	}
	parameters, err := overrideByName(tmpl.DefaultParameters(), names.Parameter, d.Parameters)
	if err != nil {
		return sim.InitArgs{}, err
	}
	states, err := overrideByName(tmpl.DefaultStates(), names.State, d.States)
	if err != nil {
		return sim.InitArgs{}, err
	}

	args := sim.InitArgs{
		Tmin:        d.Tmin,
		Tmax:        d.Tmax,
		State:       states,
		Literals:    literals,
		Parameters:  parameters,
		Protocols:   d.Protocols,
		LogInterval: d.LogInterval,
		LogTimes:    d.LogTimes,
		RFIndex:     -1,
		Tmpl:        tmpl,
		IsODE:       d.IsODE,
	}

	if len(d.Log) > 0 {
		args.Log = make(model.Log, len(d.Log))
		for _, spec := range d.Log {
			if !resolveAny(names, spec.Name) {
				return sim.InitArgs{}, chk.Err("cellin: unknown logged variable %q", spec.Name)
			}
			args.Log[spec.Name] = &model.SliceSink{}
		}
	}
	if d.SensList {
		args.SensList = &model.SliceMatrixSink{}
	}

	if d.RootFinding != nil {
		idx := indexOf(names.State, d.RootFinding.State)
		if idx < 0 {
			return sim.InitArgs{}, chk.Err("cellin: root finding state %q is not a state variable", d.RootFinding.State)
		}
		args.RFIndex = idx
		args.RFThreshold = d.RootFinding.Threshold
		args.RFList = &sim.SliceRootSink{}
	}

	if len(d.Sensitivities) > 0 {
		args.SensIndependents = make([]model.Independent, len(d.Sensitivities))
		args.SensIsParameter = make([]bool, len(d.Sensitivities))
		args.SState = make([][]float64, len(d.Sensitivities))
		for i, sp := range d.Sensitivities {
			var idx int
			if sp.Parameter {
				idx = indexOf(names.Parameter, sp.Name)
				if idx < 0 {
					return sim.InitArgs{}, chk.Err("cellin: unknown sensitivity parameter %q", sp.Name)
				}
				args.SensIndependents[i] = model.Independent{Group: model.GroupParameter, Index: idx}
			} else {
				idx = indexOf(names.State, sp.Name)
				if idx < 0 {
					return sim.InitArgs{}, chk.Err("cellin: unknown sensitivity state %q", sp.Name)
				}
				args.SensIndependents[i] = model.Independent{Group: model.GroupInitialState, Index: idx}
			}
			args.SensIsParameter[i] = sp.Parameter
			args.SState[i] = make([]float64, len(states))
			if !sp.Parameter {
				args.SState[i][idx] = 1
			}
		}
	}

	return args, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// resolveAny reports whether name resolves against any of tmpl's variable
// groups, without needing model.Model's own private resolver.
func resolveAny(names *model.Names, name string) bool {
	groups := [][]string{names.State, names.Derivative, names.Bound, names.Intermediary, names.Literal, names.LiteralDerived, names.Parameter, names.ParameterDerived}
	for _, g := range groups {
		if indexOf(g, name) >= 0 {
			return true
		}
	}
	return false
}
