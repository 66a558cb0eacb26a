// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package cellin implements the .cell JSON configuration file format,
// grounded on gofem's inp.ReadSim / inp.Simulation (inp/sim.go): a single
// struct-tagged Data type decoded wholesale from JSON, with derived fields
// filled in afterwards and defaults applied the same way Solver.SetDefault
// does there.
package cellin

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"cellsim/pacing"
)

// LogSpec names one variable to log and, optionally, a separate output
// file key for it; an empty Key falls back to Name.
type LogSpec struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// SensSpec names one sensitivity independent: either a parameter or an
// initial-state variable, by its fully-qualified Template name.
type SensSpec struct {
	Name      string `json:"name"`
	Parameter bool   `json:"parameter"`
}

// RootFinding configures the single root function of spec §4.3.
type RootFinding struct {
	State     string  `json:"state"`
	Threshold float64 `json:"threshold"`
}

// SolverData mirrors inp.SolverData's JSON-tag style, scoped to the
// integrator's own knobs instead of gofem's FEM solver knobs.
type SolverData struct {
	AbsTol   float64 `json:"atol"`
	RelTol   float64 `json:"rtol"`
	MaxStep  float64 `json:"maxstep"`
	MinStep  float64 `json:"minstep"`
	InitStep float64 `json:"initstep"`
}

// SetDefault fills in the zero-value fields with the driver's own
// defaults, mirroring inp.SolverData.SetDefault.
func (o *SolverData) SetDefault() {
	if o.AbsTol == 0 {
		o.AbsTol = 1e-6
	}
	if o.RelTol == 0 {
		o.RelTol = 1e-4
	}
	if o.InitStep == 0 {
		o.InitStep = 1e-4
	}
}

// Data holds one .cell file's worth of configuration: the JSON document a
// host hands to the cellsim CLI (spec §6's outer surface).
type Data struct {
	Desc   string `json:"desc"`
	DirOut string `json:"dirout"`

	Model string `json:"model"` // registered Template name, e.g. "lrdemo"
	IsODE bool   `json:"isode"`

	Tmin float64 `json:"tmin"`
	Tmax float64 `json:"tmax"`

	Literals   map[string]float64 `json:"literals"`
	Parameters map[string]float64 `json:"parameters"`
	States     map[string]float64 `json:"states"`

	Protocols []*pacing.Protocol `json:"protocols"`

	Log         []LogSpec   `json:"log"`
	LogInterval float64     `json:"loginterval"`
	LogTimes    []float64   `json:"logtimes"`
	SensList    bool        `json:"senslist"`

	RootFinding *RootFinding `json:"rootfinding"`

	Sensitivities []SensSpec `json:"sensitivities"`

	Solver SolverData `json:"solver"`

	// derived
	Key string
}

// Read loads and decodes a .cell file, applying solver defaults the same
// way inp.ReadSim applies SolverData.SetDefault before unmarshalling
// overrides it.
func Read(path string) (*Data, error) {
	b, err := io.ReadFile(path)
	if err != nil {
		return nil, chk.Err("cellin: cannot read configuration file %q: %v", path, err)
	}

	var d Data
	d.Solver.SetDefault()

	if err := json.Unmarshal(b, &d); err != nil {
		return nil, chk.Err("cellin: cannot unmarshal configuration file %q: %v", path, err)
	}

	d.Key = io.FnKey(filepath.Base(path))
	if d.DirOut == "" {
		d.DirOut = filepath.Join(os.TempDir(), "cellsim", d.Key)
	}

	return &d, nil
}

// EnsureDirOut creates DirOut if it does not already exist.
func (d *Data) EnsureDirOut() error {
	if err := os.MkdirAll(d.DirOut, 0755); err != nil {
		return chk.Err("cellin: cannot create output directory %q: %v", d.DirOut, err)
	}
	return nil
}
