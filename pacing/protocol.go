// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pacing

import "cellsim/cherr"

// Kind tags which System variant a Protocol describes -- the sum-type
// replacement for the source's type-string dispatch (spec §9).
type Kind int

const (
	KindEvent Kind = iota
	KindTimeSeries
)

// Protocol is the opaque, host-supplied description of one pacing system.
// The driver never parses a Protocol itself; it calls Build and uses the
// resulting System.
type Protocol struct {
	Kind   Kind        `json:"kind"`
	Events []EventSpec `json:"events,omitempty"`
	Times  []float64   `json:"times,omitempty"`
	Values []float64   `json:"values,omitempty"`
}

// Build instantiates the System described by p.
func (p *Protocol) Build() (System, error) {
	switch p.Kind {
	case KindEvent:
		return NewEvent(p.Events)
	case KindTimeSeries:
		return NewTimeSeries(p.Times, p.Values)
	default:
		return nil, cherr.New(cherr.InvalidPacing, "protocol: unknown kind %d", p.Kind)
	}
}
