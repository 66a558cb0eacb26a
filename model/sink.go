// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Sink is an ordered, append-only sequence of floats; the host's log
// columns and root-finding lists are realised through it.
type Sink interface {
	Append(v float64) error
}

// MatrixSink is an append-only sequence of immutable matrix snapshots; used
// for the sensitivity matrix log (§4.1 log_sensitivity_matrix).
type MatrixSink interface {
	AppendRow(row []float64) error
}

// Log maps a fully-qualified variable name to the sink it is logged into.
type Log map[string]Sink

// SliceSink is the simplest Sink: an in-memory, growable []float64. Hosts
// that only need the final series in memory (tests, the CLI's own CSV
// writer) use this instead of wiring a language-boundary sink.
type SliceSink struct {
	Values []float64
}

// Append implements Sink.
func (s *SliceSink) Append(v float64) error {
	s.Values = append(s.Values, v)
	return nil
}

// SliceMatrixSink is the in-memory MatrixSink counterpart of SliceSink.
type SliceMatrixSink struct {
	Rows [][]float64
}

// AppendRow implements MatrixSink.
func (s *SliceMatrixSink) AppendRow(row []float64) error {
	cp := make([]float64, len(row))
	copy(cp, row)
	s.Rows = append(s.Rows, cp)
	return nil
}
