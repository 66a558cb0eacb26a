// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package pacing implements the event-list and time-series pacing systems
// of spec §3/§4.2, grounded on the teacher's fun.Func / fun.TimeSpace
// contract (inp/func.go): a pacing system is, from the driver's point of
// view, just another time-varying function with a notion of "next
// discontinuity" layered on top.
package pacing

// System is the uniform contract every pacing protocol presents to the
// simulation driver.
type System interface {
	// AdvanceTime moves the internal cursor to t, applying any events up to
	// and including t. Fails with cherr.InvalidPacing if t is earlier than
	// the current cursor.
	AdvanceTime(t float64) error

	// Level returns the level the protocol imposes at time t. Event
	// systems return their cached, piecewise-constant level as of the last
	// AdvanceTime and ignore t; time-series
	// systems interpolate afresh on every call, since their value may
	// change continuously within an integrator step.
	Level(t float64) float64

	// NextTime returns the earliest future time at which Level will
	// change, or +Inf if it never will.
	NextTime() float64
}
