// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package cherr defines the typed error taxonomy raised by a cellsim simulation.
// Each kind corresponds to exactly one failure mode of the simulation driver;
// the integrator's own diagnostic string, when available, is carried in Detail.
package cherr

import "github.com/cpmech/gosl/io"

// Kind identifies one failure mode of the simulation driver.
type Kind int

const (
	// configuration errors
	AlreadyInitialized Kind = iota
	InvalidArgumentShape
	LogIntervalTooSmall
	LogTimesNonDecreasing
	UnknownLoggedVariable

	// resource errors
	OutOfMemory

	// model-domain errors
	InvalidModel
	InvalidPacing

	// integrator errors
	IntegratorConvergence
	IntegratorSetup
	IntegratorInput
	RhsFailed
	RootFuncFailed

	// runtime errors
	ZeroStepLimit
	CountOverflow
	Cancelled

	// sink errors
	LogAppendFailed
	SensitivityAppendFailed
)

var names = map[Kind]string{
	AlreadyInitialized:      "AlreadyInitialized",
	InvalidArgumentShape:    "InvalidArgumentShape",
	LogIntervalTooSmall:     "LogIntervalTooSmall",
	LogTimesNonDecreasing:   "LogTimesNonDecreasing",
	UnknownLoggedVariable:   "UnknownLoggedVariable",
	OutOfMemory:             "OutOfMemory",
	InvalidModel:            "InvalidModel",
	InvalidPacing:           "InvalidPacing",
	IntegratorConvergence:   "IntegratorConvergence",
	IntegratorSetup:         "IntegratorSetup",
	IntegratorInput:         "IntegratorInput",
	RhsFailed:               "RhsFailed",
	RootFuncFailed:          "RootFuncFailed",
	ZeroStepLimit:           "ZeroStepLimit",
	CountOverflow:           "CountOverflow",
	Cancelled:               "Cancelled",
	LogAppendFailed:         "LogAppendFailed",
	SensitivityAppendFailed: "SensitivityAppendFailed",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UnknownError"
}

// Error is the one error type raised for every failure mode; Kind distinguishes them.
type Error struct {
	Kind    Kind
	Msg     string // formatted, caller-facing message
	Detail  string // wrapped diagnostic, e.g. the integrator's own message
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return io.Sf("%s: %s", e.Kind, e.Msg)
	}
	return io.Sf("%s: %s\n%s", e.Kind, e.Msg, e.Detail)
}

// Unwrap lets errors.Is/As see through to the underlying diagnostic text is
// not a wrapped error itself (Detail is a string, not an error, matching the
// way the integrator reports only text), so Unwrap is intentionally absent.

// New builds a typed error of the given kind with a chk.Err-style formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: io.Sf(format, args...)}
}

// Wrap builds a typed error of the given kind, carrying detail as the
// wrapped integrator/library diagnostic.
func Wrap(kind Kind, detail, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: io.Sf(format, args...), Detail: detail}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
