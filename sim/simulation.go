// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sim implements the simulation driver of spec §4.3/§4.4: the
// component that owns a Model and an Integrator for the lifetime of one
// run, advances pacing, root-finds, logs, and propagates forward
// sensitivities. It is grounded on gofem's fem.FEM / fem/s_linimp.go time
// loop: Init builds the run's fixed state once, Step advances it one
// host-visible increment at a time, and Clean tears it down -- the same
// three-call shape the teacher's solver exposes to main.go.
package sim

import (
	"math"
	"time"

	"cellsim/cherr"
	"cellsim/integrator"
	"cellsim/model"
)

// yieldEvery is the number of internal integrator steps the driver
// processes before returning control to the host even when nothing else
// demands it -- spec §5's cooperative yielding, confirmed against
// myokit_beta/_sim/_cvodessim.c's own per-100-step progress/cancel check.
const yieldEvery = 100

// zeroStepLimit is the number of consecutive steps that make no time
// progress before the driver gives up (spec §7 ZeroStepLimit), grounded on
// the same constant in myokit_beta/_sim/_cvodessim.c.
const zeroStepLimit = 500

// Simulation is one run of the driver: a Model, an Integrator, and the
// pacing/logging state built around them by Init. Only one run may be
// live per Simulation at a time (spec §5).
type Simulation struct {
	initialized bool
	finished    bool

	args InitArgs

	m   *model.Model
	itg *integrator.Integrator

	pacing []pacingBinding

	logS *logState

	start       time.Time
	tLast       float64
	zeroStreak  int
}

type pacingBinding struct {
	sys System
}

// System is re-exported here rather than imported under a second name so
// that callers constructing a Simulation only need cellsim/pacing for
// Protocol, not for the System interface itself.
type System = interface {
	AdvanceTime(t float64) error
	Level(t float64) float64
	NextTime() float64
}

// Init implements the host-callable init operation of spec §6.
func (s *Simulation) Init(args InitArgs) error {
	if s.initialized {
		return cherr.New(cherr.AlreadyInitialized, "init called on an already-initialized simulation")
	}

	m := model.New(args.Tmpl, args.IsODE)

	if len(args.State) != m.NStates() {
		return cherr.New(cherr.InvalidArgumentShape, "init: expected %d states, got %d", m.NStates(), len(args.State))
	}
	if err := m.SetStates(args.State); err != nil {
		return err
	}
	if args.Literals != nil {
		if err := m.SetLiteralVariables(args.Literals); err != nil {
			return err
		}
	}
	if args.Parameters != nil {
		if err := m.SetParameters(args.Parameters); err != nil {
			return err
		}
	}
	m.EvaluateLiteralDerived()
	m.EvaluateParameterDerived()

	if len(args.Protocols) != args.Tmpl.NPace() {
		return cherr.New(cherr.InvalidArgumentShape, "init: expected %d pacing protocols, got %d", args.Tmpl.NPace(), len(args.Protocols))
	}
	pacing := make([]pacingBinding, len(args.Protocols))
	for i, p := range args.Protocols {
		sys, err := p.Build()
		if err != nil {
			return err
		}
		if err := sys.AdvanceTime(args.Tmin); err != nil {
			return err
		}
		pacing[i] = pacingBinding{sys: sys}
	}

	if len(args.SensIndependents) > 0 {
		if err := m.SetupSensitivities(args.SensIndependents, args.SensIsParameter); err != nil {
			return err
		}
		if len(args.SState) != m.NIndependents {
			return cherr.New(cherr.InvalidArgumentShape, "init: expected %d sensitivity rows, got %d", m.NIndependents, len(args.SState))
		}
		for i, row := range args.SState {
			if err := m.SetStateSensitivities(i, row); err != nil {
				return err
			}
		}
	}

	logS, err := selectLogMode(args.Tmin, args.Tmax, args.LogInterval, args.LogTimes)
	if err != nil {
		return err
	}
	if args.Log != nil {
		if err := m.InitializeLogging(args.Log); err != nil {
			return err
		}
	}

	s.m = m
	s.pacing = pacing
	s.logS = logS
	s.args = args
	s.tLast = args.Tmin
	s.start = time.Now()

	m.SetBoundVariables(args.Tmin, s.paceLevels(args.Tmin), 0, 0)

	cfg := integrator.Config{
		Neq:      m.NStates(),
		RHS:      s.rhs,
		AbsTol:   1e-6,
		RelTol:   1e-4,
		InitStep: 1e-4,
	}
	if args.RFIndex >= 0 {
		cfg.Root = s.root
	}
	if m.HasSensitivities {
		pbar := make([]float64, m.NIndependents)
		for i := range pbar {
			pbar[i] = math.Max(math.Abs(m.IndependentValue(i)), 1)
		}
		cfg.Sens = &integrator.SensConfig{N: m.NIndependents, DfDp: s.dfdp, Pbar: pbar}
	}
	s.itg = integrator.New(cfg)

	var sy0 [][]float64
	if m.HasSensitivities {
		sy0 = make([][]float64, m.NIndependents)
		for i := range sy0 {
			sy0[i] = append([]float64(nil), m.StateSensitivityRow(i)...)
		}
	}
	if err := s.itg.Init(args.Tmin, m.States, sy0); err != nil {
		return err
	}

	if args.Benchmarker != nil {
		args.Benchmarker.Mark("init")
	}

	if err := s.logInitialPoint(); err != nil {
		return err
	}

	s.initialized = true
	return nil
}

// paceLevels samples every pacing system at t, in protocol order, matching
// the Bound.Pace layout Names().Bound declares.
func (s *Simulation) paceLevels(t float64) []float64 {
	out := make([]float64, len(s.pacing))
	for i, p := range s.pacing {
		out[i] = p.sys.Level(t)
	}
	return out
}

// rhs is the Integrator's RHS callback: it writes (t, y) into the Model and
// asks the Template to evaluate.
func (s *Simulation) rhs(t float64, y, dy []float64) error {
	if err := s.m.SetStates(y); err != nil {
		return err
	}
	evaluations := 0
	if s.itg != nil {
		evaluations = s.itg.NumberOfEvaluations()
	}
	s.m.SetBoundVariables(t, s.paceLevels(t), time.Since(s.start).Seconds(), float64(evaluations))
	s.m.EvaluateDerivatives()
	copy(dy, s.m.Derivatives)
	return nil
}

// root is the Integrator's RootFunc callback implementing spec §4.3's
// single root function: state[rf_index] - rf_threshold.
func (s *Simulation) root(t float64, y []float64) float64 {
	return y[s.args.RFIndex] - s.args.RFThreshold
}

// dfdp is the Integrator's SensConfig.DfDp callback: a centered finite
// difference of the right-hand side with respect to parameter independent
// i, holding the current state fixed. Initial-state independents
// contribute no explicit ∂f/∂p term (their influence enters only through
// the initial sensitivity row), so dfdp leaves out zeroed for them.
func (s *Simulation) dfdp(t float64, y []float64, i int, out []float64) {
	ref := s.m.Independents[i]
	if ref.Group != model.GroupParameter {
		for k := range out {
			out[k] = 0
		}
		return
	}
	orig := s.m.Parameters[ref.Index]
	h := 1e-6 * math.Max(1, math.Abs(orig))

	evalAt := func(p float64) []float64 {
		s.m.Parameters[ref.Index] = p
		s.m.EvaluateParameterDerived()
		s.m.SetStates(y)
		s.m.SetBoundVariables(t, s.paceLevels(t), time.Since(s.start).Seconds(), float64(s.itg.NumberOfEvaluations()))
		s.m.EvaluateDerivatives()
		return append([]float64(nil), s.m.Derivatives...)
	}

	fp := evalAt(orig + h)
	fm := evalAt(orig - h)
	for k := range out {
		out[k] = (fp[k] - fm[k]) / (2 * h)
	}
	s.m.Parameters[ref.Index] = orig
	s.m.EvaluateParameterDerived()
}

// logInitialPoint logs the t=tmin sample and, for interpolated logging
// modes, advances past a due time that coincides with tmin so the next
// Step does not log it twice.
func (s *Simulation) logInitialPoint() error {
	if s.args.Log == nil && s.args.SensList == nil {
		return nil
	}
	if s.m.NeedsDerivativesForLogging() {
		s.m.EvaluateDerivatives()
	}
	if s.m.HasSensitivities {
		s.m.EvaluateSensitivityOutputs()
	}
	if s.args.Log != nil {
		if err := s.m.Log(); err != nil {
			return cherr.Wrap(cherr.LogAppendFailed, err.Error(), "failed to log initial point at t=%g", s.args.Tmin)
		}
	}
	if s.args.SensList != nil && s.m.HasSensitivities {
		if err := s.m.LogSensitivityMatrix(s.args.SensList); err != nil {
			return cherr.Wrap(cherr.SensitivityAppendFailed, err.Error(), "failed to log initial sensitivity row at t=%g", s.args.Tmin)
		}
	}
	if s.logS.mode != logDynamic && s.logS.tlog == s.args.Tmin {
		if _, err := s.logS.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Step implements the host-callable step operation of spec §4.3: it
// advances the integrator until the run completes, an error occurs, or
// yieldEvery internal steps have elapsed, whichever comes first, then
// returns control to the host. Root crossings are appended to RFList as
// they are found and do not end the call.
func (s *Simulation) Step() (t float64, done bool, err error) {
	if !s.initialized {
		return 0, false, cherr.New(cherr.InvalidArgumentShape, "step called before init")
	}
	if s.finished {
		return s.itg.T(), true, nil
	}

	for internal := 0; internal < yieldEvery; internal++ {
		if s.args.Cancel != nil && s.args.Cancel() {
			s.writeBack()
			return s.itg.T(), false, cherr.New(cherr.Cancelled, "simulation cancelled at t=%g", s.itg.T())
		}

		// cap is the pacing/tmax horizon only: spec §4.3 step 2 never lets
		// logging density steer the integrator's own step sizing (§8
		// scenario 3). Logging points inside the accepted segment are
		// recovered afterward by dense-output interpolation, not by forcing
		// the integrator to land on them.
		cap := s.args.Tmax
		for _, p := range s.pacing {
			if nt := p.sys.NextTime(); nt < cap {
				cap = nt
			}
		}

		tNew, rootFound, direction, stepErr := s.itg.Advance(cap)
		if stepErr != nil {
			s.writeBack()
			return s.itg.T(), false, stepErr
		}

		if tNew == s.tLast {
			s.zeroStreak++
			if s.zeroStreak >= zeroStepLimit {
				s.writeBack()
				return tNew, false, cherr.New(cherr.ZeroStepLimit, "%d consecutive zero-length steps at t=%g", zeroStepLimit, tNew)
			}
			if s.args.Warn != nil && s.zeroStreak%(zeroStepLimit/10) == 0 {
				s.args.Warn(cherr.New(cherr.ZeroStepLimit, "%d consecutive zero-length steps at t=%g, %d before giving up", s.zeroStreak, tNew, zeroStepLimit-s.zeroStreak).Error())
			}
		} else {
			s.zeroStreak = 0
		}

		segEnd := tNew
		if segEnd > cap {
			segEnd = cap
		}
		// Drain every interpolated log point due within the segment just
		// accepted before Reinit (below) discards it -- dense output is only
		// valid over the last accepted step (integrator/integrator.go's seg).
		if err := s.logDueInterpolated(segEnd); err != nil {
			s.writeBack()
			return tNew, false, err
		}

		if tNew > cap {
			n := s.m.NStates()
			y := make([]float64, n)
			if err := s.itg.DenseOutput(cap, y); err != nil {
				s.writeBack()
				return s.itg.T(), false, err
			}
			var sy [][]float64
			if s.m.HasSensitivities {
				sy = make([][]float64, s.m.NIndependents)
				for i := range sy {
					sy[i] = make([]float64, n)
				}
				if err := s.itg.DenseOutputSens(cap, sy); err != nil {
					s.writeBack()
					return s.itg.T(), false, err
				}
			}
			if err := s.itg.Reinit(cap, y, sy); err != nil {
				s.writeBack()
				return s.itg.T(), false, err
			}
			tNew = cap
			rootFound = false
		}
		s.tLast = tNew

		if err := s.m.SetStates(s.itg.Y()); err != nil {
			s.writeBack()
			return tNew, false, err
		}
		for i := range s.itg.SY() {
			if err := s.m.SetStateSensitivities(i, s.itg.SY()[i]); err != nil {
				s.writeBack()
				return tNew, false, err
			}
		}

		for _, p := range s.pacing {
			if err := p.sys.AdvanceTime(tNew); err != nil {
				s.writeBack()
				return tNew, false, err
			}
		}
		s.m.SetBoundVariables(tNew, s.paceLevels(tNew), time.Since(s.start).Seconds(), float64(s.itg.NumberOfEvaluations()))

		if rootFound && s.args.RFList != nil {
			if err := s.args.RFList.AppendRoot(tNew, direction); err != nil {
				s.writeBack()
				return tNew, false, cherr.Wrap(cherr.LogAppendFailed, err.Error(), "failed to append root crossing at t=%g", tNew)
			}
		}

		if s.logS.mode == logDynamic {
			if err := s.logOne(tNew); err != nil {
				s.writeBack()
				return tNew, false, err
			}
		}

		if tNew >= s.args.Tmax {
			s.finished = true
			if s.args.Benchmarker != nil {
				s.args.Benchmarker.Mark("integrate")
			}
			s.writeBack()
			return tNew, true, nil
		}
	}

	return s.itg.T(), false, nil
}

// logOne logs the model's current state as the sample for time t (for error
// messages only -- the caller has already set every field it wants logged).
func (s *Simulation) logOne(t float64) error {
	if s.m.NeedsDerivativesForLogging() {
		s.m.EvaluateDerivatives()
	}
	if s.m.HasSensitivities {
		s.m.EvaluateSensitivityOutputs()
	}
	if s.args.Log != nil {
		if err := s.m.Log(); err != nil {
			return cherr.Wrap(cherr.LogAppendFailed, err.Error(), "failed to log at t=%g", t)
		}
	}
	if s.args.SensList != nil && s.m.HasSensitivities {
		if err := s.m.LogSensitivityMatrix(s.args.SensList); err != nil {
			return cherr.Wrap(cherr.SensitivityAppendFailed, err.Error(), "failed to log sensitivity row at t=%g", t)
		}
	}
	return nil
}

// logDueInterpolated drains every periodic/point-list log point strictly
// before segEnd (spec §4.4's half-open interval), reading state back via
// dense-output interpolation over the step the integrator just accepted,
// rather than coupling step sizing to log density (§8 scenario 3). Dynamic
// mode has no interpolated points and is a no-op here; it logs directly in
// Step instead. Must run before the segment is discarded by Reinit.
func (s *Simulation) logDueInterpolated(segEnd float64) error {
	if s.logS.mode == logDynamic {
		return nil
	}

	n := s.m.NStates()
	y := make([]float64, n)
	var sy [][]float64
	if s.m.HasSensitivities {
		sy = make([][]float64, s.m.NIndependents)
		for i := range sy {
			sy[i] = make([]float64, n)
		}
	}

	for s.logS.Due(segEnd) {
		due, err := s.logS.Next()
		if err != nil {
			return err
		}
		if err := s.itg.DenseOutput(due, y); err != nil {
			return err
		}
		if err := s.m.SetStates(y); err != nil {
			return err
		}
		if s.m.HasSensitivities {
			if err := s.itg.DenseOutputSens(due, sy); err != nil {
				return err
			}
			for i := range sy {
				if err := s.m.SetStateSensitivities(i, sy[i]); err != nil {
					return err
				}
			}
		}
		s.m.SetBoundVariables(due, s.paceLevels(due), time.Since(s.start).Seconds(), float64(s.itg.NumberOfEvaluations()))
		if err := s.logOne(due); err != nil {
			return err
		}
	}
	return nil
}

// writeBack copies the driver's final state back into the host-owned
// slices InitArgs supplied, on both success and error exit -- the host
// recovers results by reading back the same slices it passed to Init.
func (s *Simulation) writeBack() {
	if s.itg == nil {
		return
	}
	copy(s.args.State, s.itg.Y())
	for i, row := range s.itg.SY() {
		if i < len(s.args.SState) {
			copy(s.args.SState[i], row)
		}
	}
	// BoundOut is laid out [time, pace[0..n_pace), realtime, evaluations],
	// matching Names().Bound (spec §6's "init" entry).
	values := append([]float64{s.m.Bound.Time}, s.m.Bound.Pace...)
	values = append(values, s.m.Bound.Realtime, s.m.Bound.Evaluations)
	for i, sink := range s.args.BoundOut {
		if sink == nil || i >= len(values) {
			continue
		}
		sink.Append(values[i])
	}
}

// NumberOfSteps passes through the Integrator's accepted-step counter.
func (s *Simulation) NumberOfSteps() int {
	if s.itg == nil {
		return 0
	}
	return s.itg.NumberOfSteps()
}

// NumberOfEvaluations passes through the Integrator's RHS-evaluation counter.
func (s *Simulation) NumberOfEvaluations() int {
	if s.itg == nil {
		return 0
	}
	return s.itg.NumberOfEvaluations()
}

// SetTolerance implements the host-callable set_tolerance operation.
func (s *Simulation) SetTolerance(abs, rel float64) {
	if s.itg != nil {
		s.itg.SetTolerance(abs, rel)
	}
}

// SetMaxStepSize implements the host-callable set_max_step_size operation.
func (s *Simulation) SetMaxStepSize(value float64) {
	if s.itg != nil {
		s.itg.SetMaxStepSize(value)
	}
}

// SetMinStepSize implements the host-callable set_min_step_size operation.
func (s *Simulation) SetMinStepSize(value float64) {
	if s.itg != nil {
		s.itg.SetMinStepSize(value)
	}
}

// Clean releases the run's bindings so the Simulation can be reused for a
// fresh Init call (spec §5's single-live-run latch).
func (s *Simulation) Clean() {
	if s.m != nil {
		s.m.DeinitializeLogging()
	}
	s.initialized = false
	s.finished = false
	s.m = nil
	s.itg = nil
	s.pacing = nil
	s.logS = nil
	s.zeroStreak = 0
}
