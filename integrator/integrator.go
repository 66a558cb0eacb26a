// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package integrator implements, in this package, the adaptive implicit
// ODE integrator the driver steps with: one-step advancement, dense
// output, root detection, and forward sensitivities via the
// simultaneous-corrector method. It is grounded on the teacher's own
// Newton-solver idiom: msolid/driver.go and msolid/hyperelast1.go both
// drive gosl/num.NlSolver for an implicit nonlinear corrector, which is
// reused here; the Jacobian the sensitivity corrector needs is computed
// numerically by central differences (jacobian), so no user-supplied
// Jacobian is involved.
//
// The one-step (CV_ONE_STEP) contract is realised as an adaptive implicit
// trapezoidal corrector: each Advance call performs exactly one internal
// step, which may legitimately overshoot the horizon passed to it -- the
// caller is expected to rewind via DenseOutput, exactly as spec §4.3 step 4
// describes for CVode.
package integrator

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/num"

	"cellsim/cherr"
)

// RHS evaluates dy/dt at (t, y) into dy. Returning an error surfaces
// cherr.RhsFailed to the caller.
type RHS func(t float64, y []float64, dy []float64) error

// RootFunc is the single root function of spec §4.3: state[rf_index] -
// rf_threshold, evaluated directly on the state vector.
type RootFunc func(t float64, y []float64) float64

// SensConfig configures forward sensitivity propagation.
type SensConfig struct {
	N      int         // number of independents
	DfDp   func(t float64, y []float64, i int, out []float64) // ∂f/∂p_i; nil entries (initial-state independents) contribute zero
	Pbar   []float64   // per-independent scaling, pbar[i] = max(|p_i|, 1)
}

// Config configures one Integrator instance, mirroring spec §4.3's init bullet.
type Config struct {
	Neq      int
	RHS      RHS
	Root     RootFunc // nil disables root finding
	Sens     *SensConfig // nil disables sensitivities
	AbsTol   float64
	RelTol   float64
	MaxStep  float64 // 0 disables
	MinStep  float64 // 0 disables
	InitStep float64 // initial step-size guess
}

// segment is the last accepted step, kept for dense (Hermite) output.
type segment struct {
	t0, t1     float64
	y0, y1     []float64
	f0, f1     []float64
	sy0, sy1   [][]float64 // per independent, only when sensitivities enabled
	sf0, sf1   [][]float64
}

// Integrator is the adapter handle. One Integrator serves one Simulation,
// matching the source's single-live-simulation latch (spec §5).
type Integrator struct {
	cfg Config

	t  float64
	y  []float64
	sy [][]float64 // per independent row, length cfg.Sens.N

	dt        float64
	rootVal   float64
	rootValID float64 // not read; Advance derives direction from rootVal

	steps          int
	evaluations    int
	zeroStepCount  int

	seg *segment
}

const (
	defaultAbsTol  = 1e-6
	defaultRelTol  = 1e-4
	maxStepRetries = 12
)

// New allocates an Integrator for the given configuration.
func New(cfg Config) *Integrator {
	if cfg.AbsTol == 0 {
		cfg.AbsTol = defaultAbsTol
	}
	if cfg.RelTol == 0 {
		cfg.RelTol = defaultRelTol
	}
	g := &Integrator{cfg: cfg}
	return g
}

// SetTolerance implements the host's set_tolerance.
func (g *Integrator) SetTolerance(abs, rel float64) {
	g.cfg.AbsTol = abs
	g.cfg.RelTol = rel
}

// SetMaxStepSize implements set_max_step_size; value <= 0 disables.
func (g *Integrator) SetMaxStepSize(value float64) { g.cfg.MaxStep = value }

// SetMinStepSize implements set_min_step_size; value <= 0 disables.
func (g *Integrator) SetMinStepSize(value float64) { g.cfg.MinStep = value }

// NumberOfSteps implements number_of_steps.
func (g *Integrator) NumberOfSteps() int { return g.steps }

// NumberOfEvaluations implements number_of_evaluations.
func (g *Integrator) NumberOfEvaluations() int { return g.evaluations }

// Init seeds the integrator at (t0, y0[, sy0]) and resets its counters.
func (g *Integrator) Init(t0 float64, y0 []float64, sy0 [][]float64) error {
	g.t = t0
	g.y = append([]float64(nil), y0...)
	if g.cfg.Sens != nil {
		g.sy = make([][]float64, g.cfg.Sens.N)
		for i := range g.sy {
			g.sy[i] = append([]float64(nil), sy0[i]...)
		}
	}
	g.steps, g.evaluations, g.zeroStepCount = 0, 0, 0
	g.seg = nil
	g.dt = g.cfg.InitStep
	if g.dt <= 0 {
		g.dt = 1e-3
	}
	if g.cfg.Root != nil {
		g.rootVal = g.cfg.Root(t0, g.y)
	}
	return nil
}

// Reinit re-seeds the integrator after the driver has overwritten the
// state out of band (dense-output rewind or a host-initiated state
// change), without resetting the step/evaluation counters.
func (g *Integrator) Reinit(t float64, y []float64, sy [][]float64) error {
	g.t = t
	copy(g.y, y)
	if g.cfg.Sens != nil {
		for i := range g.sy {
			copy(g.sy[i], sy[i])
		}
	}
	g.seg = nil
	if g.cfg.Root != nil {
		g.rootVal = g.cfg.Root(t, g.y)
	}
	return nil
}

// T returns the integrator's current time.
func (g *Integrator) T() float64 { return g.t }

// Y returns the integrator's current state (a view, not a copy).
func (g *Integrator) Y() []float64 { return g.y }

// SY returns the integrator's current sensitivity rows (views).
func (g *Integrator) SY() [][]float64 { return g.sy }

// Advance performs one adaptive internal step starting at the integrator's
// current time. horizon only informs the initial step-size guess; the
// accepted step may land before, at, or past horizon -- the caller rewinds
// via DenseOutput when it does.
func (g *Integrator) Advance(horizon float64) (t float64, rootFound bool, direction int, err error) {
	n := len(g.y)
	f0 := make([]float64, n)
	if err = g.evalRHS(g.t, g.y, f0); err != nil {
		return g.t, false, 0, err
	}

	dt := g.dt
	if g.cfg.MaxStep > 0 && dt > g.cfg.MaxStep {
		dt = g.cfg.MaxStep
	}
	if rem := horizon - g.t; rem > 0 && dt > 2*rem {
		dt = 2 * rem // avoid wildly overshooting a near horizon
	}
	if g.cfg.MinStep > 0 && dt < g.cfg.MinStep {
		dt = g.cfg.MinStep
	}

	var yNew, f1 []float64
	accepted := false
	for attempt := 0; attempt < maxStepRetries; attempt++ {
		yNew, f1, err = g.trapezoidalCorrector(g.t, g.y, f0, dt)
		if err != nil {
			return g.t, false, 0, err
		}
		errNorm := g.errorNorm(yNew, g.y, f0, dt)
		if errNorm <= 1 || dt <= g.cfg.MinStep {
			accepted = true
			factor := math.Min(2, math.Max(0.5, math.Pow(1/math.Max(errNorm, 1e-12), 0.5)))
			g.dt = dt * factor
			break
		}
		dt *= 0.5
		if g.cfg.MinStep > 0 && dt < g.cfg.MinStep {
			dt = g.cfg.MinStep
		}
	}
	if !accepted {
		return g.t, false, 0, cherr.New(cherr.IntegratorConvergence, "implicit corrector failed to converge after %d step-size halvings at t=%g", maxStepRetries, g.t)
	}

	tNew := g.t + dt
	// Zero-progress detection across consecutive calls is the driver's
	// responsibility (spec §4.3 step 3, §7 ZeroStepLimit), not the
	// integrator's; this adapter only reports the time it actually reached.

	seg := &segment{t0: g.t, t1: tNew, y0: append([]float64(nil), g.y...), y1: yNew, f0: f0, f1: f1}

	var newRootVal float64
	if g.cfg.Root != nil {
		newRootVal = g.cfg.Root(tNew, yNew)
		if sign(newRootVal) != sign(g.rootVal) && g.rootVal != 0 {
			rootFound = true
			if newRootVal > g.rootVal {
				direction = 1
			} else {
				direction = -1
			}
		}
	}

	if g.cfg.Sens != nil {
		seg.sy0 = g.sy
		newSY, sf0, sf1, serr := g.sensitivityCorrector(g.t, g.y, f0, tNew, yNew, f1, dt)
		if serr != nil {
			return g.t, false, 0, serr
		}
		seg.sy1 = newSY
		seg.sf0, seg.sf1 = sf0, sf1
		g.sy = newSY
	}

	g.seg = seg
	g.y = yNew
	g.t = tNew
	g.rootVal = newRootVal
	g.steps++

	return g.t, rootFound, direction, nil
}

// DenseOutput interpolates y (and sy, if enabled) back to tq using cubic
// Hermite interpolation over the last accepted step -- the dense-output
// substitute for CVodeGetDky.
func (g *Integrator) DenseOutput(tq float64, yOut []float64) error {
	if g.seg == nil {
		return cherr.New(cherr.IntegratorInput, "dense_output: no accepted step to interpolate within")
	}
	hermite(g.seg.t0, g.seg.y0, g.seg.f0, g.seg.t1, g.seg.y1, g.seg.f1, tq, yOut)
	return nil
}

// DenseOutputSens interpolates sy back to tq for every independent.
func (g *Integrator) DenseOutputSens(tq float64, syOut [][]float64) error {
	if g.seg == nil || g.seg.sy0 == nil {
		return cherr.New(cherr.IntegratorInput, "dense_output_sens: no accepted sensitivity step to interpolate within")
	}
	for i := range syOut {
		hermite(g.seg.t0, g.seg.sy0[i], g.seg.sf0[i], g.seg.t1, g.seg.sy1[i], g.seg.sf1[i], tq, syOut[i])
	}
	return nil
}

func (g *Integrator) evalRHS(t float64, y, dy []float64) error {
	g.evaluations++
	if err := g.cfg.RHS(t, y, dy); err != nil {
		return cherr.Wrap(cherr.RhsFailed, err.Error(), "right-hand side evaluation failed at t=%g", t)
	}
	for _, v := range dy {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return cherr.New(cherr.RhsFailed, "right-hand side produced a non-finite value at t=%g", t)
		}
	}
	return nil
}

// errorNorm is a weighted RMS comparison of the trapezoidal corrector
// result against an explicit-Euler predictor, the cheapest embedded
// error estimate available without a second implicit solve.
func (g *Integrator) errorNorm(yNew, yOld, f0 []float64, dt float64) float64 {
	var sum float64
	for i := range yNew {
		scale := g.cfg.AbsTol + g.cfg.RelTol*math.Abs(yNew[i])
		if scale == 0 {
			scale = defaultAbsTol
		}
		d := (yNew[i] - yOld[i] - dt*f0[i]) / scale
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(yNew)))
}

// trapezoidalCorrector solves y1 = y0 + dt/2*(f0 + f(t0+dt, y1)) for y1 via
// Newton's method (gosl/num.NlSolver, as msolid/driver.go and
// msolid/hyperelast1.go already do for their own implicit corrections),
// with a numerically estimated Jacobian (spec §1's "no user-supplied
// Jacobians").
func (g *Integrator) trapezoidalCorrector(t0 float64, y0, f0 []float64, dt float64) (y1, f1 []float64, err error) {
	n := len(y0)
	y1 = append([]float64(nil), y0...)
	f1 = make([]float64, n)
	tNew := t0 + dt

	var nls num.NlSolver
	ferr := nls.Init(n, func(fx, x []float64) error {
		if e := g.evalRHS(tNew, x, f1); e != nil {
			return e
		}
		for i := 0; i < n; i++ {
			fx[i] = x[i] - y0[i] - 0.5*dt*(f0[i]+f1[i])
		}
		return nil
	}, nil, nil, true, true, nil)
	if ferr != nil {
		return nil, nil, cherr.Wrap(cherr.IntegratorSetup, ferr.Error(), "failed to set up the implicit corrector")
	}
	nls.SetTols(g.cfg.AbsTol, g.cfg.AbsTol, 1e-14, num.EPS)
	if serr := nls.Solve(y1, true); serr != nil {
		return nil, nil, cherr.Wrap(cherr.IntegratorConvergence, serr.Error(), "implicit corrector failed to converge at t=%g", tNew)
	}
	if e := g.evalRHS(tNew, y1, f1); e != nil {
		return nil, nil, e
	}
	return y1, f1, nil
}

// sensitivityCorrector propagates the forward-sensitivity rows with the
// simultaneous-corrector method: the state Jacobian df/dy is estimated
// numerically by jacobian at the step's old point (J0) and new point (J1),
// and each row solves the linear trapezoidal update
// (I - dt/2 J1) sy1 = sy0 + dt/2*(J0 sy0 + dfdp0 + dfdp1).
func (g *Integrator) sensitivityCorrector(t0 float64, y0, f0 []float64, t1, y1, f1 []float64, dt float64) (syNew [][]float64, sf0, sf1 [][]float64, err error) {
	n := len(y0)
	sc := g.cfg.Sens
	J0 := g.jacobian(t0, y0)
	J1 := g.jacobian(t1, y1)

	A := la.MatAlloc(n, n)
	Ainv := la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			A[i][j] = -0.5 * dt * J1[i][j]
		}
		A[i][i] += 1
	}
	if _, invErr := la.MatInv(Ainv, A, n); invErr != nil {
		return nil, nil, nil, cherr.Wrap(cherr.IntegratorConvergence, invErr.Error(), "sensitivity corrector: singular Jacobian at t=%g", t1)
	}

	syNew = make([][]float64, sc.N)
	sf0 = make([][]float64, sc.N)
	sf1 = make([][]float64, sc.N)
	for i := 0; i < sc.N; i++ {
		dfdp0 := make([]float64, n)
		dfdp1 := make([]float64, n)
		if sc.DfDp != nil {
			sc.DfDp(t0, y0, i, dfdp0)
			sc.DfDp(t1, y1, i, dfdp1)
		}
		Jsy0 := make([]float64, n)
		la.MatVecMul(Jsy0, 1, J0, g.sy[i])
		rhs := make([]float64, n)
		for k := 0; k < n; k++ {
			rhs[k] = g.sy[i][k] + 0.5*dt*(Jsy0[k]+dfdp0[k]+dfdp1[k])
		}
		newRow := make([]float64, n)
		la.MatVecMul(newRow, 1, Ainv, rhs)
		syNew[i] = newRow
		sf0[i] = Jsy0
		sf1Row := make([]float64, n)
		la.MatVecMul(sf1Row, 1, J1, newRow)
		for k := 0; k < n; k++ {
			sf1Row[k] += dfdp1[k]
		}
		sf1[i] = sf1Row
	}
	return syNew, sf0, sf1, nil
}

// jacobian estimates df/dy at (t,y) by central differences, one column at
// a time, mirroring num.DerivCen's role in msolid/driver.go's consistent
// tangent check.
func (g *Integrator) jacobian(t float64, y []float64) [][]float64 {
	n := len(y)
	J := la.MatAlloc(n, n)
	h := 1e-6
	yp := append([]float64(nil), y...)
	fp := make([]float64, n)
	fm := make([]float64, n)
	for j := 0; j < n; j++ {
		orig := yp[j]
		step := h * math.Max(1, math.Abs(orig))
		yp[j] = orig + step
		g.evalRHS(t, yp, fp)
		yp[j] = orig - step
		g.evalRHS(t, yp, fm)
		yp[j] = orig
		for i := 0; i < n; i++ {
			J[i][j] = (fp[i] - fm[i]) / (2 * step)
		}
	}
	return J
}

func hermite(t0 float64, y0, f0 []float64, t1 float64, y1, f1 []float64, t float64, out []float64) {
	h := t1 - t0
	if h == 0 {
		copy(out, y1)
		return
	}
	s := (t - t0) / h
	h00 := 2*s*s*s - 3*s*s + 1
	h10 := s*s*s - 2*s*s + s
	h01 := -2*s*s*s + 3*s*s
	h11 := s*s*s - s*s
	for i := range out {
		out[i] = h00*y0[i] + h10*h*f0[i] + h01*y1[i] + h11*h*f1[i]
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
