package mpc

import (
	"context"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

var methods = map[string]func() optimize.Method{
	"lbfgs":       func() optimize.Method { return &optimize.LBFGS{} },
	"bfgs":        func() optimize.Method { return &optimize.BFGS{} },
	"nelder-mead": func() optimize.Method { return &optimize.NelderMead{} },
}

// Methods lists the solver names accepted in Config.Method.
func Methods() []string {
	return []string{"lbfgs", "bfgs", "nelder-mead"}
}

const (
	funcTol         = 1e-9
	stallIterations = 20
)

type solution struct {
	u           []float64
	z           []float64
	cost        float64
	status      optimize.Status
	iterations  int
	evaluations int
	runtime     time.Duration
	err         error
}

func (s solution) converged() bool {
	if s.err != nil {
		return false
	}
	switch s.status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

// solve minimizes oc.Cost over the box starting from free variables z0.
func (o *Optimizer) solve(ctx context.Context, oc *OptimizationContext, b box, z0 []float64) solution {
	f := func(z []float64) float64 {
		return oc.Cost(b.toBounded(z))
	}
	fdSettings := &fd.Settings{Formula: fd.Central, Step: o.cfg.FDStep}
	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, f, z, fdSettings)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: o.cfg.GradTol,
		MajorIterations:   o.cfg.MaxIterations,
		FuncEvaluations:   o.cfg.MaxEvaluations,
		Runtime:           o.budget(ctx),
		Converger:         &optimize.FunctionConverge{Absolute: funcTol, Iterations: stallIterations},
	}

	start := time.Now()
	res, err := optimize.Minimize(problem, z0, settings, methods[o.cfg.Method]())
	sol := solution{err: err, runtime: time.Since(start)}
	if res == nil {
		sol.z = append([]float64(nil), z0...)
		sol.status = optimize.Failure
	} else {
		sol.z = res.X
		sol.status = res.Status
		sol.iterations = res.MajorIterations
		sol.evaluations = res.FuncEvaluations
	}
	sol.u = b.toBounded(sol.z)
	sol.cost = oc.Cost(sol.u)
	return sol
}

// budget is the configured wall-clock limit, shortened to whatever is left
// before the context deadline.
func (o *Optimizer) budget(ctx context.Context) time.Duration {
	d := o.cfg.Budget
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			left = time.Nanosecond
		}
		if d == 0 || left < d {
			d = left
		}
	}
	return d
}
