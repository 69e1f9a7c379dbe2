// Package pipeline runs the middle-end over a module: per function it
// validates the IR, builds and prunes the control flow graph and writes
// the linearized body back, optionally producing SSA form as well.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"cflat/internal/cfg"
	"cflat/internal/ir"
	"cflat/internal/observ"
	"cflat/internal/ssa"
)

// InternalError reports a function that failed IR validation. Validation
// failures mean the frontend produced malformed IR; they are compiler
// bugs, not user diagnostics, and abort the pipeline.
type InternalError struct {
	Function string
	Errors   []ir.ValidationError
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: IR validation failed for function %s (%d errors)", e.Function, len(e.Errors))
}

// Options configures a module run.
type Options struct {
	// Jobs caps the number of functions processed concurrently.
	// Zero means GOMAXPROCS.
	Jobs int

	// SSA additionally converts each function's graph to SSA form.
	SSA bool

	// Timer, when set, records the run's phases.
	Timer *observ.Timer
}

// Result holds the per-function artifacts of a run.
type Result struct {
	Function *ir.FunctionDefinition
	CFG      *cfg.Graph
	SSA      *ssa.Graph
}

// RunFunction processes a single function: validate, build the CFG, prune
// unreachable blocks and store the linearized body back on the function.
func RunFunction(m *ir.Module, fn *ir.FunctionDefinition, buildSSA bool) (*Result, error) {
	if errs := ir.ValidateFunction(m, fn); len(errs) > 0 {
		return nil, &InternalError{Function: fn.Name, Errors: errs}
	}

	g := cfg.Build(fn)
	g.Prune()

	res := &Result{Function: fn, CFG: g}
	if buildSSA {
		res.SSA = ssa.Convert(g)
	}
	fn.Body = g.Linearize()
	return res, nil
}

// RunModule sorts the module's global initializers and processes every
// function. Functions share no mutable state, so they run concurrently;
// results keep the module's function order.
func RunModule(ctx context.Context, m *ir.Module, opts Options) ([]*Result, error) {
	var globalsPhase int
	if opts.Timer != nil {
		globalsPhase = opts.Timer.Begin("globals")
	}
	m.SortGlobalDefinitions()
	if opts.Timer != nil {
		opts.Timer.End(globalsPhase, fmt.Sprintf("%d globals", len(m.Globals)))
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var functionsPhase int
	if opts.Timer != nil {
		functionsPhase = opts.Timer.Begin("functions")
	}

	// Slots are per-goroutine, no mutex needed.
	results := make([]*Result, len(m.Functions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(m.Functions), 1)))

	for i, fn := range m.Functions {
		i, fn := i, fn
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := RunFunction(m, fn, opts.SSA)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Timer != nil {
		opts.Timer.End(functionsPhase, fmt.Sprintf("%d functions", len(m.Functions)))
	}
	return results, nil
}
