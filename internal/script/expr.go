package script

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dop251/goja"
)

var (
	ErrCompile   = errors.New("script compile error")
	ErrEval      = errors.New("script evaluation error")
	ErrNotNumber = errors.New("script result is not a finite number")
	ErrTimeout   = errors.New("script timed out")
)

const (
	// DefaultTimeout bounds one batch evaluation.
	DefaultTimeout = 500 * time.Millisecond
	// MaxLevels bounds how many levels one batch may evaluate.
	MaxLevels = 10_000
)

// Expr is a compiled multiplier expression of the variable level, e.g.
// "Math.pow(1.25, level + 1)". The compiled program is immutable and may be
// shared; every evaluation gets a fresh sandboxed runtime.
type Expr struct {
	src     string
	program *goja.Program
	timeout time.Duration
}

// Compile parses src as a JavaScript expression.
func Compile(src string) (*Expr, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrCompile)
	}
	wrapped := "(function (level) { 'use strict'; return (" + src + "); })"
	prog, err := goja.Compile("ladder", wrapped, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	return &Expr{src: src, program: prog, timeout: DefaultTimeout}, nil
}

// WithTimeout returns a copy evaluating under a different time budget.
func (e *Expr) WithTimeout(d time.Duration) *Expr {
	c := *e
	c.timeout = d
	return &c
}

// Source returns the expression text.
func (e *Expr) Source() string { return e.src }

// Eval evaluates the expression for a single level.
func (e *Expr) Eval(ctx context.Context, level int) (float64, error) {
	out, err := e.Multipliers(ctx, level+1)
	if err != nil {
		return 0, err
	}
	return out[level], nil
}

// Multipliers evaluates levels 0..n-1 in one sandboxed runtime.
func (e *Expr) Multipliers(ctx context.Context, n int) ([]float64, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > MaxLevels {
		return nil, fmt.Errorf("%w: %d levels, at most %d", ErrEval, n, MaxLevels)
	}
	rt := newSandbox()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan struct{})
	var (
		out     []float64
		evalErr error
	)
	go func() {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				out, evalErr = nil, fmt.Errorf("%w: panic: %v", ErrEval, rec)
			}
		}()
		out, evalErr = e.run(rt, n)
	}()

	select {
	case <-done:
		return out, evalErr
	case <-ctx.Done():
		rt.Interrupt("script execution timeout")
		<-done
		return nil, fmt.Errorf("%w: %q after %s", ErrTimeout, e.src, e.timeout)
	}
}

func (e *Expr) run(rt *goja.Runtime, n int) ([]float64, error) {
	v, err := rt.RunProgram(e.program)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEval, err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("%w: expression did not produce a function", ErrEval)
	}

	out := make([]float64, n)
	for level := 0; level < n; level++ {
		res, err := fn(goja.Undefined(), rt.ToValue(level))
		if err != nil {
			return nil, fmt.Errorf("%w: level %d: %v", ErrEval, level, err)
		}
		f := res.ToFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: level %d = %s", ErrNotNumber, level, res.String())
		}
		out[level] = f
	}
	return out, nil
}

// newSandbox creates a runtime with network, module and dynamic code
// entry points removed. Math stays available.
func newSandbox() *goja.Runtime {
	rt := goja.New()
	rt.Set("require", goja.Undefined())
	rt.Set("fetch", goja.Undefined())
	rt.Set("XMLHttpRequest", goja.Undefined())
	rt.Set("eval", goja.Undefined())
	rt.Set("Function", goja.Undefined())
	return rt
}
