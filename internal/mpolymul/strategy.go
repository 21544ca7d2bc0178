package mpolymul

//go:generate mockgen -source=strategy.go -destination=mocks/mock_strategy.go -package=mocks

import (
	"context"
	"errors"

	"github.com/agbru/mpolycalc/internal/mpoly"
)

// ErrInfeasible is returned by a forced strategy whose preconditions do not
// hold for the operands.
var ErrInfeasible = errors.New("strategy is infeasible for these operands")

// Multiplier is a named way of multiplying two polynomials. It is the unit
// the registry hands to the orchestration layer.
type Multiplier interface {
	// Name returns the registry name of the multiplier (e.g. "heap").
	Name() string

	// Multiply returns b*c.
	//
	// Parameters:
	//   - ctx: The context carrying the parent span.
	//   - b, c: The operands, canonical and of one context.
	//   - opts: Thread limit, heuristics and pool of the call.
	//
	// Returns:
	//   - Result: The product and how it was obtained.
	//   - error: A ValidationError, or ErrInfeasible for a forced strategy.
	Multiply(ctx context.Context, b, c *mpoly.Poly, opts Options) (Result, error)
}

// autoMultiplier lets the dispatcher choose.
type autoMultiplier struct{}

func (autoMultiplier) Name() string { return "auto" }

func (autoMultiplier) Multiply(ctx context.Context, b, c *mpoly.Poly, opts Options) (Result, error) {
	return NewDispatcher(opts).Multiply(ctx, b, c)
}

// forcedMultiplier always runs one strategy, bypassing the estimator and the
// small-operand shortcut.
type forcedMultiplier struct {
	strategy Strategy
}

func (m forcedMultiplier) Name() string { return string(m.strategy) }

func (m forcedMultiplier) Multiply(ctx context.Context, b, c *mpoly.Poly, opts Options) (Result, error) {
	return NewDispatcher(opts).run(ctx, b, c, m.strategy)
}

// MultiplyContext calls m.Multiply and returns ctx.Err() as soon as ctx ends.
// A multiplication cannot be interrupted, so an abandoned call keeps running
// in the background and gives its worker handles back when it completes.
func MultiplyContext(ctx context.Context, m Multiplier, b, c *mpoly.Poly, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := m.Multiply(ctx, b, c, opts)
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
