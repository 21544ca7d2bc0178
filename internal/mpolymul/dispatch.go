package mpolymul

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/threadpool"
)

// Strategy names a multiplication algorithm.
type Strategy string

const (
	// StrategyNone is reported when no algorithm ran (an operand was zero).
	StrategyNone  Strategy = "none"
	StrategyDense Strategy = "dense"
	StrategyArray Strategy = "array"
	StrategyHeap  Strategy = "heap"
)

// Route records which branch of the dispatcher picked the strategy.
type Route string

const (
	RouteTrivial       Route = "trivial"
	RouteSmallOperands Route = "small-operands"
	RouteMultiWord     Route = "multi-word"
	RouteEstimate      Route = "estimate"
	RouteForced        Route = "forced"
)

// Result is the outcome of one multiplication.
type Result struct {
	// Product is the canonical product.
	Product *mpoly.Poly
	// Strategy is the algorithm that produced Product.
	Strategy Strategy
	// Threaded reports whether Strategy ran across leased workers.
	Threaded bool
	// Route is the dispatcher branch that chose Strategy.
	Route Route
	// Failed lists the strategies that were attempted and declined, in order.
	Failed []Strategy
	// Handles is the number of worker handles leased for the call.
	Handles int
	// Plan is the estimator outcome, nil when the estimator did not run.
	Plan *Plan
	// Duration is the wall time of the call.
	Duration time.Duration
}

// Dispatcher multiplies polynomials, choosing a strategy per call. A
// Dispatcher is safe for concurrent use; every call leases its own handles.
type Dispatcher struct {
	opts Options
}

// NewDispatcher returns a dispatcher for opts, with defaults filled in.
func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{opts: normalizeOptions(opts)}
}

// Options returns the normalized options of d.
func (d *Dispatcher) Options() Options {
	return d.opts
}

// Mul returns b*c computed by a dispatcher configured with opts.
func Mul(b, c *mpoly.Poly, opts Options) (*mpoly.Poly, error) {
	res, err := NewDispatcher(opts).Multiply(context.Background(), b, c)
	if err != nil {
		return nil, err
	}
	return res.Product, nil
}

// Multiply returns the product of b and c. The operands must be canonical
// and share one context. ctx only carries tracing: once validated, a call
// always runs to completion.
//
// Parameters:
//   - ctx: The context carrying the parent span.
//   - b, c: The operands.
//
// Returns:
//   - Result: The product and how it was obtained.
//   - error: A ValidationError if the operands are unusable.
func (d *Dispatcher) Multiply(ctx context.Context, b, c *mpoly.Poly) (Result, error) {
	return d.run(ctx, b, c, StrategyNone)
}

// run multiplies b and c. A force other than StrategyNone bypasses the
// estimator and runs that strategy alone; it fails with ErrInfeasible when
// the strategy declines.
func (d *Dispatcher) run(ctx context.Context, b, c *mpoly.Poly, force Strategy) (res Result, err error) {
	tracer := otel.Tracer("mpolymul")
	ctx, span := tracer.Start(ctx, "Multiply")
	defer span.End()

	if err := validateOperands(b, c); err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if err != nil {
			span.RecordError(err)
			return
		}
		multiplicationsTotal.WithLabelValues(string(res.Strategy), modeLabel(res.Threaded)).Inc()
		multiplicationDuration.WithLabelValues(string(res.Strategy)).Observe(res.Duration.Seconds())
		span.SetAttributes(
			attribute.String("strategy", string(res.Strategy)),
			attribute.String("route", string(res.Route)),
			attribute.Int("handles", res.Handles),
		)
		log.Debug().
			Str("strategy", string(res.Strategy)).
			Str("route", string(res.Route)).
			Bool("threaded", res.Threaded).
			Int("handles", res.Handles).
			Int("terms", res.Product.Len()).
			Dur("duration", res.Duration).
			Msg("multiplication completed")
	}()

	if b.IsZero() || c.IsZero() {
		return Result{Product: mpoly.Zero(b.Ctx), Strategy: StrategyNone, Route: RouteTrivial}, nil
	}

	handles := d.lease()
	defer d.giveBack(handles)
	res.Handles = len(handles)

	bp, cp := ProfileDegrees(b), ProfileDegrees(c)
	if force != StrategyNone {
		res.Route = RouteForced
		plan := Estimate(d.opts.Heuristics, b, c, bp, cp)
		res.Plan = &plan
		if !d.attempt(ctx, &res, force, b, c, bp, cp, handles) {
			return res, fmt.Errorf("%w: %s", ErrInfeasible, force)
		}
		return res, nil
	}

	h := d.opts.Heuristics
	switch {
	case b.Len() < h.SmallOperandTerms || c.Len() < h.SmallOperandTerms ||
		(b.Len() < h.SmallPairTerms && c.Len() < h.SmallPairTerms):
		res.Route = RouteSmallOperands
	case productBits(bp, cp, b.Bits, c.Bits) > monomial.WordBits:
		res.Route = RouteMultiWord
	default:
		res.Route = RouteEstimate
		plan := Estimate(h, b, c, bp, cp)
		res.Plan = &plan
		log.Debug().
			Bool("dense", plan.Dense).
			Bool("array", plan.Array).
			Int64("dense_cells", plan.DenseCells).
			Int64("array_cells", plan.ArrayCells).
			Int64("product_count", plan.ProductCount).
			Msg("multiplication plan")
		if plan.Dense && d.attempt(ctx, &res, StrategyDense, b, c, bp, cp, handles) {
			return res, nil
		}
		if plan.Array && d.attempt(ctx, &res, StrategyArray, b, c, bp, cp, handles) {
			return res, nil
		}
	}
	d.attempt(ctx, &res, StrategyHeap, b, c, bp, cp, handles)
	return res, nil
}

// attempt runs strategy s and records its outcome in res. It returns false,
// after appending s to res.Failed, when the strategy declined.
func (d *Dispatcher) attempt(ctx context.Context, res *Result, s Strategy, b, c *mpoly.Poly, bp, cp DegreeProfile, handles []threadpool.Handle) bool {
	_, span := otel.Tracer("mpolymul").Start(ctx, "mpolymul."+string(s),
		trace.WithAttributes(attribute.Int("b_terms", b.Len()), attribute.Int("c_terms", c.Len())))
	defer span.End()

	var (
		product  *mpoly.Poly
		ok       = true
		threaded bool
	)
	switch s {
	case StrategyDense:
		product, ok = denseMul(b, c, bp, cp, d.opts.Heuristics.DenseCellCeiling)
	case StrategyArray:
		product, ok = arrayMul(b, c, bp, cp, d.opts.Heuristics, d.opts.Pool, handles)
		threaded = len(handles) > 0
	case StrategyHeap:
		if len(handles) > 0 {
			product = heapMulThreaded(b, c, bp, cp, d.opts.Pool, handles)
			threaded = true
		} else {
			product = heapMul(b, c, bp, cp)
		}
	default:
		ok = false
	}
	span.SetAttributes(attribute.Bool("ok", ok))

	if !ok {
		strategyFailures.WithLabelValues(string(s)).Inc()
		log.Debug().Str("strategy", string(s)).Msg("strategy declined, falling through")
		res.Failed = append(res.Failed, s)
		return false
	}
	res.Product, res.Strategy, res.Threaded = product, s, threaded
	return true
}

// lease requests up to ThreadLimit-1 handles when the pool is initialized.
func (d *Dispatcher) lease() []threadpool.Handle {
	p := d.opts.Pool
	if !p.Initialized() {
		return nil
	}
	n := min(d.opts.ThreadLimit-1, p.Size())
	if n <= 0 {
		return nil
	}
	handles := p.Request(n)
	handlesLeased.Add(float64(len(handles)))
	return handles
}

func (d *Dispatcher) giveBack(handles []threadpool.Handle) {
	if len(handles) == 0 {
		return
	}
	threadpool.GiveBackAll(d.opts.Pool, handles)
	handlesLeased.Sub(float64(len(handles)))
}

// validateOperands checks what the strategies rely on without a full
// canonical-form scan.
func validateOperands(b, c *mpoly.Poly) error {
	if b == nil {
		return apperrors.NewValidationError("b", "operand is nil", nil)
	}
	if c == nil {
		return apperrors.NewValidationError("c", "operand is nil", nil)
	}
	if b.Ctx != c.Ctx {
		return apperrors.NewValidationError("ctx",
			fmt.Sprintf("operands belong to different contexts (%d vars %s, %d vars %s)",
				b.Ctx.NVars, b.Ctx.Ord, c.Ctx.NVars, c.Ctx.Ord), nil)
	}
	if err := b.Ctx.Validate(); err != nil {
		return err
	}
	for _, op := range []struct {
		name string
		p    *mpoly.Poly
	}{{"b", b}, {"c", c}} {
		name, p := op.name, op.p
		if p.Bits < monomial.MinBits || len(p.Exps) != p.Len()*p.Words() {
			return apperrors.NewValidationError(name,
				fmt.Sprintf("malformed operand: %d terms, %d exponent words at %d bits", p.Len(), len(p.Exps), p.Bits), nil)
		}
	}
	return nil
}
