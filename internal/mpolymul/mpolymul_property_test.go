package mpolymul

import (
	"context"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
)

// operandsFor derives a reproducible pair of operands from generated scalars.
func operandsFor(seed int64, nvars int, ord monomial.Ordering, degree uint64) (*mpoly.Poly, *mpoly.Poly) {
	ctx, err := mpoly.NewContext(nvars, ord)
	if err != nil {
		panic(err)
	}
	rng := rand.New(rand.NewSource(seed))
	opts := mpoly.GenOptions{Terms: 1 + rng.Intn(60), MaxDegree: degree, CoeffBits: 1 + rng.Intn(90)}
	return mpoly.Random(rng, ctx, opts), mpoly.Random(rng, ctx, opts)
}

func genOrdering() gopter.Gen {
	return gen.IntRange(0, 2).Map(func(i int) monomial.Ordering { return monomial.Orderings()[i] })
}

// TestMultiplicationProperties checks the algebraic properties every
// strategy must preserve.
func TestMultiplicationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)
	pool := newPool(t, 3)
	bg := context.Background()

	properties.Property("multiplication is commutative", prop.ForAll(
		func(seed int64, nvars int, ord monomial.Ordering) bool {
			b, c := operandsFor(seed, nvars, ord, 6)
			d := NewDispatcher(Options{Pool: pool, Heuristics: noShortcut})
			bc, err1 := d.Multiply(bg, b, c)
			cb, err2 := d.Multiply(bg, c, b)
			return err1 == nil && err2 == nil && bc.Product.Equal(cb.Product)
		},
		gen.Int64(), gen.IntRange(1, 6), genOrdering(),
	))

	properties.Property("every strategy yields the same product", prop.ForAll(
		func(seed int64, nvars int, ord monomial.Ordering) bool {
			b, c := operandsFor(seed, nvars, ord, 4)
			want := naiveMul(t, b, c)
			for _, s := range []Strategy{StrategyDense, StrategyArray, StrategyHeap} {
				res, err := NewDispatcher(Options{Pool: pool, ThreadLimit: 4}).run(bg, b, c, s)
				if err != nil {
					if s == StrategyArray && nvars == 1 {
						continue // array needs two variables
					}
					t.Logf("%s: %v", s, err)
					return false
				}
				if res.Product.Validate() != nil || !res.Product.Equal(want) {
					return false
				}
			}
			return true
		},
		gen.Int64(), gen.IntRange(1, 4), genOrdering(),
	))

	properties.Property("thread count does not change the product", prop.ForAll(
		func(seed int64, nvars int, ord monomial.Ordering, limit int) bool {
			b, c := operandsFor(seed, nvars, ord, 8)
			single, err1 := NewDispatcher(Options{Pool: pool, ThreadLimit: 1}).Multiply(bg, b, c)
			multi, err2 := NewDispatcher(Options{Pool: pool, ThreadLimit: limit}).Multiply(bg, b, c)
			return err1 == nil && err2 == nil && single.Product.Equal(multi.Product)
		},
		gen.Int64(), gen.IntRange(1, 6), genOrdering(), gen.IntRange(2, 8),
	))

	properties.Property("products are canonical and within the degree bound", prop.ForAll(
		func(seed int64, nvars int, ord monomial.Ordering) bool {
			b, c := operandsFor(seed, nvars, ord, 12)
			res, err := NewDispatcher(Options{Pool: pool}).Multiply(bg, b, c)
			if err != nil || res.Product.Validate() != nil {
				return false
			}
			got := ProfileDegrees(res.Product)
			bp, cp := ProfileDegrees(b), ProfileDegrees(c)
			for v := range got.Vars {
				bv, cv := bp.Vars[v].Int64(), cp.Vars[v].Int64()
				if got.Vars[v].Int64() > bv+cv {
					return false
				}
			}
			return true
		},
		gen.Int64(), gen.IntRange(1, 7), genOrdering(),
	))

	properties.TestingRun(t)
}
