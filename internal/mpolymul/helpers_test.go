package mpolymul

import (
	"context"
	"math/big"
	"math/rand"
	"testing"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/testutil"
	"github.com/agbru/mpolycalc/internal/threadpool"
)

// noShortcut disables the small-operand shortcut so the estimator decides.
var noShortcut = Heuristics{SmallOperandTerms: 1, SmallPairTerms: 1}

// naiveMul is the schoolbook reference product.
func naiveMul(t testing.TB, b, c *mpoly.Poly) *mpoly.Poly {
	t.Helper()
	p, err := testutil.NaiveMul(b, c)
	if err != nil {
		t.Fatalf("reference product: %v", err)
	}
	return p
}

func mustContext(t testing.TB, nvars int, ord monomial.Ordering) mpoly.Context {
	t.Helper()
	ctx, err := mpoly.NewContext(nvars, ord)
	if err != nil {
		t.Fatalf("NewContext(%d, %s): %v", nvars, ord, err)
	}
	return ctx
}

// poly builds a polynomial from (coeff, exps...) rows.
func poly(t testing.TB, ctx mpoly.Context, rows ...[]int64) *mpoly.Poly {
	t.Helper()
	terms := make([]mpoly.Term, len(rows))
	for i, r := range rows {
		exps := make([]uint64, len(r)-1)
		for v, e := range r[1:] {
			exps[v] = uint64(e)
		}
		terms[i] = mpoly.Term{Exps: exps, Coeff: big.NewInt(r[0])}
	}
	p, err := mpoly.FromTerms(ctx, terms)
	if err != nil {
		t.Fatalf("FromTerms: %v", err)
	}
	return p
}

// newPool returns a worker pool closed at the end of the test.
func newPool(t testing.TB, size int) *threadpool.WorkerPool {
	t.Helper()
	p := threadpool.New(size)
	t.Cleanup(p.Close)
	return p
}

// forced runs strategy s alone.
func forced(t testing.TB, s Strategy, b, c *mpoly.Poly, opts Options) (Result, error) {
	t.Helper()
	return NewDispatcher(opts).run(context.Background(), b, c, s)
}

// checkProduct fails the test unless got is canonical and equals want.
func checkProduct(t testing.TB, got, want *mpoly.Poly) {
	t.Helper()
	if got == nil {
		t.Fatal("nil product")
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("product is not canonical: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("product mismatch:\n got %d terms\nwant %d terms", got.Len(), want.Len())
	}
}

// randomOperands draws a pair of random polynomials of ctx.
func randomOperands(rng *rand.Rand, ctx mpoly.Context, terms int, degree uint64, coeffBits int) (*mpoly.Poly, *mpoly.Poly) {
	opts := mpoly.GenOptions{Terms: terms, MaxDegree: degree, CoeffBits: coeffBits}
	return mpoly.Random(rng, ctx, opts), mpoly.Random(rng, ctx, opts)
}
