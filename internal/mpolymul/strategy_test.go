package mpolymul

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
)

// TestStrategiesAgree runs every strategy, single-threaded and threaded, on
// random operands of every ordering and compares with the naive product.
func TestStrategiesAgree(t *testing.T) {
	t.Parallel()
	pool := newPool(t, 3)
	shapes := []struct {
		nvars     int
		terms     int
		degree    uint64
		coeffBits int
	}{
		{2, 40, 8, 4},
		{3, 60, 5, 40},
		{3, 60, 5, 100},
		{5, 50, 3, 62},
		{6, 30, 1, 8},
	}
	for _, ord := range monomial.Orderings() {
		for i, shape := range shapes {
			ctx := mustContext(t, shape.nvars, ord)
			rng := rand.New(rand.NewSource(int64(100 + i)))
			b, c := randomOperands(rng, ctx, shape.terms, shape.degree, shape.coeffBits)
			want := naiveMul(t, b, c)
			for _, s := range []Strategy{StrategyDense, StrategyArray, StrategyHeap} {
				for _, limit := range []int{1, 4} {
					name := fmt.Sprintf("%s/%dvars/%dbits/%s/limit=%d", ord, shape.nvars, shape.coeffBits, s, limit)
					t.Run(name, func(t *testing.T) {
						t.Parallel()
						res, err := forced(t, s, b, c, Options{Pool: pool, ThreadLimit: limit})
						if err != nil {
							t.Fatalf("forced %s: %v", s, err)
						}
						if res.Strategy != s {
							t.Fatalf("strategy = %s", res.Strategy)
						}
						checkProduct(t, res.Product, want)
					})
				}
			}
		}
	}
}

// TestCancellationInsideArrayChunks multiplies polynomials whose products
// cancel in many cells, so chunk extraction must skip zero sums.
func TestCancellationInsideArrayChunks(t *testing.T) {
	t.Parallel()
	for _, ord := range monomial.Orderings() {
		t.Run(ord.String(), func(t *testing.T) {
			t.Parallel()
			ctx := mustContext(t, 2, ord)
			// (x - y) * (x^k + x^(k-1) y + ... + y^k) = x^(k+1) - y^(k+1)
			const k = 30
			b := poly(t, ctx, []int64{1, 1, 0}, []int64{-1, 0, 1})
			var rows [][]int64
			for i := int64(0); i <= k; i++ {
				rows = append(rows, []int64{1, k - i, i})
			}
			c := poly(t, ctx, rows...)
			want := poly(t, ctx, []int64{1, k + 1, 0}, []int64{-1, 0, k + 1})
			for _, s := range []Strategy{StrategyDense, StrategyArray, StrategyHeap} {
				res, err := forced(t, s, b, c, Options{Pool: newPool(t, 2), ThreadLimit: 3})
				if err != nil {
					t.Fatalf("%s: %v", s, err)
				}
				checkProduct(t, res.Product, want)
			}
		})
	}
}

func TestWideCoefficientsCancelInWordAccumulator(t *testing.T) {
	t.Parallel()
	ctx := mustContext(t, 2, monomial.Lex)
	maxInt := int64(1<<63 - 1)
	minInt := int64(-1 << 63)
	b := poly(t, ctx, []int64{maxInt, 1, 0}, []int64{minInt, 0, 1})
	c := poly(t, ctx, []int64{minInt, 1, 0}, []int64{maxInt, 0, 1}, []int64{minInt, 0, 0})
	want := naiveMul(t, b, c)
	for _, s := range []Strategy{StrategyDense, StrategyArray} {
		res, err := forced(t, s, b, c, Options{Pool: newPool(t, 0)})
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		checkProduct(t, res.Product, want)
	}
}

func TestProductWidthCoversDegreeBound(t *testing.T) {
	t.Parallel()
	for _, ord := range monomial.Orderings() {
		ctx := mustContext(t, 3, ord)
		// 127 packs in 8 bits; the product's 254 needs 9.
		b := poly(t, ctx, []int64{1, 127, 0, 0}, []int64{1, 0, 0, 0})
		c := poly(t, ctx, []int64{1, 127, 0, 0}, []int64{2, 0, 1, 0})
		res, err := forced(t, StrategyHeap, b, c, Options{Pool: newPool(t, 0)})
		if err != nil {
			t.Fatalf("%s: %v", ord, err)
		}
		p := res.Product
		checkProduct(t, p, naiveMul(t, b, c))
		prof := ProfileDegrees(p)
		if prof.Vars[0].Cmp(big.NewInt(254)) != 0 {
			t.Errorf("%s: deg x0 = %s, want 254", ord, prof.Vars[0])
		}
		bp, cp := ProfileDegrees(b), ProfileDegrees(c)
		for v := range prof.Vars {
			bound := new(big.Int).Add(bp.Vars[v], cp.Vars[v])
			if prof.Vars[v].Cmp(bound) > 0 {
				t.Errorf("%s: deg x%d = %s exceeds %s", ord, v, prof.Vars[v], bound)
			}
		}
	}
}

func TestMultiplierRegistry(t *testing.T) {
	t.Parallel()
	f := NewDefaultFactory()
	for _, name := range []string{"array", "auto", "dense", "heap"} {
		if !f.Has(name) {
			t.Errorf("%q is not registered", name)
		}
	}
	if _, err := f.Get("fft"); err == nil {
		t.Error("Get of an unknown multiplier succeeded")
	}
	if err := f.Register("", nil); err == nil {
		t.Error("empty registration accepted")
	}

	ctx := mustContext(t, 2, monomial.DegRevLex)
	b, c := randomOperands(rand.New(rand.NewSource(11)), ctx, 60, 6, 16)
	want := naiveMul(t, b, c)
	for name, m := range f.GetAll() {
		if m.Name() != name {
			t.Errorf("multiplier %q reports name %q", name, m.Name())
		}
		res, err := m.Multiply(context.Background(), b, c, Options{Pool: newPool(t, 1)})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		checkProduct(t, res.Product, want)
	}
}

func TestRepeatedCallsReuseScratch(t *testing.T) {
	t.Parallel()
	ctx := mustContext(t, 2, monomial.Lex)
	d := NewDispatcher(Options{Pool: newPool(t, 2), ThreadLimit: 3})
	for seed := int64(0); seed < 5; seed++ {
		b, c := randomOperands(rand.New(rand.NewSource(seed)), ctx, 120, 15, 30)
		res, err := d.Multiply(context.Background(), b, c)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		checkProduct(t, res.Product, naiveMul(t, b, c))
	}
}

// gatedMultiplier waits for release before multiplying, ignoring ctx like a
// running strategy does.
type gatedMultiplier struct {
	release chan struct{}
	inner   Multiplier
}

func (m gatedMultiplier) Name() string { return "gated" }

func (m gatedMultiplier) Multiply(ctx context.Context, b, c *mpoly.Poly, opts Options) (Result, error) {
	<-m.release
	return m.inner.Multiply(ctx, b, c, opts)
}

func TestMultiplyContext(t *testing.T) {
	t.Parallel()
	ctx := mustContext(t, 2, monomial.Lex)
	b, c := randomOperands(rand.New(rand.NewSource(5)), ctx, 30, 6, 16)
	opts := Options{Pool: newPool(t, 0)}

	t.Run("completes", func(t *testing.T) {
		t.Parallel()
		res, err := MultiplyContext(context.Background(), autoMultiplier{}, b, c, opts)
		if err != nil {
			t.Fatalf("MultiplyContext: %v", err)
		}
		checkProduct(t, res.Product, naiveMul(t, b, c))
	})

	t.Run("deadline abandons a running call", func(t *testing.T) {
		t.Parallel()
		m := gatedMultiplier{release: make(chan struct{}), inner: autoMultiplier{}}
		t.Cleanup(func() { close(m.release) })
		dctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := MultiplyContext(dctx, m, b, c, opts)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err = %v, want deadline exceeded", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("returned after %v", elapsed)
		}
	})

	t.Run("canceled before start", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := MultiplyContext(cctx, autoMultiplier{}, b, c, opts); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want canceled", err)
		}
	})
}
