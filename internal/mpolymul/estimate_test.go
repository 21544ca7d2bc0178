package mpolymul

import (
	"context"
	"math"
	"math/big"
	"slices"
	"testing"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
)

func TestDenseCells(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		bdegs, cdegs []int64
		want         int64
		ok           bool
	}{
		{"bivariate", []int64{50, 50}, []int64{50, 50}, 10201, true},
		{"constants", []int64{0, 0, 0}, []int64{0, 0, 0}, 1, true},
		{"overflow", []int64{math.MaxInt64 / 2, 4}, []int64{math.MaxInt64 / 2, 4}, 0, false},
		{"product overflow", []int64{1 << 32, 1 << 32}, []int64{1 << 32, 1 << 32}, 0, false},
		{"negative", []int64{-1}, []int64{3}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := denseCells(tt.bdegs, tt.cdegs)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("denseCells = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTryDense(t *testing.T) {
	t.Parallel()
	h := DefaultHeuristics()
	tests := []struct {
		name         string
		tryArray     bool
		bdegs, cdegs []int64
		blen, clen   int
		want         bool
	}{
		{"dense bivariate beats array", true, []int64{50, 50}, []int64{50, 50}, 2601, 2601, true},
		{"too few products", true, []int64{50, 50}, []int64{50, 50}, 10, 10, false},
		{"above ceiling", false, []int64{2500, 2500}, []int64{2500, 2500}, 1 << 20, 1 << 20, false},
		{"grid overflow", false, []int64{math.MaxInt64 / 2}, []int64{math.MaxInt64 / 2}, 1 << 30, 1 << 30, false},
		{"product count overflow", false, []int64{3, 3}, []int64{3, 3}, math.MaxInt, math.MaxInt, true},
		{"heap factor boundary", false, []int64{0}, []int64{9}, 10, 32, false},
		{"heap factor just above", false, []int64{0}, []int64{9}, 11, 32, true},
		{"array factor is stricter", true, []int64{0}, []int64{9}, 11, 32, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TryDense(h, tt.tryArray, tt.bdegs, tt.cdegs, tt.blen, tt.clen); got != tt.want {
				t.Errorf("TryDense = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTryArrayLex(t *testing.T) {
	t.Parallel()
	h := DefaultHeuristics()
	tests := []struct {
		name         string
		bdegs, cdegs []int64
		blen, clen   int
		want         bool
	}{
		{"full grid", []int64{50, 50}, []int64{50, 50}, 2601, 2601, true},
		{"sparse operands", []int64{50, 50}, []int64{50, 50}, 10, 10, false},
		{"fill ratio boundary", []int64{9, 9, 9}, []int64{0, 0, 0}, 10, 10, false},
		{"fill ratio just below", []int64{26, 36}, []int64{0, 0}, 10, 10, true},
		{"above ceiling", []int64{10000, 10000}, []int64{0, 0}, 1 << 30, 1 << 30, false},
		{"overflow", []int64{math.MaxInt64 / 2, 7}, []int64{math.MaxInt64 / 2, 7}, 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TryArrayLex(h, tt.bdegs, tt.cdegs, tt.blen, tt.clen); got != tt.want {
				t.Errorf("TryArrayLex = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDegArrayCells(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		btdeg, ctdeg int64
		nvars        int
		want         int64
		ok           bool
	}{
		{"bivariate", 3, 2, 2, 12, true},
		{"trivariate", 5, 5, 3, 166, true},
		{"constant operands", 0, 0, 4, 0, false},
		{"negative", -1, 4, 2, 0, false},
		{"overflow", 1 << 40, 1 << 40, 3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := degArrayCells(tt.btdeg, tt.ctdeg, tt.nvars)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("degArrayCells = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTryArrayDegSumsBothOperands(t *testing.T) {
	t.Parallel()
	h := DefaultHeuristics()
	// Only the second operand has a positive degree; D = 0+10.
	if !TryArrayDeg(h, 0, 10, 5, 5, 2) {
		t.Error("TryArrayDeg(0, 10) = false, want true")
	}
	if TryArrayDeg(h, 0, 0, 5, 5, 2) {
		t.Error("TryArrayDeg(0, 0) = true, want false")
	}
	if TryArrayDeg(h, 1000, 1000, 2, 2, 4) {
		t.Error("TryArrayDeg above the ceiling = true, want false")
	}
}

func TestArrayEligible(t *testing.T) {
	t.Parallel()
	tests := []struct {
		nvars, bw, cw int
		want          bool
	}{
		{1, 1, 1, false},
		{2, 1, 1, true},
		{7, 1, 1, true},
		{8, 1, 1, false},
		{3, 2, 1, false},
		{3, 1, 2, false},
	}
	for _, tt := range tests {
		if got := ArrayEligible(tt.nvars, tt.bw, tt.cw); got != tt.want {
			t.Errorf("ArrayEligible(%d, %d, %d) = %v, want %v", tt.nvars, tt.bw, tt.cw, got, tt.want)
		}
	}
}

func TestEstimatePlan(t *testing.T) {
	t.Parallel()
	ctx := mustContext(t, 2, monomial.Lex)
	b := poly(t, ctx, []int64{1, 3, 0}, []int64{1, 0, 2})
	c := poly(t, ctx, []int64{1, 1, 1})
	plan := Estimate(DefaultHeuristics(), b, c, ProfileDegrees(b), ProfileDegrees(c))

	if plan.ProductCount != 2 {
		t.Errorf("ProductCount = %d, want 2", plan.ProductCount)
	}
	// spans (3+1+1) * (2+1+1)
	if plan.DenseCells != 20 {
		t.Errorf("DenseCells = %d, want 20", plan.DenseCells)
	}
	if !plan.ArrayEligible || plan.ArrayCells != 20 {
		t.Errorf("array eligibility = (%v, %d), want (true, 20)", plan.ArrayEligible, plan.ArrayCells)
	}
	if plan.Dense || plan.Array {
		t.Errorf("plan = %+v, want neither dense nor array", plan)
	}
}

// simplexOperand returns terms x0^a x1^b x2^c with a+b+c <= degree, the
// first one being x0^degree.
func simplexOperand(t testing.TB, ctx mpoly.Context, degree, terms int) *mpoly.Poly {
	t.Helper()
	var out []mpoly.Term
	for a := degree; a >= 0 && len(out) < terms; a-- {
		for b := 0; a+b <= degree && len(out) < terms; b++ {
			for c := 0; a+b+c <= degree && len(out) < terms; c++ {
				exps := make([]uint64, ctx.NVars)
				exps[0], exps[1], exps[2] = uint64(a), uint64(b), uint64(c)
				out = append(out, mpoly.Term{Exps: exps, Coeff: big.NewInt(int64(len(out) + 1))})
			}
		}
	}
	return mpoly.MustFromTerms(ctx, out)
}

func TestEstimateRejectsUnaddressableDegreeGrid(t *testing.T) {
	t.Parallel()
	ctx := mustContext(t, 6, monomial.DegRevLex)
	b := simplexOperand(t, ctx, 13, 240)
	c := simplexOperand(t, ctx, 14, 240)
	h := DefaultHeuristics()

	// 27^6/6! fits the simplex ceiling, but one chunk needs 28^5 cells.
	if !TryArrayDeg(h, 13, 14, b.Len(), c.Len(), 6) {
		t.Fatal("TryArrayDeg rejected the simplex estimate")
	}
	plan := Estimate(h, b, c, ProfileDegrees(b), ProfileDegrees(c))
	if plan.Array {
		t.Errorf("plan = %+v, want array rejected for an oversized chunk grid", plan)
	}

	res, err := NewDispatcher(Options{Pool: newPool(t, 0)}).Multiply(context.Background(), b, c)
	if err != nil {
		t.Fatalf("Multiply: %v", err)
	}
	if slices.Contains(res.Failed, StrategyArray) {
		t.Errorf("array was attempted and declined: %v", res.Failed)
	}
	checkProduct(t, res.Product, naiveMul(t, b, c))
}
