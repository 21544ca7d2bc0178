package mpolymul

import (
	"math"
	"math/bits"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
)

// ─────────────────────────────────────────────────────────────────────────────
// Cost Predicates
// ─────────────────────────────────────────────────────────────────────────────
//
// Each predicate is a pure function of scalars computed by the profiler. The
// dispatcher composes them through Estimate.

// mulCheck returns a*b and whether the product fits a positive int64.
func mulCheck(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0 && lo <= math.MaxInt64
}

// denseCells returns Π(bdegs[i] + cdegs[i] + 1), the number of cells of a
// grid holding every product monomial. ok is false on overflow or when a
// degree is negative.
func denseCells(bdegs, cdegs []int64) (cells int64, ok bool) {
	size := uint64(1)
	for i := range bdegs {
		if bdegs[i] < 0 || cdegs[i] < 0 {
			return 0, false
		}
		span := uint64(bdegs[i]) + uint64(cdegs[i]) + 1
		if size, ok = mulCheck(size, span); !ok {
			return 0, false
		}
	}
	return int64(size), size > 0
}

// productCount returns blen*clen, or ok=false on overflow.
func productCount(blen, clen int) (int64, bool) {
	if blen < 0 || clen < 0 {
		return 0, false
	}
	n, ok := mulCheck(uint64(blen), uint64(clen))
	return int64(n), ok
}

// TryDense decides whether the dense strategy should be attempted. The grid
// must be representable and within the ceiling; it must then beat the best
// alternative by the configured factor. An overflowing product count means
// dense cannot be ruled out.
func TryDense(h Heuristics, tryArray bool, bdegs, cdegs []int64, blen, clen int) bool {
	cells, ok := denseCells(bdegs, cdegs)
	if !ok || cells > h.DenseCellCeiling {
		return false
	}
	count, ok := productCount(blen, clen)
	if !ok {
		return true
	}
	factor := h.DenseVsHeapFactor
	if tryArray {
		factor = h.DenseVsArrayFactor
	}
	return cells < count/factor
}

// fillRatioOK reports whether a grid of cells is dense enough relative to the
// blen*clen cross products that fill it.
func fillRatioOK(h Heuristics, cells int64, blen, clen int) bool {
	if blen <= 0 || clen <= 0 {
		return false
	}
	return cells/int64(blen)/int64(clen) < h.ArrayFillRatio
}

// TryArrayLex decides whether the lexicographic array strategy should be
// attempted.
func TryArrayLex(h Heuristics, bdegs, cdegs []int64, blen, clen int) bool {
	cells, ok := denseCells(bdegs, cdegs)
	if !ok || cells > h.ArrayCellCeiling {
		return false
	}
	return fillRatioOK(h, cells, blen, clen)
}

// degArrayCells estimates the simplex volume D^n/n! of the monomials of total
// degree at most D = btdeg+ctdeg. ok is false on overflow or when D <= 0.
func degArrayCells(btdeg, ctdeg int64, nvars int) (int64, bool) {
	if btdeg < 0 || ctdeg < 0 {
		return 0, false
	}
	d := uint64(btdeg) + uint64(ctdeg)
	if d == 0 || d > math.MaxInt64 {
		return 0, false
	}
	size := uint64(1)
	var ok bool
	for i := 0; i < nvars; i++ {
		if size, ok = mulCheck(size, d); !ok {
			return 0, false
		}
	}
	for i := 1; i <= nvars; i++ {
		size /= uint64(i)
	}
	return int64(size), true
}

// TryArrayDeg decides whether the degree-ordered array strategy should be
// attempted, from the maximum total degrees of both operands.
func TryArrayDeg(h Heuristics, btdeg, ctdeg int64, blen, clen, nvars int) bool {
	cells, ok := degArrayCells(btdeg, ctdeg, nvars)
	if !ok || cells > h.DegArrayCellCeiling {
		return false
	}
	return fillRatioOK(h, cells, blen, clen)
}

// ArrayEligible reports whether the array strategy can run at all: between
// two and MaxArrayVars-1 variables, and one word per exponent in both operands.
func ArrayEligible(nvars, bWords, cWords int) bool {
	return nvars > 1 && nvars < MaxArrayVars && bWords == 1 && cWords == 1
}

// ─────────────────────────────────────────────────────────────────────────────
// Plan
// ─────────────────────────────────────────────────────────────────────────────

// Plan is the outcome of the cost estimator for one multiplication.
type Plan struct {
	// Dense and Array report which strategies should be attempted.
	Dense bool `json:"dense"`
	Array bool `json:"array"`
	// ArrayEligible reports whether the array preconditions hold,
	// independently of its cost test.
	ArrayEligible bool `json:"array_eligible"`
	// DenseCells is the dense grid size, or -1 when it overflows.
	DenseCells int64 `json:"dense_cells"`
	// ArrayCells is the array grid estimate for the ordering, or -1.
	ArrayCells int64 `json:"array_cells"`
	// ProductCount is Blen*Clen, or -1 when it overflows.
	ProductCount int64 `json:"product_count"`
}

// Estimate runs the cost predicates for b and c with profiles bp and cp.
func Estimate(h Heuristics, b, c *mpoly.Poly, bp, cp DegreeProfile) Plan {
	plan := Plan{DenseCells: -1, ArrayCells: -1, ProductCount: -1}
	if n, ok := productCount(b.Len(), c.Len()); ok {
		plan.ProductCount = n
	}
	bdegs, bok := bp.Degrees()
	cdegs, cok := cp.Degrees()
	if !bok || !cok {
		return plan
	}
	if n, ok := denseCells(bdegs, cdegs); ok {
		plan.DenseCells = n
	}

	nvars := b.Ctx.NVars
	plan.ArrayEligible = ArrayEligible(nvars, b.Words(), c.Words())
	if plan.ArrayEligible {
		if b.Ctx.Ord == monomial.Lex {
			plan.ArrayCells = plan.DenseCells
			plan.Array = TryArrayLex(h, bdegs, cdegs, b.Len(), c.Len())
		} else {
			btdeg, _ := bp.TotalDegreeInt64()
			ctdeg, _ := cp.TotalDegreeInt64()
			if n, ok := degArrayCells(btdeg, ctdeg, nvars); ok {
				plan.ArrayCells = n
			}
			plan.Array = TryArrayDeg(h, btdeg, ctdeg, b.Len(), c.Len(), nvars)
		}
		// The simplex estimate can accept products whose per-chunk grid
		// exceeds MaxArrayChunkCells, which the array strategy never allocates.
		if plan.Array {
			btdeg, _ := bp.TotalDegreeInt64()
			ctdeg, _ := cp.TotalDegreeInt64()
			_, plan.Array = newOffsetScheme(b.Ctx.Ord, bdegs, cdegs, btdeg, ctdeg, math.MaxInt64)
		}
	}
	plan.Dense = TryDense(h, plan.Array, bdegs, cdegs, b.Len(), c.Len())
	return plan
}
