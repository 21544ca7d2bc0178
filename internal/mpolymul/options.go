package mpolymul

import (
	"runtime"

	"github.com/agbru/mpolycalc/internal/threadpool"
)

// Heuristics holds the overridable thresholds of the cost estimator. Zero
// fields take their Default* value.
type Heuristics struct {
	// DenseCellCeiling is the largest dense grid considered.
	DenseCellCeiling int64
	// ArrayCellCeiling is the largest lexicographic array grid considered.
	ArrayCellCeiling int64
	// DegArrayCellCeiling is the largest degree-ordered array estimate considered.
	DegArrayCellCeiling int64
	// ArrayFillRatio is the cells-per-cross-product ratio at which the array
	// strategy is rejected.
	ArrayFillRatio int64
	// DenseVsArrayFactor divides the product count when array is viable.
	DenseVsArrayFactor int64
	// DenseVsHeapFactor divides the product count when only heap is viable.
	DenseVsHeapFactor int64
	// SmallOperandTerms routes to heap when either operand is shorter.
	SmallOperandTerms int
	// SmallPairTerms routes to heap when both operands are shorter.
	SmallPairTerms int
}

// DefaultHeuristics returns the tuned default thresholds.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		DenseCellCeiling:    DefaultDenseCellCeiling,
		ArrayCellCeiling:    DefaultArrayCellCeiling,
		DegArrayCellCeiling: DefaultDegArrayCellCeiling,
		ArrayFillRatio:      DefaultArrayFillRatio,
		DenseVsArrayFactor:  DefaultDenseVsArrayFactor,
		DenseVsHeapFactor:   DefaultDenseVsHeapFactor,
		SmallOperandTerms:   DefaultSmallOperandTerms,
		SmallPairTerms:      DefaultSmallPairTerms,
	}
}

// Options configures a multiplication.
type Options struct {
	// ThreadLimit is the total number of threads a call may use, the caller
	// included. If 0, runtime.GOMAXPROCS(0) is used.
	ThreadLimit int
	// Heuristics overrides the cost estimator thresholds.
	Heuristics Heuristics
	// Pool is the thread pool handles are leased from. If nil, the
	// process-wide threadpool.Global() is used.
	Pool threadpool.Pool
}

// normalizeOptions returns a copy of opts with default values filled in for
// zero values.
//
// Parameters:
//   - opts: The options to normalize.
//
// Returns:
//   - Options: A normalized copy of opts with defaults applied.
func normalizeOptions(opts Options) Options {
	normalized := opts
	if normalized.ThreadLimit <= 0 {
		normalized.ThreadLimit = runtime.GOMAXPROCS(0)
	}
	if normalized.Pool == nil {
		normalized.Pool = threadpool.Global()
	}
	normalized.Heuristics = normalizeHeuristics(opts.Heuristics)
	return normalized
}

func normalizeHeuristics(h Heuristics) Heuristics {
	d := DefaultHeuristics()
	if h.DenseCellCeiling <= 0 {
		h.DenseCellCeiling = d.DenseCellCeiling
	}
	if h.ArrayCellCeiling <= 0 {
		h.ArrayCellCeiling = d.ArrayCellCeiling
	}
	if h.DegArrayCellCeiling <= 0 {
		h.DegArrayCellCeiling = d.DegArrayCellCeiling
	}
	if h.ArrayFillRatio <= 0 {
		h.ArrayFillRatio = d.ArrayFillRatio
	}
	if h.DenseVsArrayFactor <= 0 {
		h.DenseVsArrayFactor = d.DenseVsArrayFactor
	}
	if h.DenseVsHeapFactor <= 0 {
		h.DenseVsHeapFactor = d.DenseVsHeapFactor
	}
	if h.SmallOperandTerms <= 0 {
		h.SmallOperandTerms = d.SmallOperandTerms
	}
	if h.SmallPairTerms <= 0 {
		h.SmallPairTerms = d.SmallPairTerms
	}
	return h
}
