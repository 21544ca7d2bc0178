// Package mpolymul multiplies sparse multivariate polynomials over Z.
//
// The Dispatcher picks one of three strategies per call: a dense grid
// convolution, a packed-exponent array accumulation and Johnson's heap merge.
// The choice is driven by a degree profile of both operands and a set of
// overflow-checked cost predicates. Every strategy produces the same canonical
// product, and the array and heap strategies can run across workers leased
// from a threadpool.Pool.
package mpolymul

// ─────────────────────────────────────────────────────────────────────────────
// Dispatch Heuristic Constants
// ─────────────────────────────────────────────────────────────────────────────
//
// These values are empirically tuned policy, not semantic requirements. Every
// one of them can be overridden through Heuristics.

const (
	// DefaultDenseCellCeiling is the largest dense grid the dispatcher will
	// allocate. At 5M cells the grid of big.Int headers is already ~160MB.
	DefaultDenseCellCeiling = 5_000_000

	// DefaultArrayCellCeiling bounds the grid of the lexicographic array
	// strategy.
	DefaultArrayCellCeiling = 50_000_000

	// DefaultDegArrayCellCeiling bounds the simplex volume estimate of the
	// degree-ordered array strategy.
	DefaultDegArrayCellCeiling = 5_000_000

	// DefaultArrayFillRatio rejects the array strategy when the grid has at
	// least this many cells per cross product, i.e. when it would be mostly
	// empty.
	DefaultArrayFillRatio = 10

	// DefaultDenseVsArrayFactor and DefaultDenseVsHeapFactor encode the cost
	// model of the dense test: dense and array are linear in the grid size,
	// heap is linear in the number of cross products, array is about four
	// times faster than heap. Dense wins when the grid is smaller than the
	// product count divided by the factor of the best alternative.
	DefaultDenseVsArrayFactor = 128
	DefaultDenseVsHeapFactor  = 32

	// DefaultSmallOperandTerms and DefaultSmallPairTerms define the
	// small-operand shortcut: heap is used directly when either operand has
	// fewer than SmallOperandTerms terms, or both have fewer than
	// SmallPairTerms.
	DefaultSmallOperandTerms = 20
	DefaultSmallPairTerms    = 50
)

// ─────────────────────────────────────────────────────────────────────────────
// Array Strategy Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// MaxArrayVars is the exclusive upper bound on the variable count of the
	// array strategy. It also needs at least two variables.
	MaxArrayVars = 8
)
