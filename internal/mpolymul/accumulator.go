package mpolymul

import (
	"math/big"
	"math/bits"

	"github.com/agbru/mpolycalc/internal/scratch"
)

// accumulator is a grid of coefficient sums addressed by cell index. The
// array and dense strategies add coefficient products into it and read back
// the nonzero cells.
type accumulator interface {
	// addProduct adds b.Coeffs[i]*c.Coeffs[j] to cell.
	addProduct(cell, i, j int)
	// isZero reports whether cell holds zero.
	isZero(cell int) bool
	// take returns the value of cell and zeroes it, leaving the grid ready
	// for reuse once every nonzero cell has been taken.
	take(cell int) *big.Int
	// release returns the grid to the scratch pool.
	release()
}

// operandCoeffs holds the coefficients of both operands, with int64 copies
// when every one of them fits.
type operandCoeffs struct {
	b, c   []*big.Int
	bs, cs []int64
	small  bool
}

func newOperandCoeffs(bc, cc []*big.Int) operandCoeffs {
	o := operandCoeffs{b: bc, c: cc}
	var bok, cok bool
	o.bs, bok = smallCoeffs(bc)
	o.cs, cok = smallCoeffs(cc)
	o.small = bok && cok
	return o
}

// newAccumulator returns a zeroed grid of cells: the fixed-width accumulator
// when all coefficients are small, the big.Int one otherwise.
func (o operandCoeffs) newAccumulator(cells int) accumulator {
	if o.small {
		return &wordAccumulator{cells: scratch.AcquireWords(3 * cells), b: o.bs, c: o.cs}
	}
	return &bigAccumulator{cells: scratch.AcquireGrid(cells), b: o.b, c: o.c}
}

func smallCoeffs(cs []*big.Int) ([]int64, bool) {
	out := make([]int64, len(cs))
	for i, c := range cs {
		if !c.IsInt64() {
			return nil, false
		}
		out[i] = c.Int64()
	}
	return out, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Three-word accumulator
// ─────────────────────────────────────────────────────────────────────────────

// wordAccumulator keeps every cell as a 192-bit two's complement integer in
// three words, most significant first. A product of two int64 values fits in
// 127 bits plus sign, so fewer than 2^64 additions cannot overflow a cell.
type wordAccumulator struct {
	cells []uint64
	b, c  []int64
}

func (a *wordAccumulator) addProduct(cell, i, j int) {
	x, y := a.b[i], a.c[j]
	neg := (x < 0) != (y < 0) && x != 0 && y != 0
	hi, lo := bits.Mul64(abs64(x), abs64(y))
	top := uint64(0)
	if neg {
		// Negate the 128-bit magnitude and sign-extend.
		lo = ^lo + 1
		hi = ^hi
		if lo == 0 {
			hi++
		}
		top = ^uint64(0)
	}
	p := a.cells[3*cell : 3*cell+3]
	var carry uint64
	p[2], carry = bits.Add64(p[2], lo, 0)
	p[1], carry = bits.Add64(p[1], hi, carry)
	p[0], _ = bits.Add64(p[0], top, carry)
}

func (a *wordAccumulator) isZero(cell int) bool {
	p := a.cells[3*cell : 3*cell+3]
	return p[0]|p[1]|p[2] == 0
}

func (a *wordAccumulator) take(cell int) *big.Int {
	p := a.cells[3*cell : 3*cell+3]
	w0, w1, w2 := p[0], p[1], p[2]
	p[0], p[1], p[2] = 0, 0, 0
	neg := int64(w0) < 0
	if neg {
		var borrow uint64
		w2, borrow = bits.Sub64(0, w2, 0)
		w1, borrow = bits.Sub64(0, w1, borrow)
		w0, _ = bits.Sub64(0, w0, borrow)
	}
	v := new(big.Int).SetUint64(w0)
	v.Lsh(v, 64).Or(v, new(big.Int).SetUint64(w1))
	v.Lsh(v, 64).Or(v, new(big.Int).SetUint64(w2))
	if neg {
		v.Neg(v)
	}
	return v
}

func (a *wordAccumulator) release() {
	scratch.ReleaseWords(a.cells)
	a.cells = nil
}

func abs64(x int64) uint64 {
	if x < 0 {
		return uint64(-x)
	}
	return uint64(x)
}

// ─────────────────────────────────────────────────────────────────────────────
// Arbitrary-precision accumulator
// ─────────────────────────────────────────────────────────────────────────────

type bigAccumulator struct {
	cells []big.Int
	b, c  []*big.Int
	tmp   big.Int
}

func (a *bigAccumulator) addProduct(cell, i, j int) {
	a.tmp.Mul(a.b[i], a.c[j])
	a.cells[cell].Add(&a.cells[cell], &a.tmp)
}

func (a *bigAccumulator) isZero(cell int) bool {
	return a.cells[cell].Sign() == 0
}

func (a *bigAccumulator) take(cell int) *big.Int {
	v := new(big.Int).Set(&a.cells[cell])
	a.cells[cell].SetInt64(0)
	return v
}

func (a *bigAccumulator) release() {
	scratch.ReleaseGrid(a.cells)
	a.cells = nil
}
