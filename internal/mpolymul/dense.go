package mpolymul

import (
	"slices"

	"github.com/agbru/mpolycalc/internal/mpoly"
)

// denseOffsets returns the row-major grid offset of every term of p, with
// variable 0 most significant.
func denseOffsets(p *mpoly.Poly, strides []int, degs []int64) ([]int, bool) {
	l := p.Layout()
	exps := make([]uint64, l.NVars)
	out := make([]int, p.Len())
	for i := range out {
		l.Unpack(p.Exp(i), exps)
		off := 0
		for v, e := range exps {
			if e > uint64(degs[v]) {
				return nil, false
			}
			off += int(e) * strides[v]
		}
		out[i] = off
	}
	return out, true
}

// denseMul multiplies b and c on a grid spanning every monomial whose
// exponents are bounded by the sum of the operand degrees. It runs on the
// calling goroutine only. ok is false when the grid cannot be represented or
// exceeds maxCells.
func denseMul(b, c *mpoly.Poly, bp, cp DegreeProfile, maxCells int64) (*mpoly.Poly, bool) {
	if !b.Layout().Packed() || !c.Layout().Packed() {
		return nil, false
	}
	bdegs, bok := bp.Degrees()
	cdegs, cok := cp.Degrees()
	if !bok || !cok {
		return nil, false
	}
	cells, ok := denseCells(bdegs, cdegs)
	if !ok || cells > maxCells {
		return nil, false
	}

	n := b.Ctx.NVars
	spans := make([]int, n)
	strides := make([]int, n)
	stride := 1
	for v := n - 1; v >= 0; v-- {
		spans[v] = int(bdegs[v] + cdegs[v] + 1)
		strides[v] = stride
		stride *= spans[v]
	}
	boffs, ok := denseOffsets(b, strides, bdegs)
	if !ok {
		return nil, false
	}
	coffs, ok := denseOffsets(c, strides, cdegs)
	if !ok {
		return nil, false
	}

	acc := newOperandCoeffs(b.Coeffs, c.Coeffs).newAccumulator(int(cells))
	defer acc.release()
	for i, bo := range boffs {
		for j, co := range coffs {
			acc.addProduct(bo+co, i, j)
		}
	}

	bits := productBits(bp, cp, b.Bits, c.Bits)
	out := mpoly.NewBuilder(b.Ctx, bits, 0)
	exps := make([]uint64, n)
	for cell := int(cells) - 1; cell >= 0; cell-- {
		if acc.isZero(cell) {
			continue
		}
		rest := cell
		for v := n - 1; v >= 0; v-- {
			exps[v] = uint64(rest % spans[v])
			rest /= spans[v]
		}
		out.AppendUnpacked(exps, acc.take(cell))
	}
	p := out.Poly()
	if b.Ctx.Ord.IsDegree() {
		p = sortDescending(p)
	}
	return p, true
}

// sortDescending returns the terms of p, which are distinct, in canonical
// order for p's layout.
func sortDescending(p *mpoly.Poly) *mpoly.Poly {
	l := p.Layout()
	idx := make([]int, p.Len())
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(x, y int) int {
		return l.Cmp(p.Exp(y), p.Exp(x))
	})
	out := mpoly.NewBuilder(p.Ctx, p.Bits, len(idx))
	for _, i := range idx {
		out.Append(p.Exp(i), p.Coeffs[i])
	}
	return out.Poly()
}
