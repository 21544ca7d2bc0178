package mpolymul

import (
	"math/big"
	"math/bits"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
)

// DegreeProfile is the degree bound of one polynomial: the maximum of every
// packed field, of every variable, and of the total degree, over all terms.
// The zero polynomial has all-zero bounds.
type DegreeProfile struct {
	// Fields holds the per-field maxima in packed field order.
	Fields []*big.Int
	// Vars holds the per-variable maxima, indexed by variable.
	Vars []*big.Int
	// TotalDegree is the maximum total degree of a term.
	TotalDegree *big.Int
}

// ProfileDegrees scans p once and returns its degree profile.
func ProfileDegrees(p *mpoly.Poly) DegreeProfile {
	l := p.Layout()
	prof := DegreeProfile{Fields: l.MaxFields(p.Exps, p.Len())}
	prof.Vars = make([]*big.Int, l.NVars)
	for v := range prof.Vars {
		prof.Vars[v] = prof.Fields[l.FieldOfVar(v)]
	}
	if l.Ord.IsDegree() {
		prof.TotalDegree = prof.Fields[0]
	} else {
		prof.TotalDegree = maxTotalDegree(l, p)
	}
	return prof
}

// maxTotalDegree sums the variable fields of every term. Lex layouts carry no
// degree field, so this is the only extra pass the profiler makes.
func maxTotalDegree(l monomial.Layout, p *mpoly.Poly) *big.Int {
	if !l.Packed() {
		best := new(big.Int)
		for i := 0; i < p.Len(); i++ {
			if d := l.TotalDegree(p.Exp(i)); d.Cmp(best) > 0 {
				best = d
			}
		}
		return best
	}
	// Each field is below 2^63 and there are at most 64 of them, so a
	// two-word sum cannot overflow.
	var bestHi, bestLo uint64
	w := l.Words
	for i := 0; i < p.Len(); i++ {
		exp := p.Exps[i*w : (i+1)*w]
		var hi, lo, carry uint64
		for f := 0; f < l.NFields; f++ {
			lo, carry = bits.Add64(lo, l.Field(exp, f), 0)
			hi += carry
		}
		if hi > bestHi || (hi == bestHi && lo > bestLo) {
			bestHi, bestLo = hi, lo
		}
	}
	best := new(big.Int).SetUint64(bestHi)
	best.Lsh(best, 64)
	return best.Or(best, new(big.Int).SetUint64(bestLo))
}

// Degrees returns the per-variable maxima as int64 values. ok is false when
// a bound does not fit.
func (d DegreeProfile) Degrees() (degs []int64, ok bool) {
	degs = make([]int64, len(d.Vars))
	for v, x := range d.Vars {
		if !x.IsInt64() {
			return nil, false
		}
		degs[v] = x.Int64()
	}
	return degs, true
}

// TotalDegreeInt64 returns the maximum total degree, or ok=false when it
// does not fit an int64.
func (d DegreeProfile) TotalDegreeInt64() (int64, bool) {
	if !d.TotalDegree.IsInt64() {
		return 0, false
	}
	return d.TotalDegree.Int64(), true
}

// productBits returns the packing width of the product of two polynomials
// with profiles bp and cp: wide enough for the sum of every pair of field
// maxima, and never narrower than either operand.
func productBits(bp, cp DegreeProfile, bBits, cBits uint) uint {
	var sum big.Int
	need := 0
	for f := range bp.Fields {
		sum.Add(bp.Fields[f], cp.Fields[f])
		need = max(need, sum.BitLen())
	}
	return max(monomial.FixBits(uint(need)+1), bBits, cBits)
}
