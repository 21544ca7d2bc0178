package mpolymul

import (
	"container/heap"
	"math/big"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
)

// termSeq is a run of canonical terms sharing one packed layout.
type termSeq struct {
	exps   []uint64
	coeffs []*big.Int
	words  int
}

func seqOf(p *mpoly.Poly) termSeq {
	return termSeq{exps: p.Exps, coeffs: p.Coeffs, words: p.Words()}
}

func (s termSeq) len() int { return len(s.coeffs) }

func (s termSeq) exp(i int) []uint64 {
	return s.exps[i*s.words : (i+1)*s.words]
}

// slice returns terms lo..hi-1.
func (s termSeq) slice(lo, hi int) termSeq {
	return termSeq{exps: s.exps[lo*s.words : hi*s.words], coeffs: s.coeffs[lo:hi], words: s.words}
}

// ─────────────────────────────────────────────────────────────────────────────
// Max-heap of candidate monomials
// ─────────────────────────────────────────────────────────────────────────────

// heapEntry is a candidate (i, j) with its packed monomial.
type heapEntry struct {
	exp  []uint64
	i, j int
}

// mergeHeap orders entries by monomial, greatest first.
type mergeHeap struct {
	layout  monomial.Layout
	entries []*heapEntry
}

func (h *mergeHeap) Len() int { return len(h.entries) }
func (h *mergeHeap) Less(x, y int) bool {
	return h.layout.Cmp(h.entries[x].exp, h.entries[y].exp) > 0
}
func (h *mergeHeap) Swap(x, y int) { h.entries[x], h.entries[y] = h.entries[y], h.entries[x] }
func (h *mergeHeap) Push(x any)    { h.entries = append(h.entries, x.(*heapEntry)) }
func (h *mergeHeap) Pop() any {
	n := len(h.entries) - 1
	e := h.entries[n]
	h.entries[n] = nil
	h.entries = h.entries[:n]
	return e
}

// popEqual pops every entry whose monomial equals the top one into dst and
// copies that monomial to cur.
func (h *mergeHeap) popEqual(dst []*heapEntry, cur []uint64) []*heapEntry {
	copy(cur, h.entries[0].exp)
	for h.Len() > 0 && h.layout.Cmp(h.entries[0].exp, cur) == 0 {
		dst = append(dst, heap.Pop(h).(*heapEntry))
	}
	return dst
}

// ─────────────────────────────────────────────────────────────────────────────
// Johnson's algorithm
// ─────────────────────────────────────────────────────────────────────────────

// johnson appends a*b to out in canonical order. The rows of the merge are
// the terms of a, so the heap never holds more than a.len() candidates;
// callers pass the shorter operand as a.
//
// Each row i has exactly one candidate (i, j) in flight. When it is popped,
// (i, j+1) replaces it, and popping (i, 0) also starts row i+1: every
// monomial of row i+1 is smaller than a[i]+b[0], so it cannot be due earlier.
func johnson(l monomial.Layout, a, b termSeq, out *mpoly.Builder) {
	if a.len() == 0 || b.len() == 0 {
		return
	}
	w := l.Words
	rows := make([]heapEntry, a.len())
	bufs := make([]uint64, a.len()*w)
	for i := range rows {
		rows[i].exp = bufs[i*w : (i+1)*w]
		rows[i].i = i
	}
	h := &mergeHeap{layout: l, entries: make([]*heapEntry, 0, a.len())}
	l.Add(rows[0].exp, a.exp(0), b.exp(0))
	heap.Push(h, &rows[0])

	cur := make([]uint64, w)
	var popped []*heapEntry
	var sum, prod big.Int
	for h.Len() > 0 {
		popped = h.popEqual(popped[:0], cur)
		sum.SetInt64(0)
		for _, e := range popped {
			prod.Mul(a.coeffs[e.i], b.coeffs[e.j])
			sum.Add(&sum, &prod)
		}
		if sum.Sign() != 0 {
			out.Append(cur, new(big.Int).Set(&sum))
		}
		for _, e := range popped {
			if e.j == 0 && e.i+1 < a.len() {
				next := &rows[e.i+1]
				l.Add(next.exp, a.exp(e.i+1), b.exp(0))
				heap.Push(h, next)
			}
			if e.j+1 < b.len() {
				e.j++
				l.Add(e.exp, a.exp(e.i), b.exp(e.j))
				heap.Push(h, e)
			}
		}
	}
}

// heapOperands repacks b and c to the product width and returns the layout.
func heapOperands(b, c *mpoly.Poly, bp, cp DegreeProfile) (monomial.Layout, termSeq, termSeq) {
	bits := productBits(bp, cp, b.Bits, c.Bits)
	return b.Ctx.Layout(bits), seqOf(b.Repack(bits)), seqOf(c.Repack(bits))
}

// heapMul multiplies b and c with a single Johnson merge. It never fails.
func heapMul(b, c *mpoly.Poly, bp, cp DegreeProfile) *mpoly.Poly {
	l, bs, cs := heapOperands(b, c, bp, cp)
	if bs.len() > cs.len() {
		bs, cs = cs, bs
	}
	out := mpoly.NewBuilder(b.Ctx, l.Bits, max(bs.len(), cs.len()))
	johnson(l, bs, cs, out)
	return out.Poly()
}
