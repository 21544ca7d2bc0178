package mpolymul

import (
	"container/heap"
	"math/big"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/threadpool"
)

// heapMulThreaded splits b into contiguous slices, one per worker, runs a
// Johnson merge of every slice against c, and merges the partial products.
// Workers beyond the length of b stay idle. It never fails.
func heapMulThreaded(b, c *mpoly.Poly, bp, cp DegreeProfile, pool threadpool.Pool, handles []threadpool.Handle) *mpoly.Poly {
	l, bs, cs := heapOperands(b, c, bp, cp)
	nparts := min(len(handles)+1, bs.len())
	if nparts <= 1 {
		return heapMul(b, c, bp, cp)
	}

	parts := make([]*mpoly.Poly, nparts)
	threadpool.Run(pool, handles[:nparts-1], func(w int) {
		lo, hi := w*bs.len()/nparts, (w+1)*bs.len()/nparts
		x, y := bs.slice(lo, hi), cs
		if x.len() > y.len() {
			x, y = y, x
		}
		out := mpoly.NewBuilder(b.Ctx, l.Bits, max(x.len(), y.len()))
		johnson(l, x, y, out)
		parts[w] = out.Poly()
	})
	return mergeParts(l, b.Ctx, parts)
}

// mergeParts merges canonical polynomials of one layout, summing equal
// monomials and dropping the ones that cancel.
func mergeParts(l monomial.Layout, ctx mpoly.Context, parts []*mpoly.Poly) *mpoly.Poly {
	total := 0
	cursors := make([]heapEntry, len(parts))
	h := &mergeHeap{layout: l, entries: make([]*heapEntry, 0, len(parts))}
	for k, p := range parts {
		total += p.Len()
		if p.Len() > 0 {
			cursors[k] = heapEntry{exp: p.Exp(0), i: k}
			h.entries = append(h.entries, &cursors[k])
		}
	}
	heap.Init(h)

	out := mpoly.NewBuilder(ctx, l.Bits, total)
	cur := make([]uint64, l.Words)
	var popped []*heapEntry
	var sum big.Int
	for h.Len() > 0 {
		popped = h.popEqual(popped[:0], cur)
		if len(popped) == 1 {
			e := popped[0]
			out.Append(cur, parts[e.i].Coeffs[e.j])
		} else {
			sum.SetInt64(0)
			for _, e := range popped {
				sum.Add(&sum, parts[e.i].Coeffs[e.j])
			}
			if sum.Sign() != 0 {
				out.Append(cur, new(big.Int).Set(&sum))
			}
		}
		for _, e := range popped {
			p := parts[e.i]
			if e.j+1 < p.Len() {
				e.j++
				e.exp = p.Exp(e.j)
				heap.Push(h, e)
			}
		}
	}
	return out.Poly()
}
