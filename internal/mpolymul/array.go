package mpolymul

import (
	"container/heap"
	"slices"
	"sync"

	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/threadpool"
)

// arrayOperand is one operand decomposed into grid coordinates. Canonical
// order makes the chunk coordinate non-increasing, so the terms of each chunk
// form one contiguous run.
type arrayOperand struct {
	offsets []int
	// start[u]:end[u] is the run of terms in chunk u.
	start, end []int
	// lo[u] and hi[u] are the smallest and largest offset in run u.
	lo, hi []int
	// filled lists the chunks holding at least one term, highest first.
	filled []int
}

// newArrayOperand maps every term of p through s. ok is false when a term
// lies outside the bounds s was built for, or when the chunk sequence is not
// monotone.
func newArrayOperand(p *mpoly.Poly, s offsetScheme, degs []int64, tdeg int64) (arrayOperand, bool) {
	l := p.Layout()
	op := arrayOperand{offsets: make([]int, p.Len())}
	exps := make([]uint64, l.NVars)
	prev := -1
	for i := range op.offsets {
		l.Unpack(p.Exp(i), exps)
		var deg uint64
		for v, e := range exps {
			if e > uint64(degs[v]) {
				return op, false
			}
			deg += e
		}
		if deg > uint64(tdeg) {
			return op, false
		}

		k, off := s.chunk(exps), s.offset(exps)
		switch {
		case prev < 0:
			op.start = make([]int, k+1)
			op.end = make([]int, k+1)
			op.lo = make([]int, k+1)
			op.hi = make([]int, k+1)
		case k > prev:
			return op, false
		}
		if k != prev {
			op.start[k] = i
			op.lo[k], op.hi[k] = off, off
			op.filled = append(op.filled, k)
		}
		op.end[k] = i + 1
		op.lo[k] = min(op.lo[k], off)
		op.hi[k] = max(op.hi[k], off)
		op.offsets[i] = off
		prev = k
	}
	return op, true
}

// chunkCursor pairs chunk u of the first operand with the j-th filled chunk
// of the second; k is the output chunk they land in.
type chunkCursor struct {
	u, j, k int
}

// cursorHeap orders cursors by output chunk, highest first.
type cursorHeap []chunkCursor

func (h cursorHeap) Len() int           { return len(h) }
func (h cursorHeap) Less(x, y int) bool { return h[x].k > h[y].k }
func (h cursorHeap) Swap(x, y int)      { h[x], h[y] = h[y], h[x] }
func (h *cursorHeap) Push(x any)        { *h = append(*h, x.(chunkCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old) - 1
	x := old[n]
	*h = old[:n]
	return x
}

// pairQueue hands out the output chunks reached by at least one pair of
// filled chunks, highest first, each with the chunks of the first operand
// that contribute to it. The cost of walking it grows with the number of
// filled chunk pairs, not with the chunk range.
type pairQueue struct {
	mu     sync.Mutex
	filled []int // filled chunks of the second operand, highest first
	h      cursorHeap
	seq    int
}

func newPairQueue(b, c arrayOperand) *pairQueue {
	q := &pairQueue{filled: c.filled}
	if len(c.filled) == 0 {
		return q
	}
	q.h = make(cursorHeap, 0, len(b.filled))
	for _, u := range b.filled {
		q.h = append(q.h, chunkCursor{u: u, k: u + c.filled[0]})
	}
	heap.Init(&q.h)
	return q
}

// next returns the sequence number and index of the next output chunk with
// its contributing chunks, reusing the storage of us. ok is false once every
// pair has been handed out.
func (q *pairQueue) next(us []int) (seq, k int, contrib []int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	contrib = us[:0]
	if q.h.Len() == 0 {
		return 0, 0, contrib, false
	}
	k = q.h[0].k
	for q.h.Len() > 0 && q.h[0].k == k {
		top := &q.h[0]
		contrib = append(contrib, top.u)
		top.j++
		if top.j == len(q.filled) {
			heap.Pop(&q.h)
			continue
		}
		top.k = top.u + q.filled[top.j]
		heap.Fix(&q.h, 0)
	}
	seq = q.seq
	q.seq++
	return seq, k, contrib, true
}

// chunkPart is the product restricted to one output chunk.
type chunkPart struct {
	seq int
	p   *mpoly.Poly
}

// arrayMul multiplies b and c by accumulating cross products into chunked
// grids addressed by the offset scheme of the ordering. Output chunks are
// claimed by the caller and every worker behind handles; each worker owns a
// private grid. ok is false when the operands do not meet the array
// preconditions, in which case nothing has been allocated beyond the
// coordinate maps.
func arrayMul(b, c *mpoly.Poly, bp, cp DegreeProfile, h Heuristics, pool threadpool.Pool, handles []threadpool.Handle) (*mpoly.Poly, bool) {
	nvars := b.Ctx.NVars
	if !ArrayEligible(nvars, b.Words(), c.Words()) {
		return nil, false
	}
	bdegs, bok := bp.Degrees()
	cdegs, cok := cp.Degrees()
	btdeg, btok := bp.TotalDegreeInt64()
	ctdeg, ctok := cp.TotalDegreeInt64()
	if !bok || !cok || !btok || !ctok {
		return nil, false
	}

	scheme, ok := newOffsetScheme(b.Ctx.Ord, bdegs, cdegs, btdeg, ctdeg, h.ArrayCellCeiling)
	if !ok {
		return nil, false
	}
	bop, ok := newArrayOperand(b, scheme, bdegs, btdeg)
	if !ok {
		return nil, false
	}
	cop, ok := newArrayOperand(c, scheme, cdegs, ctdeg)
	if !ok {
		return nil, false
	}

	bits := productBits(bp, cp, b.Bits, c.Bits)
	coeffs := newOperandCoeffs(b.Coeffs, c.Coeffs)
	queue := newPairQueue(bop, cop)
	local := make([][]chunkPart, len(handles)+1)

	threadpool.Run(pool, handles, func(worker int) {
		acc := coeffs.newAccumulator(scheme.chunkCells())
		defer acc.release()
		exps := make([]uint64, nvars)
		var us []int
		for {
			seq, k, got, ok := queue.next(us)
			if !ok {
				return
			}
			us = got
			if p := arrayChunk(k, us, b.Ctx, bits, scheme, bop, cop, acc, exps); p != nil {
				local[worker] = append(local[worker], chunkPart{seq: seq, p: p})
			}
		}
	})

	var parts []chunkPart
	total := 0
	for _, l := range local {
		parts = append(parts, l...)
		for _, part := range l {
			total += part.p.Len()
		}
	}
	// Sequence order is descending chunk order, which leads the output.
	slices.SortFunc(parts, func(x, y chunkPart) int { return x.seq - y.seq })
	out := mpoly.NewBuilder(b.Ctx, bits, total)
	for _, part := range parts {
		out.AppendAll(part.p)
	}
	return out.Poly(), true
}

// arrayChunk accumulates the run pairs (u, k-u), for u in us, into acc and
// reads chunk k back in canonical order. It returns nil when every sum
// cancels. acc is left zeroed.
func arrayChunk(k int, us []int, ctx mpoly.Context, bits uint, s offsetScheme, b, c arrayOperand, acc accumulator, exps []uint64) *mpoly.Poly {
	lo, hi := s.chunkCells(), -1
	for _, u := range us {
		v := k - u
		lo = min(lo, b.lo[u]+c.lo[v])
		hi = max(hi, b.hi[u]+c.hi[v])
		for i := b.start[u]; i < b.end[u]; i++ {
			bo := b.offsets[i]
			for j := c.start[v]; j < c.end[v]; j++ {
				acc.addProduct(bo+c.offsets[j], i, j)
			}
		}
	}
	if hi < 0 {
		return nil
	}

	out := mpoly.NewBuilder(ctx, bits, 0)
	emit := func(cell int) {
		if acc.isZero(cell) {
			return
		}
		s.decode(k, cell, exps)
		out.AppendUnpacked(exps, acc.take(cell))
	}
	if s.descending() {
		for cell := hi; cell >= lo; cell-- {
			emit(cell)
		}
	} else {
		for cell := lo; cell <= hi; cell++ {
			emit(cell)
		}
	}
	return out.Poly()
}
