// Package scratch pools the coefficient grids used by the dense and array
// multipliers to reduce GC pressure on repeated multiplications.
package scratch

import (
	"math/big"
	"sync"
)

// ─────────────────────────────────────────────────────────────────────────────
// Grid Pools
// ─────────────────────────────────────────────────────────────────────────────

// gridSizes defines the size classes of pooled grids. Grids above the
// largest class are allocated directly and left to the GC.
var gridSizes = [...]int{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304}

var gridPools = [...]sync.Pool{
	{New: func() any { return make([]big.Int, 256) }},
	{New: func() any { return make([]big.Int, 1024) }},
	{New: func() any { return make([]big.Int, 4096) }},
	{New: func() any { return make([]big.Int, 16384) }},
	{New: func() any { return make([]big.Int, 65536) }},
	{New: func() any { return make([]big.Int, 262144) }},
	{New: func() any { return make([]big.Int, 1048576) }},
	{New: func() any { return make([]big.Int, 4194304) }}, // 4M cells
}

// poolIndex returns the pool index for a given size, or -1 when the size is
// too large for pooling.
func poolIndex(size int) int {
	for i, s := range gridSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// AcquireGrid returns a zeroed grid of exactly size cells. Cells keep their
// backing storage between uses, so accumulating into a recycled grid rarely
// allocates.
//
// The grid should be released with ReleaseGrid, preferably with defer:
//
//	g := scratch.AcquireGrid(n)
//	defer scratch.ReleaseGrid(g)
func AcquireGrid(size int) []big.Int {
	idx := poolIndex(size)
	if idx < 0 {
		return make([]big.Int, size)
	}
	g := gridPools[idx].Get().([]big.Int)
	g = g[:size]
	for i := range g {
		g[i].SetInt64(0)
	}
	return g
}

// ReleaseGrid returns a grid to its pool. Grids that did not come from a
// pool are dropped. Safe to call with nil.
func ReleaseGrid(g []big.Int) {
	if g == nil {
		return
	}
	c := cap(g)
	idx := poolIndex(c)
	if idx >= 0 && gridSizes[idx] == c {
		gridPools[idx].Put(g[:c])
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Word Pools
// ─────────────────────────────────────────────────────────────────────────────

// wordSizes defines the size classes of pooled uint64 buffers, used by the
// fixed-width accumulators (three words per cell).
var wordSizes = [...]int{768, 3072, 12288, 49152, 196608, 786432, 3145728, 12582912}

var wordPools = [...]sync.Pool{
	{New: func() any { return make([]uint64, 768) }},
	{New: func() any { return make([]uint64, 3072) }},
	{New: func() any { return make([]uint64, 12288) }},
	{New: func() any { return make([]uint64, 49152) }},
	{New: func() any { return make([]uint64, 196608) }},
	{New: func() any { return make([]uint64, 786432) }},
	{New: func() any { return make([]uint64, 3145728) }},
	{New: func() any { return make([]uint64, 12582912) }},
}

func wordIndex(size int) int {
	for i, s := range wordSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// AcquireWords returns a zeroed []uint64 of exactly size words.
func AcquireWords(size int) []uint64 {
	idx := wordIndex(size)
	if idx < 0 {
		return make([]uint64, size)
	}
	w := wordPools[idx].Get().([]uint64)[:size]
	clear(w)
	return w
}

// ReleaseWords returns a buffer obtained from AcquireWords. Safe to call with
// nil.
func ReleaseWords(w []uint64) {
	if w == nil {
		return
	}
	c := cap(w)
	idx := wordIndex(c)
	if idx >= 0 && wordSizes[idx] == c {
		wordPools[idx].Put(w[:c])
	}
}
