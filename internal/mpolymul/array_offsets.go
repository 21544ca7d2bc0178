package mpolymul

import (
	"github.com/agbru/mpolycalc/internal/monomial"
)

// MaxArrayChunkCells bounds the private grid one array worker allocates for a
// single output chunk.
const MaxArrayChunkCells = 1 << 24

// offsetScheme maps exponent vectors to grid coordinates for the array
// strategy. A coordinate is a chunk index plus an offset inside the chunk.
//
// Both maps are additive: for exponent vectors a and b inside the bounds the
// scheme was built for, chunk(a+b) = chunk(a)+chunk(b) and offset(a+b) =
// offset(a)+offset(b). They are also injective on that region, so a product
// monomial lands in exactly one cell and decode recovers it.
type offsetScheme interface {
	// chunk returns the chunk coordinate of exps.
	chunk(exps []uint64) int
	// offset returns the in-chunk coordinate of exps.
	offset(exps []uint64) int
	// numChunks returns the number of output chunks.
	numChunks() int
	// chunkCells returns the number of cells of one chunk.
	chunkCells() int
	// decode writes the exponent vector of cell in chunk k to exps.
	decode(k, cell int, exps []uint64)
	// descending reports whether canonical order walks the cells of a chunk
	// from the highest offset down. Chunks themselves are always walked from
	// the highest index down.
	descending() bool
}

// newOffsetScheme builds the scheme for ord from the operand bounds. ok is
// false when the grid cannot be addressed within ceiling cells.
func newOffsetScheme(ord monomial.Ordering, bdegs, cdegs []int64, btdeg, ctdeg int64, ceiling int64) (offsetScheme, bool) {
	if ord == monomial.Lex {
		return newLexScheme(bdegs, cdegs, ceiling)
	}
	return newDegScheme(ord, len(bdegs), btdeg, ctdeg, ceiling)
}

// ─────────────────────────────────────────────────────────────────────────────
// Lexicographic
// ─────────────────────────────────────────────────────────────────────────────

// lexScheme chunks by the exponent of x0 and addresses x1..x(n-1) in mixed
// radix, x1 most significant, with one digit per variable spanning
// bdeg+cdeg+1 values.
type lexScheme struct {
	spans   []int
	strides []int
	cells   int
}

func newLexScheme(bdegs, cdegs []int64, ceiling int64) (*lexScheme, bool) {
	total, ok := denseCells(bdegs, cdegs)
	if !ok || total > ceiling {
		return nil, false
	}
	n := len(bdegs)
	s := &lexScheme{spans: make([]int, n), strides: make([]int, n)}
	for i := range s.spans {
		s.spans[i] = int(bdegs[i] + cdegs[i] + 1)
	}
	stride := 1
	for i := n - 1; i >= 1; i-- {
		s.strides[i] = stride
		stride *= s.spans[i]
	}
	s.cells = stride
	if s.cells > MaxArrayChunkCells {
		return nil, false
	}
	return s, true
}

func (s *lexScheme) chunk(exps []uint64) int { return int(exps[0]) }

func (s *lexScheme) offset(exps []uint64) int {
	off := 0
	for i := 1; i < len(s.spans); i++ {
		off += int(exps[i]) * s.strides[i]
	}
	return off
}

func (s *lexScheme) numChunks() int   { return s.spans[0] }
func (s *lexScheme) chunkCells() int  { return s.cells }
func (s *lexScheme) descending() bool { return true }

func (s *lexScheme) decode(k, cell int, exps []uint64) {
	exps[0] = uint64(k)
	for i := 1; i < len(s.spans); i++ {
		exps[i] = uint64(cell / s.strides[i] % s.spans[i])
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Degree orderings
// ─────────────────────────────────────────────────────────────────────────────

// degScheme chunks by total degree and addresses all variables but one in
// radix D+1, where D bounds the total degree of the product. The omitted
// variable is recovered from the chunk's degree.
//
// DegLex addresses x0..x(n-2), x0 most significant, and walks cells down.
// DegRevLex addresses x(n-1)..x1, x(n-1) most significant, and walks cells
// up: a smaller exponent of the last variable ranks higher.
type degScheme struct {
	vars    []int // addressed variables, most significant first
	implied int   // the variable recovered from the degree
	radix   int
	cells   int
	desc    bool
}

func newDegScheme(ord monomial.Ordering, nvars int, btdeg, ctdeg int64, ceiling int64) (*degScheme, bool) {
	if btdeg < 0 || ctdeg < 0 {
		return nil, false
	}
	d := btdeg + ctdeg
	if d < 0 {
		return nil, false
	}
	radix := uint64(d) + 1
	cells := uint64(1)
	var ok bool
	for i := 0; i < nvars-1; i++ {
		if cells, ok = mulCheck(cells, radix); !ok {
			return nil, false
		}
	}
	if cells > uint64(min(ceiling, MaxArrayChunkCells)) {
		return nil, false
	}
	s := &degScheme{radix: int(radix), cells: int(cells), vars: make([]int, 0, nvars-1)}
	if ord == monomial.DegLex {
		for v := 0; v < nvars-1; v++ {
			s.vars = append(s.vars, v)
		}
		s.implied = nvars - 1
		s.desc = true
	} else {
		for v := nvars - 1; v >= 1; v-- {
			s.vars = append(s.vars, v)
		}
		s.implied = 0
	}
	return s, true
}

func (s *degScheme) chunk(exps []uint64) int {
	var deg uint64
	for _, e := range exps {
		deg += e
	}
	return int(deg)
}

func (s *degScheme) offset(exps []uint64) int {
	off := 0
	for _, v := range s.vars {
		off = off*s.radix + int(exps[v])
	}
	return off
}

func (s *degScheme) numChunks() int   { return s.radix }
func (s *degScheme) chunkCells() int  { return s.cells }
func (s *degScheme) descending() bool { return s.desc }

func (s *degScheme) decode(k, cell int, exps []uint64) {
	rest := uint64(k)
	for i := len(s.vars) - 1; i >= 0; i-- {
		e := uint64(cell % s.radix)
		cell /= s.radix
		exps[s.vars[i]] = e
		rest -= e
	}
	exps[s.implied] = rest
}
