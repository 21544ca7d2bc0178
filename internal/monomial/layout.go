package monomial

import (
	"fmt"
	"math/big"
	"math/bits"
)

const (
	// WordBits is the width of one packed word.
	WordBits = 64

	// MinBits is the smallest field width a layout uses. Narrower requests
	// are widened so that repacking small polynomials stays rare.
	MinBits uint = 8
)

// FixBits rounds a requested field width up to the width a layout actually
// uses. Widths up to one word are widened until the fields fill their words
// evenly (64/bits fields per word); wider fields are rounded up to a whole
// number of words.
func FixBits(b uint) uint {
	if b < MinBits {
		b = MinBits
	}
	if b <= WordBits {
		return WordBits / (WordBits / b)
	}
	return (b + WordBits - 1) / WordBits * WordBits
}

// BitsFor returns the field width needed to hold values up to max with the
// guard bit left clear.
func BitsFor(max *big.Int) uint {
	return FixBits(uint(max.BitLen()) + 1)
}

// SingleWordFields reports whether fields of the given width pack several to
// a word (as opposed to spanning multiple words each).
func SingleWordFields(b uint) bool {
	return b <= WordBits
}

// Layout describes how exponent vectors over NVars variables are packed at a
// given field width.
//
// Fields are stored most significant first. Lex stores x0..x(n-1); DegLex
// stores the total degree followed by x0..x(n-1); DegRevLex stores the total
// degree followed by x(n-1)..x0, and its variable fields are compared
// bit-inverted. Every field keeps its top bit clear, so adding two packed
// vectors whose fields stay below 2^(Bits-1) never carries across fields.
type Layout struct {
	NVars   int
	Ord     Ordering
	Bits    uint
	NFields int
	// Words is the number of 64-bit words per exponent vector.
	Words int

	perWord  int // fields per word, Bits <= 64
	perField int // words per field, Bits > 64
	mask     []uint64
}

// NewLayout builds the layout for nvars variables under ord at width b.
// The width is normalised with FixBits.
func NewLayout(nvars int, ord Ordering, b uint) Layout {
	if nvars < 1 {
		panic(fmt.Sprintf("monomial: layout needs at least one variable, got %d", nvars))
	}
	b = FixBits(b)
	l := Layout{NVars: nvars, Ord: ord, Bits: b, NFields: nvars}
	if ord.IsDegree() {
		l.NFields++
	}
	if b <= WordBits {
		l.perWord = WordBits / int(b)
		l.Words = (l.NFields + l.perWord - 1) / l.perWord
	} else {
		l.perField = int(b / WordBits)
		l.Words = l.NFields * l.perField
	}
	l.mask = make([]uint64, l.Words)
	if ord == DegRevLex {
		for f := 1; f < l.NFields; f++ {
			l.orField(l.mask, f)
		}
	}
	return l
}

// WordsPerExp returns NewLayout(nvars, ord, b).Words without building the
// layout.
func WordsPerExp(nvars int, ord Ordering, b uint) int {
	b = FixBits(b)
	fields := nvars
	if ord.IsDegree() {
		fields++
	}
	if b <= WordBits {
		perWord := WordBits / int(b)
		return (fields + perWord - 1) / perWord
	}
	return fields * int(b/WordBits)
}

// SingleWord reports whether a whole exponent vector fits one word.
func (l Layout) SingleWord() bool {
	return l.Words == 1
}

// Packed reports whether fields share words (Bits <= 64).
func (l Layout) Packed() bool {
	return l.perWord > 0
}

// FieldMask returns the all-ones value of one field when Packed.
func (l Layout) FieldMask() uint64 {
	return ^uint64(0) >> (WordBits - l.Bits)
}

// FieldOfVar returns the field index that stores variable v.
func (l Layout) FieldOfVar(v int) int {
	switch l.Ord {
	case DegLex:
		return v + 1
	case DegRevLex:
		return l.NVars - v
	default:
		return v
	}
}

// position returns the word index and left shift of packed field f.
func (l Layout) position(f int) (word int, shift uint) {
	return f / l.perWord, l.Bits * uint(l.perWord-1-f%l.perWord)
}

// orField sets every bit of field f in dst.
func (l Layout) orField(dst []uint64, f int) {
	if l.Packed() {
		w, s := l.position(f)
		dst[w] |= l.FieldMask() << s
		return
	}
	for k := 0; k < l.perField; k++ {
		dst[f*l.perField+k] = ^uint64(0)
	}
}

// Field extracts packed field f of src. It requires Packed.
func (l Layout) Field(src []uint64, f int) uint64 {
	w, s := l.position(f)
	return (src[w] >> s) & l.FieldMask()
}

// FieldBig extracts field f of src for any width.
func (l Layout) FieldBig(src []uint64, f int) *big.Int {
	if l.Packed() {
		return new(big.Int).SetUint64(l.Field(src, f))
	}
	v := new(big.Int)
	var w big.Int
	for k := 0; k < l.perField; k++ {
		v.Lsh(v, WordBits)
		v.Or(v, w.SetUint64(src[f*l.perField+k]))
	}
	return v
}

// setField stores value into packed field f of dst (dst field must be zero).
func (l Layout) setField(dst []uint64, f int, value uint64) {
	w, s := l.position(f)
	dst[w] |= value << s
}

// setFieldBig stores value into field f of dst (dst field must be zero).
func (l Layout) setFieldBig(dst []uint64, f int, value *big.Int) {
	if l.Packed() {
		l.setField(dst, f, value.Uint64())
		return
	}
	var t big.Int
	lo := new(big.Int).SetUint64(^uint64(0))
	for k := 0; k < l.perField; k++ {
		t.Rsh(value, uint(WordBits*(l.perField-1-k)))
		t.And(&t, lo)
		dst[f*l.perField+k] = t.Uint64()
	}
}

// fits reports whether value leaves the guard bit of a field clear.
func (l Layout) fits(value *big.Int) bool {
	return value.Sign() >= 0 && uint(value.BitLen()) < l.Bits
}

// Pack encodes exps (one exponent per variable) into dst, which must hold
// Words words. It panics when a field would not fit.
func (l Layout) Pack(dst []uint64, exps []uint64) {
	if !l.Packed() {
		wide := make([]*big.Int, l.NVars)
		for v := range wide {
			wide[v] = new(big.Int).SetUint64(exps[v])
		}
		l.PackBig(dst, wide)
		return
	}
	clear(dst[:l.Words])
	guard := uint64(1) << (l.Bits - 1)
	var deg, carry uint64
	for v, e := range exps[:l.NVars] {
		if e >= guard {
			panic(fmt.Sprintf("monomial: exponent %d of x%d does not fit %d-bit fields", e, v, l.Bits))
		}
		l.setField(dst, l.FieldOfVar(v), e)
		deg, carry = bits.Add64(deg, e, 0)
		if carry != 0 {
			panic("monomial: total degree overflows one word")
		}
	}
	if l.Ord.IsDegree() {
		if deg >= guard {
			panic(fmt.Sprintf("monomial: total degree %d does not fit %d-bit fields", deg, l.Bits))
		}
		l.setField(dst, 0, deg)
	}
}

// PackBig encodes arbitrary-precision exponents into dst. It panics when an
// exponent is negative or a field would not fit.
func (l Layout) PackBig(dst []uint64, exps []*big.Int) {
	clear(dst[:l.Words])
	deg := new(big.Int)
	for v, e := range exps[:l.NVars] {
		if !l.fits(e) {
			panic(fmt.Sprintf("monomial: exponent %s of x%d does not fit %d-bit fields", e, v, l.Bits))
		}
		l.setFieldBig(dst, l.FieldOfVar(v), e)
		deg.Add(deg, e)
	}
	if l.Ord.IsDegree() {
		if !l.fits(deg) {
			panic(fmt.Sprintf("monomial: total degree %s does not fit %d-bit fields", deg, l.Bits))
		}
		l.setFieldBig(dst, 0, deg)
	}
}

// Unpack decodes the variable exponents of src into dst (len >= NVars).
// It requires Packed.
func (l Layout) Unpack(src []uint64, dst []uint64) {
	for v := 0; v < l.NVars; v++ {
		dst[v] = l.Field(src, l.FieldOfVar(v))
	}
}

// UnpackBig decodes the variable exponents of src for any width.
func (l Layout) UnpackBig(src []uint64) []*big.Int {
	out := make([]*big.Int, l.NVars)
	for v := range out {
		out[v] = l.FieldBig(src, l.FieldOfVar(v))
	}
	return out
}

// TotalDegree returns the total degree of src.
func (l Layout) TotalDegree(src []uint64) *big.Int {
	if l.Ord.IsDegree() {
		return l.FieldBig(src, 0)
	}
	deg := new(big.Int)
	for v := 0; v < l.NVars; v++ {
		deg.Add(deg, l.FieldBig(src, l.FieldOfVar(v)))
	}
	return deg
}

// Cmp compares two packed exponent vectors under the layout's ordering and
// returns -1, 0 or +1.
func (l Layout) Cmp(a, b []uint64) int {
	for i := 0; i < l.Words; i++ {
		x, y := a[i]^l.mask[i], b[i]^l.mask[i]
		if x != y {
			if x > y {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Add stores a+b into dst. Words are added from least to most significant
// with carry propagation, which only ever moves inside a multi-word field.
func (l Layout) Add(dst, a, b []uint64) {
	var carry uint64
	for i := l.Words - 1; i >= 0; i-- {
		dst[i], carry = bits.Add64(a[i], b[i], carry)
	}
}

// Repack converts src, encoded with layout from, into dst encoded with l.
// Both layouts must describe the same variables and ordering, and l must be
// at least as wide as from.
func (l Layout) Repack(dst []uint64, src []uint64, from Layout) {
	if from.Bits == l.Bits {
		copy(dst[:l.Words], src[:l.Words])
		return
	}
	clear(dst[:l.Words])
	if from.Packed() && l.Packed() {
		for f := 0; f < l.NFields; f++ {
			l.setField(dst, f, from.Field(src, f))
		}
		return
	}
	for f := 0; f < l.NFields; f++ {
		l.setFieldBig(dst, f, from.FieldBig(src, f))
	}
}

// MaxFields returns, for every field, the maximum value over the n packed
// vectors stored back to back in exps.
func (l Layout) MaxFields(exps []uint64, n int) []*big.Int {
	out := make([]*big.Int, l.NFields)
	if l.Packed() {
		maxes := make([]uint64, l.NFields)
		for i := 0; i < n; i++ {
			e := exps[i*l.Words : (i+1)*l.Words]
			for f := range maxes {
				maxes[f] = max(maxes[f], l.Field(e, f))
			}
		}
		for f, m := range maxes {
			out[f] = new(big.Int).SetUint64(m)
		}
		return out
	}
	for f := range out {
		out[f] = new(big.Int)
	}
	for i := 0; i < n; i++ {
		e := exps[i*l.Words : (i+1)*l.Words]
		for f := range out {
			if v := l.FieldBig(e, f); v.Cmp(out[f]) > 0 {
				out[f] = v
			}
		}
	}
	return out
}
