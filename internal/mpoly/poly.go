// Package mpoly defines the sparse multivariate polynomial over Z used by the
// multiplication packages.
//
// A Poly is a sequence of terms held in two parallel arrays: packed exponent
// vectors (see package monomial) and arbitrary-precision coefficients. A
// polynomial is canonical when its terms are strictly descending under the
// context's monomial ordering and no coefficient is zero; the zero polynomial
// has no terms.
package mpoly

import (
	"fmt"
	"math/big"
	"sort"

	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/monomial"
)

// MaxVars bounds the number of variables a context may declare.
const MaxVars = 64

// Context is the ring a polynomial lives in: the variable count and the
// monomial ordering.
type Context struct {
	NVars int
	Ord   monomial.Ordering
}

// NewContext validates and returns a context.
func NewContext(nvars int, ord monomial.Ordering) (Context, error) {
	ctx := Context{NVars: nvars, Ord: ord}
	return ctx, ctx.Validate()
}

// Validate reports whether the context describes a usable ring.
func (c Context) Validate() error {
	if c.NVars < 1 || c.NVars > MaxVars {
		return apperrors.NewValidationError("nvars", fmt.Sprintf("must be between 1 and %d", MaxVars), c.NVars)
	}
	if !c.Ord.Valid() {
		return apperrors.NewValidationError("ordering", "unknown monomial ordering", c.Ord)
	}
	return nil
}

// Layout returns the monomial layout of this context at width bits.
func (c Context) Layout(bits uint) monomial.Layout {
	return monomial.NewLayout(c.NVars, c.Ord, bits)
}

// Term is a monomial with machine-word exponents and its coefficient.
type Term struct {
	Exps  []uint64
	Coeff *big.Int
}

// BigTerm is a monomial with arbitrary-precision exponents and its coefficient.
type BigTerm struct {
	Exps  []*big.Int
	Coeff *big.Int
}

// Poly is a polynomial in canonical form. Exponent vector i occupies
// Exps[i*w:(i+1)*w] where w is the number of words of Layout().
type Poly struct {
	Ctx    Context
	Bits   uint
	Exps   []uint64
	Coeffs []*big.Int
}

// Zero returns the zero polynomial of ctx.
func Zero(ctx Context) *Poly {
	return &Poly{Ctx: ctx, Bits: monomial.MinBits}
}

// Layout returns the monomial layout of p.
func (p *Poly) Layout() monomial.Layout {
	return p.Ctx.Layout(p.Bits)
}

// Len returns the number of terms.
func (p *Poly) Len() int {
	return len(p.Coeffs)
}

// IsZero reports whether p is the zero polynomial.
func (p *Poly) IsZero() bool {
	return len(p.Coeffs) == 0
}

// Words returns the number of words per exponent vector.
func (p *Poly) Words() int {
	return monomial.WordsPerExp(p.Ctx.NVars, p.Ctx.Ord, p.Bits)
}

// Exp returns the packed exponent vector of term i. The slice aliases p.
func (p *Poly) Exp(i int) []uint64 {
	w := p.Words()
	return p.Exps[i*w : (i+1)*w]
}

// FromTerms builds a canonical polynomial from terms in any order. Equal
// monomials are combined, zero coefficients dropped, and the narrowest
// packing width holding every field is chosen. Coefficients are copied.
func FromTerms(ctx Context, terms []Term) (*Poly, error) {
	wide := make([]BigTerm, len(terms))
	for i, t := range terms {
		if len(t.Exps) != ctx.NVars {
			return nil, apperrors.NewValidationError("terms", fmt.Sprintf("term %d has %d exponents, want %d", i, len(t.Exps), ctx.NVars), len(t.Exps))
		}
		exps := make([]*big.Int, len(t.Exps))
		for v, e := range t.Exps {
			exps[v] = new(big.Int).SetUint64(e)
		}
		wide[i] = BigTerm{Exps: exps, Coeff: t.Coeff}
	}
	return FromBigTerms(ctx, wide)
}

// FromBigTerms is FromTerms for arbitrary-precision exponents.
func FromBigTerms(ctx Context, terms []BigTerm) (*Poly, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	maxField := new(big.Int)
	for i, t := range terms {
		if t.Coeff == nil {
			return nil, apperrors.NewValidationError("terms", fmt.Sprintf("term %d has no coefficient", i), nil)
		}
		if len(t.Exps) != ctx.NVars {
			return nil, apperrors.NewValidationError("terms", fmt.Sprintf("term %d has %d exponents, want %d", i, len(t.Exps), ctx.NVars), len(t.Exps))
		}
		deg := new(big.Int)
		for v, e := range t.Exps {
			if e == nil || e.Sign() < 0 {
				return nil, apperrors.NewValidationError("terms", fmt.Sprintf("term %d has a negative or missing exponent for x%d", i, v), e)
			}
			if e.Cmp(maxField) > 0 {
				maxField.Set(e)
			}
			deg.Add(deg, e)
		}
		if ctx.Ord.IsDegree() && deg.Cmp(maxField) > 0 {
			maxField.Set(deg)
		}
	}

	l := ctx.Layout(monomial.BitsFor(maxField))
	w := l.Words
	packed := make([]uint64, len(terms)*w)
	for i, t := range terms {
		l.PackBig(packed[i*w:(i+1)*w], t.Exps)
	}

	order := make([]int, len(terms))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return l.Cmp(packed[order[a]*w:(order[a]+1)*w], packed[order[b]*w:(order[b]+1)*w]) > 0
	})

	bld := NewBuilder(ctx, l.Bits, len(terms))
	for k := 0; k < len(order); {
		i := order[k]
		exp := packed[i*w : (i+1)*w]
		sum := new(big.Int).Set(terms[i].Coeff)
		k++
		for k < len(order) && l.Cmp(packed[order[k]*w:(order[k]+1)*w], exp) == 0 {
			sum.Add(sum, terms[order[k]].Coeff)
			k++
		}
		bld.Append(exp, sum)
	}
	return bld.Poly(), nil
}

// MustFromTerms is FromTerms that panics on error. It is meant for tests and
// literals.
func MustFromTerms(ctx Context, terms []Term) *Poly {
	p, err := FromTerms(ctx, terms)
	if err != nil {
		panic(err)
	}
	return p
}

// Terms returns the terms of p with machine-word exponents. It panics when an
// exponent does not fit a uint64; use BigTerms for such polynomials.
func (p *Poly) Terms() []Term {
	l := p.Layout()
	out := make([]Term, p.Len())
	for i := range out {
		exps := make([]uint64, p.Ctx.NVars)
		if l.Packed() {
			l.Unpack(p.Exp(i), exps)
		} else {
			for v, e := range l.UnpackBig(p.Exp(i)) {
				if !e.IsUint64() {
					panic(fmt.Sprintf("mpoly: exponent %s of x%d does not fit a machine word", e, v))
				}
				exps[v] = e.Uint64()
			}
		}
		out[i] = Term{Exps: exps, Coeff: new(big.Int).Set(p.Coeffs[i])}
	}
	return out
}

// BigTerms returns the terms of p with arbitrary-precision exponents.
func (p *Poly) BigTerms() []BigTerm {
	l := p.Layout()
	out := make([]BigTerm, p.Len())
	for i := range out {
		out[i] = BigTerm{Exps: l.UnpackBig(p.Exp(i)), Coeff: new(big.Int).Set(p.Coeffs[i])}
	}
	return out
}

// Repack returns p encoded at width bits, which must not be narrower than
// p.Bits. Coefficients are shared with p.
func (p *Poly) Repack(bits uint) *Poly {
	bits = monomial.FixBits(bits)
	if bits == p.Bits {
		return p
	}
	if bits < p.Bits {
		panic(fmt.Sprintf("mpoly: cannot repack %d-bit exponents into %d bits", p.Bits, bits))
	}
	from := p.Layout()
	to := p.Ctx.Layout(bits)
	exps := make([]uint64, p.Len()*to.Words)
	for i := 0; i < p.Len(); i++ {
		to.Repack(exps[i*to.Words:(i+1)*to.Words], p.Exp(i), from)
	}
	return &Poly{Ctx: p.Ctx, Bits: bits, Exps: exps, Coeffs: p.Coeffs}
}

// Clone returns a deep copy of p.
func (p *Poly) Clone() *Poly {
	q := &Poly{
		Ctx:    p.Ctx,
		Bits:   p.Bits,
		Exps:   append([]uint64(nil), p.Exps...),
		Coeffs: make([]*big.Int, len(p.Coeffs)),
	}
	for i, c := range p.Coeffs {
		q.Coeffs[i] = new(big.Int).Set(c)
	}
	return q
}

// Equal reports whether p and q are the same polynomial. Packing widths may
// differ.
func (p *Poly) Equal(q *Poly) bool {
	if p.Ctx != q.Ctx || p.Len() != q.Len() {
		return false
	}
	a, b := p, q
	if a.Bits < b.Bits {
		a = a.Repack(b.Bits)
	} else if b.Bits < a.Bits {
		b = b.Repack(a.Bits)
	}
	l := a.Layout()
	for i := 0; i < a.Len(); i++ {
		if l.Cmp(a.Exp(i), b.Exp(i)) != 0 || a.Coeffs[i].Cmp(b.Coeffs[i]) != 0 {
			return false
		}
	}
	return true
}

// Validate checks that p is in canonical form: consistent array lengths,
// strictly descending monomials, no nil or zero coefficient and no field with
// its guard bit set.
func (p *Poly) Validate() error {
	if err := p.Ctx.Validate(); err != nil {
		return err
	}
	if monomial.FixBits(p.Bits) != p.Bits {
		return apperrors.NewValidationError("bits", "packing width is not normalised", p.Bits)
	}
	l := p.Layout()
	if len(p.Exps) != p.Len()*l.Words {
		return apperrors.NewValidationError("exps", fmt.Sprintf("have %d words for %d terms of %d words", len(p.Exps), p.Len(), l.Words), len(p.Exps))
	}
	for i, c := range p.Coeffs {
		if c == nil || c.Sign() == 0 {
			return apperrors.NewValidationError("coeffs", fmt.Sprintf("term %d has a zero coefficient", i), i)
		}
		exp := p.Exp(i)
		for f := 0; f < l.NFields; f++ {
			if uint(l.FieldBig(exp, f).BitLen()) >= l.Bits {
				return apperrors.NewValidationError("exps", fmt.Sprintf("term %d overflows field %d", i, f), i)
			}
		}
		if i > 0 && l.Cmp(p.Exp(i-1), exp) <= 0 {
			return apperrors.NewValidationError("exps", fmt.Sprintf("terms %d and %d are not strictly descending", i-1, i), i)
		}
	}
	return nil
}

// Builder appends terms that arrive already in canonical order. It is the
// output side of every multiplication strategy.
type Builder struct {
	ctx    Context
	layout monomial.Layout
	exps   []uint64
	coeffs []*big.Int
}

// NewBuilder returns a builder for polynomials of ctx at width bits with room
// for capacity terms.
func NewBuilder(ctx Context, bits uint, capacity int) *Builder {
	l := ctx.Layout(bits)
	return &Builder{
		ctx:    ctx,
		layout: l,
		exps:   make([]uint64, 0, capacity*l.Words),
		coeffs: make([]*big.Int, 0, capacity),
	}
}

// Append adds a term. exp is copied; coeff is retained. Zero coefficients are
// dropped. Callers are responsible for the strictly descending order.
func (b *Builder) Append(exp []uint64, coeff *big.Int) {
	if coeff.Sign() == 0 {
		return
	}
	b.exps = append(b.exps, exp[:b.layout.Words]...)
	b.coeffs = append(b.coeffs, coeff)
}

// AppendUnpacked packs exps and appends the term.
func (b *Builder) AppendUnpacked(exps []uint64, coeff *big.Int) {
	if coeff.Sign() == 0 {
		return
	}
	n := len(b.exps)
	b.exps = append(b.exps, make([]uint64, b.layout.Words)...)
	b.layout.Pack(b.exps[n:], exps)
	b.coeffs = append(b.coeffs, coeff)
}

// AppendAll appends every term of p. p must have the builder's width and its
// terms must follow the ones appended so far.
func (b *Builder) AppendAll(p *Poly) {
	b.exps = append(b.exps, p.Exps...)
	b.coeffs = append(b.coeffs, p.Coeffs...)
}

// Len returns the number of terms appended so far.
func (b *Builder) Len() int {
	return len(b.coeffs)
}

// Poly returns the built polynomial. The builder must not be used afterwards.
func (b *Builder) Poly() *Poly {
	return &Poly{Ctx: b.ctx, Bits: b.layout.Bits, Exps: b.exps, Coeffs: b.coeffs}
}
