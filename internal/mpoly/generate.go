package mpoly

import (
	"math/big"
	"math/rand"
)

// GenOptions controls the random generators.
type GenOptions struct {
	// Terms is the number of terms drawn before combining duplicates.
	Terms int
	// MaxDegree bounds every exponent.
	MaxDegree uint64
	// CoeffBits bounds the magnitude of every coefficient. Zero means 1,
	// i.e. coefficients in {-1, 1}.
	CoeffBits int
}

// randomCoeff draws a nonzero coefficient of at most bits bits.
func randomCoeff(rng *rand.Rand, bits int) *big.Int {
	if bits < 1 {
		bits = 1
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	c := new(big.Int)
	for c.Sign() == 0 {
		c.Rand(rng, limit)
	}
	if rng.Intn(2) == 0 {
		c.Neg(c)
	}
	return c
}

// Random draws opts.Terms monomials with every exponent uniform in
// [0, opts.MaxDegree].
func Random(rng *rand.Rand, ctx Context, opts GenOptions) *Poly {
	terms := make([]Term, opts.Terms)
	for i := range terms {
		exps := make([]uint64, ctx.NVars)
		for v := range exps {
			exps[v] = randExp(rng, opts.MaxDegree)
		}
		terms[i] = Term{Exps: exps, Coeff: randomCoeff(rng, opts.CoeffBits)}
	}
	return MustFromTerms(ctx, terms)
}

// Sparse draws opts.Terms monomials in which each variable is present with
// probability one half, with exponents spread over [1, opts.MaxDegree]. With a
// large MaxDegree the result has a wide degree profile and few terms.
func Sparse(rng *rand.Rand, ctx Context, opts GenOptions) *Poly {
	terms := make([]Term, opts.Terms)
	for i := range terms {
		exps := make([]uint64, ctx.NVars)
		for v := range exps {
			if opts.MaxDegree > 0 && rng.Intn(2) == 0 {
				exps[v] = 1 + randExp(rng, opts.MaxDegree-1)
			}
		}
		terms[i] = Term{Exps: exps, Coeff: randomCoeff(rng, opts.CoeffBits)}
	}
	return MustFromTerms(ctx, terms)
}

// DenseBox returns the polynomial with every monomial of [0, degree]^NVars
// and coefficient coeff(exps). A nil coeff gives coefficient 1 everywhere.
func DenseBox(ctx Context, degree uint64, coeff func(exps []uint64) *big.Int) *Poly {
	if coeff == nil {
		coeff = func([]uint64) *big.Int { return big.NewInt(1) }
	}
	var terms []Term
	exps := make([]uint64, ctx.NVars)
	for {
		terms = append(terms, Term{Exps: append([]uint64(nil), exps...), Coeff: coeff(exps)})
		v := ctx.NVars - 1
		for v >= 0 && exps[v] == degree {
			exps[v] = 0
			v--
		}
		if v < 0 {
			break
		}
		exps[v]++
	}
	return MustFromTerms(ctx, terms)
}

func randExp(rng *rand.Rand, max uint64) uint64 {
	if max == ^uint64(0) {
		return rng.Uint64()
	}
	return uint64(rng.Int63n(int64(min(max, 1<<62)) + 1))
}
