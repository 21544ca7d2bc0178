package mpoly

import (
	"testing"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIgnoresPackingWidth(t *testing.T) {
	t.Parallel()
	ctx := Context{NVars: 3, Ord: monomial.DegLex}
	p := MustFromTerms(ctx, []Term{term(7, 1, 2, 3), term(-2, 0, 0, 1)})
	wide := p.Repack(40)
	require.NotEqual(t, p.Bits, wide.Bits)
	assert.Equal(t, p.Fingerprint(), wide.Fingerprint())
	assert.Len(t, p.Fingerprint(), 64)
}

func TestFingerprintSeparatesPolynomials(t *testing.T) {
	t.Parallel()
	ctx := Context{NVars: 2, Ord: monomial.Lex}
	base := MustFromTerms(ctx, []Term{term(1, 1, 0), term(1, 0, 1)})
	others := []*Poly{
		MustFromTerms(ctx, []Term{term(1, 1, 0), term(-1, 0, 1)}),
		MustFromTerms(ctx, []Term{term(1, 1, 0), term(1, 0, 2)}),
		MustFromTerms(Context{NVars: 2, Ord: monomial.DegLex}, []Term{term(1, 1, 0), term(1, 0, 1)}),
		Zero(ctx),
	}
	for i, o := range others {
		assert.NotEqual(t, base.Fingerprint(), o.Fingerprint(), "case %d", i)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	ctx := Context{NVars: 2, Ord: monomial.DegRevLex}
	p := MustFromTerms(ctx, []Term{term(1000, 3, 4), term(-3, 5, 0)})
	s := p.Stats()
	assert.Equal(t, 2, s.Terms)
	assert.Equal(t, 10, s.MaxCoeffBits)
	assert.Equal(t, "7", s.TotalDegree)
	assert.Equal(t, "0", Zero(ctx).Stats().TotalDegree)
}
