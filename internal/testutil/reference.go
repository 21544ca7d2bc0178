package testutil

import (
	"math/big"

	"github.com/agbru/mpolycalc/internal/mpoly"
)

// NaiveMul is the schoolbook reference product: it forms every cross
// product and lets mpoly.FromBigTerms sort and combine them. It is slow and
// independent of every multiplication strategy, which makes it the oracle for
// golden files and comparison tests.
//
// Parameters:
//   - b, c: Operands of the same context.
//
// Returns:
//   - *mpoly.Poly: The canonical product.
//   - error: An error if the terms cannot be combined.
func NaiveMul(b, c *mpoly.Poly) (*mpoly.Poly, error) {
	bt, ct := b.BigTerms(), c.BigTerms()
	terms := make([]mpoly.BigTerm, 0, len(bt)*len(ct))
	for _, x := range bt {
		for _, y := range ct {
			exps := make([]*big.Int, len(x.Exps))
			for v := range exps {
				exps[v] = new(big.Int).Add(x.Exps[v], y.Exps[v])
			}
			terms = append(terms, mpoly.BigTerm{Exps: exps, Coeff: new(big.Int).Mul(x.Coeff, y.Coeff)})
		}
	}
	return mpoly.FromBigTerms(b.Ctx, terms)
}
