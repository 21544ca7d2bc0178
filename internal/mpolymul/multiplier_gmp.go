//go:build gmp

// This file provides a GMP-backed reference multiplier, compiled only with
// the "gmp" build tag (go build -tags=gmp) and libgmp installed. It forms
// every cross product naively and accumulates coefficients with GMP, which
// makes it an independent check of the other strategies.

package mpolymul

import (
	"context"
	"encoding/binary"
	"math/big"
	"time"

	"github.com/ncw/gmp"

	"github.com/agbru/mpolycalc/internal/mpoly"
)

func init() {
	_ = RegisterMultiplier("gmp", func() Multiplier { return &GMPMultiplier{} })
}

// GMPMultiplier multiplies term by term, summing coefficients in GMP
// integers keyed by the packed product monomial.
type GMPMultiplier struct{}

// Name returns the registry name.
func (m *GMPMultiplier) Name() string {
	return "gmp"
}

// Multiply returns b*c. It runs on the calling goroutine and ignores the
// heuristics and pool of opts.
func (m *GMPMultiplier) Multiply(ctx context.Context, b, c *mpoly.Poly, opts Options) (Result, error) {
	if err := validateOperands(b, c); err != nil {
		return Result{}, err
	}
	start := time.Now()
	bp, cp := ProfileDegrees(b), ProfileDegrees(c)
	l, bs, cs := heapOperands(b, c, bp, cp)

	sums := make(map[string]*gmp.Int)
	exp := make([]uint64, l.Words)
	key := make([]byte, 8*l.Words)
	x, y := new(gmp.Int), new(gmp.Int)
	for i := 0; i < bs.len(); i++ {
		toGMP(x, bs.coeffs[i])
		for j := 0; j < cs.len(); j++ {
			l.Add(exp, bs.exp(i), cs.exp(j))
			for w, word := range exp {
				binary.BigEndian.PutUint64(key[8*w:], word)
			}
			toGMP(y, cs.coeffs[j])
			y.Mul(y, x)
			if acc, ok := sums[string(key)]; ok {
				acc.Add(acc, y)
			} else {
				sums[string(key)] = new(gmp.Int).Set(y)
			}
		}
	}

	terms := make([]mpoly.BigTerm, 0, len(sums))
	for k, v := range sums {
		if v.Sign() == 0 {
			continue
		}
		for w := range exp {
			exp[w] = binary.BigEndian.Uint64([]byte(k[8*w:]))
		}
		terms = append(terms, mpoly.BigTerm{Exps: l.UnpackBig(exp), Coeff: fromGMP(v)})
	}
	product, err := mpoly.FromBigTerms(b.Ctx, terms)
	if err != nil {
		return Result{}, err
	}
	return Result{Product: product, Strategy: "gmp", Route: RouteForced, Duration: time.Since(start)}, nil
}

func toGMP(dst *gmp.Int, x *big.Int) {
	dst.SetBytes(x.Bytes())
	if x.Sign() < 0 {
		dst.Neg(dst)
	}
}

func fromGMP(x *gmp.Int) *big.Int {
	v := new(big.Int).SetBytes(x.Bytes())
	if x.Sign() < 0 {
		v.Neg(v)
	}
	return v
}
