package mpoly

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// Fingerprint returns the hex SHA3-256 digest of p's ring and terms. The
// digest depends only on the mathematical polynomial, so two products
// computed at different packing widths share a fingerprint.
func (p *Poly) Fingerprint() string {
	h := sha3.New256()
	var word [8]byte
	putInt := func(v uint64) {
		binary.BigEndian.PutUint64(word[:], v)
		h.Write(word[:])
	}
	putInt(uint64(p.Ctx.NVars))
	putInt(uint64(p.Ctx.Ord))
	putInt(uint64(p.Len()))
	for _, t := range p.BigTerms() {
		for _, e := range t.Exps {
			writeBig(h, e, putInt)
		}
		writeBig(h, t.Coeff, putInt)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeBig writes a sign word, a length word and the magnitude bytes of x.
func writeBig(h hash.Hash, x *big.Int, putInt func(uint64)) {
	putInt(uint64(x.Sign() + 1))
	mag := x.Bytes()
	putInt(uint64(len(mag)))
	h.Write(mag)
}

// Stats summarises a polynomial for reports.
type Stats struct {
	Terms        int    `json:"terms"`
	Bits         uint   `json:"bits"`
	MaxCoeffBits int    `json:"max_coeff_bits"`
	TotalDegree  string `json:"total_degree"`
}

// Stats returns the term count, packing width, largest coefficient size and
// total degree of p.
func (p *Poly) Stats() Stats {
	s := Stats{Terms: p.Len(), Bits: p.Bits, TotalDegree: "0"}
	maxDeg := new(big.Int)
	for _, t := range p.BigTerms() {
		if n := t.Coeff.BitLen(); n > s.MaxCoeffBits {
			s.MaxCoeffBits = n
		}
		deg := new(big.Int)
		for _, e := range t.Exps {
			deg.Add(deg, e)
		}
		if deg.Cmp(maxDeg) > 0 {
			maxDeg = deg
		}
	}
	s.TotalDegree = maxDeg.String()
	return s
}
