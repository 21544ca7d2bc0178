package mpoly

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/monomial"
)

// Document is the JSON form of a polynomial. Exponents and coefficients are
// decimal strings so that values beyond 64 bits survive the round trip.
type Document struct {
	NVars    int            `json:"nvars"`
	Ordering string         `json:"ordering"`
	Terms    []DocumentTerm `json:"terms"`
}

// DocumentTerm is one term of a Document.
type DocumentTerm struct {
	Exps  []string `json:"exps"`
	Coeff string   `json:"coeff"`
}

// Document returns the JSON form of p.
func (p *Poly) Document() Document {
	doc := Document{
		NVars:    p.Ctx.NVars,
		Ordering: p.Ctx.Ord.String(),
		Terms:    make([]DocumentTerm, 0, p.Len()),
	}
	for _, t := range p.BigTerms() {
		exps := make([]string, len(t.Exps))
		for v, e := range t.Exps {
			exps[v] = e.String()
		}
		doc.Terms = append(doc.Terms, DocumentTerm{Exps: exps, Coeff: t.Coeff.String()})
	}
	return doc
}

// FromDocument parses and canonicalises a Document.
func FromDocument(doc Document) (*Poly, error) {
	ord, err := monomial.ParseOrdering(doc.Ordering)
	if err != nil {
		return nil, apperrors.NewValidationError("ordering", err.Error(), doc.Ordering)
	}
	ctx, err := NewContext(doc.NVars, ord)
	if err != nil {
		return nil, err
	}
	terms := make([]BigTerm, len(doc.Terms))
	for i, dt := range doc.Terms {
		coeff, ok := new(big.Int).SetString(dt.Coeff, 10)
		if !ok {
			return nil, apperrors.NewValidationError("coeff", fmt.Sprintf("term %d: %q is not a decimal integer", i, dt.Coeff), dt.Coeff)
		}
		exps := make([]*big.Int, len(dt.Exps))
		for v, s := range dt.Exps {
			e, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return nil, apperrors.NewValidationError("exps", fmt.Sprintf("term %d: %q is not a decimal integer", i, s), s)
			}
			exps[v] = e
		}
		terms[i] = BigTerm{Exps: exps, Coeff: coeff}
	}
	return FromBigTerms(ctx, terms)
}

// Encode writes p to w as indented JSON.
func Encode(w io.Writer, p *Poly) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Document()); err != nil {
		return fmt.Errorf("encoding polynomial: %w", err)
	}
	return nil
}

// Decode reads a polynomial in JSON form from r.
func Decode(r io.Reader) (*Poly, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding polynomial: %w", err)
	}
	return FromDocument(doc)
}
