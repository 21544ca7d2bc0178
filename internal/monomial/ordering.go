// Package monomial implements the exponent-vector encoding used by the
// polynomial packages. An exponent vector is stored as one or more 64-bit
// words whose unsigned word-by-word comparison realises the configured
// monomial ordering, and whose word-by-word sum is the product monomial.
package monomial

import (
	"fmt"
	"strings"
)

// Ordering identifies a monomial order.
type Ordering int

const (
	// Lex is the pure lexicographic order with x0 > x1 > ... > x(n-1).
	Lex Ordering = iota
	// DegLex compares total degree first and breaks ties lexicographically.
	DegLex
	// DegRevLex compares total degree first and breaks ties with the
	// reverse lexicographic rule: the smaller exponent in the last differing
	// variable wins.
	DegRevLex
)

// String returns the canonical short name of the ordering.
func (o Ordering) String() string {
	switch o {
	case Lex:
		return "lex"
	case DegLex:
		return "deglex"
	case DegRevLex:
		return "degrevlex"
	default:
		return fmt.Sprintf("ordering(%d)", int(o))
	}
}

// IsDegree reports whether the ordering compares total degree first.
// Degree orderings carry an extra packed field holding the total degree.
func (o Ordering) IsDegree() bool {
	return o == DegLex || o == DegRevLex
}

// Valid reports whether o is one of the supported orderings.
func (o Ordering) Valid() bool {
	return o == Lex || o == DegLex || o == DegRevLex
}

// ParseOrdering converts a name ("lex", "deglex", "degrevlex") to an Ordering.
// Matching is case-insensitive.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lex":
		return Lex, nil
	case "deglex":
		return DegLex, nil
	case "degrevlex":
		return DegRevLex, nil
	}
	return 0, fmt.Errorf("unknown monomial ordering %q (valid: lex, deglex, degrevlex)", s)
}

// Orderings lists every supported ordering.
func Orderings() []Ordering {
	return []Ordering{Lex, DegLex, DegRevLex}
}
