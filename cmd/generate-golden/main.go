// Command generate-golden writes internal/mpolymul/testdata/products_golden.json.
// Every product is computed with the schoolbook reference multiplication, so
// the file checks the dispatcher strategies against an independent oracle.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/testutil"
)

// GoldenCase is one entry of the golden file.
type GoldenCase struct {
	Name    string         `json:"name"`
	B       mpoly.Document `json:"b"`
	C       mpoly.Document `json:"c"`
	Product mpoly.Document `json:"product"`
}

// row is a term written as (coefficient, exponents...) in decimal.
type row []string

type operands struct {
	name  string
	nvars int
	ord   monomial.Ordering
	b, c  []row
}

var twoTo64 = new(big.Int).Lsh(big.NewInt(1), 64).String()
var twoTo70 = new(big.Int).Lsh(big.NewInt(1), 70).String()

var cases = []operands{
	{"difference of squares", 1, monomial.Lex,
		[]row{{"1", "1"}, {"1", "0"}},
		[]row{{"1", "1"}, {"-1", "0"}}},
	{"binomial square", 2, monomial.DegLex,
		[]row{{"1", "1", "0"}, {"1", "0", "1"}},
		[]row{{"1", "1", "0"}, {"1", "0", "1"}}},
	{"cancelling cross terms", 3, monomial.DegRevLex,
		[]row{{"1", "1", "0", "0"}, {"-1", "0", "1", "0"}, {"2", "0", "0", "1"}},
		[]row{{"1", "1", "0", "0"}, {"1", "0", "1", "0"}}},
	{"trinomial square", 2, monomial.DegRevLex,
		[]row{{"1", "1", "0"}, {"1", "0", "1"}, {"1", "0", "0"}},
		[]row{{"1", "1", "0"}, {"1", "0", "1"}, {"1", "0", "0"}}},
	{"wide coefficients", 1, monomial.Lex,
		[]row{{twoTo70, "1"}, {"1", "0"}},
		[]row{{twoTo70, "1"}, {"-1", "0"}}},
	{"multi-word exponents", 2, monomial.Lex,
		[]row{{"1", twoTo64, "0"}, {"1", "0", "1"}},
		[]row{{"1", twoTo64, "0"}, {"-1", "0", "1"}}},
}

func build(nvars int, ord monomial.Ordering, rows []row) (*mpoly.Poly, error) {
	doc := mpoly.Document{NVars: nvars, Ordering: ord.String()}
	for _, r := range rows {
		doc.Terms = append(doc.Terms, mpoly.DocumentTerm{Coeff: r[0], Exps: r[1:]})
	}
	return mpoly.FromDocument(doc)
}

func main() {
	outputDir := flag.String("out", "internal/mpolymul/testdata", "Output directory for the golden file")
	random := flag.Int("random", 0, "Number of extra seeded random cases")
	seed := flag.Int64("seed", 1, "Seed of the random cases")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	var data []GoldenCase
	add := func(name string, b, c *mpoly.Poly) {
		p, err := testutil.NaiveMul(b, c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error multiplying %s: %v\n", name, err)
			os.Exit(1)
		}
		data = append(data, GoldenCase{Name: name, B: b.Document(), C: c.Document(), Product: p.Document()})
		fmt.Printf("Generated %s (%d terms)\n", name, p.Len())
	}

	for _, tc := range cases {
		b, err := build(tc.nvars, tc.ord, tc.b)
		if err == nil {
			var c *mpoly.Poly
			if c, err = build(tc.nvars, tc.ord, tc.c); err == nil {
				add(tc.name, b, c)
				continue
			}
		}
		fmt.Fprintf(os.Stderr, "Error building %s: %v\n", tc.name, err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *random; i++ {
		ord := monomial.Orderings()[i%3]
		ctx, err := mpoly.NewContext(2+i%3, ord)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating context: %v\n", err)
			os.Exit(1)
		}
		opts := mpoly.GenOptions{Terms: 10 + rng.Intn(30), MaxDegree: uint64(3 + rng.Intn(6)), CoeffBits: 1 + rng.Intn(100)}
		add(fmt.Sprintf("random %d %s", i, ord), mpoly.Random(rng, ctx, opts), mpoly.Random(rng, ctx, opts))
	}

	filename := filepath.Join(*outputDir, "products_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully generated golden file at %s\n", filename)
}
