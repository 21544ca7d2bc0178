package mpolymul

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agbru/mpolycalc/internal/mpoly"
)

// GoldenCase is one entry of testdata/products_golden.json.
type GoldenCase struct {
	Name    string         `json:"name"`
	B       mpoly.Document `json:"b"`
	C       mpoly.Document `json:"c"`
	Product mpoly.Document `json:"product"`
}

func TestMultipliersAgainstGoldenFile(t *testing.T) {
	goldenPath := filepath.Join("testdata", "products_golden.json")
	file, err := os.Open(goldenPath)
	if err != nil {
		t.Fatalf("Failed to open golden file: %v. Did you run 'go run ./cmd/generate-golden'?", err)
	}
	defer file.Close()

	var cases []GoldenCase
	if err := json.NewDecoder(file).Decode(&cases); err != nil {
		t.Fatalf("Failed to decode golden file: %v", err)
	}

	for name, m := range NewDefaultFactory().GetAll() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, tc := range cases {
				t.Run(tc.Name, func(t *testing.T) {
					b, err := mpoly.FromDocument(tc.B)
					if err != nil {
						t.Fatalf("b: %v", err)
					}
					c, err := mpoly.FromDocument(tc.C)
					if err != nil {
						t.Fatalf("c: %v", err)
					}
					want, err := mpoly.FromDocument(tc.Product)
					if err != nil {
						t.Fatalf("product: %v", err)
					}

					res, err := m.Multiply(context.Background(), b, c, Options{Pool: newPool(t, 2), ThreadLimit: 3})
					if errors.Is(err, ErrInfeasible) {
						t.Skipf("%s declines this case", name)
					}
					if err != nil {
						t.Fatalf("Multiply: %v", err)
					}
					checkProduct(t, res.Product, want)
				})
			}
		})
	}
}
