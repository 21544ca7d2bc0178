package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/ui"
)

// OutputConfig holds the result output settings.
type OutputConfig struct {
	// OutputFile receives the product as JSON, empty for none.
	OutputFile string
	// Quiet prints only the fingerprint.
	Quiet bool
	// Verbose prints every term.
	Verbose bool
}

// WriteProductToFile saves p as a JSON document, creating parent
// directories as needed.
//
// Parameters:
//   - p: The product to save.
//   - path: The destination file.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteProductToFile(p *mpoly.Poly, path string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := mpoly.Encode(file, p); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// FormatTerm renders one term as "coeff * x0^e0 * x2^e2". Variables with a
// zero exponent are omitted and exponent 1 is implicit.
func FormatTerm(t mpoly.BigTerm) string {
	var b strings.Builder
	b.WriteString(t.Coeff.String())
	for v, e := range t.Exps {
		switch {
		case e.Sign() == 0:
			continue
		case e.IsInt64() && e.Int64() == 1:
			fmt.Fprintf(&b, " * x%d", v)
		default:
			fmt.Fprintf(&b, " * x%d^%s", v, e)
		}
	}
	return b.String()
}

// WriteTerms lists the terms of p, one per line, leading term first. Unless
// all is set only the first TermPreviewLimit terms are written.
func WriteTerms(out io.Writer, p *mpoly.Poly, all bool) {
	if p.IsZero() {
		fmt.Fprintf(out, "%s0%s\n", ui.ColorGreen(), ui.ColorReset())
		return
	}
	terms := p.BigTerms()
	shown := terms
	if !all && len(terms) > TermPreviewLimit {
		shown = terms[:TermPreviewLimit]
	}
	for _, t := range shown {
		fmt.Fprintf(out, "  %s%s%s\n", ui.ColorGreen(), FormatTerm(t), ui.ColorReset())
	}
	if len(shown) < len(terms) {
		fmt.Fprintf(out, "  ... %d more terms (use %s-v%s to list all, %s-o%s to save)\n",
			len(terms)-len(shown), ui.ColorYellow(), ui.ColorReset(), ui.ColorYellow(), ui.ColorReset())
	}
}

// DisplayQuietResult prints the product fingerprint and term count on one
// line, for scripts.
func DisplayQuietResult(out io.Writer, p *mpoly.Poly) {
	fmt.Fprintf(out, "%s %d\n", p.Fingerprint(), p.Len())
}
