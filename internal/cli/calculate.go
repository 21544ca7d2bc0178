package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/agbru/mpolycalc/internal/config"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/mpolymul"
	"github.com/agbru/mpolycalc/internal/ui"
)

// Selection is one multiplier picked for a run.
type Selection struct {
	Name       string
	Multiplier mpolymul.Multiplier
}

// GetMultipliersToRun returns the multipliers selected by cfg.Algo, in
// alphabetical order for "all".
//
// Parameters:
//   - cfg: The application configuration.
//   - factory: The registry to take multipliers from.
//
// Returns:
//   - []Selection: The multipliers to execute, empty if none matched.
func GetMultipliersToRun(cfg config.AppConfig, factory mpolymul.MultiplierFactory) []Selection {
	names := []string{cfg.Algo}
	if cfg.Algo == config.AlgoAll {
		names = factory.List()
	}
	selected := make([]Selection, 0, len(names))
	for _, name := range names {
		if m, err := factory.Get(name); err == nil {
			selected = append(selected, Selection{Name: name, Multiplier: m})
		}
	}
	return selected
}

// PrintExecutionConfig describes the operands and the run settings.
func PrintExecutionConfig(cfg config.AppConfig, b, c *mpoly.Poly, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Ring: %s%d%s variables, %s%s%s ordering.\n",
		ui.ColorMagenta(), b.Ctx.NVars, ui.ColorReset(), ui.ColorMagenta(), b.Ctx.Ord, ui.ColorReset())
	for _, op := range []struct {
		name string
		p    *mpoly.Poly
	}{{"B", b}, {"C", c}} {
		s := op.p.Stats()
		fmt.Fprintf(out, "Operand %s: %s%s%s terms, total degree %s, %d-bit exponent fields, coefficients up to %d bits.\n",
			op.name, ui.ColorCyan(), humanize.Comma(int64(s.Terms)), ui.ColorReset(), s.TotalDegree, s.Bits, s.MaxCoeffBits)
	}
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s, timeout %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	threads := "GOMAXPROCS"
	if cfg.Threads > 0 {
		threads = fmt.Sprint(cfg.Threads)
	}
	fmt.Fprintf(out, "Thread limit: %s%s%s.\n", ui.ColorCyan(), threads, ui.ColorReset())
}

// PrintExecutionMode states whether one multiplier runs or several are
// compared.
func PrintExecutionMode(selected []Selection, out io.Writer) {
	var modeDesc string
	switch len(selected) {
	case 0:
		modeDesc = "nothing to run"
	case 1:
		modeDesc = fmt.Sprintf("Single multiplication with the %s%s%s multiplier",
			ui.StrategyColor(selected[0].Name), selected[0].Name, ui.ColorReset())
	default:
		modeDesc = fmt.Sprintf("Parallel comparison of %d multipliers", len(selected))
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
