// Package orchestration runs one or several multipliers over the same
// operands concurrently and compares what they produce.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/mpolycalc/internal/cli"
	"github.com/agbru/mpolycalc/internal/config"
	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/logging"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/mpolymul"
	"github.com/agbru/mpolycalc/internal/ui"
)

// CalculationResult is the outcome of one multiplier.
type CalculationResult struct {
	// Name is the registry name of the multiplier.
	Name string
	// Result is the multiplication result, zero when Err is set.
	Result mpolymul.Result
	// Fingerprint identifies the product, empty when Err is set.
	Fingerprint string
	// Duration is the wall time of the call.
	Duration time.Duration
	// Err is the failure, if any. A multiplier that declines the operands
	// reports an error wrapping mpolymul.ErrInfeasible.
	Err error
}

// Declined reports whether the multiplier refused the operands rather than
// failing.
func (r CalculationResult) Declined() bool {
	return errors.Is(r.Err, mpolymul.ErrInfeasible)
}

// ExecuteMultiplications multiplies b by c with every selected multiplier
// concurrently and collects their results in selection order. Failures are
// recorded per result; one failing multiplier does not stop the others. When
// ctx ends first, every unfinished multiplier reports ctx.Err() and is left
// to complete in the background.
//
// Parameters:
//   - ctx: Cancellation and deadline for every multiplier.
//   - selected: The multipliers to run.
//   - b, c: The operands.
//   - cfg: The application configuration, source of the multiply options.
//   - out: Where progress is displayed.
//   - logger: Receives one debug event per finished multiplier.
//
// Returns:
//   - []CalculationResult: One result per selected multiplier.
func ExecuteMultiplications(ctx context.Context, selected []cli.Selection, b, c *mpoly.Poly, cfg config.AppConfig, out io.Writer, logger logging.Logger) []CalculationResult {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]CalculationResult, len(selected))
	finished := make(chan string, len(selected))
	opts := cfg.ToMultiplyOptions()

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, finished, len(selected), out)

	for i, sel := range selected {
		g.Go(func() error {
			start := time.Now()
			res, err := mpolymul.MultiplyContext(ctx, sel.Multiplier, b, c, opts)
			r := CalculationResult{Name: sel.Name, Duration: time.Since(start)}
			if err != nil {
				r.Err = apperrors.NewCalculationError(sel.Name, err)
			} else {
				r.Result = res
				r.Fingerprint = res.Product.Fingerprint()
			}
			results[i] = r
			logger.Debug("multiplier finished",
				logging.String("multiplier", sel.Name),
				logging.String("strategy", string(res.Strategy)),
				logging.Duration("duration", r.Duration),
				logging.Bool("ok", err == nil))
			finished <- sel.Name
			return nil
		})
	}

	_ = g.Wait()
	close(finished)
	displayWg.Wait()
	return results
}

// CheckConsistency returns a MismatchError when the successful results do
// not all share one fingerprint.
func CheckConsistency(results []CalculationResult) error {
	fingerprints := make(map[string]string)
	distinct := make(map[string]struct{})
	for _, r := range results {
		if r.Err == nil {
			fingerprints[r.Name] = r.Fingerprint
			distinct[r.Fingerprint] = struct{}{}
		}
	}
	if len(distinct) > 1 {
		return apperrors.MismatchError{Fingerprints: fingerprints}
	}
	return nil
}

// BestResult returns the fastest successful result, nil if none succeeded.
func BestResult(results []CalculationResult) *CalculationResult {
	var best *CalculationResult
	for i := range results {
		if results[i].Err == nil && (best == nil || results[i].Duration < best.Duration) {
			best = &results[i]
		}
	}
	return best
}

// AnalyzeComparisonResults prints a summary table of results, fastest
// first, and checks that every successful multiplier agrees on the product.
//
// Parameters:
//   - results: The results to analyze; sorted in place.
//   - out: Destination of the report.
//
// Returns:
//   - int: An exit code: success, mismatch, or the code of the first
//     failure when no multiplier succeeded.
func AnalyzeComparisonResults(results []CalculationResult, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var firstError error
	successCount := 0

	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sMultiplier%s\t%sStrategy%s\t%sDuration%s\t%sTerms%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	for _, r := range results {
		strategy, terms := "-", "-"
		var status string
		switch {
		case r.Declined():
			status = fmt.Sprintf("%sDeclined%s", ui.ColorYellow(), ui.ColorReset())
		case r.Err != nil:
			status = fmt.Sprintf("%sFailure (%v)%s", ui.ColorRed(), r.Err, ui.ColorReset())
			if firstError == nil {
				firstError = r.Err
			}
		default:
			successCount++
			strategy = fmt.Sprintf("%s%s%s", ui.StrategyColor(string(r.Result.Strategy)), r.Result.Strategy, ui.ColorReset())
			terms = fmt.Sprint(r.Result.Product.Len())
			status = fmt.Sprintf("%sSuccess%s %s", ui.ColorGreen(), ui.ColorReset(), r.Fingerprint[:12])
		}
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s%s%s\t%s\t%s\n",
			ui.ColorBlue(), r.Name, ui.ColorReset(),
			strategy,
			ui.ColorYellow(), cli.FormatExecutionDuration(r.Duration), ui.ColorReset(),
			terms, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No multiplier could complete the product.\n")
		if firstError == nil {
			firstError = errors.New("every multiplier declined the operands")
		}
		return apperrors.HandleCalculationError(firstError, 0, out, cli.CLIColorProvider{})
	}

	if err := CheckConsistency(results); err != nil {
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! The multipliers disagree on the product.\n")
		return apperrors.HandleCalculationError(err, 0, out, cli.CLIColorProvider{})
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All %d products are identical.\n", successCount)
	return apperrors.ExitSuccess
}
