// Package cli renders the mpolycalc command line: the execution banner, a
// spinner while multiplications run, and the product report.
package cli

//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"

	"github.com/agbru/mpolycalc/internal/mpolymul"
	"github.com/agbru/mpolycalc/internal/ui"
)

const (
	// ProgressRefreshRate is the spinner refresh period.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the completion bar.
	ProgressBarWidth = 30
	// TermPreviewLimit is the number of leading terms shown without -v.
	TermPreviewLimit = 8
)

// FormatExecutionDuration shows microseconds below a millisecond,
// milliseconds below a second and the default representation otherwise.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// Spinner abstracts the terminal spinner so DisplayProgress can be tested.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }
func (rs *realSpinner) Stop()  { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	return &realSpinner{spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)}
}

// progressBar renders done/total as a bar of length characters.
func progressBar(done, total, length int) string {
	count := 0
	if total > 0 {
		count = min(max(done*length/total, 0), length)
	}
	return strings.Repeat("█", count) + strings.Repeat("░", length-count)
}

// DisplayProgress shows a spinner while multiplications run. Every value
// received on finished names a multiplier that completed; the display stops
// when the channel is closed. It is meant to run in its own goroutine.
//
// Parameters:
//   - wg: Signalled when the display routine returns.
//   - finished: Names of completed multipliers, closed when all are done.
//   - total: Number of multipliers running.
//   - out: Where the spinner is rendered.
func DisplayProgress(wg *sync.WaitGroup, finished <-chan string, total int, out io.Writer) {
	defer wg.Done()
	if total <= 0 {
		for range finished {
		}
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	start := time.Now()
	done := 0
	var last string
	render := func() {
		s.UpdateSuffix(fmt.Sprintf(" Multiplying: %d/%d [%s] %s%s",
			done, total, progressBar(done, total, ProgressBarWidth),
			FormatExecutionDuration(time.Since(start).Truncate(time.Millisecond)), last))
	}
	render()
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()
	for {
		select {
		case name, ok := <-finished:
			if !ok {
				s.Stop()
				fmt.Fprintf(out, "Multiplying: %d/%d [%s] done in %s\n",
					total, total, progressBar(total, total, ProgressBarWidth), FormatExecutionDuration(time.Since(start)))
				return
			}
			done++
			last = ", last: " + name
			render()
		case <-ticker.C:
			render()
		}
	}
}

// DisplayResult prints the product report of one multiplication.
//
// Parameters:
//   - name: The multiplier that produced the result.
//   - res: The multiplication result.
//   - verbose: Print every term instead of a preview.
//   - details: Print the dispatch plan and strategy trail.
//   - out: Destination of the report.
func DisplayResult(name string, res mpolymul.Result, verbose, details bool, out io.Writer) {
	p := res.Product
	stats := p.Stats()
	fmt.Fprintf(out, "Product: %s%s%s terms, total degree %s%s%s, largest coefficient %s%s%s bits.\n",
		ui.ColorCyan(), humanize.Comma(int64(stats.Terms)), ui.ColorReset(),
		ui.ColorCyan(), stats.TotalDegree, ui.ColorReset(),
		ui.ColorCyan(), humanize.Comma(int64(stats.MaxCoeffBits)), ui.ColorReset())
	fmt.Fprintf(out, "Fingerprint: %s%s%s\n", ui.ColorMagenta(), p.Fingerprint(), ui.ColorReset())

	if details {
		fmt.Fprintf(out, "\n%s--- Dispatch details ---%s\n", ui.ColorBold(), ui.ColorReset())
		fmt.Fprintf(out, "Multiplier      : %s\n", name)
		fmt.Fprintf(out, "Strategy        : %s%s%s (%s)\n", ui.StrategyColor(string(res.Strategy)), res.Strategy, ui.ColorReset(), mode(res.Threaded))
		fmt.Fprintf(out, "Route           : %s\n", res.Route)
		fmt.Fprintf(out, "Worker handles  : %d\n", res.Handles)
		fmt.Fprintf(out, "Packing width   : %d bits\n", stats.Bits)
		fmt.Fprintf(out, "Duration        : %s%s%s\n", ui.ColorGreen(), FormatExecutionDuration(res.Duration), ui.ColorReset())
		if len(res.Failed) > 0 {
			failed := make([]string, len(res.Failed))
			for i, s := range res.Failed {
				failed[i] = string(s)
			}
			fmt.Fprintf(out, "Declined        : %s\n", strings.Join(failed, ", "))
		}
		if plan := res.Plan; plan != nil {
			fmt.Fprintf(out, "Cross products  : %s\n", formatCount(plan.ProductCount))
			fmt.Fprintf(out, "Dense grid      : %s cells (viable: %t)\n", formatCount(plan.DenseCells), plan.Dense)
			fmt.Fprintf(out, "Array grid      : %s cells (viable: %t)\n", formatCount(plan.ArrayCells), plan.Array)
		}
	}

	fmt.Fprintf(out, "\n%s--- Product terms ---%s\n", ui.ColorBold(), ui.ColorReset())
	WriteTerms(out, p, verbose)
}

func mode(threaded bool) string {
	if threaded {
		return "threaded"
	}
	return "single-threaded"
}

// formatCount renders an estimator count, -1 meaning overflow.
func formatCount(n int64) string {
	if n < 0 {
		return "overflow"
	}
	return humanize.Comma(n)
}
