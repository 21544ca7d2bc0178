package calibration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/agbru/mpolycalc/internal/cli"
	"github.com/agbru/mpolycalc/internal/ui"
)

// printCalibrationResults prints the thread limit table.
func printCalibrationResults(out io.Writer, results []calibrationResult, bestLimit int) {
	fmt.Fprintf(out, "\n--- Thread Limit Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sThreads%s      │ %sExecution Time%s\n", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 14), strings.Repeat("─", 25))
	for _, res := range results {
		label := fmt.Sprintf("%d", res.ThreadLimit)
		if res.ThreadLimit == 1 {
			label = "Sequential"
		}
		durationStr := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if res.Err == nil {
			durationStr = cli.FormatExecutionDuration(res.Duration)
		}
		highlight := ""
		if res.ThreadLimit == bestLimit && res.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-12s%s │ %s%s%s%s\n", ui.ColorCyan(), label, ui.ColorReset(), ui.ColorYellow(), durationStr, ui.ColorReset(), highlight)
	}
	tw.Flush()
}

// printWorkloadResults prints one row per workload with every strategy's
// time and the winner.
func printWorkloadResults(out io.Writer, workloads []WorkloadResult) {
	fmt.Fprintf(out, "\n--- Strategy Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sWorkload%s\t%sTerms%s", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	for _, s := range strategies {
		fmt.Fprintf(tw, "\t%s%s%s", ui.ColorUnderline(), s, ui.ColorReset())
	}
	fmt.Fprintf(tw, "\t%sWinner%s\n", ui.ColorUnderline(), ui.ColorReset())
	for _, w := range workloads {
		fmt.Fprintf(tw, "%s%s%s\t%d", ui.ColorBlue(), w.Name, ui.ColorReset(), w.Terms)
		for _, s := range strategies {
			cell := "-"
			if ns, ok := w.Durations[s]; ok {
				cell = cli.FormatExecutionDuration(time.Duration(ns))
			} else if slices.Contains(w.Declined, s) {
				cell = "declined"
			}
			fmt.Fprintf(tw, "\t%s", cell)
		}
		winner := "none"
		if w.Winner != "" {
			winner = fmt.Sprintf("%s%s%s", ui.StrategyColor(w.Winner), w.Winner, ui.ColorReset())
		}
		fmt.Fprintf(tw, "\t%s\n", winner)
	}
	tw.Flush()
}

// ─────────────────────────────────────────────────────────────────────────────
// HTML Chart
// ─────────────────────────────────────────────────────────────────────────────

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func newThreadChart(results []calibrationResult) *charts.Line {
	labels := make([]string, 0, len(results))
	points := make([]opts.LineData, 0, len(results))
	for _, r := range results {
		labels = append(labels, fmt.Sprintf("%d", r.ThreadLimit))
		if r.Err != nil {
			points = append(points, opts.LineData{Value: "-"})
			continue
		}
		points = append(points, opts.LineData{Value: millis(r.Duration)})
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Dispatcher time by thread limit", Subtitle: getCPUModel()}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "mpolycalc calibration", Width: "1000px", Height: "500px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "threads"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)
	line.SetXAxis(labels).AddSeries("auto", points)
	return line
}

func newStrategyChart(workloads []WorkloadResult) *charts.Bar {
	labels := make([]string, len(workloads))
	for i, w := range workloads {
		labels[i] = w.Name
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Strategy time by workload"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "500px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)
	bar.SetXAxis(labels)
	for _, s := range strategies {
		items := make([]opts.BarData, len(workloads))
		for i, w := range workloads {
			items[i] = opts.BarData{Value: "-"}
			if ns, ok := w.Durations[s]; ok {
				items[i] = opts.BarData{Value: millis(time.Duration(ns))}
			}
		}
		bar.AddSeries(s, items)
	}
	return bar
}

// WriteChart renders the thread limit and strategy timings as an HTML page.
func WriteChart(path string, results []calibrationResult, workloads []WorkloadResult) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	page := components.NewPage().SetPageTitle("mpolycalc calibration")
	page.AddCharts(newThreadChart(results), newStrategyChart(workloads))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return f.Close()
}
