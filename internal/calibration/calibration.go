package calibration

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/agbru/mpolycalc/internal/cli"
	"github.com/agbru/mpolycalc/internal/config"
	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/mpolymul"
	"github.com/agbru/mpolycalc/internal/ui"
)

// CalibrationOptions configures a full calibration run.
type CalibrationOptions struct {
	// ProfilePath is where the profile is loaded from and saved to. Empty
	// means GetDefaultProfilePath.
	ProfilePath string
	// ChartPath receives an HTML chart of the timings, empty for none.
	ChartPath string
	// SaveProfile writes the profile when the run succeeds.
	SaveProfile bool
	// LoadProfile reuses a valid existing profile instead of measuring.
	LoadProfile bool
	// ThreadWorkload is timed at every thread limit (default:
	// DefaultThreadWorkload).
	ThreadWorkload *Workload
	// Workloads are the strategy comparisons (default: DefaultWorkloads).
	Workloads []Workload
	// Timeout bounds each trial to a tenth of it, at least two seconds.
	Timeout time.Duration
}

// DefaultThreadWorkload is large enough for the threaded strategies to
// split into several chunks.
func DefaultThreadWorkload() Workload {
	return Workload{Name: "threads", Gen: config.GenRandom, NVars: 3, Terms: 3000, Degree: 24, CoeffBits: 64}
}

// RunCalibration measures the fastest thread limit and the fastest strategy
// of every default workload, then saves the profile.
//
// Parameters:
//   - ctx: Cancellation for the whole run.
//   - out: Destination of the progress bar and the summary tables.
//   - factory: Source of the "auto" dispatcher and the forced strategies.
//   - cfg: The application configuration; its profile and chart paths and
//     its timeout are used.
//
// Returns:
//   - int: The exit code.
func RunCalibration(ctx context.Context, out io.Writer, factory mpolymul.MultiplierFactory, cfg config.AppConfig) int {
	return RunCalibrationWithOptions(ctx, out, factory, CalibrationOptions{
		ProfilePath: cfg.CalibrationProfile,
		ChartPath:   cfg.CalibrationChart,
		SaveProfile: true,
		Timeout:     cfg.Timeout,
	})
}

// RunCalibrationWithOptions executes a calibration with explicit options.
func RunCalibrationWithOptions(ctx context.Context, out io.Writer, factory mpolymul.MultiplierFactory, opts CalibrationOptions) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Optimal Thread Limit and Strategies ---\n")

	if opts.LoadProfile {
		if profile, loaded := LoadOrCreateProfile(opts.ProfilePath); loaded {
			fmt.Fprintf(out, "%sLoaded existing calibration profile%s\n", ui.ColorGreen(), ui.ColorReset())
			fmt.Fprintf(out, "Profile: %s\n", profile.String())
			fmt.Fprintf(out, "\n%s✅ Using cached calibration: %s-threads %d%s\n",
				ui.ColorGreen(), ui.ColorYellow(), profile.OptimalThreadLimit, ui.ColorReset())
			return apperrors.ExitSuccess
		}
	}

	threadWorkload := DefaultThreadWorkload()
	if opts.ThreadWorkload != nil {
		threadWorkload = *opts.ThreadWorkload
	}
	workloads := opts.Workloads
	if workloads == nil {
		workloads = DefaultWorkloads()
	}
	limits := GenerateThreadLimits()
	fmt.Fprintf(out, "%sTesting %d thread limits on %d CPU cores, %d workloads%s\n",
		ui.ColorCyan(), len(limits), runtime.NumCPU(), len(workloads), ui.ColorReset())

	b, c, err := cli.LoadOperands(threadWorkload.Config(config.DefaultSeed))
	if err != nil {
		return apperrors.HandleCalculationError(err, 0, out, cli.CLIColorProvider{})
	}

	bar := progressbar.NewOptions(len(limits)+len(workloads)*len(strategies),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Calibrating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(cli.ProgressBarWidth),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)
	runner := newCalibrationRunner(ctx, opts.Timeout, factory)
	runner.step = func() { _ = bar.Add(1) }
	start := time.Now()

	results, best, err := runner.findBestThreadLimit(b, c, limits)
	if err != nil {
		_ = bar.Finish()
		fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
		return apperrors.HandleCalculationError(err, time.Since(start), out, cli.CLIColorProvider{})
	}
	if best == 0 {
		_ = bar.Finish()
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", ui.ColorRed(), ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	winners := make([]WorkloadResult, 0, len(workloads))
	for _, w := range workloads {
		wb, wc, err := cli.LoadOperands(w.Config(config.DefaultSeed))
		if err != nil {
			_ = bar.Finish()
			return apperrors.HandleCalculationError(err, 0, out, cli.CLIColorProvider{})
		}
		wr, err := runner.findWinner(w.Name, wb, wc, best)
		if err != nil {
			_ = bar.Finish()
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
			return apperrors.HandleCalculationError(err, time.Since(start), out, cli.CLIColorProvider{})
		}
		winners = append(winners, wr)
	}
	_ = bar.Finish()
	elapsed := time.Since(start)

	printCalibrationResults(out, results, best)
	printWorkloadResults(out, winners)
	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s-threads %d%s\n",
		ui.ColorGreen(), ui.ColorYellow(), best, ui.ColorReset())

	if opts.SaveProfile {
		profile := NewProfile()
		profile.OptimalThreadLimit = best
		profile.Workloads = winners
		profile.CalibrationTime = elapsed.String()
		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved%s\n", ui.ColorGreen(), ui.ColorReset())
		}
	}

	if opts.ChartPath != "" {
		if err := WriteChart(opts.ChartPath, results, winners); err != nil {
			fmt.Fprintf(out, "%sWarning: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		} else {
			fmt.Fprintf(out, "Chart written to %s\n", opts.ChartPath)
		}
	}
	return apperrors.ExitSuccess
}

// AutoCalibrate picks a thread limit for a run that did not set one. A
// valid cached profile is used when present; otherwise a micro-benchmark
// runs and, when confident enough, its result is saved as a profile.
//
// Parameters:
//   - ctx: Cancellation for the micro-benchmark.
//   - cfg: The application configuration.
//   - out: Destination of a one-line report.
//
// Returns:
//   - config.AppConfig: cfg with Threads set.
//   - bool: Whether a thread limit was applied.
func AutoCalibrate(ctx context.Context, cfg config.AppConfig, out io.Writer) (config.AppConfig, bool) {
	if cfg.Threads != 0 {
		return cfg, false
	}
	if updated, ok := LoadCachedCalibration(cfg, cfg.CalibrationProfile); ok {
		fmt.Fprintf(out, "%sUsing cached calibration%s: threads=%s%d%s\n",
			ui.ColorGreen(), ui.ColorReset(), ui.ColorYellow(), updated.Threads, ui.ColorReset())
		return updated, true
	}

	tr, err := QuickCalibrate(ctx)
	if err != nil || tr.Confidence < 0.5 {
		return cfg, false
	}
	updated := cfg
	updated.Threads = ValidateThreadLimit(tr.ThreadLimit)
	fmt.Fprintf(out, "%sQuick calibration%s (%v): threads=%s%d%s (confidence: %.0f%%)\n",
		ui.ColorGreen(), ui.ColorReset(), tr.Duration.Round(time.Millisecond),
		ui.ColorYellow(), updated.Threads, ui.ColorReset(), tr.Confidence*100)

	profile := NewProfile()
	profile.OptimalThreadLimit = updated.Threads
	profile.CalibrationTime = tr.Duration.String()
	if err := profile.SaveProfile(cfg.CalibrationProfile); err != nil {
		fmt.Fprintf(out, "%sWarning: could not save calibration profile: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
	}
	return updated, true
}

// LoadCachedCalibration applies the thread limit of a valid profile at
// profilePath to a configuration that did not set one.
func LoadCachedCalibration(cfg config.AppConfig, profilePath string) (config.AppConfig, bool) {
	if cfg.Threads != 0 {
		return cfg, false
	}
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded {
		return cfg, false
	}
	cfg.Threads = ValidateThreadLimit(profile.OptimalThreadLimit)
	return cfg, true
}
