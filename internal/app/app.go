package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/agbru/mpolycalc/internal/calibration"
	"github.com/agbru/mpolycalc/internal/cli"
	"github.com/agbru/mpolycalc/internal/config"
	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/logging"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/mpolymul"
	"github.com/agbru/mpolycalc/internal/orchestration"
	"github.com/agbru/mpolycalc/internal/threadpool"
	"github.com/agbru/mpolycalc/internal/ui"
)

// Application is one mpolycalc invocation: its configuration, the
// multipliers it can run and where diagnostics go.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory provides the multipliers.
	Factory mpolymul.MultiplierFactory
	// ErrWriter receives logs and error output (typically os.Stderr).
	ErrWriter io.Writer
	// Logger is set up by Run from Config.LogLevel.
	Logger logging.Logger
}

// New parses the command line into an Application. When -threads is not
// given, a cached calibration profile or, failing that, a CPU-count
// estimate supplies the thread limit; -auto-calibrate defers the choice to
// Run.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := mpolymul.GlobalFactory()

	programName := "mpolycalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}

	if cached, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded {
		cfg = cached
	} else if !cfg.AutoCalibrate {
		cfg = applyAdaptiveDefaults(cfg)
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
	}, nil
}

// applyAdaptiveDefaults fills the thread limit from the CPU count when the
// user left it unset.
func applyAdaptiveDefaults(cfg config.AppConfig) config.AppConfig {
	if cfg.Threads == 0 {
		cfg.Threads = calibration.EstimateOptimalThreadLimit()
	}
	return cfg
}

// Run executes the configured mode: version, calibration or multiplication.
//
// Parameters:
//   - ctx: The context for managing cancellation.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		if a.Config.JSONOutput {
			return printJSONVersion(out)
		}
		PrintVersion(out)
		return apperrors.ExitSuccess
	}

	ui.InitTheme(a.Config.NoColor)
	level, err := logging.ParseLevel(a.Config.LogLevel)
	if err != nil {
		return apperrors.HandleCalculationError(apperrors.NewConfigError("%v", err), 0, a.ErrWriter, nil)
	}
	a.Logger = logging.Setup(level, a.ErrWriter)

	pool := threadpool.InitGlobal(a.Config.PoolSize)
	a.Logger.Debug("thread pool ready", logging.Int("workers", pool.Size()))

	if a.Config.Calibrate {
		return a.runCalibration(ctx, out)
	}

	a.Config = a.runAutoCalibrationIfEnabled(ctx, out)
	return a.runCalculate(ctx, out)
}

// runCalibration runs the full calibration mode.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, stop := SetupSignals(ctx)
	defer stop()
	return calibration.RunCalibration(ctx, out, a.Factory, a.Config)
}

// runAutoCalibrationIfEnabled returns the configuration with a measured
// thread limit when -auto-calibrate is set.
func (a *Application) runAutoCalibrationIfEnabled(ctx context.Context, out io.Writer) config.AppConfig {
	if !a.Config.AutoCalibrate {
		return a.Config
	}
	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}
	if updated, ok := calibration.AutoCalibrate(ctx, a.Config, progressOut); ok {
		return updated
	}
	return applyAdaptiveDefaults(a.Config)
}

// runCalculate loads the operands, runs the selected multipliers and
// reports the outcome.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()

	b, c, err := cli.LoadOperands(a.Config)
	if err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	a.Logger.Info("operands ready",
		logging.Int("b_terms", b.Len()),
		logging.Int("c_terms", c.Len()),
		logging.Int("nvars", b.Ctx.NVars))

	selected := cli.GetMultipliersToRun(a.Config, a.Factory)

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, b, c, out)
		cli.PrintExecutionMode(selected, out)
	}

	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}

	results := orchestration.ExecuteMultiplications(ctx, selected, b, c, a.Config, progressOut, a.Logger)

	if a.Config.JSONOutput {
		return printJSONResults(results, a.Config.Verbose, out)
	}

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
	}
	return a.analyzeResultsWithOutput(results, outputCfg, out)
}

func (a *Application) analyzeResultsWithOutput(results []orchestration.CalculationResult, outputCfg cli.OutputConfig, out io.Writer) int {
	if outputCfg.Quiet {
		return a.quietResult(results, outputCfg, out)
	}

	exitCode := apperrors.ExitSuccess
	if len(results) > 1 {
		exitCode = orchestration.AnalyzeComparisonResults(results, out)
	} else if len(results) == 1 && results[0].Err != nil {
		return apperrors.HandleCalculationError(results[0].Err, results[0].Duration, out, cli.CLIColorProvider{})
	}

	best := orchestration.BestResult(results)
	if best == nil || exitCode != apperrors.ExitSuccess {
		return exitCode
	}

	fmt.Fprintln(out)
	cli.DisplayResult(best.Name, best.Result, outputCfg.Verbose, a.Config.Details, out)
	if err := a.saveResultIfNeeded(best, outputCfg); err != nil {
		return apperrors.ExitErrorGeneric
	}
	if outputCfg.OutputFile != "" {
		fmt.Fprintf(out, "\n%s✓ Product saved to: %s%s%s\n",
			ui.ColorGreen(), ui.ColorCyan(), outputCfg.OutputFile, ui.ColorReset())
	}
	return exitCode
}

// quietResult prints only the fingerprint line of the fastest result.
func (a *Application) quietResult(results []orchestration.CalculationResult, outputCfg cli.OutputConfig, out io.Writer) int {
	best := orchestration.BestResult(results)
	if best == nil {
		err := errors.New("every multiplier declined the operands")
		for _, r := range results {
			if r.Err != nil && !r.Declined() {
				err = r.Err
				break
			}
		}
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, nil)
	}
	if err := orchestration.CheckConsistency(results); err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, nil)
	}
	cli.DisplayQuietResult(out, best.Result.Product)
	if err := a.saveResultIfNeeded(best, outputCfg); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// IsHelpError reports whether err comes from -h or -help.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

func (a *Application) saveResultIfNeeded(res *orchestration.CalculationResult, cfg cli.OutputConfig) error {
	if cfg.OutputFile == "" {
		return nil
	}
	if err := cli.WriteProductToFile(res.Result.Product, cfg.OutputFile); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving product: %v\n", err)
		return err
	}
	return nil
}

// jsonResult is one multiplier in the -json output.
type jsonResult struct {
	Multiplier  string          `json:"multiplier"`
	Strategy    string          `json:"strategy,omitempty"`
	Route       string          `json:"route,omitempty"`
	Threaded    bool            `json:"threaded"`
	Declined    []string        `json:"declined,omitempty"`
	Duration    string          `json:"duration"`
	Terms       int             `json:"terms"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Product     *mpoly.Document `json:"product,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// printJSONResults writes one JSON object per multiplier. With verbose the
// product terms are included. The exit code reports failures and
// mismatches as in the text output.
func printJSONResults(results []orchestration.CalculationResult, verbose bool, out io.Writer) int {
	output := make([]jsonResult, len(results))
	var firstErr error
	succeeded := 0
	for i, res := range results {
		jr := jsonResult{Multiplier: res.Name, Duration: res.Duration.String()}
		if res.Err != nil {
			jr.Error = res.Err.Error()
			if firstErr == nil && !res.Declined() {
				firstErr = res.Err
			}
		} else {
			succeeded++
			jr.Strategy = string(res.Result.Strategy)
			jr.Route = string(res.Result.Route)
			jr.Threaded = res.Result.Threaded
			for _, s := range res.Result.Failed {
				jr.Declined = append(jr.Declined, string(s))
			}
			jr.Terms = res.Result.Product.Len()
			jr.Fingerprint = res.Fingerprint
			if verbose {
				doc := res.Result.Product.Document()
				jr.Product = &doc
			}
		}
		output[i] = jr
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return apperrors.ExitErrorGeneric
	}

	switch {
	case succeeded == 0 && firstErr != nil:
		return apperrors.ExitCode(firstErr)
	case succeeded == 0:
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitCode(orchestration.CheckConsistency(results))
}

func printJSONVersion(out io.Writer) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(GetVersionInfo()); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
