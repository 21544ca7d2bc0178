// Package config provides the configuration management for the mpolycalc
// application. It defines the configuration structure, parses command-line
// flags, applies environment overrides and validates the result.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/logging"
	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/mpolymul"
)

const (
	// EnvPrefix is the prefix of every environment override.
	EnvPrefix = "MPOLY_"
)

// Default configuration values.
const (
	DefaultGen       = GenRandom
	DefaultNVars     = 3
	DefaultOrdering  = "degrevlex"
	DefaultTerms     = 500
	DefaultDegree    = 20
	DefaultCoeffBits = 64
	DefaultSeed      = 1
	DefaultAlgo      = "auto"
	DefaultTimeout   = 5 * time.Minute
	DefaultLogLevel  = "warn"

	// AlgoAll runs every registered multiplier and compares the products.
	AlgoAll = "all"
)

// Operand generators.
const (
	GenRandom = "random"
	GenSparse = "sparse"
	GenDense  = "dense"
)

// Generators lists the accepted -gen values.
var Generators = []string{GenRandom, GenSparse, GenDense}

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// BFile and CFile are JSON operand files. When both are empty the
	// operands are generated.
	BFile string
	CFile string

	// Gen selects the operand generator: random, sparse or dense.
	Gen string
	// NVars is the number of variables of generated operands.
	NVars int
	// Ordering is the monomial ordering of generated operands.
	Ordering string
	// Terms is the number of terms drawn per generated operand.
	Terms int
	// Degree bounds every exponent of generated operands.
	Degree uint64
	// CoeffBits bounds the coefficient size of generated operands.
	CoeffBits int
	// Seed makes generation reproducible.
	Seed int64

	// Algo is "auto", "all" or the name of a registered multiplier.
	Algo string
	// Threads is the thread limit per multiplication, 0 for GOMAXPROCS.
	Threads int
	// PoolSize is the number of workers of the process-wide pool, -1 for
	// GOMAXPROCS-1.
	PoolSize int

	// Heuristic overrides, 0 keeps the default.
	DenseCeiling    int64
	ArrayCeiling    int64
	DegArrayCeiling int64
	FillRatio       int64
	DenseVsArray    int64
	DenseVsHeap     int64

	// Timeout bounds the whole run.
	Timeout time.Duration

	// OutputFile receives the product as JSON.
	OutputFile string
	// JSONOutput prints a machine-readable report.
	JSONOutput bool
	// Quiet prints only the product fingerprint.
	Quiet bool
	// Verbose prints every term of the product.
	Verbose bool
	// Details prints the dispatch plan and timing breakdown.
	Details bool
	// NoColor disables colored output (NO_COLOR is honored as well).
	NoColor bool

	// Calibrate runs the calibration benchmark instead of a multiplication.
	Calibrate bool
	// AutoCalibrate picks a thread limit by micro-benchmark when -threads is
	// not given and no cached profile exists.
	AutoCalibrate bool
	// CalibrationProfile is the profile path, empty for
	// ~/.mpolycalc_calibration.json.
	CalibrationProfile string
	// CalibrationChart, when set, receives an HTML chart of the calibration.
	CalibrationChart string

	// LogLevel is the zerolog level name.
	LogLevel string
	// ShowVersion prints the version and exits.
	ShowVersion bool
}

// ToMultiplyOptions converts the configuration into mpolymul.Options. The
// pool is left nil so the dispatcher uses the process-wide pool.
func (c AppConfig) ToMultiplyOptions() mpolymul.Options {
	return mpolymul.Options{
		ThreadLimit: c.Threads,
		Heuristics: mpolymul.Heuristics{
			DenseCellCeiling:    c.DenseCeiling,
			ArrayCellCeiling:    c.ArrayCeiling,
			DegArrayCellCeiling: c.DegArrayCeiling,
			ArrayFillRatio:      c.FillRatio,
			DenseVsArrayFactor:  c.DenseVsArray,
			DenseVsHeapFactor:   c.DenseVsHeap,
		},
	}
}

// ToGenOptions converts the generator settings into mpoly.GenOptions.
func (c AppConfig) ToGenOptions() mpoly.GenOptions {
	return mpoly.GenOptions{Terms: c.Terms, MaxDegree: c.Degree, CoeffBits: c.CoeffBits}
}

// Context returns the ring of generated operands.
func (c AppConfig) Context() (mpoly.Context, error) {
	ord, err := monomial.ParseOrdering(c.Ordering)
	if err != nil {
		return mpoly.Context{}, apperrors.NewConfigError("%v", err)
	}
	ctx, err := mpoly.NewContext(c.NVars, ord)
	if err != nil {
		return mpoly.Context{}, apperrors.NewConfigError("invalid ring: %v", err)
	}
	return ctx, nil
}

// Validate checks the semantic consistency of the configuration.
//
// Parameters:
//   - availableAlgos: The names of the registered multipliers.
//
// Returns:
//   - error: A ConfigError if the configuration is invalid, nil otherwise.
func (c AppConfig) Validate(availableAlgos []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if (c.BFile == "") != (c.CFile == "") {
		return apperrors.NewConfigError("-b and -c must be given together")
	}
	if c.BFile == "" {
		if !slices.Contains(Generators, c.Gen) {
			return apperrors.NewConfigError("unrecognized generator: '%s'. Valid generators are: [%s]", c.Gen, strings.Join(Generators, ", "))
		}
		if _, err := c.Context(); err != nil {
			return err
		}
		if c.Terms < 0 {
			return apperrors.NewConfigError("term count cannot be negative: %d", c.Terms)
		}
		if c.CoeffBits < 1 {
			return apperrors.NewConfigError("coefficient size must be at least 1 bit: %d", c.CoeffBits)
		}
	}
	if c.Threads < 0 {
		return apperrors.NewConfigError("thread limit cannot be negative: %d", c.Threads)
	}
	if c.PoolSize < -1 {
		return apperrors.NewConfigError("pool size must be -1 (automatic) or non-negative: %d", c.PoolSize)
	}
	for _, h := range []struct {
		name string
		v    int64
	}{
		{"dense-ceiling", c.DenseCeiling},
		{"array-ceiling", c.ArrayCeiling},
		{"deg-array-ceiling", c.DegArrayCeiling},
		{"fill-ratio", c.FillRatio},
		{"dense-vs-array", c.DenseVsArray},
		{"dense-vs-heap", c.DenseVsHeap},
	} {
		if h.v < 0 {
			return apperrors.NewConfigError("-%s cannot be negative: %d", h.name, h.v)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if c.Algo != DefaultAlgo && c.Algo != AlgoAll && !slices.Contains(availableAlgos, c.Algo) {
		return apperrors.NewConfigError("unrecognized algorithm: '%s'. Valid algorithms are: 'all' or [%s]", c.Algo, strings.Join(availableAlgos, ", "))
	}
	return nil
}

// ParseConfig parses the command-line arguments into an AppConfig, applies
// environment overrides for flags not given explicitly and validates the
// result.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments without the program name.
//   - errorWriter: Where parsing errors and usage are printed.
//   - availableAlgos: The names of the registered multipliers.
//
// Returns:
//   - AppConfig: The populated configuration.
//   - error: An error if parsing or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableAlgos []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	algoHelp := fmt.Sprintf("Multiplier to use: 'auto' (default), 'all' to compare, or one of [%s].", strings.Join(availableAlgos, ", "))

	config := AppConfig{}
	fs.StringVar(&config.BFile, "b", "", "JSON file holding the first operand.")
	fs.StringVar(&config.CFile, "c", "", "JSON file holding the second operand.")
	fs.StringVar(&config.Gen, "gen", DefaultGen, "Operand generator when no files are given: random, sparse or dense.")
	fs.IntVar(&config.NVars, "nvars", DefaultNVars, "Number of variables of generated operands.")
	fs.StringVar(&config.Ordering, "ord", DefaultOrdering, "Monomial ordering: lex, deglex or degrevlex.")
	fs.IntVar(&config.Terms, "terms", DefaultTerms, "Terms drawn per generated operand.")
	fs.Uint64Var(&config.Degree, "degree", DefaultDegree, "Largest exponent of generated operands.")
	fs.IntVar(&config.CoeffBits, "coeff-bits", DefaultCoeffBits, "Largest coefficient size of generated operands, in bits.")
	fs.Int64Var(&config.Seed, "seed", DefaultSeed, "Random seed of the generator.")

	fs.StringVar(&config.Algo, "algo", DefaultAlgo, algoHelp)
	fs.IntVar(&config.Threads, "threads", 0, "Thread limit per multiplication (0 = GOMAXPROCS).")
	fs.IntVar(&config.PoolSize, "pool-size", -1, "Workers in the shared pool (-1 = GOMAXPROCS-1).")
	fs.Int64Var(&config.DenseCeiling, "dense-ceiling", 0, "Largest dense grid, in cells (0 = default).")
	fs.Int64Var(&config.ArrayCeiling, "array-ceiling", 0, "Largest lexicographic array grid, in cells (0 = default).")
	fs.Int64Var(&config.DegArrayCeiling, "deg-array-ceiling", 0, "Largest degree-ordered array estimate, in cells (0 = default).")
	fs.Int64Var(&config.FillRatio, "fill-ratio", 0, "Cells per cross product at which the array strategy is rejected (0 = default).")
	fs.Int64Var(&config.DenseVsArray, "dense-vs-array", 0, "Dense-vs-array cost factor (0 = default).")
	fs.Int64Var(&config.DenseVsHeap, "dense-vs-heap", 0, "Dense-vs-heap cost factor (0 = default).")

	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time.")
	fs.StringVar(&config.OutputFile, "o", "", "Write the product as JSON to this file.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode - print only the product fingerprint.")
	fs.BoolVar(&config.Verbose, "v", false, "Print every term of the product.")
	fs.BoolVar(&config.Details, "d", false, "Print the dispatch plan and performance details.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Benchmark this machine and save a calibration profile.")
	fs.BoolVar(&config.AutoCalibrate, "auto-calibrate", false, "Run a quick thread-limit benchmark at startup when -threads is not set.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to the calibration profile (default: ~/.mpolycalc_calibration.json).")
	fs.StringVar(&config.CalibrationChart, "calibration-chart", "", "Write an HTML chart of the calibration run to this file.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: trace, debug, info, warn, error or disabled.")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print version information and exit.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	if err := applyEnvOverrides(&config, fs); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		return AppConfig{}, err
	}

	config.Algo = strings.ToLower(config.Algo)
	config.Gen = strings.ToLower(config.Gen)
	if err := config.Validate(availableAlgos); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.Join(errors.New("invalid configuration"), err)
	}
	return config, nil
}
