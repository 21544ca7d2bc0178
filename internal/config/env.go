package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/mpolycalc/internal/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// envLookup returns the value of EnvPrefix+key and whether it is set and
// non-empty.
func envLookup(key string) (string, bool) {
	val := os.Getenv(EnvPrefix + key)
	return val, val != ""
}

func envString(key string, dst *string) error {
	if val, ok := envLookup(key); ok {
		*dst = val
	}
	return nil
}

func envInt(key string, dst *int) error {
	val, ok := envLookup(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return apperrors.NewConfigError("%s%s=%q is not an integer", EnvPrefix, key, val)
	}
	*dst = parsed
	return nil
}

func envInt64(key string, dst *int64) error {
	val, ok := envLookup(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return apperrors.NewConfigError("%s%s=%q is not an integer", EnvPrefix, key, val)
	}
	*dst = parsed
	return nil
}

func envUint64(key string, dst *uint64) error {
	val, ok := envLookup(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return apperrors.NewConfigError("%s%s=%q is not a non-negative integer", EnvPrefix, key, val)
	}
	*dst = parsed
	return nil
}

// envBool accepts "true", "1", "yes" and "false", "0", "no"
// (case-insensitive).
func envBool(key string, dst *bool) error {
	val, ok := envLookup(key)
	if !ok {
		return nil
	}
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		return apperrors.NewConfigError("%s%s=%q is not a boolean", EnvPrefix, key, val)
	}
	return nil
}

// envDuration accepts formats like "5m", "30s", "1h30m".
func envDuration(key string, dst *time.Duration) error {
	val, ok := envLookup(key)
	if !ok {
		return nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return apperrors.NewConfigError("%s%s=%q is not a duration", EnvPrefix, key, val)
	}
	*dst = parsed
	return nil
}

// isFlagSet reports whether a flag was given on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// envOverride binds a flag to its environment variable.
type envOverride struct {
	flag  string
	apply func() error
}

// overrides lists the environment variable of every flag. The variable name
// is the flag name upper-cased with dashes replaced by underscores, except
// for the one-letter flags which use their long meaning.
func overrides(c *AppConfig) []envOverride {
	return []envOverride{
		{"b", func() error { return envString("B", &c.BFile) }},
		{"c", func() error { return envString("C", &c.CFile) }},
		{"gen", func() error { return envString("GEN", &c.Gen) }},
		{"nvars", func() error { return envInt("NVARS", &c.NVars) }},
		{"ord", func() error { return envString("ORD", &c.Ordering) }},
		{"terms", func() error { return envInt("TERMS", &c.Terms) }},
		{"degree", func() error { return envUint64("DEGREE", &c.Degree) }},
		{"coeff-bits", func() error { return envInt("COEFF_BITS", &c.CoeffBits) }},
		{"seed", func() error { return envInt64("SEED", &c.Seed) }},
		{"algo", func() error { return envString("ALGO", &c.Algo) }},
		{"threads", func() error { return envInt("THREADS", &c.Threads) }},
		{"pool-size", func() error { return envInt("POOL_SIZE", &c.PoolSize) }},
		{"dense-ceiling", func() error { return envInt64("DENSE_CEILING", &c.DenseCeiling) }},
		{"array-ceiling", func() error { return envInt64("ARRAY_CEILING", &c.ArrayCeiling) }},
		{"deg-array-ceiling", func() error { return envInt64("DEG_ARRAY_CEILING", &c.DegArrayCeiling) }},
		{"fill-ratio", func() error { return envInt64("FILL_RATIO", &c.FillRatio) }},
		{"dense-vs-array", func() error { return envInt64("DENSE_VS_ARRAY", &c.DenseVsArray) }},
		{"dense-vs-heap", func() error { return envInt64("DENSE_VS_HEAP", &c.DenseVsHeap) }},
		{"timeout", func() error { return envDuration("TIMEOUT", &c.Timeout) }},
		{"o", func() error { return envString("OUTPUT", &c.OutputFile) }},
		{"json", func() error { return envBool("JSON", &c.JSONOutput) }},
		{"q", func() error { return envBool("QUIET", &c.Quiet) }},
		{"v", func() error { return envBool("VERBOSE", &c.Verbose) }},
		{"d", func() error { return envBool("DETAILS", &c.Details) }},
		{"no-color", func() error { return envBool("NO_COLOR", &c.NoColor) }},
		{"calibrate", func() error { return envBool("CALIBRATE", &c.Calibrate) }},
		{"auto-calibrate", func() error { return envBool("AUTO_CALIBRATE", &c.AutoCalibrate) }},
		{"calibration-profile", func() error { return envString("CALIBRATION_PROFILE", &c.CalibrationProfile) }},
		{"calibration-chart", func() error { return envString("CALIBRATION_CHART", &c.CalibrationChart) }},
		{"log-level", func() error { return envString("LOG_LEVEL", &c.LogLevel) }},
	}
}

// applyEnvOverrides applies environment variables to every flag that was
// not given on the command line, giving the precedence
// CLI flags > environment > defaults. A malformed value is a ConfigError.
func applyEnvOverrides(c *AppConfig, fs *flag.FlagSet) error {
	for _, o := range overrides(c) {
		if isFlagSet(fs, o.flag) {
			continue
		}
		if err := o.apply(); err != nil {
			return err
		}
	}
	return nil
}
