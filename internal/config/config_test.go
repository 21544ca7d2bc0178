package config

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/monomial"
)

var availableAlgos = []string{"array", "auto", "dense", "heap"}

func TestParseConfigDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := ParseConfig("mpolycalc", nil, io.Discard, availableAlgos)
	require.NoError(t, err)

	assert.Equal(t, DefaultAlgo, cfg.Algo)
	assert.Equal(t, DefaultGen, cfg.Gen)
	assert.Equal(t, DefaultNVars, cfg.NVars)
	assert.Equal(t, DefaultOrdering, cfg.Ordering)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, -1, cfg.PoolSize)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)

	ctx, err := cfg.Context()
	require.NoError(t, err)
	assert.Equal(t, monomial.DegRevLex, ctx.Ord)
}

func TestParseConfigFlags(t *testing.T) {
	t.Parallel()
	args := []string{
		"-gen", "DENSE", "-nvars", "4", "-ord", "lex", "-terms", "30", "-degree", "7",
		"-coeff-bits", "200", "-seed", "9", "-algo", "Heap", "-threads", "6",
		"-pool-size", "3", "-dense-ceiling", "1000", "-array-ceiling", "2000",
		"-deg-array-ceiling", "3000", "-fill-ratio", "4", "-dense-vs-array", "64",
		"-dense-vs-heap", "16", "-timeout", "10s", "-o", "p.json", "-json", "-d",
		"-log-level", "debug",
	}
	cfg, err := ParseConfig("mpolycalc", args, io.Discard, availableAlgos)
	require.NoError(t, err)

	assert.Equal(t, "dense", cfg.Gen)
	assert.Equal(t, "heap", cfg.Algo)
	assert.Equal(t, 4, cfg.NVars)
	assert.Equal(t, uint64(7), cfg.Degree)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.JSONOutput)
	assert.True(t, cfg.Details)

	opts := cfg.ToMultiplyOptions()
	assert.Equal(t, 6, opts.ThreadLimit)
	assert.Nil(t, opts.Pool)
	assert.Equal(t, int64(1000), opts.Heuristics.DenseCellCeiling)
	assert.Equal(t, int64(2000), opts.Heuristics.ArrayCellCeiling)
	assert.Equal(t, int64(3000), opts.Heuristics.DegArrayCellCeiling)
	assert.Equal(t, int64(4), opts.Heuristics.ArrayFillRatio)
	assert.Equal(t, int64(64), opts.Heuristics.DenseVsArrayFactor)
	assert.Equal(t, int64(16), opts.Heuristics.DenseVsHeapFactor)

	gen := cfg.ToGenOptions()
	assert.Equal(t, 30, gen.Terms)
	assert.Equal(t, uint64(7), gen.MaxDegree)
	assert.Equal(t, 200, gen.CoeffBits)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MPOLY_NVARS", "5")
	t.Setenv("MPOLY_ORD", "deglex")
	t.Setenv("MPOLY_ALGO", "all")
	t.Setenv("MPOLY_THREADS", "2")
	t.Setenv("MPOLY_DENSE_VS_HEAP", "8")
	t.Setenv("MPOLY_TIMEOUT", "2m")
	t.Setenv("MPOLY_QUIET", "yes")
	t.Setenv("MPOLY_OUTPUT", "out.json")
	t.Setenv("MPOLY_CALIBRATION_PROFILE", "prof.json")

	cfg, err := ParseConfig("mpolycalc", nil, io.Discard, availableAlgos)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.NVars)
	assert.Equal(t, "deglex", cfg.Ordering)
	assert.Equal(t, AlgoAll, cfg.Algo)
	assert.Equal(t, 2, cfg.Threads)
	assert.Equal(t, int64(8), cfg.DenseVsHeap)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, "out.json", cfg.OutputFile)
	assert.Equal(t, "prof.json", cfg.CalibrationProfile)
}

func TestFlagPrecedenceOverEnv(t *testing.T) {
	t.Setenv("MPOLY_THREADS", "2")
	t.Setenv("MPOLY_Q", "true") // not a recognised name, ignored
	cfg, err := ParseConfig("mpolycalc", []string{"-threads", "7"}, io.Discard, availableAlgos)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Threads)
	assert.False(t, cfg.Quiet)
}

func TestMalformedEnvIsConfigError(t *testing.T) {
	t.Setenv("MPOLY_TERMS", "many")
	_, err := ParseConfig("mpolycalc", nil, io.Discard, availableAlgos)
	var cfgErr apperrors.ConfigError
	require.True(t, errors.As(err, &cfgErr), "error = %v", err)
	assert.Contains(t, err.Error(), "MPOLY_TERMS")
}

func TestValidationFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown algorithm", []string{"-algo", "fft"}, "unrecognized algorithm"},
		{"unknown generator", []string{"-gen", "grid"}, "unrecognized generator"},
		{"unknown ordering", []string{"-ord", "revlex"}, "unknown monomial ordering"},
		{"zero variables", []string{"-nvars", "0"}, "invalid ring"},
		{"one operand file", []string{"-b", "b.json"}, "must be given together"},
		{"negative threads", []string{"-threads", "-1"}, "thread limit"},
		{"pool size", []string{"-pool-size", "-2"}, "pool size"},
		{"negative heuristic", []string{"-fill-ratio", "-3"}, "-fill-ratio cannot be negative"},
		{"zero timeout", []string{"-timeout", "0s"}, "timeout"},
		{"zero coefficient bits", []string{"-coeff-bits", "0"}, "coefficient size"},
		{"unknown log level", []string{"-log-level", "loud"}, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stderr bytes.Buffer
			_, err := ParseConfig("mpolycalc", tt.args, &stderr, availableAlgos)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, stderr.String(), "Configuration error:")
		})
	}
}

func TestOperandFilesSkipGeneratorChecks(t *testing.T) {
	t.Parallel()
	cfg, err := ParseConfig("mpolycalc", []string{"-b", "b.json", "-c", "c.json", "-gen", "bogus"}, io.Discard, availableAlgos)
	require.NoError(t, err)
	assert.Equal(t, "b.json", cfg.BFile)
}

func TestUsageListsFlags(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var stderr bytes.Buffer
	_, err := ParseConfig("mpolycalc", []string{"-h"}, &stderr, availableAlgos)
	require.Error(t, err)
	out := stderr.String()
	for _, flag := range []string{"-nvars", "-dense-vs-heap", "-calibration-chart", "MPOLY_THREADS"} {
		assert.True(t, strings.Contains(out, flag), "usage misses %s", flag)
	}
	assert.NotContains(t, out, "\033[")
}
