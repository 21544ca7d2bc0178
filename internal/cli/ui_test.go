package cli

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/mpolycalc/internal/cli/mocks"
	"github.com/agbru/mpolycalc/internal/monomial"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/mpolymul"
	"github.com/agbru/mpolycalc/internal/testutil"
	"github.com/agbru/mpolycalc/internal/threadpool"
	"github.com/agbru/mpolycalc/internal/ui"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.SetCurrentTheme(prev) })
}

func lexTerm(c int64, exps ...uint64) mpoly.Term {
	return mpoly.Term{Exps: exps, Coeff: big.NewInt(c)}
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "< 1µs"},
		{500 * time.Nanosecond, "0µs"},
		{10 * time.Microsecond, "10µs"},
		{10 * time.Millisecond, "10ms"},
		{2 * time.Second, "2s"},
	}
	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.expected {
			t.Errorf("FormatExecutionDuration(%v) = %s; want %s", tt.d, got, tt.expected)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		done, total int
		want        string
	}{
		{0, 4, "░░░░░░░░"},
		{1, 4, "██░░░░░░"},
		{4, 4, "████████"},
		{9, 4, "████████"},
		{0, 0, "░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.done, tt.total, 8); got != tt.want {
			t.Errorf("progressBar(%d, %d) = %s; want %s", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestDisplayProgressDrivesSpinner(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := mocks.NewMockSpinner(ctrl)
	var suffixes []string
	mock.EXPECT().UpdateSuffix(gomock.Any()).Do(func(s string) {
		suffixes = append(suffixes, s)
	}).AnyTimes()
	gomock.InOrder(mock.EXPECT().Start(), mock.EXPECT().Stop())

	orig := newSpinner
	newSpinner = func(...spinner.Option) Spinner { return mock }
	t.Cleanup(func() { newSpinner = orig })

	var out bytes.Buffer
	var wg sync.WaitGroup
	finished := make(chan string)
	wg.Add(1)
	go DisplayProgress(&wg, finished, 2, &out)
	finished <- "dense"
	finished <- "heap"
	close(finished)
	wg.Wait()

	assert.Contains(t, out.String(), "Multiplying: 2/2")
	require.NotEmpty(t, suffixes)
	assert.Contains(t, suffixes[len(suffixes)-1], "2/2")
	assert.Contains(t, suffixes[len(suffixes)-1], "last: heap")
}

func TestDisplayProgressWithoutWork(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	var wg sync.WaitGroup
	finished := make(chan string, 1)
	finished <- "stray"
	close(finished)
	wg.Add(1)
	DisplayProgress(&wg, finished, 0, &out)
	assert.Empty(t, out.String())
}

func TestDisplayResult(t *testing.T) {
	noColor(t)
	ctx := mpoly.Context{NVars: 2, Ord: monomial.Lex}
	b := mpoly.MustFromTerms(ctx, []mpoly.Term{lexTerm(1, 1, 0), lexTerm(1, 0, 1)})
	c := mpoly.MustFromTerms(ctx, []mpoly.Term{lexTerm(1, 1, 0), lexTerm(-1, 0, 1)})
	pool := threadpool.New(0)
	t.Cleanup(pool.Close)
	res, err := mpolymul.NewDispatcher(mpolymul.Options{Pool: pool}).Multiply(context.Background(), b, c)
	require.NoError(t, err)

	var buf bytes.Buffer
	DisplayResult("auto", res, false, true, &buf)
	got := testutil.StripAnsiCodes(buf.String())

	assert.Contains(t, got, "Product: 2 terms, total degree 2, largest coefficient 1 bits.\n")
	assert.Contains(t, got, "Fingerprint: "+res.Product.Fingerprint())
	assert.Contains(t, got, "Strategy        : heap (single-threaded)")
	assert.Contains(t, got, "Route           : small-operands")
	assert.Contains(t, got, "--- Product terms ---\n  1 * x0^2\n  -1 * x1^2\n")
}

func TestDisplayResultShowsPlan(t *testing.T) {
	noColor(t)
	res := mpolymul.Result{
		Product:  mpoly.Zero(mpoly.Context{NVars: 1, Ord: monomial.Lex}),
		Strategy: mpolymul.StrategyArray,
		Route:    mpolymul.RouteEstimate,
		Failed:   []mpolymul.Strategy{mpolymul.StrategyDense},
		Plan:     &mpolymul.Plan{Dense: true, Array: true, DenseCells: 12345, ArrayCells: 99, ProductCount: -1},
	}
	var buf bytes.Buffer
	DisplayResult("auto", res, false, true, &buf)
	got := buf.String()
	for _, want := range []string{
		"Declined        : dense",
		"Cross products  : overflow",
		"Dense grid      : 12,345 cells (viable: true)",
		"Array grid      : 99 cells (viable: true)",
		"--- Product terms ---\n0\n",
	} {
		assert.True(t, strings.Contains(got, want), "missing %q in\n%s", want, got)
	}
}
