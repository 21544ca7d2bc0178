package calibration

import (
	"context"
	"time"

	"github.com/agbru/mpolycalc/internal/cli"
	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/mpolymul"
)

// ─────────────────────────────────────────────────────────────────────────────
// Micro-benchmark Configuration
// ─────────────────────────────────────────────────────────────────────────────

const (
	// MicroBenchIterations is the number of timed runs per thread limit.
	MicroBenchIterations = 3

	// MicroBenchTimeout bounds the whole micro-benchmark.
	MicroBenchTimeout = 300 * time.Millisecond
)

// MicroBenchmark times the dispatcher on a small workload at a few thread
// limits.
type MicroBenchmark struct {
	// Workload supplies the operands (default: QuickWorkload).
	Workload Workload
	// Limits are the thread limits to compare (default:
	// GenerateQuickThreadLimits).
	Limits []int
	// Iterations is the number of timed runs per limit.
	Iterations int
	// Timeout bounds the whole benchmark.
	Timeout time.Duration
	// Multiplier is timed at each limit (default: the dispatcher).
	Multiplier mpolymul.Multiplier
}

// ThreadResults is the outcome of a micro-benchmark.
type ThreadResults struct {
	// ThreadLimit is the fastest limit measured.
	ThreadLimit int
	// Confidence scores the reliability of ThreadLimit from 0 to 1.
	Confidence float64
	// Duration is how long the micro-benchmark took.
	Duration time.Duration
}

// NewMicroBenchmark returns a MicroBenchmark with the default settings.
func NewMicroBenchmark() *MicroBenchmark {
	return &MicroBenchmark{
		Workload:   QuickWorkload(),
		Limits:     GenerateQuickThreadLimits(),
		Iterations: MicroBenchIterations,
		Timeout:    MicroBenchTimeout,
		Multiplier: mpolymul.NewDefaultFactory().MustGet("auto"),
	}
}

// RunQuick times every limit in turn. Limits run one after the other since
// concurrent runs would compete for the same cores.
func (mb *MicroBenchmark) RunQuick(ctx context.Context) (ThreadResults, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, mb.Timeout)
	defer cancel()

	b, c, err := cli.LoadOperands(mb.Workload.Config(1))
	if err != nil {
		return ThreadResults{}, err
	}

	timings := make(map[int]time.Duration, len(mb.Limits))
	for _, limit := range mb.Limits {
		d, err := mb.runSingleTest(ctx, b, c, limit)
		if err != nil {
			break
		}
		timings[limit] = d
	}

	tr := mb.analyzeResults(timings)
	tr.Duration = time.Since(start)
	return tr, nil
}

// runSingleTest returns the mean duration of mb.Iterations runs after one
// warm-up run.
func (mb *MicroBenchmark) runSingleTest(ctx context.Context, b, c *mpoly.Poly, limit int) (time.Duration, error) {
	opts := mpolymul.Options{ThreadLimit: limit}
	if _, err := mpolymul.MultiplyContext(ctx, mb.Multiplier, b, c, opts); err != nil {
		return 0, err
	}

	iterations := max(mb.Iterations, 1)
	var total time.Duration
	for i := 0; i < iterations; i++ {
		start := time.Now()
		if _, err := mpolymul.MultiplyContext(ctx, mb.Multiplier, b, c, opts); err != nil {
			return 0, err
		}
		total += time.Since(start)
	}
	return total / time.Duration(iterations), nil
}

// analyzeResults picks the fastest limit. A threaded limit must beat the
// sequential run by 10% to be preferred. Confidence grows with the share of
// limits measured.
func (mb *MicroBenchmark) analyzeResults(timings map[int]time.Duration) ThreadResults {
	tr := ThreadResults{ThreadLimit: EstimateOptimalThreadLimit()}
	if len(timings) == 0 {
		return tr
	}

	best, bestDur := 0, time.Duration(0)
	for _, limit := range mb.Limits {
		d, ok := timings[limit]
		if !ok {
			continue
		}
		if best == 0 || d < bestDur*9/10 {
			best, bestDur = limit, d
		}
	}
	tr.ThreadLimit = best
	tr.Confidence = 0.4 + 0.6*float64(len(timings))/float64(len(mb.Limits))
	if len(timings) == 1 {
		tr.Confidence = 0.3
	}
	return tr
}

// QuickCalibrate runs the default micro-benchmark.
func QuickCalibrate(ctx context.Context) (ThreadResults, error) {
	return NewMicroBenchmark().RunQuick(ctx)
}
