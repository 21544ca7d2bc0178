package calibration

import (
	"context"
	"errors"
	"time"

	"github.com/agbru/mpolycalc/internal/mpoly"
	"github.com/agbru/mpolycalc/internal/mpolymul"
)

// strategies are the forced multipliers compared on each workload.
var strategies = []string{
	string(mpolymul.StrategyDense),
	string(mpolymul.StrategyArray),
	string(mpolymul.StrategyHeap),
}

// calibrationResult is one timed thread limit.
type calibrationResult struct {
	ThreadLimit int
	Duration    time.Duration
	Err         error
}

// calibrationRunner runs timed trials, each under its own deadline.
type calibrationRunner struct {
	ctx      context.Context
	perTrial time.Duration
	factory  mpolymul.MultiplierFactory
	// step is called after every trial, nil for none.
	step func()
}

func newCalibrationRunner(ctx context.Context, timeout time.Duration, factory mpolymul.MultiplierFactory) *calibrationRunner {
	perTrial := max(timeout/10, 2*time.Second)
	return &calibrationRunner{ctx: ctx, perTrial: perTrial, factory: factory}
}

// runTrial multiplies b by c once with m.
func (r *calibrationRunner) runTrial(m mpolymul.Multiplier, b, c *mpoly.Poly, opts mpolymul.Options) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.perTrial)
	defer cancel()
	start := time.Now()
	_, err := mpolymul.MultiplyContext(ctx, m, b, c, opts)
	if r.step != nil {
		r.step()
	}
	return time.Since(start), err
}

// findBestThreadLimit times the dispatcher at every limit and returns the
// timings with the fastest limit, zero when no trial succeeded.
func (r *calibrationRunner) findBestThreadLimit(b, c *mpoly.Poly, limits []int) ([]calibrationResult, int, error) {
	auto, err := r.factory.Get("auto")
	if err != nil {
		return nil, 0, err
	}

	results := make([]calibrationResult, 0, len(limits))
	best, bestDur := 0, time.Duration(1<<63-1)
	for _, limit := range limits {
		if err := r.ctx.Err(); err != nil {
			return results, best, err
		}
		dur, err := r.runTrial(auto, b, c, mpolymul.Options{ThreadLimit: limit})
		results = append(results, calibrationResult{ThreadLimit: limit, Duration: dur, Err: err})
		if err == nil && dur < bestDur {
			best, bestDur = limit, dur
		}
	}
	return results, best, nil
}

// findWinner times every strategy on one workload at threadLimit.
func (r *calibrationRunner) findWinner(name string, b, c *mpoly.Poly, threadLimit int) (WorkloadResult, error) {
	wr := WorkloadResult{Name: name, Terms: b.Len(), Durations: make(map[string]int64)}
	var bestDur time.Duration
	for _, s := range strategies {
		if err := r.ctx.Err(); err != nil {
			return wr, err
		}
		m, err := r.factory.Get(s)
		if err != nil {
			continue
		}
		dur, err := r.runTrial(m, b, c, mpolymul.Options{ThreadLimit: threadLimit})
		switch {
		case errors.Is(err, mpolymul.ErrInfeasible):
			wr.Declined = append(wr.Declined, s)
		case err != nil:
			continue
		default:
			wr.Durations[s] = dur.Nanoseconds()
			if wr.Winner == "" || dur < bestDur {
				wr.Winner, bestDur = s, dur
			}
		}
	}
	return wr, nil
}
