package calibration

import (
	"runtime"
	"slices"

	"golang.org/x/sys/cpu"

	"github.com/agbru/mpolycalc/internal/config"
)

// MaxThreadLimit bounds the thread limits calibration will test or apply.
const MaxThreadLimit = 256

// ─────────────────────────────────────────────────────────────────────────────
// Adaptive Thread Limit Generation
// ─────────────────────────────────────────────────────────────────────────────

// GenerateThreadLimits returns the thread limits to test: the powers of two
// up to the CPU count, followed by the CPU count itself.
func GenerateThreadLimits() []int {
	return threadLimitsFor(runtime.NumCPU())
}

func threadLimitsFor(numCPU int) []int {
	limits := []int{1}
	for n := 2; n < numCPU && n <= MaxThreadLimit; n *= 2 {
		limits = append(limits, n)
	}
	if numCPU > 1 {
		limits = append(limits, min(numCPU, MaxThreadLimit))
	}
	return limits
}

// GenerateQuickThreadLimits returns a smaller set for startup calibration:
// sequential, half the CPUs and all of them.
func GenerateQuickThreadLimits() []int {
	return quickThreadLimitsFor(runtime.NumCPU())
}

func quickThreadLimitsFor(numCPU int) []int {
	limits := []int{1}
	if half := numCPU / 2; half > 1 {
		limits = append(limits, min(half, MaxThreadLimit))
	}
	if numCPU > 1 {
		limits = append(limits, min(numCPU, MaxThreadLimit))
	}
	return slices.Compact(limits)
}

// EstimateOptimalThreadLimit guesses a thread limit without benchmarking.
// Past 16 workers the merge phases of the threaded strategies dominate.
func EstimateOptimalThreadLimit() int {
	return estimateThreadLimitFor(runtime.NumCPU())
}

func estimateThreadLimitFor(numCPU int) int {
	switch {
	case numCPU <= 1:
		return 1
	case numCPU <= 16:
		return numCPU
	default:
		return 16
	}
}

// ValidateThreadLimit clamps n to [1, MaxThreadLimit].
func ValidateThreadLimit(n int) int {
	return min(max(n, 1), MaxThreadLimit)
}

// CPUFeatures lists the instruction set extensions relevant to the word
// arithmetic of the multiplication kernels.
func CPUFeatures() []string {
	var features []string
	add := func(name string, ok bool) {
		if ok {
			features = append(features, name)
		}
	}
	add("adx", cpu.X86.HasADX)
	add("avx2", cpu.X86.HasAVX2)
	add("avx512f", cpu.X86.HasAVX512F)
	add("bmi2", cpu.X86.HasBMI2)
	add("asimd", cpu.ARM64.HasASIMD)
	add("atomics", cpu.ARM64.HasATOMICS)
	return features
}

// ─────────────────────────────────────────────────────────────────────────────
// Benchmark Workloads
// ─────────────────────────────────────────────────────────────────────────────

// Workload is a pair of generated operands the strategies are timed on.
type Workload struct {
	Name      string
	Gen       string
	NVars     int
	Terms     int
	Degree    uint64
	CoeffBits int
}

// Config returns the generator configuration of the workload.
func (w Workload) Config(seed int64) config.AppConfig {
	return config.AppConfig{
		Gen:       w.Gen,
		NVars:     w.NVars,
		Ordering:  "degrevlex",
		Terms:     w.Terms,
		Degree:    w.Degree,
		CoeffBits: w.CoeffBits,
		Seed:      seed,
	}
}

// DefaultWorkloads covers the three regimes the dispatcher chooses between:
// a full box where the dense grid wins, a filled degree region suited to the
// array grid, and scattered monomials that only the heap handles well.
func DefaultWorkloads() []Workload {
	return []Workload{
		{Name: "dense-box", Gen: config.GenDense, NVars: 2, Degree: 60, CoeffBits: 32},
		{Name: "filled", Gen: config.GenRandom, NVars: 3, Terms: 2000, Degree: 16, CoeffBits: 32},
		{Name: "sparse", Gen: config.GenSparse, NVars: 6, Terms: 1500, Degree: 1 << 20, CoeffBits: 64},
	}
}

// QuickWorkload is the single workload timed by the startup calibration.
func QuickWorkload() Workload {
	return Workload{Name: "quick", Gen: config.GenRandom, NVars: 3, Terms: 400, Degree: 12, CoeffBits: 32}
}
