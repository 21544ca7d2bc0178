// Package calibration measures which thread limit and which multiplication
// strategy are fastest on the current machine and persists the outcome.
// This file implements calibration profile persistence.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CalibrationProfile stores the results of a calibration run together with
// the hardware it was measured on, so that a cached profile can be rejected
// on a different machine.
type CalibrationProfile struct {
	// Hardware identification
	CPUModel    string   `json:"cpu_model"`
	CPUFeatures []string `json:"cpu_features,omitempty"`
	NumCPU      int      `json:"num_cpu"`
	GOARCH      string   `json:"goarch"`
	GOOS        string   `json:"goos"`
	GoVersion   string   `json:"go_version"`
	WordSize    int      `json:"word_size"`

	// OptimalThreadLimit is the fastest thread limit of the calibration
	// workload.
	OptimalThreadLimit int `json:"optimal_thread_limit"`

	// Workloads records the strategy timings of each benchmark workload.
	Workloads []WorkloadResult `json:"workloads,omitempty"`

	CalibratedAt    time.Time `json:"calibrated_at"`
	CalibrationTime string    `json:"calibration_time"`

	ProfileVersion int `json:"profile_version"`
}

// WorkloadResult holds the per-strategy timings of one workload.
type WorkloadResult struct {
	// Name identifies the workload, see DefaultWorkloads.
	Name string `json:"name"`
	// Terms is the term count of the first operand as generated.
	Terms int `json:"terms"`
	// Winner is the fastest strategy, empty when every strategy failed.
	Winner string `json:"winner"`
	// Durations maps each strategy that completed to its wall time in
	// nanoseconds.
	Durations map[string]int64 `json:"durations_ns"`
	// Declined lists the strategies that refused the operands.
	Declined []string `json:"declined,omitempty"`
}

const (
	// CurrentProfileVersion is bumped on incompatible format changes.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the profile file name in the home directory.
	DefaultProfileFileName = ".mpolycalc_calibration.json"
)

// GetDefaultProfilePath returns the profile path in the user's home
// directory, or in the current directory when there is none.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// NewProfile creates a profile describing the current hardware.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		CPUModel:       getCPUModel(),
		CPUFeatures:    CPUFeatures(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

func getCPUModel() string {
	return fmt.Sprintf("%s-%d-cores", runtime.GOARCH, runtime.NumCPU())
}

// LoadProfile reads a profile. An empty path means GetDefaultProfilePath.
func LoadProfile(path string) (*CalibrationProfile, error) {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile CalibrationProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile writes the profile. An empty path means GetDefaultProfilePath.
func (p *CalibrationProfile) SaveProfile(path string) error {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// IsValid reports whether the profile was measured with the current format
// on a machine with the same CPU count, architecture and word size.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	if p.ProfileVersion != CurrentProfileVersion {
		return false
	}
	if p.NumCPU != runtime.NumCPU() || p.GOARCH != runtime.GOARCH {
		return false
	}
	if p.WordSize != 32<<(^uint(0)>>63) {
		return false
	}
	return p.OptimalThreadLimit > 0
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

// WinnerFor returns the fastest strategy recorded for the named workload.
func (p *CalibrationProfile) WinnerFor(workload string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, w := range p.Workloads {
		if w.Name == workload && w.Winner != "" {
			return w.Winner, true
		}
	}
	return "", false
}

// String returns a one-line summary of the profile.
func (p *CalibrationProfile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	return fmt.Sprintf("CalibrationProfile{CPU: %s, Threads: %d, Workloads: %d, Calibrated: %s}",
		p.CPUModel, p.OptimalThreadLimit, len(p.Workloads), p.CalibratedAt.Format(time.RFC3339))
}

// LoadOrCreateProfile loads the profile at path. It returns a fresh profile
// and false when the file is missing, unreadable or measured on other
// hardware.
func LoadOrCreateProfile(path string) (*CalibrationProfile, bool) {
	profile, err := LoadProfile(path)
	if err != nil || !profile.IsValid() {
		return NewProfile(), false
	}
	return profile, true
}

// ProfileExists reports whether a profile file exists at path.
func ProfileExists(path string) bool {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	_, err := os.Stat(path)
	return err == nil
}
