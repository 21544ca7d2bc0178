package calibration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestNewProfile(t *testing.T) {
	t.Parallel()
	profile := NewProfile()

	if profile.NumCPU != runtime.NumCPU() {
		t.Errorf("NumCPU = %d, want %d", profile.NumCPU, runtime.NumCPU())
	}
	if profile.GOARCH != runtime.GOARCH {
		t.Errorf("GOARCH = %s, want %s", profile.GOARCH, runtime.GOARCH)
	}
	if profile.ProfileVersion != CurrentProfileVersion {
		t.Errorf("ProfileVersion = %d, want %d", profile.ProfileVersion, CurrentProfileVersion)
	}
	if want := 32 << (^uint(0) >> 63); profile.WordSize != want {
		t.Errorf("WordSize = %d, want %d", profile.WordSize, want)
	}
	if profile.CalibratedAt.IsZero() {
		t.Error("CalibratedAt is zero")
	}
	if profile.IsValid() {
		t.Error("a profile without a thread limit must not be valid")
	}
}

func TestProfileSaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")

	original := NewProfile()
	original.OptimalThreadLimit = 4
	original.CalibrationTime = "1m30s"
	original.Workloads = []WorkloadResult{{
		Name:      "sparse",
		Terms:     1500,
		Winner:    "heap",
		Durations: map[string]int64{"heap": 1000, "array": 5000},
		Declined:  []string{"dense"},
	}}
	if err := original.SaveProfile(path); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	if !ProfileExists(path) {
		t.Fatal("profile file was not created")
	}

	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if loaded.OptimalThreadLimit != 4 {
		t.Errorf("OptimalThreadLimit = %d, want 4", loaded.OptimalThreadLimit)
	}
	if !loaded.IsValid() {
		t.Error("loaded profile should be valid on the same machine")
	}
	winner, ok := loaded.WinnerFor("sparse")
	if !ok || winner != "heap" {
		t.Errorf("WinnerFor(sparse) = %q, %v; want heap, true", winner, ok)
	}
	if _, ok := loaded.WinnerFor("missing"); ok {
		t.Error("WinnerFor(missing) should report false")
	}
	if got := loaded.Workloads[0].Durations["array"]; got != 5000 {
		t.Errorf("array duration = %d, want 5000", got)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if _, err := LoadProfile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(corrupt); err == nil {
		t.Error("expected an error for a corrupt file")
	}
	if profile, loaded := LoadOrCreateProfile(corrupt); loaded || profile == nil {
		t.Errorf("LoadOrCreateProfile(corrupt) = %v, %v; want fresh profile, false", profile, loaded)
	}
}

func TestProfileIsValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		modify func(p *CalibrationProfile)
		want   bool
	}{
		{"same machine", func(*CalibrationProfile) {}, true},
		{"other version", func(p *CalibrationProfile) { p.ProfileVersion++ }, false},
		{"other cpu count", func(p *CalibrationProfile) { p.NumCPU++ }, false},
		{"other arch", func(p *CalibrationProfile) { p.GOARCH = "other" }, false},
		{"other word size", func(p *CalibrationProfile) { p.WordSize = 16 }, false},
		{"no thread limit", func(p *CalibrationProfile) { p.OptimalThreadLimit = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewProfile()
			p.OptimalThreadLimit = 2
			tt.modify(p)
			if got := p.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}

	var nilProfile *CalibrationProfile
	if nilProfile.IsValid() {
		t.Error("nil profile must not be valid")
	}
	if nilProfile.String() != "<nil profile>" {
		t.Errorf("nil String() = %q", nilProfile.String())
	}
}

func TestProfileIsStale(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	if p.IsStale(time.Hour) {
		t.Error("fresh profile reported stale")
	}
	p.CalibratedAt = time.Now().Add(-2 * time.Hour)
	if !p.IsStale(time.Hour) {
		t.Error("old profile not reported stale")
	}
}
