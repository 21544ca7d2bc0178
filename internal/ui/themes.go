// Package ui holds the terminal color themes shared by the CLI, the
// configuration usage text and the comparison report.
package ui

import (
	"os"
	"sync"
)

// Theme is a set of ANSI escape codes, one per role.
type Theme struct {
	Name      string
	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
	Info      string
	Bold      string
	Underline string
	Reset     string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;27m",
		Secondary: "\033[38;5;240m",
		Success:   "\033[38;5;28m",
		Warning:   "\033[38;5;130m",
		Error:     "\033[38;5;124m",
		Info:      "\033[38;5;54m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme emits no escape codes.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme and returns the previous one.
func SetCurrentTheme(t Theme) Theme {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	prev := currentTheme
	currentTheme = t
	return prev
}

// ThemeByName looks up "dark", "light" or "none".
func ThemeByName(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// InitTheme selects the theme for this process: NoColorTheme when noColor
// is set or NO_COLOR is present in the environment (https://no-color.org/),
// otherwise the theme named by MPOLY_THEME, falling back to DarkTheme.
func InitTheme(noColor bool) {
	t := DarkTheme
	if _, set := os.LookupEnv("NO_COLOR"); noColor || set {
		t = NoColorTheme
	} else if named, ok := ThemeByName(os.Getenv("MPOLY_THEME")); ok {
		t = named
	}
	SetCurrentTheme(t)
}

// Color accessors of the active theme.
func ColorReset() string     { return GetCurrentTheme().Reset }
func ColorRed() string       { return GetCurrentTheme().Error }
func ColorGreen() string     { return GetCurrentTheme().Success }
func ColorYellow() string    { return GetCurrentTheme().Warning }
func ColorBlue() string      { return GetCurrentTheme().Primary }
func ColorMagenta() string   { return GetCurrentTheme().Info }
func ColorCyan() string      { return GetCurrentTheme().Secondary }
func ColorBold() string      { return GetCurrentTheme().Bold }
func ColorUnderline() string { return GetCurrentTheme().Underline }

// StrategyColor gives each multiplication strategy a stable color in
// reports.
func StrategyColor(strategy string) string {
	t := GetCurrentTheme()
	switch strategy {
	case "dense":
		return t.Info
	case "array":
		return t.Success
	case "heap":
		return t.Warning
	default:
		return t.Primary
	}
}
