package apperrors

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

// ColorProvider supplies terminal color codes without importing the ui
// package.
type ColorProvider interface {
	Yellow() string
	Red() string
	Reset() string
}

// DefaultColorProvider emits no color codes.
type DefaultColorProvider struct{}

func (DefaultColorProvider) Yellow() string { return "" }
func (DefaultColorProvider) Red() string    { return "" }
func (DefaultColorProvider) Reset() string  { return "" }

// HandleCalculationError prints a status line for a failed multiplication
// and returns the exit code for it.
//
// Parameters:
//   - err: The error that occurred.
//   - duration: How long the run took before failing.
//   - out: Destination of the status line.
//   - colors: Color codes, nil for none.
//
// Returns:
//   - int: The exit code for the error.
func HandleCalculationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	code := ExitCode(err)
	var mismatch MismatchError
	switch {
	case code == ExitErrorTimeout:
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
	case code == ExitErrorCanceled:
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
	case errors.As(err, &mismatch):
		fmt.Fprintf(out, "%sStatus: Mismatch.%s %v\n", colors.Red(), colors.Reset(), err)
		names := make([]string, 0, len(mismatch.Fingerprints))
		for name := range mismatch.Fingerprints {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %-8s %s\n", name, mismatch.Fingerprints[name])
		}
	case code == ExitErrorConfig:
		fmt.Fprintf(out, "Status: Invalid input. %v\n", err)
	default:
		fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	}
	return code
}
