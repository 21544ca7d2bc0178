// Package apperrors defines the structured error types of mpolycalc, so the
// entry point can tell configuration problems, failed multiplications and
// invalid operands apart and map each to an exit code.
//
// Every wrapping type implements Unwrap and works with errors.Is/errors.As.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess       = 0   // Successful execution.
	ExitErrorGeneric  = 1   // Any other failure.
	ExitErrorTimeout  = 2   // The -timeout deadline was reached.
	ExitErrorMismatch = 3   // Two strategies returned different products.
	ExitErrorConfig   = 4   // Invalid flags, environment or operand files.
	ExitErrorCanceled = 130 // Interrupted (SIGINT/SIGTERM).
)

// ConfigError reports invalid user configuration: a bad flag, an
// unparsable environment override or an unreadable operand file.
type ConfigError struct {
	Message string
}

// Error returns the message.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError records which strategy failed a multiplication and why.
type CalculationError struct {
	// Strategy is the registry name of the multiplier, empty when unknown.
	Strategy string
	// Cause is the underlying error.
	Cause error
}

// Error prefixes the cause with the strategy name when one is set.
func (e CalculationError) Error() string {
	if e.Strategy == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Strategy, e.Cause)
}

// Unwrap returns the cause.
func (e CalculationError) Unwrap() error { return e.Cause }

// NewCalculationError wraps cause with the failing strategy name.
// It returns nil when cause is nil.
func NewCalculationError(strategy string, cause error) error {
	if cause == nil {
		return nil
	}
	return CalculationError{Strategy: strategy, Cause: cause}
}

// MismatchError reports that strategies run side by side disagreed on the
// product. Fingerprints maps strategy names to product fingerprints.
type MismatchError struct {
	Fingerprints map[string]string
}

// Error lists the number of distinct products.
func (e MismatchError) Error() string {
	distinct := make(map[string]struct{}, len(e.Fingerprints))
	for _, fp := range e.Fingerprints {
		distinct[fp] = struct{}{}
	}
	return fmt.Sprintf("strategies disagree: %d distinct products from %d strategies",
		len(distinct), len(e.Fingerprints))
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err is a cancellation or a deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError reports an unusable input: a nil operand, operands from
// different contexts or a polynomial that breaks the canonical form.
type ValidationError struct {
	// Field names the offending input ("b", "c", "ctx", a flag name).
	Field string
	// Message describes the problem.
	Message string
	// Value is the offending value, may be nil.
	Value any
}

// Error returns the message, prefixed with the field when known.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a ValidationError.
//
// Parameters:
//   - field: The name of the input that failed validation.
//   - message: A description of why validation failed.
//   - value: The invalid value (optional).
//
// Returns:
//   - error: A new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var (
		cfg      ConfigError
		val      ValidationError
		mismatch MismatchError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &mismatch):
		return ExitErrorMismatch
	case errors.As(err, &cfg), errors.As(err, &val):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}
