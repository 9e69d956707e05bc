package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)

	// Input errors
	ErrLengthMismatch   = errors.New("column length mismatch")
	ErrInvalidDuration  = errors.New("invalid duration value")
	ErrInvalidEvent     = errors.New("invalid event indicator")
	ErrEmptyGroup       = errors.New("group contains no observations")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Fitting errors
	ErrNonConvergence = errors.New("model fit did not converge")
	ErrDegenerateTest = errors.New("test statistic is undefined")
	ErrSingularDesign = errors.New("design matrix is singular")
)

// Error constructors with context
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
}

func NewLengthMismatchError(column string, got, want int) error {
	return fmt.Errorf("%w: column %q has %d values, expected %d", ErrLengthMismatch, column, got, want)
}

func NewEmptyGroupError(group string) error {
	return fmt.Errorf("%w: %s", ErrEmptyGroup, group)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrEmptyGroup) ||
		errors.Is(err, ErrInsufficientData)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrNonConvergence) ||
		errors.Is(err, ErrDegenerateTest) ||
		errors.Is(err, ErrSingularDesign)
}
