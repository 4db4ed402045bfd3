package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Lookup errors
	ErrUnknownCut = errors.New("unknown cut")

	// Configuration errors
	ErrInvalidQuantile     = errors.New("invalid quantile")
	ErrMissingConfigOption = errors.New("missing config option")
	ErrInvalidConfigValue  = errors.New("invalid config value")

	// Data errors
	ErrDataAccess       = errors.New("data access failure")
	ErrInsufficientData = errors.New("insufficient data for estimation")
	ErrUnknownColumn    = errors.New("unknown column")
)

// Error constructors with context
func NewUnknownCutError(name string) error {
	return fmt.Errorf("%w: there is no cut with the name %q", ErrUnknownCut, name)
}

func NewInvalidQuantileError(value int) error {
	return fmt.Errorf("%w: chi2 quantile has to be an integer in (0, 100], got %d", ErrInvalidQuantile, value)
}

func NewMissingConfigOptionError(section, option string) error {
	return fmt.Errorf("%w: [%s] %s", ErrMissingConfigOption, section, option)
}

func NewInvalidConfigValueError(section, option, raw string) error {
	return fmt.Errorf("%w: [%s] %s = %q", ErrInvalidConfigValue, section, option, raw)
}

func NewDataAccessError(op string, err error) error {
	return fmt.Errorf("%w during %s: %w", ErrDataAccess, op, err)
}

// Error checking helpers
func IsUnknownCutError(err error) bool {
	return errors.Is(err, ErrUnknownCut)
}

// IsConfigError reports whether err stems from absent or malformed configuration.
// Generation recovers these locally by disabling the dependent cut.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingConfigOption) ||
		errors.Is(err, ErrInvalidConfigValue)
}

func IsDataAccessError(err error) bool {
	return errors.Is(err, ErrDataAccess)
}

func IsInvalidQuantileError(err error) bool {
	return errors.Is(err, ErrInvalidQuantile)
}
