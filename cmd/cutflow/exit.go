package main

import (
	"gocuts/domain/core"
	"gocuts/internal/errors"
)

// Process exit codes
const (
	exitFailure = 1
	exitConfig  = 2
	exitInput   = 3
	exitData    = 4
)

// classify attaches an error code to engine errors that carry none.
func classify(err error) error {
	if err == nil || errors.IsAppError(err) {
		return err
	}
	switch {
	case core.IsDataAccessError(err):
		return errors.WithCode(errors.CodeDataAccess, err)
	case core.IsConfigError(err), core.IsInvalidQuantileError(err):
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return err
}

func exitCode(err error) int {
	if !errors.IsAppError(err) {
		return exitFailure
	}
	switch errors.GetCode(err) {
	case errors.CodeConfigInvalid:
		return exitConfig
	case errors.CodeInvalidInput, errors.CodeUnsupportedFmt, errors.CodeNotFound:
		return exitInput
	case errors.CodeDataAccess, errors.CodeCacheError:
		return exitData
	}
	return exitFailure
}
