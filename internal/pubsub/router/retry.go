package router

import (
	"context"
	"encoding/json"
	"errors"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
)

// shouldRetry reports whether a handler failure may succeed on redelivery
func shouldRetry(logger *logger.Logger, err error) bool {
	// a payload that does not decode never will
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		logger.Debugw("not retrying malformed message", "error", err)
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	// Business logic errors (don't retry)
	if ierr.IsValidation(err) ||
		ierr.IsNotFound(err) ||
		ierr.IsInvalidOperation(err) ||
		ierr.IsPermissionDenied(err) {
		logger.Debugw("not retrying business error", "error", err)
		return false
	}

	// By default, retry unknown errors
	return true
}
