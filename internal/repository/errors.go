package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"delivery-orchestrator/internal/apperr"
)

// server error codes the store treats as transient (elections, shutdowns, timeouts)
var transientCodes = []int{6, 7, 89, 91, 189, 262, 9001, 10107, 11600, 11602, 13435, 13436}

// change stream codes meaning the resume token cannot be used anymore
var cursorInvalidCodes = []int{260, 280, 286}

const duplicateKeyCode = 11000

// IsDuplicate signals a unique index violation.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNotFound signals that no document matched.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		if se.HasErrorLabel("RetryableWriteError") ||
			se.HasErrorLabel("TransientTransactionError") ||
			se.HasErrorLabel("ResumableChangeStreamError") {
			return true
		}
		for _, code := range transientCodes {
			if se.HasErrorCode(code) {
				return true
			}
		}
	}
	return false
}

func isCursorInvalid(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	for _, code := range cursorInvalidCodes {
		if se.HasErrorCode(code) {
			return true
		}
	}
	return false
}

// classify maps driver errors onto apperr kinds, keeping the original in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case IsDuplicate(err):
		return fmt.Errorf("%w: %w", apperr.ErrDuplicate, err)
	case isCursorInvalid(err):
		return fmt.Errorf("%w: %w", apperr.ErrCursorInvalid, err)
	case isTransient(err):
		return fmt.Errorf("%w: %w", apperr.ErrTransient, err)
	default:
		return err
	}
}
