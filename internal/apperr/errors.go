package apperr

import "errors"

// ErrInvalid is returned when an entity fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrConflict signals a compare-and-set mismatch on a document status.
var ErrConflict = errors.New("conflict")

// ErrNotFound indicates that the requested document does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is the duplicate-key signal of unique indexes. It is not a failure.
var ErrDuplicate = errors.New("duplicate key")

// ErrTransient marks store failures that may succeed on retry (network, elections).
var ErrTransient = errors.New("transient store error")

// ErrCursorInvalid is returned when the store rejects a persisted resume token.
var ErrCursorInvalid = errors.New("resume token rejected")

// ErrRetriesExhausted wraps a transient error that the store layer already retried.
var ErrRetriesExhausted = errors.New("store retries exhausted")
