package domain

import "errors"

var (
	// ErrProviderError signals a failed model or embedding round-trip.
	ErrProviderError = errors.New("provider error")
	// ErrParseFailure signals a non-empty model response that yielded no
	// parseable records after every fallback. Distinct from a legitimate
	// empty result.
	ErrParseFailure = errors.New("unparseable model response")
	// ErrCallbackRejected signals a non-success envelope from the
	// document-store callback.
	ErrCallbackRejected = errors.New("callback rejected")
	// ErrEmbeddingDimMismatch signals a vector of unexpected length.
	ErrEmbeddingDimMismatch = errors.New("embedding dimension mismatch")
	// ErrConditionTooShort signals a trivial filter condition, rejected
	// before any model call.
	ErrConditionTooShort = errors.New("filter condition too short")
	// ErrUnsupportedMode signals a filter mode the session cannot run.
	ErrUnsupportedMode = errors.New("unsupported filter mode")
	// ErrSessionNotFound signals a missing or foreign-owned session.
	ErrSessionNotFound = errors.New("session not found")
)
