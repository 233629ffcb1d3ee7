package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	// Complete sends a single prompt and returns the raw model text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Kind classifies a remote-call failure. Retry decisions branch on it
// rather than on error types, so providers map their own errors here.
type Kind string

const (
	KindRateLimited Kind = "rate_limited"
	KindTimeout     Kind = "timeout"
	KindAuth        Kind = "auth"
	KindBadRequest  Kind = "bad_request"
	KindUnknown     Kind = "unknown"
)

// Error is a remote-call failure with a classification kind.
type Error struct {
	Kind   Kind
	Status int // HTTP status when known, 0 otherwise
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm: %s (status %d): %s", e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether reattempting the call may succeed.
// Auth and malformed-request failures never resolve by retrying.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindTimeout, KindUnknown:
		return true
	default:
		return false
	}
}

// KindOf extracts the failure kind from an error chain.
// Returns KindUnknown for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
