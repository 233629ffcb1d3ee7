package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusRequestTimeout, KindTimeout},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusBadRequest, KindBadRequest},
		{http.StatusNotFound, KindBadRequest},
		{http.StatusUnprocessableEntity, KindBadRequest},
		{http.StatusInternalServerError, KindUnknown},
		{http.StatusBadGateway, KindUnknown},
		{http.StatusServiceUnavailable, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			if got := kindForStatus(tt.status); got != tt.expected {
				t.Errorf("kindForStatus(%d) = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind      Kind
		retryable bool
	}{
		{KindRateLimited, true},
		{KindTimeout, true},
		{KindUnknown, true},
		{KindAuth, false},
		{KindBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := &Error{Kind: tt.kind, Msg: "test"}
			if got := e.Retryable(); got != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestClassifyDeadline(t *testing.T) {
	err := classify(fmt.Errorf("call failed: %w", context.DeadlineExceeded))
	if err.Kind != KindTimeout {
		t.Errorf("expected timeout kind, got %v", err.Kind)
	}
}

func TestClassifyUnknown(t *testing.T) {
	err := classify(errors.New("connection reset"))
	if err.Kind != KindUnknown {
		t.Errorf("expected unknown kind, got %v", err.Kind)
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", &Error{Kind: KindRateLimited, Msg: "slow down"})
	if got := KindOf(wrapped); got != KindRateLimited {
		t.Errorf("KindOf through wrap = %v, want %v", got, KindRateLimited)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindUnknown)
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{Kind: KindRateLimited, Status: 429, Msg: "quota"}
	want := "llm: rate_limited (status 429): quota"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}
