package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailureKindOf(t *testing.T) {
	base := errors.New("boom")

	failure := NewFailure(FailureNotFound, "GetUser", "u-1", "ResourceNotFoundException", base)
	if got := FailureKindOf(failure); got != FailureNotFound {
		t.Errorf("FailureKindOf = %q, want %q", got, FailureNotFound)
	}

	wrapped := fmt.Errorf("looking up user: %w", failure)
	if !IsNotFound(wrapped) {
		t.Error("Expected IsNotFound to see through wrapping")
	}
	if IsAlreadyExists(wrapped) {
		t.Error("Expected IsAlreadyExists to be false for a NotFound failure")
	}

	if got := FailureKindOf(base); got != FailureUnknown {
		t.Errorf("FailureKindOf(plain error) = %q, want %q", got, FailureUnknown)
	}
	if IsNotFound(nil) {
		t.Error("Expected IsNotFound(nil) to be false")
	}
}

func TestFailure_Unwrap(t *testing.T) {
	base := errors.New("boom")
	failure := NewFailure(FailureTransient, "CreateUser", "alice", "ThrottlingException", base)

	if !errors.Is(failure, base) {
		t.Error("Expected errors.Is to reach the wrapped error")
	}
}
