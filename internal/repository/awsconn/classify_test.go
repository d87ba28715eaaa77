package awsconn

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want domain.FailureKind
	}{
		{"ResourceNotFoundException", domain.FailureNotFound},
		{"NotFoundException", domain.FailureNotFound},
		{"ConflictException", domain.FailureAlreadyExists},
		{"ResourceExistsException", domain.FailureAlreadyExists},
		{"AccessDeniedException", domain.FailurePermissionDenied},
		{"ThrottlingException", domain.FailureTransient},
		{"InternalServerException", domain.FailureTransient},
		{"SomethingNovel", domain.FailureUnknown},
	}

	for _, tt := range tests {
		err := Classify("CreateUser", "alice", &smithy.GenericAPIError{
			Code:    tt.code,
			Message: "remote says no",
		})
		if got := domain.FailureKindOf(err); got != tt.want {
			t.Errorf("Classify(%s) kind = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestClassify_NonAPIError(t *testing.T) {
	err := Classify("CreateUser", "alice", errors.New("dial tcp: connection refused"))
	if got := domain.FailureKindOf(err); got != domain.FailureUnknown {
		t.Errorf("Expected FailureUnknown, got %q", got)
	}
}

func TestClassify_NilPassesThrough(t *testing.T) {
	if err := Classify("CreateUser", "alice", nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestClassify_PreservesChain(t *testing.T) {
	base := &smithy.GenericAPIError{Code: "ConflictException", Message: "exists"}
	err := fmt.Errorf("create group: %w", Classify("CreateGroup", "QUICK_SUITE_ADMIN", base))

	if !domain.IsAlreadyExists(err) {
		t.Error("Expected IsAlreadyExists through wrapping")
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		t.Error("Expected the original API error to remain in the chain")
	}
}
