package awsconn

import (
	"errors"

	"github.com/aws/smithy-go"
	"github.com/quickops/quicksuite-admin/internal/domain"
)

// Classify tags a remote error with a failure kind derived from the service
// error code, so the layers above never inspect SDK errors themselves.
// Transient errors reaching this point have already exhausted the bounded
// retry in the SDK.
func Classify(op, target string, err error) error {
	if err == nil {
		return nil
	}

	code := ""
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}

	return domain.NewFailure(kindForCode(code), op, target, code, err)
}

func kindForCode(code string) domain.FailureKind {
	switch code {
	case "ResourceNotFoundException", "ResourceNotFound", "NoSuchEntity", "NotFoundException":
		return domain.FailureNotFound
	case "ConflictException", "ResourceExistsException", "EntityAlreadyExistsException", "ResourceAlreadyExistsException":
		return domain.FailureAlreadyExists
	case "AccessDeniedException", "AccessDenied", "UnauthorizedException", "UnauthorizedAccess":
		return domain.FailurePermissionDenied
	case "ThrottlingException", "Throttling", "TooManyRequestsException",
		"InternalServerException", "InternalFailure", "ServiceUnavailable", "RequestTimeout":
		return domain.FailureTransient
	default:
		return domain.FailureUnknown
	}
}
