package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrImmutableField      = errors.New("immutable field cannot be changed")
	ErrProvisioningTimeout = errors.New("provisioning timed out")
	ErrNoInstance          = errors.New("no identity center instance found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrUserNotFound        = errors.New("user not found")
)

// FailureKind classifies a remote call failure.
type FailureKind string

const (
	FailureTransient        FailureKind = "Transient"
	FailureNotFound         FailureKind = "NotFound"
	FailureAlreadyExists    FailureKind = "AlreadyExists"
	FailurePermissionDenied FailureKind = "PermissionDenied"
	FailureUnknown          FailureKind = "Unknown"
)

// Failure is a remote call failure tagged with the operation, the target
// resource and the remote error code, so an operator can act on it without
// digging through SDK error chains.
type Failure struct {
	Kind       FailureKind
	Op         string
	Target     string
	RemoteCode string
	Err        error
}

func (f *Failure) Error() string {
	if f.Target != "" {
		return fmt.Sprintf("%s on %s (%s): %v", f.Op, f.Target, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s (%s): %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps a remote error with classification context.
func NewFailure(kind FailureKind, op, target, remoteCode string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Target: target, RemoteCode: remoteCode, Err: err}
}

// FailureKindOf returns the classification of err, or FailureUnknown when err
// carries no Failure in its chain.
func FailureKindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureUnknown
}

// IsNotFound reports whether err is a NotFound remote failure.
func IsNotFound(err error) bool {
	return FailureKindOf(err) == FailureNotFound
}

// IsAlreadyExists reports whether err is an AlreadyExists remote failure.
func IsAlreadyExists(err error) bool {
	return FailureKindOf(err) == FailureAlreadyExists
}
