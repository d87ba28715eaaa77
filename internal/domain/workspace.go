package domain

import (
	"fmt"
	"unicode"
)

// MaxAccountNameLength is the remote limit on workspace account names.
const MaxAccountNameLength = 62

// SubscriptionStatus is the lifecycle state of the workspace account
// subscription as reported by the control plane.
type SubscriptionStatus string

const (
	SubscriptionAbsent   SubscriptionStatus = "ABSENT"
	SubscriptionCreating SubscriptionStatus = "CREATING"
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionDeleting SubscriptionStatus = "DELETING"
	SubscriptionFailed   SubscriptionStatus = "FAILED"
)

// WorkspaceState is the remote workspace state at a point in time. It is
// re-read at the start of every lifecycle event and never cached across
// invocations; the control plane is the source of truth.
type WorkspaceState struct {
	SubscriptionStatus SubscriptionStatus
	AccountName        string
	NamespaceID        string
	SSOApplicationARN  string
}

// DesiredWorkspaceConfig is the declarative target supplied by the
// orchestrator on every lifecycle event. Immutable per invocation.
type DesiredWorkspaceConfig struct {
	// InstanceIdentifier is the identity center instance ARN. Empty means
	// the handler resolves the account's instance itself.
	InstanceIdentifier string
	AccountDisplayName string
	AdminEmail         string
	AdminGroupName     string
}

// Validate checks the config before any remote call is made.
func (c DesiredWorkspaceConfig) Validate() error {
	if err := validateAccountName(c.AccountDisplayName); err != nil {
		return err
	}
	if c.AdminEmail == "" {
		return fmt.Errorf("%w: admin email is required", ErrInvalidInput)
	}
	if c.AdminGroupName == "" {
		return fmt.Errorf("%w: admin group name is required", ErrInvalidInput)
	}
	return nil
}

func validateAccountName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: account display name is required", ErrInvalidInput)
	}
	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: account display name exceeds %d characters", ErrInvalidInput, MaxAccountNameLength)
	}
	first := rune(name[0])
	if !unicode.IsLetter(first) && !unicode.IsDigit(first) {
		return fmt.Errorf("%w: account display name must start with a letter or digit", ErrInvalidInput)
	}
	if name[len(name)-1] == '-' {
		return fmt.Errorf("%w: account display name must not end with a hyphen", ErrInvalidInput)
	}
	return nil
}

// IdentityInstance identifies an identity center instance and its backing
// identity store.
type IdentityInstance struct {
	ARN             string
	IdentityStoreID string
}

// LifecycleOperation is the tagged lifecycle event variant.
type LifecycleOperation string

const (
	OperationCreate LifecycleOperation = "Create"
	OperationUpdate LifecycleOperation = "Update"
	OperationDelete LifecycleOperation = "Delete"
)

// LifecycleRequest is one provisioning invocation from the orchestrator.
// PreviousOutputs is populated on Update and Delete.
type LifecycleRequest struct {
	Operation       LifecycleOperation
	RequestID       string
	Desired         DesiredWorkspaceConfig
	PreviousOutputs ProvisionOutputs
}

// ProvisionOutputs are the attributes reported back to the orchestrator
// after a successful Create or Update.
type ProvisionOutputs struct {
	InstanceARN     string
	IdentityStoreID string
	AdminGroupID    string
	ApplicationARN  string
}

// OutputsMap renders outputs as the flat string-keyed map the orchestrator
// contract expects.
func (o ProvisionOutputs) OutputsMap() map[string]string {
	return map[string]string{
		"InstanceArn":     o.InstanceARN,
		"IdentityStoreId": o.IdentityStoreID,
		"AdminGroupId":    o.AdminGroupID,
		"ApplicationArn":  o.ApplicationARN,
	}
}

// WorkspaceUser is a workspace-level user as reported by the control plane.
type WorkspaceUser struct {
	Username string
	Email    string
	Role     WorkspaceRole
	Active   bool
}

// WorkspaceGroup is a workspace-level group as reported by the control plane.
type WorkspaceGroup struct {
	Name        string
	Description string
}
