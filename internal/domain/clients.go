package domain

import "context"

// DirectoryClient is the retrying wrapper around the identity directory.
// Implementations perform no business logic; lookups that find nothing
// return (nil, nil) so callers can distinguish absence from call failure.
type DirectoryClient interface {
	CreateUser(ctx context.Context, spec UserSpec) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, userID string) error

	CreateGroup(ctx context.Context, name, description string) (*Group, error)
	FindGroupByName(ctx context.Context, name string) (*Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	DeleteGroup(ctx context.Context, groupID string) error

	AddMembership(ctx context.Context, groupID, userID string) (*Membership, error)
	RemoveMembership(ctx context.Context, membershipID string) error
	ListMembershipsForUser(ctx context.Context, userID string) ([]Membership, error)
}

// InstanceResolver locates the identity center instance backing the
// directory. instanceARN narrows the lookup; empty selects the account's
// only instance.
type InstanceResolver interface {
	ResolveInstance(ctx context.Context, instanceARN string) (*IdentityInstance, error)
}

// ControlPlaneClient is the retrying wrapper around the workspace control
// plane. The AWS account is bound at construction.
type ControlPlaneClient interface {
	CreateSubscription(ctx context.Context, cfg DesiredWorkspaceConfig, instanceARN string) error
	DescribeSubscription(ctx context.Context) (*WorkspaceState, error)
	DeleteSubscription(ctx context.Context) error

	CreateNamespace(ctx context.Context, name string) error
	DeleteNamespace(ctx context.Context, name string) error

	CreateApplication(ctx context.Context, instanceARN, name string) (string, error)
	FindApplicationByName(ctx context.Context, instanceARN, name string) (string, error)
	DeleteApplication(ctx context.Context, applicationARN string) error

	AssignRoleMembership(ctx context.Context, namespace, groupName string, role WorkspaceRole) error
	ListWorkspaceUsers(ctx context.Context, namespace string) ([]WorkspaceUser, error)
	ListWorkspaceGroups(ctx context.Context, namespace string) ([]WorkspaceGroup, error)
}
