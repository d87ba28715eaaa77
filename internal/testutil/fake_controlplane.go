package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

// FakeControlPlane is an in-memory implementation of domain.ControlPlaneClient.
// StatusSequence, when set, feeds DescribeSubscription one status per call so
// tests can model a subscription that is still provisioning.
type FakeControlPlane struct {
	mu sync.Mutex

	Subscription    *domain.WorkspaceState
	StatusSequence  []domain.SubscriptionStatus
	Namespaces      map[string]bool
	Applications    map[string]string // application ARN -> name
	RoleAssignments map[string]domain.WorkspaceRole
	Users           []domain.WorkspaceUser

	CreateSubscriptionFn func(cfg domain.DesiredWorkspaceConfig, instanceARN string) error
	CreateApplicationFn  func(instanceARN, name string) (string, error)

	Calls map[string]int
}

// NewFakeControlPlane creates an empty FakeControlPlane.
func NewFakeControlPlane() *FakeControlPlane {
	return &FakeControlPlane{
		Namespaces:      make(map[string]bool),
		Applications:    make(map[string]string),
		RoleAssignments: make(map[string]domain.WorkspaceRole),
		Calls:           make(map[string]int),
	}
}

func (f *FakeControlPlane) record(method string) {
	f.Calls[method]++
}

// CreateSubscription records an active subscription, rejecting duplicates.
func (f *FakeControlPlane) CreateSubscription(_ context.Context, cfg domain.DesiredWorkspaceConfig, instanceARN string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSubscription")
	if f.CreateSubscriptionFn != nil {
		return f.CreateSubscriptionFn(cfg, instanceARN)
	}
	if f.Subscription != nil && f.Subscription.SubscriptionStatus != domain.SubscriptionAbsent {
		return alreadyExists("CreateSubscription", cfg.AccountDisplayName)
	}
	status := domain.SubscriptionActive
	if len(f.StatusSequence) > 0 {
		status = domain.SubscriptionCreating
	}
	f.Subscription = &domain.WorkspaceState{
		SubscriptionStatus: status,
		AccountName:        cfg.AccountDisplayName,
	}
	return nil
}

// DescribeSubscription pops StatusSequence when present, otherwise returns
// the stored state. Absence is a state, not an error.
func (f *FakeControlPlane) DescribeSubscription(_ context.Context) (*domain.WorkspaceState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeSubscription")
	if len(f.StatusSequence) > 0 {
		status := f.StatusSequence[0]
		f.StatusSequence = f.StatusSequence[1:]
		if f.Subscription != nil {
			f.Subscription.SubscriptionStatus = status
			copied := *f.Subscription
			return &copied, nil
		}
		return &domain.WorkspaceState{SubscriptionStatus: status}, nil
	}
	if f.Subscription == nil {
		return &domain.WorkspaceState{SubscriptionStatus: domain.SubscriptionAbsent}, nil
	}
	copied := *f.Subscription
	return &copied, nil
}

// DeleteSubscription clears the stored subscription.
func (f *FakeControlPlane) DeleteSubscription(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSubscription")
	if f.Subscription == nil {
		return notFound("DeleteSubscription", "subscription")
	}
	f.Subscription = nil
	return nil
}

// CreateNamespace records a namespace, rejecting duplicates.
func (f *FakeControlPlane) CreateNamespace(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateNamespace")
	if f.Namespaces[name] {
		return alreadyExists("CreateNamespace", name)
	}
	f.Namespaces[name] = true
	return nil
}

// DeleteNamespace removes a namespace.
func (f *FakeControlPlane) DeleteNamespace(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteNamespace")
	if !f.Namespaces[name] {
		return notFound("DeleteNamespace", name)
	}
	delete(f.Namespaces, name)
	return nil
}

// CreateApplication registers an application, rejecting duplicate names.
func (f *FakeControlPlane) CreateApplication(_ context.Context, instanceARN, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateApplication")
	if f.CreateApplicationFn != nil {
		return f.CreateApplicationFn(instanceARN, name)
	}
	for _, existing := range f.Applications {
		if existing == name {
			return "", alreadyExists("CreateApplication", name)
		}
	}
	arn := fmt.Sprintf("arn:aws:sso::123456789012:application/%s", uuid.New().String())
	f.Applications[arn] = name
	return arn, nil
}

// FindApplicationByName returns ("", nil) when no application matches.
func (f *FakeControlPlane) FindApplicationByName(_ context.Context, _ string, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindApplicationByName")
	for arn, existing := range f.Applications {
		if existing == name {
			return arn, nil
		}
	}
	return "", nil
}

// DeleteApplication removes an application by ARN.
func (f *FakeControlPlane) DeleteApplication(_ context.Context, applicationARN string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteApplication")
	if _, ok := f.Applications[applicationARN]; !ok {
		return notFound("DeleteApplication", applicationARN)
	}
	delete(f.Applications, applicationARN)
	return nil
}

// AssignRoleMembership grants a group a workspace role, rejecting duplicates.
func (f *FakeControlPlane) AssignRoleMembership(_ context.Context, namespace, groupName string, role domain.WorkspaceRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AssignRoleMembership")
	key := namespace + "/" + groupName
	if _, ok := f.RoleAssignments[key]; ok {
		return alreadyExists("AssignRoleMembership", groupName)
	}
	f.RoleAssignments[key] = role
	return nil
}

// ListWorkspaceUsers returns the seeded workspace users.
func (f *FakeControlPlane) ListWorkspaceUsers(_ context.Context, _ string) ([]domain.WorkspaceUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListWorkspaceUsers")
	users := make([]domain.WorkspaceUser, len(f.Users))
	copy(users, f.Users)
	return users, nil
}

// ListWorkspaceGroups returns one entry per assigned role group.
func (f *FakeControlPlane) ListWorkspaceGroups(_ context.Context, namespace string) ([]domain.WorkspaceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListWorkspaceGroups")
	var groups []domain.WorkspaceGroup
	prefix := namespace + "/"
	for key := range f.RoleAssignments {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			groups = append(groups, domain.WorkspaceGroup{Name: key[len(prefix):]})
		}
	}
	return groups, nil
}
