package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

// FakeDirectory is an in-memory implementation of domain.DirectoryClient.
// Optional Fn hooks override single methods to inject failures.
type FakeDirectory struct {
	mu          sync.Mutex
	Users       map[string]*domain.User       // keyed by user ID
	Groups      map[string]*domain.Group      // keyed by group ID
	Memberships map[string]*domain.Membership // keyed by membership ID

	CreateUserFn       func(spec domain.UserSpec) (*domain.User, error)
	CreateGroupFn      func(name, description string) (*domain.Group, error)
	AddMembershipFn    func(groupID, userID string) (*domain.Membership, error)
	RemoveMembershipFn func(membershipID string) error
	DeleteUserFn       func(userID string) error

	Calls map[string]int
}

// NewFakeDirectory creates an empty FakeDirectory.
func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		Users:       make(map[string]*domain.User),
		Groups:      make(map[string]*domain.Group),
		Memberships: make(map[string]*domain.Membership),
		Calls:       make(map[string]int),
	}
}

// SeedUser inserts a user directly, bypassing the client surface.
func (f *FakeDirectory) SeedUser(spec domain.UserSpec) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &domain.User{
		ID:          uuid.New().String(),
		Username:    spec.Username,
		Email:       spec.Email,
		GivenName:   spec.GivenName,
		FamilyName:  spec.FamilyName,
		DisplayName: spec.DisplayName(),
	}
	f.Users[user.ID] = user
	return user
}

// SeedGroup inserts a group directly, bypassing the client surface.
func (f *FakeDirectory) SeedGroup(name, description string) *domain.Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	group := &domain.Group{ID: uuid.New().String(), Name: name, Description: description}
	f.Groups[group.ID] = group
	return group
}

// SeedMembership inserts a membership directly, bypassing the client surface.
func (f *FakeDirectory) SeedMembership(groupID, userID string) *domain.Membership {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &domain.Membership{ID: uuid.New().String(), UserID: userID, GroupID: groupID}
	f.Memberships[m.ID] = m
	return m
}

// MembershipGroups returns the group names a user currently belongs to.
func (f *FakeDirectory) MembershipGroups(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, m := range f.Memberships {
		if m.UserID != userID {
			continue
		}
		if g, ok := f.Groups[m.GroupID]; ok {
			names = append(names, g.Name)
		}
	}
	return names
}

func (f *FakeDirectory) record(method string) {
	f.Calls[method]++
}

// CreateUser creates a user, failing when the username is taken.
func (f *FakeDirectory) CreateUser(_ context.Context, spec domain.UserSpec) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateUser")
	if f.CreateUserFn != nil {
		return f.CreateUserFn(spec)
	}
	for _, u := range f.Users {
		if u.Username == spec.Username {
			return nil, alreadyExists("CreateUser", spec.Username)
		}
	}
	user := &domain.User{
		ID:          uuid.New().String(),
		Username:    spec.Username,
		Email:       spec.Email,
		GivenName:   spec.GivenName,
		FamilyName:  spec.FamilyName,
		DisplayName: spec.DisplayName(),
	}
	f.Users[user.ID] = user
	return user, nil
}

// FindUserByUsername returns (nil, nil) when no user matches.
func (f *FakeDirectory) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindUserByUsername")
	for _, u := range f.Users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

// GetUser returns a user by ID.
func (f *FakeDirectory) GetUser(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetUser")
	u, ok := f.Users[userID]
	if !ok {
		return nil, notFound("GetUser", userID)
	}
	copied := *u
	return &copied, nil
}

// ListUsers returns all users.
func (f *FakeDirectory) ListUsers(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListUsers")
	users := make([]domain.User, 0, len(f.Users))
	for _, u := range f.Users {
		users = append(users, *u)
	}
	return users, nil
}

// DeleteUser removes a user and its memberships.
func (f *FakeDirectory) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteUser")
	if f.DeleteUserFn != nil {
		return f.DeleteUserFn(userID)
	}
	if _, ok := f.Users[userID]; !ok {
		return notFound("DeleteUser", userID)
	}
	delete(f.Users, userID)
	for id, m := range f.Memberships {
		if m.UserID == userID {
			delete(f.Memberships, id)
		}
	}
	return nil
}

// CreateGroup creates a group, failing when the name is taken.
func (f *FakeDirectory) CreateGroup(_ context.Context, name, description string) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateGroup")
	if f.CreateGroupFn != nil {
		return f.CreateGroupFn(name, description)
	}
	for _, g := range f.Groups {
		if g.Name == name {
			return nil, alreadyExists("CreateGroup", name)
		}
	}
	group := &domain.Group{ID: uuid.New().String(), Name: name, Description: description}
	f.Groups[group.ID] = group
	return group, nil
}

// FindGroupByName returns (nil, nil) when no group matches.
func (f *FakeDirectory) FindGroupByName(_ context.Context, name string) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindGroupByName")
	for _, g := range f.Groups {
		if g.Name == name {
			copied := *g
			return &copied, nil
		}
	}
	return nil, nil
}

// ListGroups returns all groups.
func (f *FakeDirectory) ListGroups(_ context.Context) ([]domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListGroups")
	groups := make([]domain.Group, 0, len(f.Groups))
	for _, g := range f.Groups {
		groups = append(groups, *g)
	}
	return groups, nil
}

// DeleteGroup removes a group and its memberships.
func (f *FakeDirectory) DeleteGroup(_ context.Context, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteGroup")
	if _, ok := f.Groups[groupID]; !ok {
		return notFound("DeleteGroup", groupID)
	}
	delete(f.Groups, groupID)
	for id, m := range f.Memberships {
		if m.GroupID == groupID {
			delete(f.Memberships, id)
		}
	}
	return nil
}

// AddMembership adds a user to a group, rejecting duplicates.
func (f *FakeDirectory) AddMembership(_ context.Context, groupID, userID string) (*domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddMembership")
	if f.AddMembershipFn != nil {
		return f.AddMembershipFn(groupID, userID)
	}
	if _, ok := f.Groups[groupID]; !ok {
		return nil, notFound("AddMembership", groupID)
	}
	if _, ok := f.Users[userID]; !ok {
		return nil, notFound("AddMembership", userID)
	}
	for _, m := range f.Memberships {
		if m.GroupID == groupID && m.UserID == userID {
			return nil, alreadyExists("AddMembership", userID)
		}
	}
	m := &domain.Membership{ID: uuid.New().String(), UserID: userID, GroupID: groupID}
	f.Memberships[m.ID] = m
	return m, nil
}

// RemoveMembership deletes a membership by ID.
func (f *FakeDirectory) RemoveMembership(_ context.Context, membershipID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveMembership")
	if f.RemoveMembershipFn != nil {
		return f.RemoveMembershipFn(membershipID)
	}
	if _, ok := f.Memberships[membershipID]; !ok {
		return notFound("RemoveMembership", membershipID)
	}
	delete(f.Memberships, membershipID)
	return nil
}

// ListMembershipsForUser returns all memberships of a user.
func (f *FakeDirectory) ListMembershipsForUser(_ context.Context, userID string) ([]domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListMembershipsForUser")
	var memberships []domain.Membership
	for _, m := range f.Memberships {
		if m.UserID == userID {
			memberships = append(memberships, *m)
		}
	}
	return memberships, nil
}

func notFound(op, target string) error {
	return domain.NewFailure(domain.FailureNotFound, op, target,
		"ResourceNotFoundException", fmt.Errorf("%s not found", target))
}

func alreadyExists(op, target string) error {
	return domain.NewFailure(domain.FailureAlreadyExists, op, target,
		"ConflictException", fmt.Errorf("%s already exists", target))
}
