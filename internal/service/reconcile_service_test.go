package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/testutil"
)

func newReconcileFixture() (*ReconcileService, *testutil.FakeDirectory, *testutil.FakeControlPlane) {
	directory := testutil.NewFakeDirectory()
	controlPlane := testutil.NewFakeControlPlane()
	svc := NewReconcileService(directory, controlPlane, domain.DefaultRoleMapping(), zerolog.Nop(), ReconcileConfig{
		Concurrency:       4,
		RequestsPerSecond: 10000,
		RequestBurst:      100,
	})
	return svc, directory, controlPlane
}

func aliceSpec() domain.UserSpec {
	return domain.UserSpec{
		Username:   "alice",
		Email:      "alice@example.com",
		GivenName:  "Alice",
		FamilyName: "Anders",
		Group:      domain.GroupAdmin,
	}
}

func bobSpec() domain.UserSpec {
	return domain.UserSpec{
		Username:   "bob",
		Email:      "bob@example.com",
		GivenName:  "Bob",
		FamilyName: "Baker",
		Group:      domain.GroupProfessional,
	}
}

func TestReconcileService_SyncUsers_CreatesUserGroupAndMembership(t *testing.T) {
	svc, directory, _ := newReconcileFixture()

	outcomes, err := svc.SyncUsers(context.Background(), &domain.Manifest{Users: []domain.UserSpec{aliceSpec()}})

	require.NoError(t, err)
	assert.Equal(t, 3, outcomes.Succeeded())
	assert.Equal(t, 0, outcomes.Failed())

	user, err := directory.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice Anders", user.DisplayName)
	assert.Equal(t, []string{domain.GroupAdmin}, directory.MembershipGroups(user.ID))
}

func TestReconcileService_SyncUsers_RerunIsAllSkipped(t *testing.T) {
	svc, _, _ := newReconcileFixture()
	m := &domain.Manifest{Users: []domain.UserSpec{aliceSpec()}}

	_, err := svc.SyncUsers(context.Background(), m)
	require.NoError(t, err)

	outcomes, err := svc.SyncUsers(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, len(outcomes), outcomes.Skipped())
	assert.Equal(t, 0, outcomes.Succeeded())
	assert.Equal(t, 0, outcomes.Failed())
}

func TestReconcileService_Diff_ConvergedStateYieldsEmptyPlan(t *testing.T) {
	svc, _, _ := newReconcileFixture()
	m := &domain.Manifest{Users: []domain.UserSpec{aliceSpec()}}

	_, err := svc.SyncUsers(context.Background(), m)
	require.NoError(t, err)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	plan, _ := svc.Diff(m, nil, snap)
	assert.True(t, plan.IsEmpty())
}

func TestReconcileService_MoveUser_RemovesBeforeAdding(t *testing.T) {
	svc, directory, _ := newReconcileFixture()
	admin := directory.SeedGroup(domain.GroupAdmin, "")
	directory.SeedGroup(domain.GroupProfessional, "")
	alice := directory.SeedUser(aliceSpec())
	directory.SeedMembership(admin.ID, alice.ID)

	outcomes, err := svc.MoveUser(context.Background(), "alice", domain.GroupProfessional)
	require.NoError(t, err)
	assert.Equal(t, 0, outcomes.Failed())

	removeIdx, addIdx := -1, -1
	for i, o := range outcomes {
		switch o.Operation.Kind {
		case domain.OpRemoveMembership:
			assert.Equal(t, domain.GroupAdmin, o.Operation.Group)
			assert.Equal(t, domain.OutcomeSucceeded, o.Status)
			removeIdx = i
		case domain.OpAddMembership:
			assert.Equal(t, domain.GroupProfessional, o.Operation.Group)
			assert.Equal(t, domain.OutcomeSucceeded, o.Status)
			addIdx = i
		}
	}
	require.NotEqual(t, -1, removeIdx)
	require.NotEqual(t, -1, addIdx)
	assert.Less(t, removeIdx, addIdx)

	assert.Equal(t, []string{domain.GroupProfessional}, directory.MembershipGroups(alice.ID))
}

func TestReconcileService_MoveUser_UnknownUser(t *testing.T) {
	svc, _, _ := newReconcileFixture()

	_, err := svc.MoveUser(context.Background(), "ghost", domain.GroupAdmin)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestReconcileService_MoveUser_RejectsNonRoleGroup(t *testing.T) {
	svc, _, _ := newReconcileFixture()

	_, err := svc.MoveUser(context.Background(), "alice", "ENGINEERING")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestReconcileService_SyncUsers_NeverDeletesUnlistedUsers(t *testing.T) {
	svc, directory, _ := newReconcileFixture()
	bob := directory.SeedUser(bobSpec())

	outcomes, err := svc.SyncUsers(context.Background(), &domain.Manifest{Users: []domain.UserSpec{aliceSpec()}})
	require.NoError(t, err)

	for _, o := range outcomes {
		assert.NotEqual(t, domain.OpDeleteUser, o.Operation.Kind)
	}
	_, ok := directory.Users[bob.ID]
	assert.True(t, ok)
}

func TestReconcileService_SyncUsers_OneFailureDoesNotAbortBatch(t *testing.T) {
	svc, directory, _ := newReconcileFixture()
	directory.CreateUserFn = func(spec domain.UserSpec) (*domain.User, error) {
		if spec.Username == "alice" {
			return nil, errors.New("throttled")
		}
		user := &domain.User{
			ID:          "u-" + spec.Username,
			Username:    spec.Username,
			Email:       spec.Email,
			GivenName:   spec.GivenName,
			FamilyName:  spec.FamilyName,
			DisplayName: spec.DisplayName(),
		}
		directory.Users[user.ID] = user
		return user, nil
	}

	outcomes, err := svc.SyncUsers(context.Background(), &domain.Manifest{
		Users: []domain.UserSpec{aliceSpec(), bobSpec()},
	})

	require.NoError(t, err)
	assert.Greater(t, outcomes.Failed(), 0)

	bob, err := directory.FindUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, []string{domain.GroupProfessional}, directory.MembershipGroups(bob.ID))
}

func TestReconcileService_SyncUsers_RejectsDuplicateUsernames(t *testing.T) {
	svc, directory, _ := newReconcileFixture()

	_, err := svc.SyncUsers(context.Background(), &domain.Manifest{
		Users: []domain.UserSpec{aliceSpec(), aliceSpec()},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, 0, directory.Calls["CreateUser"])
}

func TestReconcileService_EnsureRoleGroups(t *testing.T) {
	svc, directory, _ := newReconcileFixture()

	outcomes, err := svc.EnsureRoleGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, outcomes.Succeeded())
	assert.Len(t, directory.Groups, 3)

	outcomes, err = svc.EnsureRoleGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, outcomes.Skipped())
	assert.Equal(t, 0, outcomes.Succeeded())
	assert.Len(t, directory.Groups, 3)
}

func TestReconcileService_DeleteUser_RemovesUserAndMemberships(t *testing.T) {
	svc, directory, _ := newReconcileFixture()
	admin := directory.SeedGroup(domain.GroupAdmin, "")
	alice := directory.SeedUser(aliceSpec())
	directory.SeedMembership(admin.ID, alice.ID)

	outcomes, err := svc.DeleteUser(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, 1, outcomes.Succeeded())
	assert.Empty(t, directory.Users)
	assert.Empty(t, directory.Memberships)
}

func TestReconcileService_DeleteUser_AbsentUserIsSkipped(t *testing.T) {
	svc, _, _ := newReconcileFixture()

	outcomes, err := svc.DeleteUser(context.Background(), "ghost")

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeSkipped, outcomes[0].Status)
}

func TestReconcileService_AssignWorkspaceRoles(t *testing.T) {
	svc, _, controlPlane := newReconcileFixture()

	outcomes, err := svc.AssignWorkspaceRoles(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 3, outcomes.Succeeded())
	assert.Equal(t, domain.RoleAdmin, controlPlane.RoleAssignments["default/"+domain.GroupAdmin])
	assert.Equal(t, domain.RoleAuthor, controlPlane.RoleAssignments["default/"+domain.GroupEnterprise])
	assert.Equal(t, domain.RoleReader, controlPlane.RoleAssignments["default/"+domain.GroupProfessional])

	outcomes, err = svc.AssignWorkspaceRoles(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 3, outcomes.Skipped())
}

func TestReconcileService_Snapshot_TracksOnlyRoleGroupMemberships(t *testing.T) {
	svc, directory, _ := newReconcileFixture()
	admin := directory.SeedGroup(domain.GroupAdmin, "")
	other := directory.SeedGroup("ENGINEERING", "")
	alice := directory.SeedUser(aliceSpec())
	directory.SeedMembership(admin.ID, alice.ID)
	directory.SeedMembership(other.ID, alice.ID)

	snap, err := svc.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{domain.GroupAdmin}, snap.RoleGroupNamesOf(alice.ID))
}
