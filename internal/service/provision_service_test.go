package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/testutil"
)

func newProvisionFixture() (*ProvisionService, *testutil.FakeDirectory, *testutil.FakeControlPlane, *testutil.FakeResolver) {
	directory := testutil.NewFakeDirectory()
	controlPlane := testutil.NewFakeControlPlane()
	resolver := testutil.NewFakeResolver()
	svc := NewProvisionService(controlPlane, directory, resolver, domain.DefaultRoleMapping(), zerolog.Nop(), ProvisionConfig{
		Namespace:    "default",
		PollInterval: time.Millisecond,
		Timeout:      time.Second,
	})
	return svc, directory, controlPlane, resolver
}

func validDesired() domain.DesiredWorkspaceConfig {
	return domain.DesiredWorkspaceConfig{
		AccountDisplayName: "prod-analytics",
		AdminEmail:         "ops@example.com",
		AdminGroupName:     domain.GroupAdmin,
	}
}

func TestProvisionService_Create_ProvisionsWorkspace(t *testing.T) {
	svc, directory, controlPlane, resolver := newProvisionFixture()

	outputs, err := svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation: domain.OperationCreate,
		RequestID: "req-1",
		Desired:   validDesired(),
	})

	require.NoError(t, err)
	require.NotNil(t, outputs)
	assert.Equal(t, resolver.Instance.ARN, outputs.InstanceARN)
	assert.Equal(t, resolver.Instance.IdentityStoreID, outputs.IdentityStoreID)
	assert.NotEmpty(t, outputs.AdminGroupID)
	assert.NotEmpty(t, outputs.ApplicationARN)

	group, err := directory.FindGroupByName(context.Background(), domain.GroupAdmin)
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.Equal(t, group.ID, outputs.AdminGroupID)

	require.NotNil(t, controlPlane.Subscription)
	assert.Equal(t, domain.SubscriptionActive, controlPlane.Subscription.SubscriptionStatus)
	assert.Equal(t, domain.RoleAdmin, controlPlane.RoleAssignments["default/"+domain.GroupAdmin])
}

func TestProvisionService_Create_IsIdempotent(t *testing.T) {
	svc, directory, controlPlane, _ := newProvisionFixture()
	req := domain.LifecycleRequest{Operation: domain.OperationCreate, RequestID: "req-1", Desired: validDesired()}

	first, err := svc.Handle(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Handle(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, controlPlane.Calls["CreateSubscription"])
	assert.Equal(t, 1, controlPlane.Calls["CreateApplication"])
	assert.Equal(t, 1, directory.Calls["CreateGroup"])
	assert.Len(t, controlPlane.Applications, 1)
}

func TestProvisionService_Create_WaitsForActivation(t *testing.T) {
	svc, _, controlPlane, _ := newProvisionFixture()
	controlPlane.Subscription = &domain.WorkspaceState{
		SubscriptionStatus: domain.SubscriptionCreating,
		AccountName:        "prod-analytics",
	}
	controlPlane.StatusSequence = []domain.SubscriptionStatus{
		domain.SubscriptionCreating,
		domain.SubscriptionCreating,
		domain.SubscriptionActive,
	}

	outputs, err := svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation: domain.OperationCreate,
		Desired:   validDesired(),
	})

	require.NoError(t, err)
	require.NotNil(t, outputs)
	// Creating means an earlier invocation already requested the subscription.
	assert.Equal(t, 0, controlPlane.Calls["CreateSubscription"])
}

func TestProvisionService_Create_TimesOutWhileCreating(t *testing.T) {
	directory := testutil.NewFakeDirectory()
	controlPlane := testutil.NewFakeControlPlane()
	controlPlane.Subscription = &domain.WorkspaceState{
		SubscriptionStatus: domain.SubscriptionCreating,
		AccountName:        "prod-analytics",
	}
	svc := NewProvisionService(controlPlane, directory, testutil.NewFakeResolver(), domain.DefaultRoleMapping(), zerolog.Nop(), ProvisionConfig{
		PollInterval: 5 * time.Millisecond,
		Timeout:      30 * time.Millisecond,
	})

	_, err := svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation: domain.OperationCreate,
		Desired:   validDesired(),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProvisioningTimeout))
}

func TestProvisionService_Create_RejectsInvalidName(t *testing.T) {
	svc, _, controlPlane, _ := newProvisionFixture()
	desired := validDesired()
	desired.AccountDisplayName = "-starts-with-hyphen"

	_, err := svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation: domain.OperationCreate,
		Desired:   desired,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, 0, controlPlane.Calls["CreateSubscription"])
}

func TestProvisionService_Update_RejectsAccountNameChange(t *testing.T) {
	svc, _, controlPlane, _ := newProvisionFixture()
	controlPlane.Subscription = &domain.WorkspaceState{
		SubscriptionStatus: domain.SubscriptionActive,
		AccountName:        "prod-analytics",
	}

	desired := validDesired()
	desired.AccountDisplayName = "renamed-analytics"

	_, err := svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation: domain.OperationUpdate,
		Desired:   desired,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrImmutableField))
}

func TestProvisionService_Update_ConvergesMissingPieces(t *testing.T) {
	svc, directory, controlPlane, resolver := newProvisionFixture()
	controlPlane.Subscription = &domain.WorkspaceState{
		SubscriptionStatus: domain.SubscriptionActive,
		AccountName:        "prod-analytics",
	}

	outputs, err := svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation:       domain.OperationUpdate,
		Desired:         validDesired(),
		PreviousOutputs: domain.ProvisionOutputs{InstanceARN: resolver.Instance.ARN},
	})

	require.NoError(t, err)
	require.NotNil(t, outputs)
	assert.NotEmpty(t, outputs.AdminGroupID)
	assert.NotEmpty(t, outputs.ApplicationARN)
	assert.Equal(t, 1, directory.Calls["CreateGroup"])
	// Update never re-creates the subscription.
	assert.Equal(t, 0, controlPlane.Calls["CreateSubscription"])
}

func TestProvisionService_Delete_RemovesOnlyApplication(t *testing.T) {
	svc, _, controlPlane, _ := newProvisionFixture()
	controlPlane.Subscription = &domain.WorkspaceState{
		SubscriptionStatus: domain.SubscriptionActive,
		AccountName:        "prod-analytics",
	}
	appARN, err := controlPlane.CreateApplication(context.Background(), "", "prod-analytics-quicksuite")
	require.NoError(t, err)

	_, err = svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation: domain.OperationDelete,
		Desired:   validDesired(),
	})

	require.NoError(t, err)
	assert.NotContains(t, controlPlane.Applications, appARN)
	assert.Equal(t, 0, controlPlane.Calls["DeleteSubscription"])
	require.NotNil(t, controlPlane.Subscription)
	assert.Equal(t, domain.SubscriptionActive, controlPlane.Subscription.SubscriptionStatus)
}

func TestProvisionService_Delete_AbsentApplicationSucceeds(t *testing.T) {
	svc, _, controlPlane, _ := newProvisionFixture()

	_, err := svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation: domain.OperationDelete,
		Desired:   validDesired(),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, controlPlane.Calls["DeleteApplication"])
}

func TestProvisionService_Delete_NoInstanceSucceeds(t *testing.T) {
	svc, _, _, resolver := newProvisionFixture()
	resolver.Instance = nil

	_, err := svc.Handle(context.Background(), domain.LifecycleRequest{
		Operation: domain.OperationDelete,
		Desired:   validDesired(),
	})

	require.NoError(t, err)
}

func TestProvisionService_Handle_RejectsUnknownOperation(t *testing.T) {
	svc, _, _, _ := newProvisionFixture()

	_, err := svc.Handle(context.Background(), domain.LifecycleRequest{Operation: "Reboot"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
