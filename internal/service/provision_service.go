package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/util"
)

// ProvisionConfig holds tunables for the lifecycle handler.
type ProvisionConfig struct {
	Namespace    string        // namespace the admin role membership targets
	PollInterval time.Duration // subscription status poll cadence
	Timeout      time.Duration // overall deadline for the poll step
}

// DefaultProvisionConfig returns sensible defaults.
func DefaultProvisionConfig() ProvisionConfig {
	return ProvisionConfig{
		Namespace:    "default",
		PollInterval: 15 * time.Second,
		Timeout:      10 * time.Minute,
	}
}

// ProvisionService drives one lifecycle event (Create, Update or Delete) to
// completion against the control plane and the directory. Every step is
// idempotent, keyed by identifiers derived from the desired config, so the
// orchestrator can safely re-invoke the same event after a partial failure.
type ProvisionService struct {
	controlPlane domain.ControlPlaneClient
	directory    domain.DirectoryClient
	resolver     domain.InstanceResolver
	roles        domain.RoleMapping
	logger       zerolog.Logger
	namespace    string
	pollInterval time.Duration
	timeout      time.Duration
}

// NewProvisionService creates a ProvisionService.
func NewProvisionService(
	controlPlane domain.ControlPlaneClient,
	directory domain.DirectoryClient,
	resolver domain.InstanceResolver,
	roles domain.RoleMapping,
	logger zerolog.Logger,
	config ProvisionConfig,
) *ProvisionService {
	if config.Namespace == "" {
		config.Namespace = "default"
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 15 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}

	return &ProvisionService{
		controlPlane: controlPlane,
		directory:    directory,
		resolver:     resolver,
		roles:        roles,
		logger:       logger.With().Str("component", "provision_service").Logger(),
		namespace:    config.Namespace,
		pollInterval: config.PollInterval,
		timeout:      config.Timeout,
	}
}

// Handle processes one lifecycle event. Any failure aborts the remaining
// steps of this invocation; recovery relies on re-invocation idempotency.
func (s *ProvisionService) Handle(ctx context.Context, req domain.LifecycleRequest) (*domain.ProvisionOutputs, error) {
	logger := s.logger.With().
		Str("operation", string(req.Operation)).
		Str("request_id", req.RequestID).
		Logger()

	switch req.Operation {
	case domain.OperationCreate:
		return s.create(ctx, logger, req.Desired)
	case domain.OperationUpdate:
		return s.update(ctx, logger, req)
	case domain.OperationDelete:
		return s.delete(ctx, logger, req)
	default:
		return nil, fmt.Errorf("%w: unknown lifecycle operation %q", domain.ErrInvalidInput, req.Operation)
	}
}

func (s *ProvisionService) create(ctx context.Context, logger zerolog.Logger, cfg domain.DesiredWorkspaceConfig) (*domain.ProvisionOutputs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	instance, err := s.resolver.ResolveInstance(ctx, cfg.InstanceIdentifier)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity center instance: %w", err)
	}
	logger.Info().Str("instance_arn", instance.ARN).Msg("Resolved identity center instance")

	if err := s.ensureSubscription(ctx, logger, cfg, instance.ARN); err != nil {
		return nil, err
	}

	return s.converge(ctx, logger, cfg, instance)
}

func (s *ProvisionService) update(ctx context.Context, logger zerolog.Logger, req domain.LifecycleRequest) (*domain.ProvisionOutputs, error) {
	cfg := req.Desired
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	state, err := s.controlPlane.DescribeSubscription(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription state: %w", err)
	}
	if state.AccountName != "" && state.AccountName != cfg.AccountDisplayName {
		return nil, fmt.Errorf("%w: account display name (%q -> %q)",
			domain.ErrImmutableField, state.AccountName, cfg.AccountDisplayName)
	}

	instanceID := cfg.InstanceIdentifier
	if instanceID == "" {
		instanceID = req.PreviousOutputs.InstanceARN
	}
	instance, err := s.resolver.ResolveInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity center instance: %w", err)
	}

	return s.converge(ctx, logger, cfg, instance)
}

// delete removes only the SSO application. The subscription is never
// deleted here: tearing down the account subscription destroys workspace
// data irreversibly, so that stays a manual operation. An already-absent
// application still reports success so the orchestrator's destroy step
// never gets stuck.
func (s *ProvisionService) delete(ctx context.Context, logger zerolog.Logger, req domain.LifecycleRequest) (*domain.ProvisionOutputs, error) {
	instanceARN := req.PreviousOutputs.InstanceARN
	if instanceARN == "" {
		instance, err := s.resolver.ResolveInstance(ctx, req.Desired.InstanceIdentifier)
		if errors.Is(err, domain.ErrNoInstance) {
			logger.Info().Msg("No identity center instance; nothing to clean up")
			return &req.PreviousOutputs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve identity center instance: %w", err)
		}
		instanceARN = instance.ARN
	}

	appARN := req.PreviousOutputs.ApplicationARN
	if appARN == "" {
		found, err := s.controlPlane.FindApplicationByName(ctx, instanceARN, applicationName(req.Desired))
		if err != nil {
			return nil, fmt.Errorf("failed to look up application: %w", err)
		}
		appARN = found
	}

	if appARN == "" {
		logger.Info().Msg("Application already absent")
		return &req.PreviousOutputs, nil
	}

	if err := s.controlPlane.DeleteApplication(ctx, appARN); err != nil && !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to delete application: %w", err)
	}
	logger.Info().Str("application_arn", appARN).Msg("Deleted application")

	return &req.PreviousOutputs, nil
}

// ensureSubscription creates the account subscription if absent and waits
// for it to leave the creating state.
func (s *ProvisionService) ensureSubscription(ctx context.Context, logger zerolog.Logger, cfg domain.DesiredWorkspaceConfig, instanceARN string) error {
	state, err := s.controlPlane.DescribeSubscription(ctx)
	if err != nil {
		return fmt.Errorf("failed to read subscription state: %w", err)
	}

	switch state.SubscriptionStatus {
	case domain.SubscriptionActive:
		logger.Info().Msg("Subscription already active")
		return nil
	case domain.SubscriptionAbsent:
		err := s.controlPlane.CreateSubscription(ctx, cfg, instanceARN)
		if err != nil && !domain.IsAlreadyExists(err) {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		logger.Info().Str("account_name", cfg.AccountDisplayName).Msg("Subscription creation requested")
	case domain.SubscriptionDeleting:
		return fmt.Errorf("subscription for %s is being deleted; retry after teardown completes", cfg.AccountDisplayName)
	case domain.SubscriptionFailed:
		return fmt.Errorf("subscription for %s is in a failed state", cfg.AccountDisplayName)
	}

	return s.waitForSubscription(ctx, logger)
}

// waitForSubscription polls until the subscription leaves the creating
// state, bounded by the configured wall-clock timeout.
func (s *ProvisionService) waitForSubscription(ctx context.Context, logger zerolog.Logger) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := util.WaitUntil(waitCtx, s.pollInterval, func(ctx context.Context) (bool, error) {
		state, err := s.controlPlane.DescribeSubscription(ctx)
		if err != nil {
			return false, err
		}
		logger.Debug().Str("status", string(state.SubscriptionStatus)).Msg("Polled subscription status")

		switch state.SubscriptionStatus {
		case domain.SubscriptionActive:
			return true, nil
		case domain.SubscriptionFailed:
			return false, fmt.Errorf("subscription entered failed state")
		case domain.SubscriptionDeleting:
			return false, fmt.Errorf("subscription is being deleted")
		default:
			return false, nil
		}
	})
	if errors.Is(err, context.DeadlineExceeded) {
		// The operation may still complete remotely; the next retry of the
		// same event picks up from the current remote state.
		return fmt.Errorf("%w: subscription still creating after %s", domain.ErrProvisioningTimeout, s.timeout)
	}
	if err != nil {
		return fmt.Errorf("waiting for subscription: %w", err)
	}

	logger.Info().Msg("Subscription active")
	return nil
}

// converge runs the idempotent directory and application steps shared by
// Create and Update.
func (s *ProvisionService) converge(ctx context.Context, logger zerolog.Logger, cfg domain.DesiredWorkspaceConfig, instance *domain.IdentityInstance) (*domain.ProvisionOutputs, error) {
	group, err := s.ensureAdminGroup(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	appARN, err := s.ensureApplication(ctx, logger, cfg, instance.ARN)
	if err != nil {
		return nil, err
	}

	role, ok := s.roles.RoleFor(cfg.AdminGroupName)
	if !ok {
		role = domain.RoleAdmin
	}
	err = s.controlPlane.AssignRoleMembership(ctx, s.namespace, cfg.AdminGroupName, role)
	if err != nil && !domain.IsAlreadyExists(err) {
		return nil, fmt.Errorf("failed to assign admin role membership: %w", err)
	}

	return &domain.ProvisionOutputs{
		InstanceARN:     instance.ARN,
		IdentityStoreID: instance.IdentityStoreID,
		AdminGroupID:    group.ID,
		ApplicationARN:  appARN,
	}, nil
}

func (s *ProvisionService) ensureAdminGroup(ctx context.Context, logger zerolog.Logger, cfg domain.DesiredWorkspaceConfig) (*domain.Group, error) {
	group, err := s.directory.FindGroupByName(ctx, cfg.AdminGroupName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin group: %w", err)
	}
	if group != nil {
		logger.Info().Str("group_id", group.ID).Msg("Admin group already exists")
		return group, nil
	}

	description := s.roles.Description(cfg.AdminGroupName)
	if description == "" {
		description = "Quick Suite admin group"
	}
	group, err = s.directory.CreateGroup(ctx, cfg.AdminGroupName, description)
	if domain.IsAlreadyExists(err) {
		// Lost a create race with a concurrent invocation; the group is there.
		return s.findExistingGroup(ctx, cfg.AdminGroupName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create admin group: %w", err)
	}
	logger.Info().Str("group_id", group.ID).Str("group_name", cfg.AdminGroupName).Msg("Created admin group")
	return group, nil
}

func (s *ProvisionService) findExistingGroup(ctx context.Context, name string) (*domain.Group, error) {
	group, err := s.directory.FindGroupByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin group: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrGroupNotFound, name)
	}
	return group, nil
}

func (s *ProvisionService) ensureApplication(ctx context.Context, logger zerolog.Logger, cfg domain.DesiredWorkspaceConfig, instanceARN string) (string, error) {
	name := applicationName(cfg)

	appARN, err := s.controlPlane.FindApplicationByName(ctx, instanceARN, name)
	if err != nil {
		return "", fmt.Errorf("failed to look up application: %w", err)
	}
	if appARN != "" {
		logger.Info().Str("application_arn", appARN).Msg("Application already exists")
		return appARN, nil
	}

	appARN, err = s.controlPlane.CreateApplication(ctx, instanceARN, name)
	if domain.IsAlreadyExists(err) {
		return s.controlPlane.FindApplicationByName(ctx, instanceARN, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create application: %w", err)
	}
	logger.Info().Str("application_arn", appARN).Msg("Created application")
	return appARN, nil
}

// applicationName is the deterministic application identifier derived from
// the desired config; it doubles as the idempotency key for application
// create and delete.
func applicationName(cfg domain.DesiredWorkspaceConfig) string {
	return cfg.AccountDisplayName + "-quicksuite"
}
