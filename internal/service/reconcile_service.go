package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

// ReconcileConfig holds tunables for plan execution.
type ReconcileConfig struct {
	Concurrency       int     // worker pool size for independent operations
	RequestsPerSecond float64 // directory API rate limit
	RequestBurst      int
}

// DefaultReconcileConfig returns sensible defaults.
func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		Concurrency:       5,
		RequestsPerSecond: 10,
		RequestBurst:      5,
	}
}

// ReconcileService moves live directory state toward a desired manifest.
// A run has two phases that never intermix: a pure diff over a fresh
// snapshot, then phase-ordered execution of the resulting plan. Each plan
// item executes independently; one failure never aborts the batch.
type ReconcileService struct {
	directory    domain.DirectoryClient
	controlPlane domain.ControlPlaneClient
	roles        domain.RoleMapping
	logger       zerolog.Logger
	concurrency  int
	limiter      *rate.Limiter
}

// NewReconcileService creates a ReconcileService. controlPlane is only
// needed for workspace role assignment and may be nil otherwise.
func NewReconcileService(
	directory domain.DirectoryClient,
	controlPlane domain.ControlPlaneClient,
	roles domain.RoleMapping,
	logger zerolog.Logger,
	config ReconcileConfig,
) *ReconcileService {
	if config.Concurrency < 1 {
		config.Concurrency = 5
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 10
	}
	if config.RequestBurst < 1 {
		config.RequestBurst = 5
	}

	return &ReconcileService{
		directory:    directory,
		controlPlane: controlPlane,
		roles:        roles,
		logger:       logger.With().Str("component", "reconcile_service").Logger(),
		concurrency:  config.Concurrency,
		limiter:      rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.RequestBurst),
	}
}

// Snapshot fetches the live directory state the diff runs against. Nothing
// from a previous run is reused; the directory is the source of truth.
func (s *ReconcileService) Snapshot(ctx context.Context) (*domain.DirectorySnapshot, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	groups, err := s.directory.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	roleGroupIDs := make(map[string]bool)
	for _, g := range groups {
		if s.roles.IsRoleGroup(g.Name) {
			roleGroupIDs[g.ID] = true
		}
	}

	snap := &domain.DirectorySnapshot{
		Users:           users,
		Groups:          groups,
		RoleMemberships: make(map[string][]domain.Membership),
	}

	results := make([][]domain.Membership, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, u := range users {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			memberships, err := s.directory.ListMembershipsForUser(gctx, u.ID)
			if err != nil {
				return fmt.Errorf("failed to list memberships of %s: %w", u.Username, err)
			}
			for _, m := range memberships {
				if roleGroupIDs[m.GroupID] {
					results[i] = append(results[i], m)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, u := range users {
		if len(results[i]) > 0 {
			snap.RoleMemberships[u.ID] = results[i]
		}
	}
	return snap, nil
}

// Diff computes the minimal plan moving the snapshot toward the manifest,
// plus Skipped outcomes for the desired items already in place. It performs
// no remote calls. Users absent from the manifest are never scheduled for
// deletion; only the explicit deletes list produces DeleteUser operations.
func (s *ReconcileService) Diff(m *domain.Manifest, deletes []string, snap *domain.DirectorySnapshot) (domain.Plan, domain.Outcomes) {
	var plan domain.Plan
	var satisfied domain.Outcomes

	var specs []domain.UserSpec
	if m != nil {
		specs = m.Users
	}

	referenced := make(map[string]bool)
	for _, u := range specs {
		if u.Group != "" {
			referenced[u.Group] = true
		}
	}
	for _, entry := range s.roles.Entries() {
		if !referenced[entry.Group] {
			continue
		}
		if snap.GroupByName(entry.Group) == nil {
			plan.CreateGroups = append(plan.CreateGroups, entry)
		} else {
			satisfied = append(satisfied, skipped(domain.Operation{Kind: domain.OpCreateGroup, Group: entry.Group}))
		}
	}

	for _, u := range specs {
		existing := snap.UserByUsername(u.Username)
		if existing == nil {
			plan.CreateUsers = append(plan.CreateUsers, u)
		} else {
			satisfied = append(satisfied, skipped(domain.Operation{Kind: domain.OpCreateUser, Username: u.Username}))
		}

		if u.Group == "" {
			continue
		}

		var current []string
		if existing != nil {
			current = snap.RoleGroupNamesOf(existing.ID)
		}

		change := domain.MembershipChange{Username: u.Username}
		inDesired := false
		for _, name := range current {
			if name == u.Group {
				inDesired = true
				continue
			}
			change.RemoveGroups = append(change.RemoveGroups, name)
		}
		if !inDesired {
			change.AddGroup = u.Group
		}

		if len(change.RemoveGroups) > 0 || change.AddGroup != "" {
			plan.Moves = append(plan.Moves, change)
		} else {
			satisfied = append(satisfied, skipped(domain.Operation{Kind: domain.OpAddMembership, Username: u.Username, Group: u.Group}))
		}
	}

	for _, username := range deletes {
		if snap.UserByUsername(username) == nil {
			// Deleting an absent user is an idempotent no-op.
			satisfied = append(satisfied, skipped(domain.Operation{Kind: domain.OpDeleteUser, Username: username}))
			continue
		}
		plan.DeleteUsers = append(plan.DeleteUsers, username)
	}

	return plan, satisfied
}

// Execute applies the plan phase by phase: groups, users, membership moves,
// explicit deletes. Operations inside a phase run on a bounded worker pool;
// the remove/add pair of one user always runs in program order.
func (s *ReconcileService) Execute(ctx context.Context, plan domain.Plan, snap *domain.DirectorySnapshot) (domain.Outcomes, error) {
	ex := newPlanExecutor(s, snap)
	var outcomes domain.Outcomes

	groupOutcomes, err := ex.createGroups(ctx, plan.CreateGroups)
	if err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, groupOutcomes...)

	userOutcomes, err := ex.createUsers(ctx, plan.CreateUsers)
	if err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, userOutcomes...)

	moveOutcomes, err := ex.applyMoves(ctx, plan.Moves)
	if err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, moveOutcomes...)

	deleteOutcomes, err := ex.deleteUsers(ctx, plan.DeleteUsers)
	if err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, deleteOutcomes...)

	failed := outcomes.Failed()
	s.logger.Info().
		Int("succeeded", outcomes.Succeeded()).
		Int("skipped", outcomes.Skipped()).
		Int("failed", failed).
		Msg("Plan executed")

	return outcomes, nil
}

// SyncUsers validates the manifest, snapshots the directory, and applies
// the diff. Sync is additive and corrective: users missing from the
// manifest are left untouched.
func (s *ReconcileService) SyncUsers(ctx context.Context, m *domain.Manifest) (domain.Outcomes, error) {
	if err := m.Validate(s.roles); err != nil {
		return nil, err
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	plan, satisfied := s.Diff(m, nil, snap)
	executed, err := s.Execute(ctx, plan, snap)
	return append(satisfied, executed...), err
}

// CreateUser provisions one user (and its role group membership) through
// the same path as a bulk sync.
func (s *ReconcileService) CreateUser(ctx context.Context, spec domain.UserSpec) (domain.Outcomes, error) {
	return s.SyncUsers(ctx, &domain.Manifest{Users: []domain.UserSpec{spec}})
}

// EnsureRoleGroups creates every role group of the mapping table that does
// not exist yet.
func (s *ReconcileService) EnsureRoleGroups(ctx context.Context) (domain.Outcomes, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	groups, err := s.directory.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	snap := &domain.DirectorySnapshot{Groups: groups, RoleMemberships: map[string][]domain.Membership{}}

	var plan domain.Plan
	var satisfied domain.Outcomes
	for _, entry := range s.roles.Entries() {
		if snap.GroupByName(entry.Group) == nil {
			plan.CreateGroups = append(plan.CreateGroups, entry)
		} else {
			satisfied = append(satisfied, skipped(domain.Operation{Kind: domain.OpCreateGroup, Group: entry.Group}))
		}
	}

	executed, err := s.Execute(ctx, plan, snap)
	return append(satisfied, executed...), err
}

// MoveUser puts an existing user into exactly one role group, clearing
// every other role-group membership first.
func (s *ReconcileService) MoveUser(ctx context.Context, username, group string) (domain.Outcomes, error) {
	if !s.roles.IsRoleGroup(group) {
		return nil, fmt.Errorf("%w: group %q is not a role group (valid: %v)", domain.ErrInvalidInput, group, s.roles.Groups())
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	user := snap.UserByUsername(username)
	if user == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, username)
	}

	plan, satisfied := s.Diff(&domain.Manifest{
		Users: []domain.UserSpec{{
			Username:   user.Username,
			Email:      user.Email,
			GivenName:  user.GivenName,
			FamilyName: user.FamilyName,
			Group:      group,
		}},
	}, nil, snap)

	executed, err := s.Execute(ctx, plan, snap)
	return append(satisfied, executed...), err
}

// DeleteUser removes a user by username. A user that does not exist is a
// no-op reported as Skipped, never an error.
func (s *ReconcileService) DeleteUser(ctx context.Context, username string) (domain.Outcomes, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	user, err := s.directory.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	op := domain.Operation{Kind: domain.OpDeleteUser, Username: username}
	if user == nil {
		return domain.Outcomes{skipped(op)}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := s.directory.DeleteUser(ctx, user.ID); err != nil {
		if domain.IsNotFound(err) {
			return domain.Outcomes{skipped(op)}, nil
		}
		return domain.Outcomes{failed(op, err)}, nil
	}
	return domain.Outcomes{succeeded(op)}, nil
}

// AssignWorkspaceRoles grants every mapped role group its workspace role in
// the given namespace. Existing assignments are reported as Skipped.
func (s *ReconcileService) AssignWorkspaceRoles(ctx context.Context, namespace string) (domain.Outcomes, error) {
	if s.controlPlane == nil {
		return nil, fmt.Errorf("%w: no control plane client configured", domain.ErrInvalidInput)
	}

	var outcomes domain.Outcomes
	for _, entry := range s.roles.Entries() {
		op := domain.Operation{Kind: domain.OpAssignRole, Group: entry.Group}
		if err := s.limiter.Wait(ctx); err != nil {
			return outcomes, err
		}
		err := s.controlPlane.AssignRoleMembership(ctx, namespace, entry.Group, entry.Role)
		switch {
		case domain.IsAlreadyExists(err):
			outcomes = append(outcomes, skipped(op))
		case err != nil:
			outcomes = append(outcomes, failed(op, err))
		default:
			outcomes = append(outcomes, succeeded(op))
		}
	}
	return outcomes, nil
}

func succeeded(op domain.Operation) domain.Outcome {
	return domain.Outcome{Operation: op, Status: domain.OutcomeSucceeded}
}

func skipped(op domain.Operation) domain.Outcome {
	return domain.Outcome{Operation: op, Status: domain.OutcomeSkipped, Reason: "already in desired state"}
}

func failed(op domain.Operation, err error) domain.Outcome {
	return domain.Outcome{Operation: op, Status: domain.OutcomeFailed, Reason: err.Error()}
}
