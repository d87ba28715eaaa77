package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

// planExecutor carries the mutable lookup state of one Execute run: IDs of
// groups and users resolved or created so far, and the membership index the
// snapshot provided. Guarded by mu because phases run on a worker pool.
type planExecutor struct {
	svc *ReconcileService

	mu          sync.Mutex
	groupIDs    map[string]string            // group name -> group ID
	userIDs     map[string]string            // username -> user ID
	memberships map[string]map[string]string // username -> group name -> membership ID
}

func newPlanExecutor(s *ReconcileService, snap *domain.DirectorySnapshot) *planExecutor {
	ex := &planExecutor{
		svc:         s,
		groupIDs:    make(map[string]string),
		userIDs:     make(map[string]string),
		memberships: make(map[string]map[string]string),
	}
	if snap == nil {
		return ex
	}

	groupNames := make(map[string]string, len(snap.Groups))
	for _, g := range snap.Groups {
		ex.groupIDs[g.Name] = g.ID
		groupNames[g.ID] = g.Name
	}
	for _, u := range snap.Users {
		ex.userIDs[u.Username] = u.ID
		byGroup := make(map[string]string)
		for _, m := range snap.RoleMemberships[u.ID] {
			if name, ok := groupNames[m.GroupID]; ok {
				byGroup[name] = m.ID
			}
		}
		if len(byGroup) > 0 {
			ex.memberships[u.Username] = byGroup
		}
	}
	return ex
}

func (ex *planExecutor) setGroupID(name, id string) {
	ex.mu.Lock()
	ex.groupIDs[name] = id
	ex.mu.Unlock()
}

func (ex *planExecutor) groupID(name string) string {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.groupIDs[name]
}

func (ex *planExecutor) setUserID(username, id string) {
	ex.mu.Lock()
	ex.userIDs[username] = id
	ex.mu.Unlock()
}

func (ex *planExecutor) userID(username string) string {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.userIDs[username]
}

func (ex *planExecutor) membershipID(username, group string) string {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.memberships[username][group]
}

func (ex *planExecutor) createGroups(ctx context.Context, entries []domain.RoleMapEntry) (domain.Outcomes, error) {
	results := make(domain.Outcomes, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ex.svc.concurrency)
	for i, entry := range entries {
		g.Go(func() error {
			if err := ex.svc.limiter.Wait(gctx); err != nil {
				return err
			}
			results[i] = ex.ensureGroup(gctx, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (ex *planExecutor) ensureGroup(ctx context.Context, entry domain.RoleMapEntry) domain.Outcome {
	op := domain.Operation{Kind: domain.OpCreateGroup, Group: entry.Group}
	logger := ex.svc.logger.With().Str("group", entry.Group).Logger()

	existing, err := ex.svc.directory.FindGroupByName(ctx, entry.Group)
	if err != nil {
		return failed(op, err)
	}
	if existing != nil {
		ex.setGroupID(entry.Group, existing.ID)
		return skipped(op)
	}

	created, err := ex.svc.directory.CreateGroup(ctx, entry.Group, entry.Description)
	if domain.IsAlreadyExists(err) {
		// Lost a create race. The group is there, which is all we wanted.
		if found, ferr := ex.svc.directory.FindGroupByName(ctx, entry.Group); ferr == nil && found != nil {
			ex.setGroupID(entry.Group, found.ID)
		}
		return skipped(op)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create group")
		return failed(op, err)
	}

	ex.setGroupID(entry.Group, created.ID)
	logger.Info().Str("group_id", created.ID).Msg("Group created")
	return succeeded(op)
}

func (ex *planExecutor) createUsers(ctx context.Context, specs []domain.UserSpec) (domain.Outcomes, error) {
	results := make(domain.Outcomes, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ex.svc.concurrency)
	for i, spec := range specs {
		g.Go(func() error {
			if err := ex.svc.limiter.Wait(gctx); err != nil {
				return err
			}
			results[i] = ex.ensureUser(gctx, spec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (ex *planExecutor) ensureUser(ctx context.Context, spec domain.UserSpec) domain.Outcome {
	op := domain.Operation{Kind: domain.OpCreateUser, Username: spec.Username}
	logger := ex.svc.logger.With().Str("username", spec.Username).Logger()

	existing, err := ex.svc.directory.FindUserByUsername(ctx, spec.Username)
	if err != nil {
		return failed(op, err)
	}
	if existing != nil {
		ex.setUserID(spec.Username, existing.ID)
		return skipped(op)
	}

	created, err := ex.svc.directory.CreateUser(ctx, spec)
	if domain.IsAlreadyExists(err) {
		if found, ferr := ex.svc.directory.FindUserByUsername(ctx, spec.Username); ferr == nil && found != nil {
			ex.setUserID(spec.Username, found.ID)
		}
		return skipped(op)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create user")
		return failed(op, err)
	}

	ex.setUserID(spec.Username, created.ID)
	logger.Info().Str("user_id", created.ID).Msg("User created")
	return succeeded(op)
}

func (ex *planExecutor) applyMoves(ctx context.Context, moves []domain.MembershipChange) (domain.Outcomes, error) {
	results := make([]domain.Outcomes, len(moves))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ex.svc.concurrency)
	for i, move := range moves {
		g.Go(func() error {
			out, err := ex.applyMove(gctx, move)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var outcomes domain.Outcomes
	for _, out := range results {
		outcomes = append(outcomes, out...)
	}
	return outcomes, nil
}

// applyMove changes one user's role group memberships. Removals run before
// the add so the user never holds two role groups at once; a failed removal
// cancels the add. The returned error is reserved for rate limiter or
// context failures.
func (ex *planExecutor) applyMove(ctx context.Context, move domain.MembershipChange) (domain.Outcomes, error) {
	var outcomes domain.Outcomes

	userID := ex.userID(move.Username)
	if userID == "" {
		if err := ex.svc.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		user, err := ex.svc.directory.FindUserByUsername(ctx, move.Username)
		if err == nil && user != nil {
			userID = user.ID
			ex.setUserID(move.Username, userID)
		}
	}
	if userID == "" {
		for _, group := range move.RemoveGroups {
			outcomes = append(outcomes, domain.Outcome{
				Operation: domain.Operation{Kind: domain.OpRemoveMembership, Username: move.Username, Group: group},
				Status:    domain.OutcomeFailed,
				Reason:    "user not found",
			})
		}
		if move.AddGroup != "" {
			outcomes = append(outcomes, domain.Outcome{
				Operation: domain.Operation{Kind: domain.OpAddMembership, Username: move.Username, Group: move.AddGroup},
				Status:    domain.OutcomeFailed,
				Reason:    "user not found",
			})
		}
		return outcomes, nil
	}

	removalFailed := false
	for _, group := range move.RemoveGroups {
		op := domain.Operation{Kind: domain.OpRemoveMembership, Username: move.Username, Group: group}
		membershipID := ex.membershipID(move.Username, group)
		if membershipID == "" {
			outcomes = append(outcomes, skipped(op))
			continue
		}

		if err := ex.svc.limiter.Wait(ctx); err != nil {
			return outcomes, err
		}
		err := ex.svc.directory.RemoveMembership(ctx, membershipID)
		switch {
		case domain.IsNotFound(err):
			outcomes = append(outcomes, skipped(op))
		case err != nil:
			removalFailed = true
			outcomes = append(outcomes, failed(op, err))
		default:
			outcomes = append(outcomes, succeeded(op))
		}
	}

	if move.AddGroup == "" {
		return outcomes, nil
	}

	op := domain.Operation{Kind: domain.OpAddMembership, Username: move.Username, Group: move.AddGroup}
	if removalFailed {
		outcomes = append(outcomes, domain.Outcome{
			Operation: op,
			Status:    domain.OutcomeFailed,
			Reason:    "stale membership removal failed",
		})
		return outcomes, nil
	}

	groupID := ex.groupID(move.AddGroup)
	if groupID == "" {
		if err := ex.svc.limiter.Wait(ctx); err != nil {
			return outcomes, err
		}
		group, err := ex.svc.directory.FindGroupByName(ctx, move.AddGroup)
		if err == nil && group != nil {
			groupID = group.ID
			ex.setGroupID(move.AddGroup, groupID)
		}
	}
	if groupID == "" {
		outcomes = append(outcomes, domain.Outcome{
			Operation: op,
			Status:    domain.OutcomeFailed,
			Reason:    "group not found",
		})
		return outcomes, nil
	}

	if err := ex.svc.limiter.Wait(ctx); err != nil {
		return outcomes, err
	}
	_, err := ex.svc.directory.AddMembership(ctx, groupID, userID)
	switch {
	case domain.IsAlreadyExists(err):
		outcomes = append(outcomes, skipped(op))
	case err != nil:
		outcomes = append(outcomes, failed(op, err))
	default:
		outcomes = append(outcomes, succeeded(op))
	}
	return outcomes, nil
}

func (ex *planExecutor) deleteUsers(ctx context.Context, usernames []string) (domain.Outcomes, error) {
	results := make(domain.Outcomes, len(usernames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ex.svc.concurrency)
	for i, username := range usernames {
		g.Go(func() error {
			if err := ex.svc.limiter.Wait(gctx); err != nil {
				return err
			}
			results[i] = ex.deleteUser(gctx, username)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (ex *planExecutor) deleteUser(ctx context.Context, username string) domain.Outcome {
	op := domain.Operation{Kind: domain.OpDeleteUser, Username: username}

	userID := ex.userID(username)
	if userID == "" {
		user, err := ex.svc.directory.FindUserByUsername(ctx, username)
		if err != nil {
			return failed(op, err)
		}
		if user == nil {
			return skipped(op)
		}
		userID = user.ID
	}

	err := ex.svc.directory.DeleteUser(ctx, userID)
	switch {
	case domain.IsNotFound(err):
		return skipped(op)
	case err != nil:
		ex.svc.logger.Error().Err(err).Str("username", username).Msg("Failed to delete user")
		return failed(op, err)
	default:
		ex.svc.logger.Info().Str("username", username).Msg("User deleted")
		return succeeded(op)
	}
}
