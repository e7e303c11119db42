package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reroute/internal/domain"
	"reroute/internal/logger"
	"reroute/internal/store"
)

// EnsureUser upserts the user for the given identity claims.
func (s *PlanService) EnsureUser(ctx context.Context, claims domain.IdentityClaims) (*store.User, error) {
	return s.store.EnsureUser(ctx, claims)
}

// GeneratePlan builds the generation context, invokes the agent and
// persists the resulting draft as a new plan.
func (s *PlanService) GeneratePlan(ctx context.Context, userID int64, prefs domain.Preferences) (*store.TrainingPlan, error) {
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}

	pc := s.buildGenerationContext(ctx, userID, prefs)
	result := s.agent.GeneratePlan(ctx, pc)

	draft := result.Plan
	if draft.Goal == "" {
		draft.Goal = prefs.Goal
	}
	if draft.StartDate == nil && prefs.StartDate != "" {
		if t, err := time.Parse("2006-01-02", prefs.StartDate); err == nil {
			draft.StartDate = &t
		}
	}

	plan, err := s.persistDraft(ctx, userID, draft)
	if err != nil {
		return nil, err
	}

	s.recordAgentRun(ctx, userID, &plan.ID, "plan.generate", result, plan)
	return plan, nil
}

// AdjustPlan revises an existing plan after new information. Only the
// plan's scalar fields absorb the agent's output; the stored block and
// workout tree stays as generated. Each adjustment appends a revision.
func (s *PlanService) AdjustPlan(ctx context.Context, userID, planID int64, reason string, activity *domain.ActivitySummary) (*store.TrainingPlan, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	draft := draftFromStored(plan)
	pc := s.buildAdjustmentContext(ctx, userID, draft, reason, activity)
	result := s.agent.AdjustPlan(ctx, pc)

	adjusted := result.Plan
	plan.Name = adjusted.Name
	plan.Goal = adjusted.Goal
	plan.StartDate = adjusted.StartDate
	plan.EndDate = adjusted.EndDate
	if adjusted.Status != "" {
		plan.Status = adjusted.Status
	}
	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}

	summary := strings.TrimSpace(reason)
	if summary == "" {
		summary = "plan adjusted"
	}
	if _, err := s.store.AddRevision(ctx, planID, summary); err != nil {
		s.log.Warn("recording plan revision failed", logger.Fields{"plan_id": planID, "error": err.Error()})
	}

	updated, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	s.recordAgentRun(ctx, userID, &planID, "plan.adjust", result, updated)
	return updated, nil
}

// ListPlans returns the user's plans, newest first.
func (s *PlanService) ListPlans(ctx context.Context, userID int64) ([]store.TrainingPlan, error) {
	return s.store.ListPlansForUser(ctx, userID)
}

// GetPlan returns one plan, enforcing ownership.
func (s *PlanService) GetPlan(ctx context.Context, userID, planID int64) (*store.TrainingPlan, error) {
	return s.ownedPlan(ctx, userID, planID)
}

// UpdatePlanStatus moves a plan through its lifecycle.
func (s *PlanService) UpdatePlanStatus(ctx context.Context, userID, planID int64, status string) (*store.TrainingPlan, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	plan.Status = status
	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return s.store.GetPlan(ctx, planID)
}

// DeletePlan removes a plan. Deleting a plan that does not exist is a
// no-op; deleting someone else's plan is not.
func (s *PlanService) DeletePlan(ctx context.Context, userID, planID int64) error {
	plan, err := s.store.GetPlan(ctx, planID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if plan.UserID != userID {
		return fmt.Errorf("plan %d: %w", planID, domain.ErrPermissionDenied)
	}
	return s.store.DeletePlan(ctx, planID)
}

// PlanRevisions lists a plan's revision history.
func (s *PlanService) PlanRevisions(ctx context.Context, userID, planID int64) ([]store.PlanRevision, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.store.ListRevisions(ctx, planID)
}

// PlansForAthlete resolves the plans owned by the user linked to the given
// provider athlete id.
func (s *PlanService) PlansForAthlete(ctx context.Context, athleteID int64) (int64, []store.TrainingPlan, error) {
	userID, err := s.store.UserIDForAthlete(ctx, athleteID)
	if err != nil {
		return 0, nil, err
	}
	plans, err := s.store.ListPlansForUser(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	return userID, plans, nil
}

// AgentRuns lists the user's newest agent executions.
func (s *PlanService) AgentRuns(ctx context.Context, userID int64, limit int) ([]store.AgentRun, error) {
	return s.store.RecentAgentRuns(ctx, userID, limit)
}

// RecentActivities returns the summarized recent history for display.
func (s *PlanService) RecentActivities(ctx context.Context, userID int64) []domain.ActivitySummary {
	profile := s.buildAthleteProfile(ctx, userID, "", nil)
	return s.fetchRecentActivities(ctx, userID, profile.FTP)
}

// HandleActivityEvent routes a provider push event: every plan belonging
// to the event's athlete is adjusted with the event as the reason.
// Non-activity events and unknown athletes are ignored.
func (s *PlanService) HandleActivityEvent(ctx context.Context, event domain.WebhookEvent) error {
	if !strings.EqualFold(event.ObjectType, "activity") {
		return nil
	}

	userID, err := s.store.UserIDForAthlete(ctx, event.OwnerID)
	if errors.Is(err, domain.ErrNotLinked) {
		return nil
	}
	if err != nil {
		return err
	}

	plans, err := s.store.ListPlansForUser(ctx, userID)
	if err != nil {
		return err
	}

	reason := fmt.Sprintf("Strava %s event for activity %d", event.AspectType, event.ObjectID)
	for _, plan := range plans {
		if _, err := s.AdjustPlan(ctx, userID, plan.ID, reason, nil); err != nil {
			return fmt.Errorf("adjusting plan %d: %w", plan.ID, err)
		}
	}
	return nil
}

func (s *PlanService) ownedPlan(ctx context.Context, userID, planID int64) (*store.TrainingPlan, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != userID {
		return nil, fmt.Errorf("plan %d: %w", planID, domain.ErrPermissionDenied)
	}
	return plan, nil
}

// persistDraft writes an agent draft as a new plan tree: blocks in draft
// order with their workouts, then the loose workouts.
func (s *PlanService) persistDraft(ctx context.Context, userID int64, draft domain.PlanDraft) (*store.TrainingPlan, error) {
	plan := &store.TrainingPlan{
		UserID:    userID,
		Name:      draft.Name,
		Goal:      draft.Goal,
		StartDate: draft.StartDate,
		EndDate:   draft.EndDate,
		Status:    draft.Status,
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	for index, blockDraft := range draft.Blocks {
		block := &store.TrainingBlock{
			PlanID:     plan.ID,
			Name:       blockDraft.Name,
			Focus:      blockDraft.Focus,
			OrderIndex: index,
			StartDate:  blockDraft.StartDate,
			EndDate:    blockDraft.EndDate,
		}
		if err := s.store.AddBlock(ctx, block); err != nil {
			return nil, err
		}
		for _, w := range blockDraft.Workouts {
			if err := s.store.AddWorkout(ctx, workoutRow(plan.ID, &block.ID, w)); err != nil {
				return nil, err
			}
		}
	}
	for _, w := range draft.Workouts {
		if err := s.store.AddWorkout(ctx, workoutRow(plan.ID, nil, w)); err != nil {
			return nil, err
		}
	}

	return s.store.GetPlan(ctx, plan.ID)
}

func workoutRow(planID int64, blockID *int64, w domain.WorkoutDraft) *store.Workout {
	return &store.Workout{
		PlanID:          planID,
		BlockID:         blockID,
		ScheduledDate:   w.ScheduledDate,
		SportType:       w.SportType,
		Name:            w.Name,
		Description:     w.Description,
		DurationMinutes: w.DurationMinutes,
		DistanceKm:      w.DistanceKm,
		TargetIntensity: w.TargetIntensity,
		TargetTSS:       w.TargetTSS,
	}
}

// draftFromStored converts a stored plan tree back to the draft shape the
// agent works with.
func draftFromStored(plan *store.TrainingPlan) domain.PlanDraft {
	blocks := make([]domain.BlockDraft, len(plan.Blocks))
	for i, block := range plan.Blocks {
		blocks[i] = domain.BlockDraft{
			Name:      block.Name,
			Focus:     block.Focus,
			StartDate: block.StartDate,
			EndDate:   block.EndDate,
			Workouts:  workoutDrafts(block.Workouts),
		}
	}
	return domain.PlanDraft{
		Name:      plan.Name,
		Goal:      plan.Goal,
		StartDate: plan.StartDate,
		EndDate:   plan.EndDate,
		Status:    plan.Status,
		Blocks:    blocks,
		Workouts:  workoutDrafts(plan.Workouts),
	}
}

func workoutDrafts(workouts []store.Workout) []domain.WorkoutDraft {
	drafts := make([]domain.WorkoutDraft, len(workouts))
	for i, w := range workouts {
		drafts[i] = domain.WorkoutDraft{
			ScheduledDate:   w.ScheduledDate,
			SportType:       w.SportType,
			Name:            w.Name,
			Description:     w.Description,
			DurationMinutes: w.DurationMinutes,
			DistanceKm:      w.DistanceKm,
			TargetIntensity: w.TargetIntensity,
			TargetTSS:       w.TargetTSS,
		}
	}
	return drafts
}

// recordAgentRun writes the execution log entry for an agent invocation.
// Failures are logged and swallowed; observability never fails the
// pipeline.
func (s *PlanService) recordAgentRun(ctx context.Context, userID int64, planID *int64, jobType string, result domain.AgentResult, plan *store.TrainingPlan) {
	fields := logger.Fields{
		"job_type": jobType,
		"user_id":  userID,
		"model":    result.ModelName,
		"fallback": result.FallbackUsed,
	}
	if planID != nil {
		fields["plan_id"] = *planID
	}
	if result.Err != "" {
		fields["error"] = result.Err
	}
	s.log.Info("plan agent run", fields)

	if s.logSink == nil {
		return
	}

	var tokensUsed *int
	if result.Usage != nil {
		total := result.Usage.Total()
		tokensUsed = &total
	}

	response := ""
	if encoded, err := json.MarshalIndent(draftFromStored(plan), "", "  "); err == nil {
		response = string(encoded)
	}

	entry := domain.AgentRunRecord{
		UserID:     userID,
		PlanID:     planID,
		JobType:    jobType,
		ModelName:  result.ModelName,
		Prompt:     result.Prompt,
		Response:   response,
		TokensUsed: tokensUsed,
	}
	if err := s.logSink.RecordAgentRun(ctx, entry); err != nil {
		s.log.Warn("recording agent run failed", logger.Fields{"error": err.Error()})
	}
}
