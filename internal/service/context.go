package service

import (
	"context"
	"encoding/json"

	"reroute/internal/domain"
)

// buildGenerationContext assembles everything the agent needs for a fresh
// plan: profile, recent history, preferences, stats and empathy cues.
func (s *PlanService) buildGenerationContext(ctx context.Context, userID int64, prefs domain.Preferences) domain.GenerationContext {
	athlete := s.buildAthleteProfile(ctx, userID, prefs.Goal, nil)
	stats := s.fetchAthleteStats(ctx, userID)
	recent := s.fetchRecentActivities(ctx, userID, athlete.FTP)

	return domain.GenerationContext{
		Athlete:          athlete,
		RecentActivities: recent,
		Preferences:      prefs,
		AthleteStats:     stats,
		EmpathyCues:      deriveEmpathyCues(recent, stats, s.now()),
	}
}

// buildAdjustmentContext assembles the context for revising an existing
// plan. When the triggering activity is known it is promoted to the front
// of the history, with its stream summary attached lazily.
func (s *PlanService) buildAdjustmentContext(
	ctx context.Context,
	userID int64,
	plan domain.PlanDraft,
	reason string,
	activity *domain.ActivitySummary,
) domain.AdjustmentContext {
	var existingGoals []string
	if plan.Goal != "" {
		existingGoals = []string{plan.Goal}
	}
	athlete := s.buildAthleteProfile(ctx, userID, "", existingGoals)
	stats := s.fetchAthleteStats(ctx, userID)
	recent := s.fetchRecentActivities(ctx, userID, athlete.FTP)

	if activity != nil {
		promoted := s.ensureActivityStreams(ctx, userID, *activity, athlete.FTP)
		merged := []domain.ActivitySummary{promoted}
		for _, item := range recent {
			if item.ActivityID != promoted.ActivityID {
				merged = append(merged, item)
			}
		}
		recent = merged
	}

	var latest *domain.ActivitySummary
	if len(recent) > 0 {
		latest = &recent[0]
	}

	return domain.AdjustmentContext{
		Plan:             plan,
		LatestActivity:   latest,
		AdjustmentReason: reason,
		Athlete:          athlete,
		AthleteStats:     stats,
		RecentActivities: recent,
		EmpathyCues:      deriveEmpathyCues(recent, stats, s.now()),
	}
}

// buildAthleteProfile fetches FTP and weight from the provider when it is
// available; provider failures leave those fields unset rather than failing
// the context build.
func (s *PlanService) buildAthleteProfile(ctx context.Context, userID int64, goal string, existingGoals []string) domain.AthleteProfile {
	profile := domain.AthleteProfile{
		PrimarySport: "cycling",
	}

	if s.provider != nil {
		if raw, err := s.provider.GetAthleteProfile(ctx, userID); err == nil {
			if ftp, ok := asFloat(raw["ftp"]); ok {
				profile.FTP = &ftp
			}
			if weight, ok := asFloat(raw["weight"]); ok {
				profile.WeightKg = &weight
			}
		}
	}

	for _, existing := range existingGoals {
		profile.AddGoal(existing)
	}
	profile.AddGoal(goal)
	return profile
}

// fetchAthleteStats loads the athlete's aggregate totals. Any provider or
// shape problem yields nil, which downstream treats as "stats unknown".
func (s *PlanService) fetchAthleteStats(ctx context.Context, userID int64) *domain.AthleteStats {
	if s.provider == nil {
		return nil
	}
	raw, err := s.provider.GetAthleteStats(ctx, userID)
	if err != nil {
		return nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var stats domain.AthleteStats
	if err := json.Unmarshal(encoded, &stats); err != nil {
		return nil
	}
	return &stats
}
