package agent

import (
	"time"

	"reroute/internal/domain"
)

const defaultPlanWeeks = 8

// Heuristic is the deterministic planner used when no model is configured
// or a model invocation fails. Its output is intentionally simple: one
// foundation block with two rides per week and a gentle weekly ramp.
type Heuristic struct {
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (h *Heuristic) today() time.Time {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Generate builds a base plan from the athlete's preferences.
func (h *Heuristic) Generate(pc domain.GenerationContext) domain.PlanDraft {
	weeks := pc.Preferences.DurationWeeks
	if weeks == 0 {
		weeks = defaultPlanWeeks
	}
	if weeks < 1 {
		weeks = 1
	}

	// Preferred start date, then the upcoming event date, then today. An
	// unparseable preference date counts as absent.
	start := h.today()
	parsed := false
	if pc.Preferences.StartDate != "" {
		if t, err := time.Parse("2006-01-02", pc.Preferences.StartDate); err == nil {
			start = t
			parsed = true
		}
	}
	if !parsed && pc.Athlete.UpcomingEventDate != nil {
		start = *pc.Athlete.UpcomingEventDate
	}
	end := start.AddDate(0, 0, weeks*7)

	workouts := weeklyWorkouts(start, weeks)

	block := domain.BlockDraft{
		Name:      "Foundation",
		Focus:     "Aerobic Base",
		StartDate: &start,
		EndDate:   &end,
		Workouts:  workouts,
	}

	goal := pc.Preferences.Goal
	if len(pc.Athlete.Goals) > 0 {
		goal = pc.Athlete.Goals[0]
	}
	sport := pc.Athlete.PrimarySport
	if sport == "" {
		sport = "Multi-sport"
	}

	return domain.PlanDraft{
		Name:      sport + " Training Plan",
		Goal:      goal,
		StartDate: &start,
		EndDate:   &end,
		Status:    domain.PlanStatusDraft,
		Blocks:    []domain.BlockDraft{block},
		Workouts:  workouts,
	}
}

// Adjust revises a plan after a new activity. A ride pushed above FTP earns
// an extra recovery session and marks the goal as adjusted; anything milder
// leaves the plan untouched.
func (h *Heuristic) Adjust(pc domain.AdjustmentContext) domain.PlanDraft {
	plan := clonePlan(pc.Plan)

	latest := pc.LatestActivity
	if latest == nil || latest.Streams == nil || latest.Streams.Power == nil {
		return plan
	}
	power := latest.Streams.Power
	if power.IntensityFactor == nil || *power.IntensityFactor <= 1.05 {
		return plan
	}

	base := h.today()
	if plan.EndDate != nil {
		base = *plan.EndDate
	}
	recoveryDay := base.AddDate(0, 0, 1)
	duration := 45
	tss := 20

	recovery := domain.WorkoutDraft{
		ScheduledDate:   &recoveryDay,
		SportType:       latest.SportType,
		Name:            "Recovery Ride",
		Description:     "Easy spin to absorb training stress",
		DurationMinutes: &duration,
		TargetIntensity: "recovery",
		TargetTSS:       &tss,
	}

	plan.Workouts = append(plan.Workouts, recovery)
	if len(plan.Blocks) > 0 {
		last := &plan.Blocks[len(plan.Blocks)-1]
		last.Workouts = append(last.Workouts, recovery)
	}

	goal := plan.Goal
	if goal == "" {
		goal = "Training"
	}
	plan.Goal = goal + " (adjusted)"

	return plan
}

// weeklyWorkouts produces two rides per week: an endurance ride that grows
// by ten minutes each week and a fixed-length threshold session. Target TSS
// ramps five points per week on both.
func weeklyWorkouts(start time.Time, weeks int) []domain.WorkoutDraft {
	const baseDuration = 60

	workouts := make([]domain.WorkoutDraft, 0, weeks*2)
	for week := 0; week < weeks; week++ {
		weekStart := start.AddDate(0, 0, week*7)
		intervalDay := weekStart.AddDate(0, 0, 2)

		enduranceMinutes := baseDuration + week*10
		enduranceTSS := 60 + week*5
		thresholdMinutes := baseDuration
		thresholdTSS := 75 + week*5

		workouts = append(workouts,
			domain.WorkoutDraft{
				ScheduledDate:   &weekStart,
				SportType:       "ride",
				Name:            "Endurance Ride",
				Description:     "Steady Z2 ride focusing on aerobic base.",
				DurationMinutes: &enduranceMinutes,
				TargetIntensity: "endurance",
				TargetTSS:       &enduranceTSS,
			},
			domain.WorkoutDraft{
				ScheduledDate:   &intervalDay,
				SportType:       "ride",
				Name:            "Threshold Intervals",
				Description:     "3x10 min at threshold with 5 min recovery.",
				DurationMinutes: &thresholdMinutes,
				TargetIntensity: "threshold",
				TargetTSS:       &thresholdTSS,
			},
		)
	}
	return workouts
}

// clonePlan deep-copies a draft so adjustments never alias the caller's
// slices.
func clonePlan(plan domain.PlanDraft) domain.PlanDraft {
	out := plan
	out.Workouts = append([]domain.WorkoutDraft(nil), plan.Workouts...)
	out.Blocks = make([]domain.BlockDraft, len(plan.Blocks))
	for i, block := range plan.Blocks {
		out.Blocks[i] = block
		out.Blocks[i].Workouts = append([]domain.WorkoutDraft(nil), block.Workouts...)
	}
	return out
}
