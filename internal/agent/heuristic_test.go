package agent

import (
	"testing"
	"time"

	"reroute/internal/analysis"
	"reroute/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2026, 4, 6, 15, 30, 0, 0, time.UTC)
}

func floatP(v float64) *float64 { return &v }

func TestHeuristicGenerate(t *testing.T) {
	h := &Heuristic{Now: fixedClock}

	plan := h.Generate(domain.GenerationContext{
		Athlete: domain.AthleteProfile{
			PrimarySport: "cycling",
			Goals:        []string{"finish a century"},
		},
		Preferences: domain.Preferences{
			Goal:          "ignored in favor of athlete goal",
			DurationWeeks: 4,
			StartDate:     "2026-05-04",
		},
	})

	if plan.Name != "cycling Training Plan" {
		t.Errorf("name = %q", plan.Name)
	}
	if plan.Goal != "finish a century" {
		t.Errorf("goal = %q", plan.Goal)
	}
	if plan.Status != domain.PlanStatusDraft {
		t.Errorf("status = %q", plan.Status)
	}

	wantStart := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	if plan.StartDate == nil || !plan.StartDate.Equal(wantStart) {
		t.Errorf("start = %v, want %v", plan.StartDate, wantStart)
	}
	if plan.EndDate == nil || !plan.EndDate.Equal(wantStart.AddDate(0, 0, 28)) {
		t.Errorf("end = %v", plan.EndDate)
	}

	if len(plan.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(plan.Blocks))
	}
	block := plan.Blocks[0]
	if block.Name != "Foundation" || block.Focus != "Aerobic Base" {
		t.Errorf("block = %q/%q", block.Name, block.Focus)
	}

	// Two workouts per week
	if len(plan.Workouts) != 8 || len(block.Workouts) != 8 {
		t.Fatalf("workouts = %d/%d, want 8/8", len(plan.Workouts), len(block.Workouts))
	}

	// Endurance ride ramps ten minutes and five TSS per week
	week0 := plan.Workouts[0]
	week1 := plan.Workouts[2]
	if *week0.DurationMinutes != 60 || *week1.DurationMinutes != 70 {
		t.Errorf("endurance durations = %d, %d", *week0.DurationMinutes, *week1.DurationMinutes)
	}
	if *week0.TargetTSS != 60 || *week1.TargetTSS != 65 {
		t.Errorf("endurance tss = %d, %d", *week0.TargetTSS, *week1.TargetTSS)
	}
	if plan.Workouts[1].Name != "Threshold Intervals" || *plan.Workouts[1].TargetTSS != 75 {
		t.Errorf("threshold workout = %+v", plan.Workouts[1])
	}
}

func TestHeuristicGenerateDefaults(t *testing.T) {
	h := &Heuristic{Now: fixedClock}

	plan := h.Generate(domain.GenerationContext{})

	if plan.Name != "Multi-sport Training Plan" {
		t.Errorf("name = %q", plan.Name)
	}
	// Eight-week default, two workouts per week, starting today
	if len(plan.Workouts) != 16 {
		t.Errorf("workouts = %d, want 16", len(plan.Workouts))
	}
	wantStart := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	if plan.StartDate == nil || !plan.StartDate.Equal(wantStart) {
		t.Errorf("start = %v, want today", plan.StartDate)
	}
}

func TestHeuristicGenerateStartDateFallbacks(t *testing.T) {
	h := &Heuristic{Now: fixedClock}
	event := time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		startDate string
		eventDate *time.Time
		want      time.Time
	}{
		{"no preference uses event date", "", &event, event},
		{"unparseable preference uses event date", "next monday", &event, event},
		{"unparseable preference and no event uses today", "next monday", nil, today},
		{"parseable preference beats event date", "2026-05-04", &event, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := h.Generate(domain.GenerationContext{
				Athlete:     domain.AthleteProfile{UpcomingEventDate: tt.eventDate},
				Preferences: domain.Preferences{StartDate: tt.startDate, DurationWeeks: 1},
			})
			if plan.StartDate == nil || !plan.StartDate.Equal(tt.want) {
				t.Errorf("start = %v, want %v", plan.StartDate, tt.want)
			}
		})
	}
}

func TestHeuristicAdjustAddsRecoveryAfterHardRide(t *testing.T) {
	h := &Heuristic{Now: fixedClock}

	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	original := domain.PlanDraft{
		Goal:    "race prep",
		EndDate: &end,
		Blocks: []domain.BlockDraft{
			{Name: "Build", Workouts: []domain.WorkoutDraft{{Name: "Existing"}}},
		},
		Workouts: []domain.WorkoutDraft{{Name: "Loose"}},
	}

	adjusted := h.Adjust(domain.AdjustmentContext{
		Plan: original,
		LatestActivity: &domain.ActivitySummary{
			SportType: "ride",
			Streams: &analysis.StreamSummary{
				Power: &analysis.PowerSummary{IntensityFactor: floatP(1.12)},
			},
		},
	})

	if adjusted.Goal != "race prep (adjusted)" {
		t.Errorf("goal = %q", adjusted.Goal)
	}
	if len(adjusted.Workouts) != 2 {
		t.Fatalf("loose workouts = %d, want 2", len(adjusted.Workouts))
	}
	recovery := adjusted.Workouts[1]
	if recovery.Name != "Recovery Ride" || recovery.TargetIntensity != "recovery" {
		t.Errorf("recovery = %+v", recovery)
	}
	wantDay := end.AddDate(0, 0, 1)
	if recovery.ScheduledDate == nil || !recovery.ScheduledDate.Equal(wantDay) {
		t.Errorf("recovery day = %v, want %v", recovery.ScheduledDate, wantDay)
	}
	if len(adjusted.Blocks[0].Workouts) != 2 {
		t.Errorf("block workouts = %d, want 2", len(adjusted.Blocks[0].Workouts))
	}

	// The caller's plan must not be mutated
	if len(original.Workouts) != 1 || len(original.Blocks[0].Workouts) != 1 {
		t.Errorf("original plan mutated: %+v", original)
	}
	if original.Goal != "race prep" {
		t.Errorf("original goal mutated: %q", original.Goal)
	}
}

func TestHeuristicAdjustLeavesEasyRidesAlone(t *testing.T) {
	h := &Heuristic{Now: fixedClock}

	tests := []struct {
		name   string
		latest *domain.ActivitySummary
	}{
		{"no activity", nil},
		{"no streams", &domain.ActivitySummary{SportType: "ride"}},
		{"no power", &domain.ActivitySummary{Streams: &analysis.StreamSummary{}}},
		{"moderate intensity", &domain.ActivitySummary{
			Streams: &analysis.StreamSummary{
				Power: &analysis.PowerSummary{IntensityFactor: floatP(0.85)},
			},
		}},
		{"exactly at threshold", &domain.ActivitySummary{
			Streams: &analysis.StreamSummary{
				Power: &analysis.PowerSummary{IntensityFactor: floatP(1.05)},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := h.Adjust(domain.AdjustmentContext{
				Plan:           domain.PlanDraft{Goal: "steady"},
				LatestActivity: tt.latest,
			})
			if plan.Goal != "steady" || len(plan.Workouts) != 0 {
				t.Errorf("plan was adjusted: %+v", plan)
			}
		})
	}
}
