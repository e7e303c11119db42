package store

import "time"

// User is a local identity row.
type User struct {
	ID      int64
	Subject string
	Email   string
	Name    string
}

// TrainingPlan is a stored plan with its full block/workout tree loaded.
// Workouts holds only the loose workouts not attached to any block.
type TrainingPlan struct {
	ID        int64
	UserID    int64
	Name      string
	Goal      string
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
	CreatedAt time.Time
	Blocks    []TrainingBlock
	Workouts  []Workout
}

// TrainingBlock is an ordered phase of a plan.
type TrainingBlock struct {
	ID         int64
	PlanID     int64
	Name       string
	Focus      string
	OrderIndex int
	StartDate  *time.Time
	EndDate    *time.Time
	Workouts   []Workout
}

// Workout is a scheduled session, attached to a block or loose on the plan.
type Workout struct {
	ID              int64
	PlanID          int64
	BlockID         *int64
	ScheduledDate   *time.Time
	SportType       string
	Name            string
	Description     string
	DurationMinutes *int
	DistanceKm      *float64
	TargetIntensity string
	TargetTSS       *int
}

// PlanRevision marks one adjustment of a plan.
type PlanRevision struct {
	ID            int64
	PlanID        int64
	Version       int
	ChangeSummary string
	CreatedAt     time.Time
}

// AgentRun is a stored agent execution log row.
type AgentRun struct {
	ID         int64
	UserID     int64
	PlanID     *int64
	JobType    string
	ModelName  string
	TokensUsed *int
	CostUSD    *float64
	CreatedAt  time.Time
}
