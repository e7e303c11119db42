package domain

import (
	"time"

	"reroute/internal/analysis"
)

// Plan lifecycle statuses
const (
	PlanStatusDraft     = "draft"
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusArchived  = "archived"
)

// IdentityClaims are the verified claims handed to us by the auth layer.
// How they were verified is not our concern.
type IdentityClaims struct {
	Sub   string
	Email string
	Name  string
}

// AthleteProfile describes the athlete as the plan agent sees them.
// Built fresh per context; goals are deduplicated on append.
type AthleteProfile struct {
	FTP                      *float64   `json:"ftp"`
	MaxHeartRate             *int       `json:"max_heart_rate"`
	WeightKg                 *float64   `json:"weight_kg"`
	PrimarySport             string     `json:"primary_sport,omitempty"`
	AvailabilityHoursPerWeek *float64   `json:"availability_hours_per_week"`
	Goals                    []string   `json:"goals"`
	UpcomingEventDate        *time.Time `json:"upcoming_event_date"`
	Timezone                 string     `json:"timezone,omitempty"`
}

// AddGoal appends goal if it is non-empty and not already present.
func (p *AthleteProfile) AddGoal(goal string) {
	if goal == "" {
		return
	}
	for _, existing := range p.Goals {
		if existing == goal {
			return
		}
	}
	p.Goals = append(p.Goals, goal)
}

// ActivitySummary is one entry of the recent-activity history handed to the
// plan agent. Created fresh per context build, never cached.
type ActivitySummary struct {
	ActivityID        int64                   `json:"activity_id"`
	SportType         string                  `json:"sport_type"`
	MovingTimeSeconds int                     `json:"moving_time_seconds"`
	DistanceKm        *float64                `json:"distance_km"`
	TSS               *float64                `json:"tss"`
	Description       string                  `json:"description,omitempty"`
	StartDate         *time.Time              `json:"start_date"`
	Streams           *analysis.StreamSummary `json:"streams"`
}

// ActivityTotals mirrors Strava's aggregate totals blocks.
type ActivityTotals struct {
	Count         int     `json:"count"`
	Distance      float64 `json:"distance"`
	MovingTime    int     `json:"moving_time"`
	ElapsedTime   int     `json:"elapsed_time"`
	ElevationGain float64 `json:"elevation_gain"`
}

// AthleteStats are Strava's athlete aggregates (recent = last 4 weeks).
type AthleteStats struct {
	BiggestRideDistance       *float64        `json:"biggest_ride_distance"`
	BiggestClimbElevationGain *float64        `json:"biggest_climb_elevation_gain"`
	RecentRideTotals          *ActivityTotals `json:"recent_ride_totals"`
	YTDRideTotals             *ActivityTotals `json:"ytd_ride_totals"`
	AllRideTotals             *ActivityTotals `json:"all_ride_totals"`
}

// Preferences are the caller-supplied free-form plan preferences.
type Preferences struct {
	Goal          string `json:"goal,omitempty"`
	DurationWeeks int    `json:"duration_weeks,omitempty"`
	StartDate     string `json:"start_date,omitempty"` // ISO date
}

// GenerationContext is the payload handed to the plan agent for a new plan.
type GenerationContext struct {
	Athlete          AthleteProfile    `json:"athlete"`
	RecentActivities []ActivitySummary `json:"recent_activities"`
	Preferences      Preferences       `json:"preferences"`
	AthleteStats     *AthleteStats     `json:"athlete_stats"`
	EmpathyCues      []string          `json:"empathy_cues"`
}

// AdjustmentContext is the payload handed to the plan agent when revising an
// existing plan after new activity data.
type AdjustmentContext struct {
	Plan             PlanDraft         `json:"plan"`
	LatestActivity   *ActivitySummary  `json:"latest_activity"`
	AdjustmentReason string            `json:"adjustment_reason,omitempty"`
	Athlete          AthleteProfile    `json:"athlete"`
	AthleteStats     *AthleteStats     `json:"athlete_stats"`
	RecentActivities []ActivitySummary `json:"recent_activities"`
	EmpathyCues      []string          `json:"empathy_cues"`
}

// WorkoutDraft is a single scheduled session in an agent-produced plan.
type WorkoutDraft struct {
	ScheduledDate   *time.Time `json:"scheduled_date" yaml:"scheduled_date,omitempty"`
	SportType       string     `json:"sport_type,omitempty" yaml:"sport_type,omitempty"`
	Name            string     `json:"name,omitempty" yaml:"name,omitempty"`
	Description     string     `json:"description,omitempty" yaml:"description,omitempty"`
	DurationMinutes *int       `json:"duration_minutes" yaml:"duration_minutes,omitempty"`
	DistanceKm      *float64   `json:"distance_km" yaml:"distance_km,omitempty"`
	TargetIntensity string     `json:"target_intensity,omitempty" yaml:"target_intensity,omitempty"`
	TargetTSS       *int       `json:"target_tss" yaml:"target_tss,omitempty"`
}

// BlockDraft is an ordered phase of a plan owning a sub-list of workouts.
type BlockDraft struct {
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Focus     string         `json:"focus,omitempty" yaml:"focus,omitempty"`
	StartDate *time.Time     `json:"start_date" yaml:"start_date,omitempty"`
	EndDate   *time.Time     `json:"end_date" yaml:"end_date,omitempty"`
	Workouts  []WorkoutDraft `json:"workouts" yaml:"workouts"`
}

// PlanDraft is the plan shape exchanged with the agent. Only its persisted
// counterpart carries row identity.
type PlanDraft struct {
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Goal      string         `json:"goal,omitempty" yaml:"goal,omitempty"`
	StartDate *time.Time     `json:"start_date" yaml:"start_date,omitempty"`
	EndDate   *time.Time     `json:"end_date" yaml:"end_date,omitempty"`
	Status    string         `json:"status" yaml:"status"`
	Blocks    []BlockDraft   `json:"blocks" yaml:"blocks"`
	Workouts  []WorkoutDraft `json:"workouts" yaml:"workouts"`
}

// TokenUsage is the token accounting reported by a model-backed agent run.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the combined token count.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// AgentResult is what a plan agent invocation always produces. When the
// model-backed path fails, FallbackUsed is true, Err carries the failure text
// and Plan holds the heuristic plan.
type AgentResult struct {
	Plan         PlanDraft
	Prompt       string
	ModelName    string
	Usage        *TokenUsage
	FallbackUsed bool
	Err          string
}

// AgentRunRecord is one observability entry for an agent invocation.
type AgentRunRecord struct {
	UserID     int64
	PlanID     *int64
	JobType    string
	ModelName  string
	Prompt     string
	Response   string
	TokensUsed *int
	CostUSD    *float64
}

// WebhookEvent is a provider push notification about an athlete's activity.
type WebhookEvent struct {
	ObjectType     string
	ObjectID       int64
	AspectType     string
	OwnerID        int64
	EventTime      int64
	SubscriptionID int64
}
