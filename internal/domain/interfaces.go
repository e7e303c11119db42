package domain

import "context"

// ActivityProvider is the outbound interface to the athlete's fitness
// platform. Payloads come back as decoded JSON; callers extract what they
// need defensively. Implementations classify failures with the sentinel
// errors in this package (ErrNotFound, ErrRateLimited, ErrUpstream,
// ErrNotLinked) so the pipeline can degrade or retry appropriately.
type ActivityProvider interface {
	ListActivities(ctx context.Context, userID int64, page, perPage int) ([]map[string]any, error)
	GetActivity(ctx context.Context, userID, activityID int64, includeAllEfforts bool) (map[string]any, error)
	GetActivityStreams(ctx context.Context, userID, activityID int64, keys []string, keyByType bool) (map[string]any, error)
	GetAthleteProfile(ctx context.Context, userID int64) (map[string]any, error)
	GetAthleteStats(ctx context.Context, userID int64) (map[string]any, error)
	ListStarredSegments(ctx context.Context, userID int64, page, perPage int) ([]map[string]any, error)
	ExploreSegments(ctx context.Context, userID int64, bounds, activityType string) ([]map[string]any, error)
	GetSegment(ctx context.Context, userID, segmentID int64) (map[string]any, error)
	ListRoutes(ctx context.Context, userID int64) ([]map[string]any, error)
	GetRoute(ctx context.Context, userID, routeID int64) (map[string]any, error)
	GetRouteStreams(ctx context.Context, userID, routeID int64, keys []string) (map[string]any, error)
}

// PlanAgent produces or revises a training plan for a given context. It never
// fails: any internal error is converted to a heuristic plan with
// FallbackUsed set and the error text preserved in the result.
type PlanAgent interface {
	GeneratePlan(ctx context.Context, pc GenerationContext) AgentResult
	AdjustPlan(ctx context.Context, pc AdjustmentContext) AgentResult
}

// ExecutionLogSink records agent runs for observability. Writes are
// best-effort; the plan pipeline never blocks on them.
type ExecutionLogSink interface {
	RecordAgentRun(ctx context.Context, entry AgentRunRecord) error
}
