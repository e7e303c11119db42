package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"reroute/internal/analysis"
	"reroute/internal/domain"
)

// recentActivityLimit caps how much history is folded into agent contexts.
const recentActivityLimit = 5

// defaultStreamKeys is the stream set requested for every summarized
// activity.
var defaultStreamKeys = []string{"time", "distance", "heartrate", "cadence", "watts", "moving"}

// fetchRecentActivities resolves the athlete's latest rides into summaries.
// Provider failures degrade to an empty history rather than failing the
// pipeline; individual activities with unusable ids are skipped.
func (s *PlanService) fetchRecentActivities(ctx context.Context, userID int64, ftp *float64) []domain.ActivitySummary {
	if s.provider == nil {
		return nil
	}

	raw, err := s.provider.ListActivities(ctx, userID, 1, recentActivityLimit)
	if err != nil {
		s.log.Debug("activity history unavailable", map[string]any{"user_id": userID, "error": err.Error()})
		return nil
	}

	if len(raw) > recentActivityLimit {
		raw = raw[:recentActivityLimit]
	}

	summaries := make([]domain.ActivitySummary, 0, len(raw))
	for _, activity := range raw {
		if summary := s.summarizeActivity(ctx, userID, activity, ftp); summary != nil {
			summaries = append(summaries, *summary)
		}
	}
	return summaries
}

// summarizeActivity converts one raw provider payload into an
// ActivitySummary, attaching a stream summary when stream data is
// available. Returns nil when the payload has no usable id.
func (s *PlanService) summarizeActivity(ctx context.Context, userID int64, raw map[string]any, ftp *float64) *domain.ActivitySummary {
	activityID, ok := asInt64(raw["id"])
	if !ok {
		return nil
	}

	sportType := asString(raw["sport_type"])
	if sportType == "" {
		sportType = asString(raw["type"])
	}
	if sportType == "" {
		sportType = "ride"
	}

	movingTime, ok := asInt64(raw["moving_time"])
	if !ok {
		movingTime, _ = asInt64(raw["moving_time_seconds"])
	}

	var distanceKm *float64
	if meters, ok := asFloat(raw["distance"]); ok {
		km := meters / 1000.0
		distanceKm = &km
	}

	summary := &domain.ActivitySummary{
		ActivityID:        activityID,
		SportType:         sportType,
		MovingTimeSeconds: int(movingTime),
		DistanceKm:        distanceKm,
		Description:       asString(raw["description"]),
		StartDate:         parseStartDate(raw["start_date"]),
	}

	summary.Streams = s.fetchStreamSummary(ctx, userID, activityID, ftp)
	if summary.Streams != nil && summary.Streams.Power != nil {
		summary.TSS = summary.Streams.Power.TSS
	}
	return summary
}

// ActivitySummaryByID fetches and summarizes a single activity, for event
// handling where the activity is named rather than listed.
func (s *PlanService) ActivitySummaryByID(ctx context.Context, userID, activityID int64, ftp *float64) (*domain.ActivitySummary, error) {
	if s.provider == nil {
		return nil, domain.ErrNotFound
	}
	raw, err := s.provider.GetActivity(ctx, userID, activityID, false)
	if err != nil {
		return nil, err
	}
	summary := s.summarizeActivity(ctx, userID, raw, nil)
	if summary == nil {
		return nil, domain.ErrNotFound
	}
	return summary, nil
}

// ensureActivityStreams lazily attaches a stream summary to an activity
// that arrived without one.
func (s *PlanService) ensureActivityStreams(ctx context.Context, userID int64, activity domain.ActivitySummary, ftp *float64) domain.ActivitySummary {
	if activity.Streams != nil {
		return activity
	}
	activity.Streams = s.fetchStreamSummary(ctx, userID, activity.ActivityID, ftp)
	if activity.TSS == nil && activity.Streams != nil && activity.Streams.Power != nil {
		activity.TSS = activity.Streams.Power.TSS
	}
	return activity
}

func (s *PlanService) fetchStreamSummary(ctx context.Context, userID, activityID int64, ftp *float64) *analysis.StreamSummary {
	if s.provider == nil {
		return nil
	}
	payload, err := s.provider.GetActivityStreams(ctx, userID, activityID, defaultStreamKeys, true)
	if err != nil || payload == nil {
		return nil
	}
	summary := analysis.Summarize(payload, ftp, s.hrZones)
	return &summary
}

// Payload helpers. Decoded JSON carries float64 numbers, but payloads that
// went through other layers may carry native ints or json.Number.

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func parseStartDate(v any) *time.Time {
	s := asString(v)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
