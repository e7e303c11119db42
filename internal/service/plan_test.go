package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"reroute/internal/agent"
	"reroute/internal/analysis"
	"reroute/internal/domain"
	"reroute/internal/logger"
	"reroute/internal/store"
	"reroute/internal/strava"
)

// fakeProvider serves canned payloads in the decoded-JSON shapes the real
// Strava client produces.
type fakeProvider struct {
	profile    map[string]any
	stats      map[string]any
	activities []map[string]any
	activity   map[int64]map[string]any
	streams    map[int64]map[string]any
	err        error
}

func (f *fakeProvider) ListActivities(ctx context.Context, userID int64, page, perPage int) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.activities, nil
}

func (f *fakeProvider) GetActivity(ctx context.Context, userID, activityID int64, includeAllEfforts bool) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if raw, ok := f.activity[activityID]; ok {
		return raw, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProvider) GetActivityStreams(ctx context.Context, userID, activityID int64, keys []string, keyByType bool) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if payload, ok := f.streams[activityID]; ok {
		return payload, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProvider) GetAthleteProfile(ctx context.Context, userID int64) (map[string]any, error) {
	if f.err != nil || f.profile == nil {
		return nil, domain.ErrUpstream
	}
	return f.profile, nil
}

func (f *fakeProvider) GetAthleteStats(ctx context.Context, userID int64) (map[string]any, error) {
	if f.err != nil || f.stats == nil {
		return nil, domain.ErrUpstream
	}
	return f.stats, nil
}

func (f *fakeProvider) ListStarredSegments(ctx context.Context, userID int64, page, perPage int) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeProvider) ExploreSegments(ctx context.Context, userID int64, bounds, activityType string) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeProvider) GetSegment(ctx context.Context, userID, segmentID int64) (map[string]any, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeProvider) ListRoutes(ctx context.Context, userID int64) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeProvider) GetRoute(ctx context.Context, userID, routeID int64) (map[string]any, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeProvider) GetRouteStreams(ctx context.Context, userID, routeID int64, keys []string) (map[string]any, error) {
	return nil, domain.ErrNotFound
}

func testLogger() *logger.Logger {
	return logger.New(logger.LevelError, io.Discard)
}

func newTestService(t *testing.T, provider domain.ActivityProvider) (*PlanService, *store.Store, *store.User) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	user, err := st.EnsureUser(context.Background(), domain.IdentityClaims{Sub: "local", Name: "Test Rider"})
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	planAgent := agent.New(nil, testLogger())
	svc := NewPlanService(st, provider, planAgent, st, []float64{120, 150, 170}, testLogger())
	return svc, st, user
}

func rideProvider() *fakeProvider {
	// One recent activity with power streams
	streams := map[string]any{
		"time":      map[string]any{"data": []any{0.0, 1.0, 2.0, 3.0}},
		"watts":     map[string]any{"data": []any{200.0, 210.0, 220.0, 230.0}},
		"heartrate": map[string]any{"data": []any{140.0, 145.0, 150.0, 155.0}},
	}
	activity := map[string]any{
		"id":          float64(101),
		"sport_type":  "Ride",
		"moving_time": float64(3600),
		"distance":    float64(40000),
		"start_date":  "2026-05-01T09:00:00Z",
	}
	return &fakeProvider{
		profile:    map[string]any{"id": float64(4242), "ftp": float64(250), "weight": float64(70)},
		stats:      map[string]any{"recent_ride_totals": map[string]any{"count": float64(8), "moving_time": float64(28800)}},
		activities: []map[string]any{activity},
		activity:   map[int64]map[string]any{101: activity},
		streams:    map[int64]map[string]any{101: streams},
	}
}

func TestGeneratePlanPersistsTree(t *testing.T) {
	svc, st, user := newTestService(t, rideProvider())
	ctx := context.Background()

	plan, err := svc.GeneratePlan(ctx, user.ID, domain.Preferences{
		Goal:          "build ftp",
		DurationWeeks: 2,
		StartDate:     "2026-05-04",
	})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	if plan.Goal != "build ftp" {
		t.Errorf("goal = %q", plan.Goal)
	}
	if plan.Status != domain.PlanStatusDraft {
		t.Errorf("status = %q", plan.Status)
	}
	if len(plan.Blocks) != 1 || plan.Blocks[0].Name != "Foundation" {
		t.Fatalf("blocks = %+v", plan.Blocks)
	}
	// Heuristic emits two workouts per week, both inside the block and loose
	if len(plan.Blocks[0].Workouts) != 4 {
		t.Errorf("block workouts = %d, want 4", len(plan.Blocks[0].Workouts))
	}
	if len(plan.Workouts) != 4 {
		t.Errorf("loose workouts = %d, want 4", len(plan.Workouts))
	}
	wantStart := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	if plan.StartDate == nil || !plan.StartDate.Equal(wantStart) {
		t.Errorf("start = %v, want %v", plan.StartDate, wantStart)
	}

	// The run was logged
	runs, err := st.RecentAgentRuns(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("RecentAgentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].JobType != "plan.generate" {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].PlanID == nil || *runs[0].PlanID != plan.ID {
		t.Errorf("run plan id = %v", runs[0].PlanID)
	}
}

func TestGeneratePlanUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t, rideProvider())

	_, err := svc.GeneratePlan(context.Background(), 9999, domain.Preferences{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGeneratePlanWithoutProvider(t *testing.T) {
	svc, _, user := newTestService(t, nil)

	plan, err := svc.GeneratePlan(context.Background(), user.ID, domain.Preferences{
		Goal:          "stay fit",
		DurationWeeks: 1,
		StartDate:     "2026-05-04",
	})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if len(plan.Workouts) != 2 {
		t.Errorf("workouts = %d, want 2", len(plan.Workouts))
	}
}

func TestAdjustPlanMergesScalarsOnly(t *testing.T) {
	svc, _, user := newTestService(t, rideProvider())
	ctx := context.Background()

	plan, err := svc.GeneratePlan(ctx, user.ID, domain.Preferences{
		DurationWeeks: 1, StartDate: "2026-05-04", Goal: "race prep",
	})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	workoutsBefore := len(plan.Workouts) + len(plan.Blocks[0].Workouts)

	hardIF := 1.2
	hard := &domain.ActivitySummary{
		ActivityID: 202,
		SportType:  "ride",
		Streams: &analysis.StreamSummary{
			Power: &analysis.PowerSummary{IntensityFactor: &hardIF},
		},
	}

	adjusted, err := svc.AdjustPlan(ctx, user.ID, plan.ID, "felt strong", hard)
	if err != nil {
		t.Fatalf("AdjustPlan: %v", err)
	}

	// The heuristic marked the goal adjusted and added a recovery workout,
	// but only scalar fields reach the stored plan.
	if adjusted.Goal != "race prep (adjusted)" {
		t.Errorf("goal = %q", adjusted.Goal)
	}
	workoutsAfter := len(adjusted.Workouts) + len(adjusted.Blocks[0].Workouts)
	if workoutsAfter != workoutsBefore {
		t.Errorf("workout tree changed: %d -> %d", workoutsBefore, workoutsAfter)
	}

	revisions, err := svc.PlanRevisions(ctx, user.ID, plan.ID)
	if err != nil {
		t.Fatalf("PlanRevisions: %v", err)
	}
	if len(revisions) != 1 || revisions[0].Version != 1 || revisions[0].ChangeSummary != "felt strong" {
		t.Errorf("revisions = %+v", revisions)
	}
}

func TestAdjustmentContextDedupsSuppliedActivity(t *testing.T) {
	svc, _, user := newTestService(t, rideProvider())

	// Same id as the provider's history entry, but with its own streams
	// and a different sport type.
	suppliedIF := 1.3
	supplied := &domain.ActivitySummary{
		ActivityID: 101,
		SportType:  "gravel",
		Streams: &analysis.StreamSummary{
			Power: &analysis.PowerSummary{IntensityFactor: &suppliedIF},
		},
	}

	pc := svc.buildAdjustmentContext(context.Background(), user.ID, domain.PlanDraft{}, "", supplied)

	occurrences := 0
	for _, item := range pc.RecentActivities {
		if item.ActivityID == 101 {
			occurrences++
		}
	}
	if occurrences != 1 {
		t.Fatalf("activity 101 appears %d times, want 1", occurrences)
	}

	latest := pc.LatestActivity
	if latest == nil || latest.ActivityID != 101 {
		t.Fatalf("latest = %+v", latest)
	}
	if latest.SportType != "gravel" {
		t.Errorf("sport = %q, want the supplied version", latest.SportType)
	}
	if latest.Streams == nil || latest.Streams.Power == nil ||
		latest.Streams.Power.IntensityFactor == nil ||
		*latest.Streams.Power.IntensityFactor != 1.3 {
		t.Errorf("streams = %+v, want the supplied version", latest.Streams)
	}
}

func TestPlanOwnership(t *testing.T) {
	svc, st, owner := newTestService(t, nil)
	ctx := context.Background()

	other, err := st.EnsureUser(ctx, domain.IdentityClaims{Sub: "other"})
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	plan, err := svc.GeneratePlan(ctx, owner.ID, domain.Preferences{DurationWeeks: 1})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	if _, err := svc.GetPlan(ctx, other.ID, plan.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("GetPlan err = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.AdjustPlan(ctx, other.ID, plan.ID, "", nil); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("AdjustPlan err = %v, want ErrPermissionDenied", err)
	}
	if err := svc.DeletePlan(ctx, other.ID, plan.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("DeletePlan err = %v, want ErrPermissionDenied", err)
	}
	// Deleting a nonexistent plan is a no-op
	if err := svc.DeletePlan(ctx, owner.ID, 9999); err != nil {
		t.Errorf("DeletePlan missing = %v, want nil", err)
	}
}

func TestUpdatePlanStatus(t *testing.T) {
	svc, _, user := newTestService(t, nil)
	ctx := context.Background()

	plan, err := svc.GeneratePlan(ctx, user.ID, domain.Preferences{DurationWeeks: 1})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	updated, err := svc.UpdatePlanStatus(ctx, user.ID, plan.ID, domain.PlanStatusActive)
	if err != nil {
		t.Fatalf("UpdatePlanStatus: %v", err)
	}
	if updated.Status != domain.PlanStatusActive {
		t.Errorf("status = %q", updated.Status)
	}
}

func TestHandleActivityEvent(t *testing.T) {
	provider := rideProvider()
	svc, st, user := newTestService(t, provider)
	ctx := context.Background()

	if err := st.SaveCredential(ctx, &strava.Credential{
		UserID:       user.ID,
		AthleteID:    4242,
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}

	planA, err := svc.GeneratePlan(ctx, user.ID, domain.Preferences{DurationWeeks: 1})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	planB, err := svc.GeneratePlan(ctx, user.ID, domain.Preferences{DurationWeeks: 1})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	event := domain.WebhookEvent{
		ObjectType: "activity",
		ObjectID:   101,
		AspectType: "create",
		OwnerID:    4242,
	}
	if err := svc.HandleActivityEvent(ctx, event); err != nil {
		t.Fatalf("HandleActivityEvent: %v", err)
	}

	for _, planID := range []int64{planA.ID, planB.ID} {
		revisions, err := svc.PlanRevisions(ctx, user.ID, planID)
		if err != nil {
			t.Fatalf("PlanRevisions: %v", err)
		}
		if len(revisions) != 1 {
			t.Errorf("plan %d revisions = %d, want 1", planID, len(revisions))
		}
		if revisions[0].ChangeSummary != "Strava create event for activity 101" {
			t.Errorf("summary = %q", revisions[0].ChangeSummary)
		}
	}

	// Unknown athletes and non-activity events are ignored
	if err := svc.HandleActivityEvent(ctx, domain.WebhookEvent{ObjectType: "activity", OwnerID: 999}); err != nil {
		t.Errorf("unknown athlete err = %v", err)
	}
	if err := svc.HandleActivityEvent(ctx, domain.WebhookEvent{ObjectType: "athlete", OwnerID: 4242}); err != nil {
		t.Errorf("non-activity err = %v", err)
	}
}

func TestRecentActivitiesSummarizes(t *testing.T) {
	svc, _, user := newTestService(t, rideProvider())

	activities := svc.RecentActivities(context.Background(), user.ID)
	if len(activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(activities))
	}
	got := activities[0]
	if got.ActivityID != 101 || got.SportType != "Ride" {
		t.Errorf("summary = %+v", got)
	}
	if got.DistanceKm == nil || *got.DistanceKm != 40.0 {
		t.Errorf("distance = %v, want 40", got.DistanceKm)
	}
	if got.Streams == nil || got.Streams.Power == nil {
		t.Fatal("stream summary missing")
	}
	if got.TSS == nil {
		t.Error("tss not derived from power summary")
	}
}
