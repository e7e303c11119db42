package task

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"reroute/internal/agent"
	"reroute/internal/config"
	"reroute/internal/domain"
	"reroute/internal/logger"
	"reroute/internal/service"
	"reroute/internal/store"
	"reroute/internal/strava"
)

func newTestDispatcher(t *testing.T, cfg config.TaskConfig) (*Dispatcher, *store.User, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	user, err := st.EnsureUser(context.Background(), domain.IdentityClaims{Sub: "local"})
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	log := logger.New(logger.LevelError, io.Discard)
	svc := service.NewPlanService(st, nil, agent.New(nil, log), st, nil, log)
	return NewDispatcher(svc, cfg, log), user, st
}

// newLinkedDispatcher links the user to provider athlete 4242 so webhook
// dispatch can resolve them.
func newLinkedDispatcher(t *testing.T) (*Dispatcher, *store.User) {
	t.Helper()

	d, user, st := newTestDispatcher(t, config.TaskConfig{ForceInline: true})
	if err := st.SaveCredential(context.Background(), &strava.Credential{
		UserID:       user.ID,
		AthleteID:    4242,
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	return d, user
}

func TestInlineGenerationCompletes(t *testing.T) {
	d, user, _ := newTestDispatcher(t, config.TaskConfig{ForceInline: true})

	job := d.DispatchGeneration(context.Background(), user.ID, domain.Preferences{DurationWeeks: 1})
	if job.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", job.Status)
	}
	if job.Kind != KindGenerate {
		t.Errorf("kind = %q", job.Kind)
	}
	if job.PlanID == nil {
		t.Error("plan id not recorded")
	}
	if job.FinishedAt == nil {
		t.Error("finish time not recorded")
	}
}

func TestInlineGenerationFailureIsRecorded(t *testing.T) {
	d, _, _ := newTestDispatcher(t, config.TaskConfig{ForceInline: true})

	job := d.DispatchGeneration(context.Background(), 9999, domain.Preferences{})
	if job.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if job.Error == "" {
		t.Error("failure text missing")
	}
}

func TestBackgroundGenerationCompletes(t *testing.T) {
	d, user, _ := newTestDispatcher(t, config.TaskConfig{})

	job := d.DispatchGeneration(context.Background(), user.ID, domain.Preferences{DurationWeeks: 1})
	if job.ID == "" {
		t.Fatal("job id missing")
	}
	d.Wait()

	done := d.Job(job.ID)
	if done == nil || done.Status != StatusCompleted {
		t.Fatalf("job after wait = %+v", done)
	}
}

func TestInlineAdjustmentOnMissingPlanFails(t *testing.T) {
	d, user, _ := newTestDispatcher(t, config.TaskConfig{ForceInline: true})

	job := d.DispatchAdjustment(context.Background(), user.ID, 9999, "tired legs", nil)
	if job.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
}

func TestActivityEventFansOutPerPlan(t *testing.T) {
	d, user := newLinkedDispatcher(t)
	ctx := context.Background()

	if _, err := d.svc.GeneratePlan(ctx, user.ID, domain.Preferences{DurationWeeks: 1}); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if _, err := d.svc.GeneratePlan(ctx, user.ID, domain.Preferences{DurationWeeks: 1}); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	jobs := d.DispatchActivityEvent(ctx, domain.WebhookEvent{
		ObjectType: "activity",
		ObjectID:   55,
		AspectType: "update",
		OwnerID:    4242,
	})
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	for _, job := range jobs {
		if job.Status != StatusCompleted {
			t.Errorf("job %s status = %q, want completed", job.ID, job.Status)
		}
		if job.Kind != KindActivityEvent {
			t.Errorf("kind = %q", job.Kind)
		}
	}

	plans, err := d.svc.ListPlans(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	for _, plan := range plans {
		revisions, err := d.svc.PlanRevisions(ctx, user.ID, plan.ID)
		if err != nil {
			t.Fatalf("PlanRevisions: %v", err)
		}
		if len(revisions) != 1 || revisions[0].ChangeSummary != "Strava update event for activity 55" {
			t.Errorf("plan %d revisions = %+v", plan.ID, revisions)
		}
	}
}

func TestActivityEventIgnoresUnknownAthlete(t *testing.T) {
	d, _, _ := newTestDispatcher(t, config.TaskConfig{ForceInline: true})

	jobs := d.DispatchActivityEvent(context.Background(), domain.WebhookEvent{
		ObjectType: "activity",
		ObjectID:   1,
		AspectType: "create",
		OwnerID:    12345,
	})
	if len(jobs) != 0 {
		t.Fatalf("jobs = %d, want 0", len(jobs))
	}

	jobs = d.DispatchActivityEvent(context.Background(), domain.WebhookEvent{
		ObjectType: "athlete",
		OwnerID:    12345,
	})
	if len(jobs) != 0 {
		t.Fatalf("non-activity jobs = %d, want 0", len(jobs))
	}
}

func TestJobLookup(t *testing.T) {
	d, user, _ := newTestDispatcher(t, config.TaskConfig{ForceInline: true})

	job := d.DispatchGeneration(context.Background(), user.ID, domain.Preferences{DurationWeeks: 1})
	if got := d.Job(job.ID); got == nil || got.ID != job.ID {
		t.Fatalf("lookup = %+v", got)
	}
	if got := d.Job("nope"); got != nil {
		t.Fatalf("unexpected job %+v", got)
	}
	if got := len(d.Jobs()); got != 1 {
		t.Errorf("jobs = %d, want 1", got)
	}
}
