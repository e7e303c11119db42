// Package task dispatches plan-agent jobs either inline or on background
// goroutines, tracking each job's lifecycle so callers can poll for the
// outcome.
package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reroute/internal/config"
	"reroute/internal/domain"
	"reroute/internal/logger"
	"reroute/internal/service"
	"reroute/internal/store"
)

// Job statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job kinds.
const (
	KindGenerate      = "plan.generate"
	KindAdjust        = "plan.adjust"
	KindActivityEvent = "activity.event"
)

const defaultJobTimeout = 5 * time.Minute

// Job is one dispatched unit of agent work.
type Job struct {
	ID         string
	Kind       string
	Status     string
	UserID     int64
	PlanID     *int64
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// Dispatcher runs plan jobs. With ForceInline set every job completes
// before dispatch returns; otherwise jobs run on their own goroutine with
// a bounded deadline and the returned Job starts out queued.
type Dispatcher struct {
	svc     *service.PlanService
	log     *logger.Logger
	inline  bool
	timeout time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

// NewDispatcher creates a Dispatcher for the given service.
func NewDispatcher(svc *service.PlanService, cfg config.TaskConfig, log *logger.Logger) *Dispatcher {
	timeout := defaultJobTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Dispatcher{
		svc:     svc,
		log:     log,
		inline:  cfg.ForceInline,
		timeout: timeout,
		jobs:    make(map[string]*Job),
	}
}

// DispatchGeneration queues a plan generation job.
func (d *Dispatcher) DispatchGeneration(ctx context.Context, userID int64, prefs domain.Preferences) *Job {
	return d.dispatch(ctx, KindGenerate, userID, func(runCtx context.Context) (*store.TrainingPlan, error) {
		return d.svc.GeneratePlan(runCtx, userID, prefs)
	})
}

// DispatchAdjustment queues an adjustment job for an existing plan.
func (d *Dispatcher) DispatchAdjustment(ctx context.Context, userID, planID int64, reason string, activity *domain.ActivitySummary) *Job {
	return d.dispatch(ctx, KindAdjust, userID, func(runCtx context.Context) (*store.TrainingPlan, error) {
		return d.svc.AdjustPlan(runCtx, userID, planID, reason, activity)
	})
}

// DispatchActivityEvent fans a provider webhook event out into one
// adjustment job per plan the event's athlete owns. Non-activity events
// and unknown athletes dispatch nothing.
func (d *Dispatcher) DispatchActivityEvent(ctx context.Context, event domain.WebhookEvent) []*Job {
	if !strings.EqualFold(event.ObjectType, "activity") {
		return nil
	}

	userID, plans, err := d.svc.PlansForAthlete(ctx, event.OwnerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotLinked) {
			d.log.Warn("resolving athlete plans failed", logger.Fields{"athlete_id": event.OwnerID, "error": err.Error()})
		}
		return nil
	}

	reason := fmt.Sprintf("Strava %s event for activity %d", event.AspectType, event.ObjectID)
	jobs := make([]*Job, 0, len(plans))
	for _, plan := range plans {
		planID := plan.ID
		jobs = append(jobs, d.dispatch(ctx, KindActivityEvent, userID, func(runCtx context.Context) (*store.TrainingPlan, error) {
			return d.svc.AdjustPlan(runCtx, userID, planID, reason, nil)
		}))
	}
	return jobs
}

// Job returns a snapshot of the job with the given id, or nil.
func (d *Dispatcher) Job(id string) *Job {
	d.mu.RLock()
	defer d.mu.RUnlock()
	job, ok := d.jobs[id]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// Jobs returns a snapshot of every tracked job.
func (d *Dispatcher) Jobs() []Job {
	d.mu.RLock()
	defer d.mu.RUnlock()
	jobs := make([]Job, 0, len(d.jobs))
	for _, job := range d.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// Wait blocks until every background job has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, userID int64, run func(context.Context) (*store.TrainingPlan, error)) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusQueued,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	d.mu.Lock()
	d.jobs[job.ID] = job
	d.mu.Unlock()

	if d.inline {
		d.execute(ctx, job, run)
		return d.Job(job.ID)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.execute(runCtx, job, run)
	}()
	return d.Job(job.ID)
}

func (d *Dispatcher) execute(ctx context.Context, job *Job, run func(context.Context) (*store.TrainingPlan, error)) {
	d.setStatus(job.ID, StatusRunning, nil, "")

	plan, err := run(ctx)
	var planID *int64
	if plan != nil {
		planID = &plan.ID
	}
	if err != nil {
		d.log.Warn("job failed", logger.Fields{"job_id": job.ID, "kind": job.Kind, "error": err.Error()})
		d.setStatus(job.ID, StatusFailed, planID, err.Error())
		return
	}
	d.setStatus(job.ID, StatusCompleted, planID, "")
}

func (d *Dispatcher) setStatus(id, status string, planID *int64, errText string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	job, ok := d.jobs[id]
	if !ok {
		return
	}
	job.Status = status
	job.Error = errText
	if planID != nil {
		job.PlanID = planID
	}
	if status == StatusCompleted || status == StatusFailed {
		now := time.Now().UTC()
		job.FinishedAt = &now
	}
}
