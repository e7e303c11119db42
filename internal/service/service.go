// Package service orchestrates the plan pipeline: it resolves activity
// history from the provider, summarizes streams, builds agent contexts and
// persists the plans the agent produces.
package service

import (
	"time"

	"reroute/internal/domain"
	"reroute/internal/logger"
	"reroute/internal/store"
)

// PlanService ties the store, the activity provider and the plan agent
// together.
type PlanService struct {
	store    *store.Store
	provider domain.ActivityProvider
	agent    domain.PlanAgent
	logSink  domain.ExecutionLogSink
	log      *logger.Logger
	hrZones  []float64
	now      func() time.Time
}

// NewPlanService creates the service. provider and logSink may be nil; the
// pipeline then runs without activity history and without execution logs.
func NewPlanService(
	st *store.Store,
	provider domain.ActivityProvider,
	agent domain.PlanAgent,
	logSink domain.ExecutionLogSink,
	hrZones []float64,
	log *logger.Logger,
) *PlanService {
	if log == nil {
		log = logger.Default()
	}
	return &PlanService{
		store:    st,
		provider: provider,
		agent:    agent,
		logSink:  logSink,
		log:      log,
		hrZones:  hrZones,
		now:      time.Now,
	}
}
