// Package agent produces training plan drafts, preferring a model-backed
// generator and falling back to a deterministic heuristic whenever the
// model is unavailable or misbehaves.
package agent

import (
	"context"
	"encoding/json"

	"reroute/internal/domain"
	"reroute/internal/logger"
)

const (
	generationSystemPrompt = "You are an expert cycling coach. Generate structured JSON plans that align with the athlete profile, Strava history, and goal. Respect recovery needs, distribute intensity, and use Strava terminology for workout types."
	adjustmentSystemPrompt = "You are an expert cycling coach adjusting an existing plan after reviewing the latest activity and metrics. Respond with an updated plan JSON that keeps previous structure but adjusts workouts when needed."
)

// Agent implements domain.PlanAgent. A nil client means heuristic-only
// operation; in that mode results always carry FallbackUsed.
type Agent struct {
	client    *OpenAIClient
	heuristic Heuristic
	log       *logger.Logger
}

// New creates a plan agent. client may be nil when no API key is configured.
func New(client *OpenAIClient, log *logger.Logger) *Agent {
	if log == nil {
		log = logger.Default()
	}
	return &Agent{client: client, log: log}
}

// GeneratePlan builds a new plan for the given context. It never returns an
// error: model failures degrade to the heuristic plan.
func (a *Agent) GeneratePlan(ctx context.Context, pc domain.GenerationContext) domain.AgentResult {
	prompt := renderPrompt("PLAN_GENERATION_CONTEXT", pc)

	if a.client != nil {
		draft, usage, err := a.client.CompletePlan(ctx, generationSystemPrompt, prompt)
		if err == nil {
			return domain.AgentResult{
				Plan:      draft,
				Prompt:    prompt,
				ModelName: a.client.Model(),
				Usage:     &usage,
			}
		}
		a.log.Warn("plan generation fell back to heuristic", logger.Fields{"error": err.Error()})
		return domain.AgentResult{
			Plan:         a.heuristic.Generate(pc),
			Prompt:       prompt,
			ModelName:    a.client.Model(),
			FallbackUsed: true,
			Err:          err.Error(),
		}
	}

	return domain.AgentResult{
		Plan:         a.heuristic.Generate(pc),
		Prompt:       prompt,
		FallbackUsed: true,
	}
}

// AdjustPlan revises an existing plan for the given context, with the same
// fallback behavior as GeneratePlan.
func (a *Agent) AdjustPlan(ctx context.Context, pc domain.AdjustmentContext) domain.AgentResult {
	prompt := renderPrompt("PLAN_ADJUSTMENT_CONTEXT", pc)

	if a.client != nil {
		draft, usage, err := a.client.CompletePlan(ctx, adjustmentSystemPrompt, prompt)
		if err == nil {
			return domain.AgentResult{
				Plan:      draft,
				Prompt:    prompt,
				ModelName: a.client.Model(),
				Usage:     &usage,
			}
		}
		a.log.Warn("plan adjustment fell back to heuristic", logger.Fields{"error": err.Error()})
		return domain.AgentResult{
			Plan:         a.heuristic.Adjust(pc),
			Prompt:       prompt,
			ModelName:    a.client.Model(),
			FallbackUsed: true,
			Err:          err.Error(),
		}
	}

	return domain.AgentResult{
		Plan:         a.heuristic.Adjust(pc),
		Prompt:       prompt,
		FallbackUsed: true,
	}
}

// renderPrompt serializes the context as labelled, indented JSON. The label
// tells the model which kind of payload follows.
func renderPrompt(label string, payload any) string {
	serialized, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return label + ":\n{}"
	}
	return label + ":\n" + string(serialized)
}
