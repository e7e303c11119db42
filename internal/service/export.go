package service

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"reroute/internal/domain"
	"reroute/internal/store"
)

// ExportPlanYAML renders a plan as YAML for editing outside the app.
func (s *PlanService) ExportPlanYAML(ctx context.Context, userID, planID int64) ([]byte, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(draftFromStored(plan))
	if err != nil {
		return nil, fmt.Errorf("encoding plan yaml: %w", err)
	}
	return out, nil
}

// ImportPlanYAML parses an exported or hand-written YAML plan and persists
// it as a new plan for the user.
func (s *PlanService) ImportPlanYAML(ctx context.Context, userID int64, data []byte) (*store.TrainingPlan, error) {
	var draft domain.PlanDraft
	if err := yaml.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("parsing plan yaml: %w", err)
	}
	if draft.Status == "" {
		draft.Status = domain.PlanStatusDraft
	}
	return s.persistDraft(ctx, userID, draft)
}
