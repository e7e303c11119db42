package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reroute/internal/domain"
)

// RecordAgentRun stores one agent execution log entry. Implements
// domain.ExecutionLogSink.
func (s *Store) RecordAgentRun(ctx context.Context, entry domain.AgentRunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_execution_logs (
			user_id, plan_id, job_type, model_name, prompt, response, tokens_used, cost_usd
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.UserID, nullInt64(entry.PlanID), entry.JobType,
		nullString(entry.ModelName), nullString(entry.Prompt), nullString(entry.Response),
		nullInt(entry.TokensUsed), nullFloat(entry.CostUSD))
	if err != nil {
		return fmt.Errorf("recording agent run: %w", err)
	}
	return nil
}

// RecentAgentRuns returns the newest agent runs for a user, without the
// prompt and response bodies.
func (s *Store) RecentAgentRuns(ctx context.Context, userID int64, limit int) ([]AgentRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, plan_id, job_type, model_name, tokens_used, cost_usd, created_at
		FROM ai_execution_logs
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AgentRun
	for rows.Next() {
		var run AgentRun
		var planID, tokensUsed sql.NullInt64
		var modelName, createdAt sql.NullString
		var costUSD sql.NullFloat64
		if err := rows.Scan(&run.ID, &run.UserID, &planID, &run.JobType,
			&modelName, &tokensUsed, &costUSD, &createdAt); err != nil {
			return nil, err
		}
		run.PlanID = int64Ptr(planID)
		run.ModelName = stringOf(modelName)
		run.TokensUsed = intPtr(tokensUsed)
		run.CostUSD = floatPtr(costUSD)
		if t, err := time.Parse(sqliteTimestamp, stringOf(createdAt)); err == nil {
			run.CreatedAt = t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
