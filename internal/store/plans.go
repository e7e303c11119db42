package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reroute/internal/domain"
)

const sqliteTimestamp = "2006-01-02 15:04:05"

// CreatePlan inserts a plan's scalar fields and fills in its id. Blocks and
// workouts are added separately.
func (s *Store) CreatePlan(ctx context.Context, plan *TrainingPlan) error {
	if plan.Status == "" {
		plan.Status = domain.PlanStatusDraft
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO training_plans (user_id, name, goal, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, plan.UserID, nullString(plan.Name), nullString(plan.Goal),
		nullTime(plan.StartDate), nullTime(plan.EndDate), plan.Status)
	if err != nil {
		return fmt.Errorf("creating plan: %w", err)
	}

	plan.ID, err = res.LastInsertId()
	return err
}

// GetPlan loads a plan with its blocks, block workouts and loose workouts.
func (s *Store) GetPlan(ctx context.Context, planID int64) (*TrainingPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, goal, start_date, end_date, status, created_at
		FROM training_plans
		WHERE id = ?
	`, planID)

	plan, err := scanPlan(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadPlanTree(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlansForUser returns the user's plans, newest first, with trees loaded.
func (s *Store) ListPlansForUser(ctx context.Context, userID int64) ([]TrainingPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, goal, start_date, end_date, status, created_at
		FROM training_plans
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []TrainingPlan
	for rows.Next() {
		plan, err := scanPlanRows(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range plans {
		if err := s.loadPlanTree(ctx, &plans[i]); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// UpdatePlan writes a plan's scalar fields. Blocks and workouts are left
// untouched.
func (s *Store) UpdatePlan(ctx context.Context, plan *TrainingPlan) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE training_plans
		SET name = ?, goal = ?, start_date = ?, end_date = ?, status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, nullString(plan.Name), nullString(plan.Goal),
		nullTime(plan.StartDate), nullTime(plan.EndDate), plan.Status, plan.ID)
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("plan %d: %w", plan.ID, domain.ErrNotFound)
	}
	return nil
}

// DeletePlan removes a plan; blocks, workouts and revisions cascade.
func (s *Store) DeletePlan(ctx context.Context, planID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM training_plans WHERE id = ?`, planID)
	return err
}

// AddBlock inserts a block and fills in its id.
func (s *Store) AddBlock(ctx context.Context, block *TrainingBlock) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO training_blocks (plan_id, name, focus, order_index, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, block.PlanID, nullString(block.Name), nullString(block.Focus),
		block.OrderIndex, nullTime(block.StartDate), nullTime(block.EndDate))
	if err != nil {
		return fmt.Errorf("adding block: %w", err)
	}

	block.ID, err = res.LastInsertId()
	return err
}

// AddWorkout inserts a workout and fills in its id. BlockID nil means the
// workout hangs directly off the plan.
func (s *Store) AddWorkout(ctx context.Context, w *Workout) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO workouts (
			plan_id, block_id, scheduled_date, sport_type, name, description,
			duration_minutes, distance_km, target_intensity, target_tss
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.PlanID, nullInt64(w.BlockID), nullTime(w.ScheduledDate),
		nullString(w.SportType), nullString(w.Name), nullString(w.Description),
		nullInt(w.DurationMinutes), nullFloat(w.DistanceKm),
		nullString(w.TargetIntensity), nullInt(w.TargetTSS))
	if err != nil {
		return fmt.Errorf("adding workout: %w", err)
	}

	w.ID, err = res.LastInsertId()
	return err
}

// AddRevision appends a new revision for the plan with the next version
// number, starting at 1.
func (s *Store) AddRevision(ctx context.Context, planID int64, changeSummary string) (*PlanRevision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM training_plan_revisions WHERE plan_id = ?
	`, planID)

	var current int
	if err := row.Scan(&current); err != nil {
		return nil, err
	}

	rev := &PlanRevision{
		PlanID:        planID,
		Version:       current + 1,
		ChangeSummary: changeSummary,
		CreatedAt:     time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO training_plan_revisions (plan_id, version, change_summary)
		VALUES (?, ?, ?)
	`, planID, rev.Version, nullString(changeSummary))
	if err != nil {
		return nil, fmt.Errorf("adding revision: %w", err)
	}

	rev.ID, err = res.LastInsertId()
	return rev, err
}

// ListRevisions returns a plan's revisions, newest first.
func (s *Store) ListRevisions(ctx context.Context, planID int64) ([]PlanRevision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, version, change_summary, created_at
		FROM training_plan_revisions
		WHERE plan_id = ?
		ORDER BY version DESC
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []PlanRevision
	for rows.Next() {
		var rev PlanRevision
		var summary, createdAt sql.NullString
		if err := rows.Scan(&rev.ID, &rev.PlanID, &rev.Version, &summary, &createdAt); err != nil {
			return nil, err
		}
		rev.ChangeSummary = stringOf(summary)
		if t, err := time.Parse(sqliteTimestamp, stringOf(createdAt)); err == nil {
			rev.CreatedAt = t
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

// loadPlanTree attaches the plan's blocks and workouts. Blocks come back in
// order_index order; workouts within each list in scheduled date order.
func (s *Store) loadPlanTree(ctx context.Context, plan *TrainingPlan) error {
	blockRows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, name, focus, order_index, start_date, end_date
		FROM training_blocks
		WHERE plan_id = ?
		ORDER BY order_index
	`, plan.ID)
	if err != nil {
		return err
	}
	defer blockRows.Close()

	plan.Blocks = nil
	byBlock := map[int64]*TrainingBlock{}
	for blockRows.Next() {
		var b TrainingBlock
		var name, focus, startDate, endDate sql.NullString
		if err := blockRows.Scan(&b.ID, &b.PlanID, &name, &focus, &b.OrderIndex, &startDate, &endDate); err != nil {
			return err
		}
		b.Name = stringOf(name)
		b.Focus = stringOf(focus)
		b.StartDate = timePtr(startDate)
		b.EndDate = timePtr(endDate)
		plan.Blocks = append(plan.Blocks, b)
	}
	if err := blockRows.Err(); err != nil {
		return err
	}
	for i := range plan.Blocks {
		byBlock[plan.Blocks[i].ID] = &plan.Blocks[i]
	}

	workoutRows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, block_id, scheduled_date, sport_type, name, description,
			duration_minutes, distance_km, target_intensity, target_tss
		FROM workouts
		WHERE plan_id = ?
		ORDER BY scheduled_date, id
	`, plan.ID)
	if err != nil {
		return err
	}
	defer workoutRows.Close()

	plan.Workouts = nil
	for workoutRows.Next() {
		var w Workout
		var blockID, durationMinutes, targetTSS sql.NullInt64
		var distanceKm sql.NullFloat64
		var scheduledDate, sportType, name, description, targetIntensity sql.NullString
		if err := workoutRows.Scan(&w.ID, &w.PlanID, &blockID, &scheduledDate,
			&sportType, &name, &description, &durationMinutes, &distanceKm,
			&targetIntensity, &targetTSS); err != nil {
			return err
		}
		w.BlockID = int64Ptr(blockID)
		w.ScheduledDate = timePtr(scheduledDate)
		w.SportType = stringOf(sportType)
		w.Name = stringOf(name)
		w.Description = stringOf(description)
		w.DurationMinutes = intPtr(durationMinutes)
		w.DistanceKm = floatPtr(distanceKm)
		w.TargetIntensity = stringOf(targetIntensity)
		w.TargetTSS = intPtr(targetTSS)

		if w.BlockID != nil {
			if block, ok := byBlock[*w.BlockID]; ok {
				block.Workouts = append(block.Workouts, w)
				continue
			}
		}
		plan.Workouts = append(plan.Workouts, w)
	}
	return workoutRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row *sql.Row) (*TrainingPlan, error) {
	plan, err := scanPlanFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan: %w", domain.ErrNotFound)
	}
	return plan, err
}

func scanPlanRows(rows *sql.Rows) (*TrainingPlan, error) {
	return scanPlanFrom(rows)
}

func scanPlanFrom(row rowScanner) (*TrainingPlan, error) {
	var p TrainingPlan
	var name, goal, startDate, endDate, createdAt sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &name, &goal, &startDate, &endDate, &p.Status, &createdAt)
	if err != nil {
		return nil, err
	}
	p.Name = stringOf(name)
	p.Goal = stringOf(goal)
	p.StartDate = timePtr(startDate)
	p.EndDate = timePtr(endDate)
	if t, err := time.Parse(sqliteTimestamp, stringOf(createdAt)); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}
