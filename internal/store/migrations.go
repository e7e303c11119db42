package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Users (local identities; subject is the auth identifier)
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			subject TEXT NOT NULL UNIQUE,
			email TEXT,
			name TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Strava credentials (one per user)
		`CREATE TABLE IF NOT EXISTS strava_credentials (
			user_id INTEGER PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			token_type TEXT,
			scope TEXT,
			expires_at TEXT NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_strava_credentials_athlete ON strava_credentials(athlete_id)`,

		// Training plans
		`CREATE TABLE IF NOT EXISTS training_plans (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			name TEXT,
			goal TEXT,
			start_date TEXT,
			end_date TEXT,
			status TEXT NOT NULL DEFAULT 'draft',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_training_plans_user ON training_plans(user_id)`,

		// Training blocks (ordered phases within a plan)
		`CREATE TABLE IF NOT EXISTS training_blocks (
			id INTEGER PRIMARY KEY,
			plan_id INTEGER NOT NULL,
			name TEXT,
			focus TEXT,
			order_index INTEGER NOT NULL DEFAULT 0,
			start_date TEXT,
			end_date TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (plan_id) REFERENCES training_plans(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_training_blocks_plan ON training_blocks(plan_id)`,

		// Workouts (attached to a block, or loose on the plan)
		`CREATE TABLE IF NOT EXISTS workouts (
			id INTEGER PRIMARY KEY,
			plan_id INTEGER NOT NULL,
			block_id INTEGER,
			scheduled_date TEXT,
			sport_type TEXT,
			name TEXT,
			description TEXT,
			duration_minutes INTEGER,
			distance_km REAL,
			target_intensity TEXT,
			target_tss INTEGER,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (plan_id) REFERENCES training_plans(id) ON DELETE CASCADE,
			FOREIGN KEY (block_id) REFERENCES training_blocks(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_workouts_plan ON workouts(plan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_block ON workouts(block_id)`,

		// Plan revisions (monotonic version per plan)
		`CREATE TABLE IF NOT EXISTS training_plan_revisions (
			id INTEGER PRIMARY KEY,
			plan_id INTEGER NOT NULL,
			version INTEGER NOT NULL,
			change_summary TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (plan_id) REFERENCES training_plans(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_plan_revisions_plan ON training_plan_revisions(plan_id)`,

		// Agent execution logs
		`CREATE TABLE IF NOT EXISTS ai_execution_logs (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			plan_id INTEGER,
			job_type TEXT NOT NULL,
			model_name TEXT,
			prompt TEXT,
			response TEXT,
			tokens_used INTEGER,
			cost_usd REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ai_logs_user ON ai_execution_logs(user_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
