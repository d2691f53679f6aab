package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Analyses table - one row per analysed clip or sequence
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			frames INTEGER NOT NULL,
			fps REAL NOT NULL,
			camera_angle TEXT NOT NULL,
			confidence REAL NOT NULL,
			reliability REAL NOT NULL,
			transform_applied INTEGER NOT NULL DEFAULT 0,
			quality REAL NOT NULL,
			impact_frame INTEGER NOT NULL,
			transition_frame INTEGER NOT NULL,
			coarse INTEGER NOT NULL DEFAULT 0,
			issues TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Analysis features table - the ordered feature vector
		`CREATE TABLE IF NOT EXISTS analysis_features (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			value REAL NOT NULL
		)`,

		// Analysis phases table - the six phase intervals
		`CREATE TABLE IF NOT EXISTS analysis_phases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			phase TEXT NOT NULL,
			start_frame INTEGER NOT NULL,
			end_frame INTEGER NOT NULL
		)`,

		// Analysis weights table - reliability weight per feature category
		`CREATE TABLE IF NOT EXISTS analysis_weights (
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			weight REAL NOT NULL,
			PRIMARY KEY (analysis_id, category)
		)`,

		// Analysis sequences table - the raw landmark sequence as JSON
		`CREATE TABLE IF NOT EXISTS analysis_sequences (
			analysis_id TEXT PRIMARY KEY REFERENCES analyses(id) ON DELETE CASCADE,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_features_analysis_id ON analysis_features(analysis_id)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_phases_analysis_id ON analysis_phases(analysis_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
