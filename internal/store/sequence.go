package store

import (
	"database/sql"
	"encoding/json"
	"errors"
)

// SequenceRepository stores the raw landmark sequence behind an analysis
// so it can be re-analysed later.
type SequenceRepository struct {
	db *sql.DB
}

// Sequences returns the sequence repository for this store.
func (s *Store) Sequences() *SequenceRepository {
	return &SequenceRepository{db: s.db}
}

// Save stores or replaces the sequence JSON of an analysis.
func (r *SequenceRepository) Save(analysisID string, data json.RawMessage) error {
	_, err := r.db.Exec(
		`INSERT INTO analysis_sequences (analysis_id, data) VALUES (?, ?)
		 ON CONFLICT(analysis_id) DO UPDATE SET data = excluded.data`,
		analysisID, string(data),
	)
	return err
}

// Get returns the sequence JSON of an analysis.
func (r *SequenceRepository) Get(analysisID string) (json.RawMessage, error) {
	var data string
	err := r.db.QueryRow(`SELECT data FROM analysis_sequences WHERE analysis_id = ?`, analysisID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}
