package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Analysis is a stored analysis result.
type Analysis struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Source           string             `json:"source"`
	Frames           int                `json:"frames"`
	FPS              float64            `json:"fps"`
	CameraAngle      string             `json:"camera_angle"`
	Confidence       float64            `json:"confidence"`
	Reliability      float64            `json:"reliability"`
	TransformApplied bool               `json:"transform_applied"`
	Quality          float64            `json:"quality"`
	ImpactFrame      int                `json:"impact_frame"`
	TransitionFrame  int                `json:"transition_frame"`
	Coarse           bool               `json:"coarse"`
	Issues           json.RawMessage    `json:"issues"`
	Features         []Feature          `json:"features,omitempty"`
	Phases           []Phase            `json:"phases,omitempty"`
	Weights          map[string]float64 `json:"weights,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Feature is one stored feature value.
type Feature struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// Phase is one stored phase interval.
type Phase struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// AnalysisRepository provides CRUD operations for analyses.
type AnalysisRepository struct {
	db *sql.DB
}

// Analyses returns the analysis repository for this store.
func (s *Store) Analyses() *AnalysisRepository {
	return &AnalysisRepository{db: s.db}
}

// Create inserts an analysis with its features, phases and weights in a
// single transaction.
func (r *AnalysisRepository) Create(a *Analysis) error {
	return r.create(a, nil)
}

// CreateWithSequence inserts an analysis together with the landmark
// sequence it was computed from. Either both are stored or neither is.
func (r *AnalysisRepository) CreateWithSequence(a *Analysis, sequence json.RawMessage) error {
	if sequence == nil {
		return errors.New("sequence is required")
	}
	return r.create(a, sequence)
}

func (r *AnalysisRepository) create(a *Analysis, sequence json.RawMessage) error {
	a.CreatedAt = time.Now()

	issues := a.Issues
	if issues == nil {
		issues = json.RawMessage("[]")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO analyses (id, name, source, frames, fps, camera_angle, confidence, reliability,
			transform_applied, quality, impact_frame, transition_frame, coarse, issues, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Source, a.Frames, a.FPS, a.CameraAngle, a.Confidence, a.Reliability,
		a.TransformApplied, a.Quality, a.ImpactFrame, a.TransitionFrame, a.Coarse, string(issues), a.CreatedAt,
	)
	if err != nil {
		return err
	}

	featureStmt, err := tx.Prepare(
		`INSERT INTO analysis_features (analysis_id, position, name, category, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer featureStmt.Close()
	for i, f := range a.Features {
		if _, err := featureStmt.Exec(a.ID, i, f.Name, f.Category, f.Value); err != nil {
			return err
		}
	}

	phaseStmt, err := tx.Prepare(
		`INSERT INTO analysis_phases (analysis_id, position, phase, start_frame, end_frame) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer phaseStmt.Close()
	for i, p := range a.Phases {
		if _, err := phaseStmt.Exec(a.ID, i, p.Name, p.Start, p.End); err != nil {
			return err
		}
	}

	for category, w := range a.Weights {
		if _, err := tx.Exec(
			`INSERT INTO analysis_weights (analysis_id, category, weight) VALUES (?, ?, ?)`,
			a.ID, category, w,
		); err != nil {
			return err
		}
	}

	if sequence != nil {
		if _, err := tx.Exec(
			`INSERT INTO analysis_sequences (analysis_id, data) VALUES (?, ?)`,
			a.ID, string(sequence),
		); err != nil {
			return fmt.Errorf("insert sequence: %w", err)
		}
	}

	return tx.Commit()
}

const analysisColumns = `id, name, source, frames, fps, camera_angle, confidence, reliability,
	transform_applied, quality, impact_frame, transition_frame, coarse, issues, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*Analysis, error) {
	a := &Analysis{}
	var issues string
	err := row.Scan(&a.ID, &a.Name, &a.Source, &a.Frames, &a.FPS, &a.CameraAngle, &a.Confidence,
		&a.Reliability, &a.TransformApplied, &a.Quality, &a.ImpactFrame, &a.TransitionFrame,
		&a.Coarse, &issues, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Issues = json.RawMessage(issues)
	return a, nil
}

// GetByID retrieves an analysis with its features, phases and weights.
func (r *AnalysisRepository) GetByID(id string) (*Analysis, error) {
	a, err := scanAnalysis(r.db.QueryRow(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if a.Features, err = r.features(id); err != nil {
		return nil, err
	}
	if a.Phases, err = r.phases(id); err != nil {
		return nil, err
	}
	if a.Weights, err = r.weights(id); err != nil {
		return nil, err
	}

	return a, nil
}

// List retrieves all analyses, newest first, without their features,
// phases and weights.
func (r *AnalysisRepository) List() ([]*Analysis, error) {
	rows, err := r.db.Query(`SELECT ` + analysisColumns + ` FROM analyses ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return analyses, nil
}

// Delete removes an analysis and everything attached to it.
func (r *AnalysisRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *AnalysisRepository) features(id string) ([]Feature, error) {
	rows, err := r.db.Query(
		`SELECT name, category, value FROM analysis_features WHERE analysis_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Feature
	for rows.Next() {
		var f Feature
		if err := rows.Scan(&f.Name, &f.Category, &f.Value); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) phases(id string) ([]Phase, error) {
	rows, err := r.db.Query(
		`SELECT phase, start_frame, end_frame FROM analysis_phases WHERE analysis_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Phase
	for rows.Next() {
		var p Phase
		if err := rows.Scan(&p.Name, &p.Start, &p.End); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) weights(id string) (map[string]float64, error) {
	rows, err := r.db.Query(`SELECT category, weight FROM analysis_weights WHERE analysis_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var category string
		var w float64
		if err := rows.Scan(&category, &w); err != nil {
			return nil, err
		}
		out[category] = w
	}
	return out, rows.Err()
}
