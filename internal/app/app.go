// Package app wires the swing analysis pipeline to its collaborators: clip
// decoding, pose estimation and storage.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/swingscope/internal/analysis"
	"github.com/ayusman/swingscope/internal/capture"
	"github.com/ayusman/swingscope/internal/phase"
	"github.com/ayusman/swingscope/internal/pose"
	"github.com/ayusman/swingscope/internal/store"
)

// Clip trimming defaults.
const (
	// DefaultMotionThresh is the changed-pixel percentage that counts as motion.
	DefaultMotionThresh = 1.0
	// DefaultTrimPadding is how many still frames are kept around the motion.
	DefaultTrimPadding = 15
)

// Config holds configuration options for the application.
type Config struct {
	// Store persists results when set.
	Store *store.Store
	// Analysis defaults to analysis.DefaultConfig() when nil.
	Analysis *analysis.Config
	// TrimStill drops the still frames before and after the swing.
	TrimStill    bool
	MotionThresh float64
	TrimPadding  int
}

// App runs analyses and stores their results.
type App struct {
	config    Config
	analyzer  *analysis.Analyzer
	estimator pose.Estimator
	mu        sync.RWMutex
}

// Report is one finished analysis.
type Report struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Source string          `json:"source"`
	Result analysis.Result `json:"result"`
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	analysisCfg := analysis.DefaultConfig()
	if config.Analysis != nil {
		analysisCfg = *config.Analysis
	}
	if config.MotionThresh <= 0 {
		config.MotionThresh = DefaultMotionThresh
	}
	if config.TrimPadding <= 0 {
		config.TrimPadding = DefaultTrimPadding
	}

	a := &App{
		config:   config,
		analyzer: analysis.NewAnalyzer(analysisCfg),
	}

	// Try MediaPipe first, fall back to mock estimator
	if mp, err := pose.NewMediaPipeEstimator(pose.DefaultConfig()); err == nil {
		a.estimator = mp
		log.Println("Using MediaPipe pose estimation")
	} else {
		log.Printf("MediaPipe not available (%v), using mock estimator", err)
		a.estimator = pose.NewMockEstimator()
	}

	return a
}

// SetEstimator sets the pose estimator used for clips.
func (a *App) SetEstimator(e pose.Estimator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.estimator = e
}

// Estimator returns the pose estimator.
func (a *App) Estimator() pose.Estimator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.estimator
}

// Analyzer returns the analyzer.
func (a *App) Analyzer() *analysis.Analyzer {
	return a.analyzer
}

// Store returns the configured store, or nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Close releases the pose estimator.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.estimator == nil {
		return nil
	}
	return a.estimator.Close()
}

// AnalyzeClip decodes the video at path, estimates a pose per frame and
// analyses the resulting sequence.
func (a *App) AnalyzeClip(path string) (*Report, error) {
	seq, err := a.ReadSequence(capture.NewClip(path))
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return a.AnalyzeSequence(name, path, seq)
}

// AnalyzeSequence analyses seq and stores the result when a store is
// configured.
func (a *App) AnalyzeSequence(name, source string, seq pose.Sequence) (*Report, error) {
	res := a.analyzer.Analyze(seq)
	report := &Report{
		ID:     uuid.New().String(),
		Name:   name,
		Source: source,
		Result: res,
	}

	log.Printf("Analysed %q: %d frames, angle=%s confidence=%.2f quality=%.2f issues=%d",
		name, seq.Len(), res.CameraAngle.Angle, res.CameraAngle.Confidence, res.Quality, len(res.Issues))
	for _, is := range res.Issues {
		log.Printf("  %s: %s", is.Kind, is.Detail)
	}

	if a.config.Store == nil {
		return report, nil
	}

	record, err := Record(report, seq.FPS)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(seq)
	if err != nil {
		return nil, fmt.Errorf("encode sequence: %w", err)
	}
	if err := a.config.Store.Analyses().CreateWithSequence(record, data); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	return report, nil
}

// Record converts a report into its stored form.
func Record(r *Report, fps float64) (*store.Analysis, error) {
	res := r.Result

	issues := []analysis.Issue{}
	if res.Issues != nil {
		issues = res.Issues
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return nil, fmt.Errorf("encode issues: %w", err)
	}

	rec := &store.Analysis{
		ID:               r.ID,
		Name:             r.Name,
		Source:           r.Source,
		Frames:           res.Phases.Frames,
		FPS:              fps,
		CameraAngle:      res.CameraAngle.Angle.String(),
		Confidence:       res.CameraAngle.Confidence,
		Reliability:      res.CameraAngle.Reliability,
		TransformApplied: res.TransformApplied,
		Quality:          res.Quality,
		ImpactFrame:      res.Phases.ImpactFrame,
		TransitionFrame:  res.Phases.TransitionFrame,
		Coarse:           res.Phases.Coarse,
		Issues:           issuesJSON,
		Weights:          make(map[string]float64, len(res.Weights)),
	}

	for _, f := range res.Features {
		rec.Features = append(rec.Features, store.Feature{
			Name:     f.Name,
			Category: string(f.Category),
			Value:    f.Value,
		})
	}
	for p, iv := range res.Phases.Intervals {
		rec.Phases = append(rec.Phases, store.Phase{
			Name:  phase.Phase(p).String(),
			Start: iv.Start,
			End:   iv.End,
		})
	}
	for c, w := range res.Weights {
		rec.Weights[string(c)] = w
	}

	return rec, nil
}
