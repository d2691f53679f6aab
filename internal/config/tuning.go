// Package config loads the optional tuning file that overrides the
// empirically chosen analysis constants.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/swingscope/internal/analysis"
)

// TuningConfig holds optional overrides. A nil field keeps the built-in
// default, so partial files are safe.
type TuningConfig struct {
	// Camera classification
	MinConfidence   *float64 `json:"min_confidence,omitempty"`
	CoordinateBound *float64 `json:"coordinate_bound,omitempty"`
	MinAngleScore   *float64 `json:"min_angle_score,omitempty"`
	SideOnRatio     *float64 `json:"side_on_ratio,omitempty"`
	AngledRatio     *float64 `json:"angled_ratio,omitempty"`
	FrontOnRatio    *float64 `json:"front_on_ratio,omitempty"`

	// Phase segmentation
	SmoothingWindow  *int `json:"smoothing_window,omitempty"`
	PolyOrder        *int `json:"poly_order,omitempty"`
	MinFrames        *int `json:"min_frames,omitempty"`
	ShortFrames      *int `json:"short_frames,omitempty"`
	TransitionMargin *int `json:"transition_margin,omitempty"`
	BackswingOverrun *int `json:"backswing_overrun,omitempty"`
	ImpactHalfWidth  *int `json:"impact_half_width,omitempty"`
	MinimumBefore    *int `json:"minimum_before,omitempty"`
	MinimumAfter     *int `json:"minimum_after,omitempty"`

	// Feature extraction
	IdealPlaneAngle   *float64 `json:"ideal_plane_angle,omitempty"`
	UprightPlaneAngle *float64 `json:"upright_plane_angle,omitempty"`
	FlatPlaneAngle    *float64 `json:"flat_plane_angle,omitempty"`
	EarlyBackswingMin *int     `json:"early_backswing_min,omitempty"`
	EarlyBackswingMax *int     `json:"early_backswing_max,omitempty"`
	Epsilon           *float64 `json:"epsilon,omitempty"`

	// Result quality
	MajorityRatio *float64 `json:"majority_ratio,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to the
// built-in default.
func DefaultTuningConfig() *TuningConfig {
	d := analysis.DefaultConfig()
	return &TuningConfig{
		MinConfidence:     ptrFloat64(d.Camera.MinConfidence),
		CoordinateBound:   ptrFloat64(d.Camera.CoordinateBound),
		MinAngleScore:     ptrFloat64(d.Camera.MinScore),
		SideOnRatio:       ptrFloat64(d.Camera.SideOnRatio),
		AngledRatio:       ptrFloat64(d.Camera.AngledRatio),
		FrontOnRatio:      ptrFloat64(d.Camera.FrontOnRatio),
		SmoothingWindow:   ptrInt(d.Phase.MaxWindow),
		PolyOrder:         ptrInt(d.Phase.PolyOrder),
		MinFrames:         ptrInt(d.Phase.MinFrames),
		ShortFrames:       ptrInt(d.Phase.ShortFrames),
		TransitionMargin:  ptrInt(d.Phase.TransitionMargin),
		BackswingOverrun:  ptrInt(d.Phase.BackswingOverrun),
		ImpactHalfWidth:   ptrInt(d.Phase.ImpactHalfWidth),
		MinimumBefore:     ptrInt(d.Phase.MinimumBefore),
		MinimumAfter:      ptrInt(d.Phase.MinimumAfter),
		IdealPlaneAngle:   ptrFloat64(d.Features.IdealPlaneAngle),
		UprightPlaneAngle: ptrFloat64(d.Features.UprightPlaneAngle),
		FlatPlaneAngle:    ptrFloat64(d.Features.FlatPlaneAngle),
		EarlyBackswingMin: ptrInt(d.Features.EarlyBackswingMin),
		EarlyBackswingMax: ptrInt(d.Features.EarlyBackswingMax),
		Epsilon:           ptrFloat64(d.Features.Epsilon),
		MajorityRatio:     ptrFloat64(d.MajorityRatio),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	for name, v := range map[string]*float64{
		"min_confidence":  c.MinConfidence,
		"min_angle_score": c.MinAngleScore,
		"majority_ratio":  c.MajorityRatio,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	for name, v := range map[string]*float64{
		"coordinate_bound": c.CoordinateBound,
		"epsilon":          c.Epsilon,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}

	for name, v := range map[string]*int{
		"smoothing_window":  c.SmoothingWindow,
		"short_frames":      c.ShortFrames,
		"transition_margin": c.TransitionMargin,
		"backswing_overrun": c.BackswingOverrun,
		"impact_half_width": c.ImpactHalfWidth,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}

	for name, v := range map[string]*int{
		"minimum_before": c.MinimumBefore,
		"minimum_after":  c.MinimumAfter,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, *v)
		}
	}
	if c.PolyOrder != nil && (*c.PolyOrder < 0 || *c.PolyOrder > 5) {
		return fmt.Errorf("poly_order must be between 0 and 5, got %d", *c.PolyOrder)
	}
	if c.MinFrames != nil && *c.MinFrames < 1 {
		return fmt.Errorf("min_frames must be at least 1, got %d", *c.MinFrames)
	}

	upright, flat := c.GetUprightPlaneAngle(), c.GetFlatPlaneAngle()
	if upright < 0 || flat > 90 || upright > flat {
		return fmt.Errorf("plane angle band must satisfy 0 <= upright (%f) <= flat (%f) <= 90", upright, flat)
	}

	lo, hi := c.GetEarlyBackswingMin(), c.GetEarlyBackswingMax()
	if lo < 1 || lo > hi {
		return fmt.Errorf("early backswing frames must satisfy 1 <= min (%d) <= max (%d)", lo, hi)
	}

	return nil
}

// GetUprightPlaneAngle returns the upright_plane_angle value or the default.
func (c *TuningConfig) GetUprightPlaneAngle() float64 {
	if c.UprightPlaneAngle == nil {
		return analysis.DefaultConfig().Features.UprightPlaneAngle
	}
	return *c.UprightPlaneAngle
}

// GetFlatPlaneAngle returns the flat_plane_angle value or the default.
func (c *TuningConfig) GetFlatPlaneAngle() float64 {
	if c.FlatPlaneAngle == nil {
		return analysis.DefaultConfig().Features.FlatPlaneAngle
	}
	return *c.FlatPlaneAngle
}

// GetEarlyBackswingMin returns the early_backswing_min value or the default.
func (c *TuningConfig) GetEarlyBackswingMin() int {
	if c.EarlyBackswingMin == nil {
		return analysis.DefaultConfig().Features.EarlyBackswingMin
	}
	return *c.EarlyBackswingMin
}

// GetEarlyBackswingMax returns the early_backswing_max value or the default.
func (c *TuningConfig) GetEarlyBackswingMax() int {
	if c.EarlyBackswingMax == nil {
		return analysis.DefaultConfig().Features.EarlyBackswingMax
	}
	return *c.EarlyBackswingMax
}

// AnalysisConfig returns the analysis defaults with every set field applied.
func (c *TuningConfig) AnalysisConfig() analysis.Config {
	cfg := analysis.DefaultConfig()

	overrideFloat(&cfg.Camera.MinConfidence, c.MinConfidence)
	overrideFloat(&cfg.Camera.CoordinateBound, c.CoordinateBound)
	overrideFloat(&cfg.Camera.MinScore, c.MinAngleScore)
	overrideFloat(&cfg.Camera.SideOnRatio, c.SideOnRatio)
	overrideFloat(&cfg.Camera.AngledRatio, c.AngledRatio)
	overrideFloat(&cfg.Camera.FrontOnRatio, c.FrontOnRatio)

	overrideInt(&cfg.Phase.MaxWindow, c.SmoothingWindow)
	overrideInt(&cfg.Phase.PolyOrder, c.PolyOrder)
	overrideInt(&cfg.Phase.MinFrames, c.MinFrames)
	overrideInt(&cfg.Phase.ShortFrames, c.ShortFrames)
	overrideInt(&cfg.Phase.TransitionMargin, c.TransitionMargin)
	overrideInt(&cfg.Phase.BackswingOverrun, c.BackswingOverrun)
	overrideInt(&cfg.Phase.ImpactHalfWidth, c.ImpactHalfWidth)
	overrideInt(&cfg.Phase.MinimumBefore, c.MinimumBefore)
	overrideInt(&cfg.Phase.MinimumAfter, c.MinimumAfter)

	overrideFloat(&cfg.Features.IdealPlaneAngle, c.IdealPlaneAngle)
	overrideFloat(&cfg.Features.UprightPlaneAngle, c.UprightPlaneAngle)
	overrideFloat(&cfg.Features.FlatPlaneAngle, c.FlatPlaneAngle)
	overrideInt(&cfg.Features.EarlyBackswingMin, c.EarlyBackswingMin)
	overrideInt(&cfg.Features.EarlyBackswingMax, c.EarlyBackswingMax)
	overrideFloat(&cfg.Features.Epsilon, c.Epsilon)

	overrideFloat(&cfg.MajorityRatio, c.MajorityRatio)
	return cfg
}

func overrideFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func overrideInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
