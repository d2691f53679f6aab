// Package features turns a canonical swing sequence into a fixed, ordered
// vector of biomechanical measurements and weighs each feature category by
// how far the camera view can be trusted to measure it.
package features

import (
	"math"

	"github.com/ayusman/swingscope/internal/camera"
)

// Feature is one named measurement.
type Feature struct {
	Name     string          `json:"name"`
	Category camera.Category `json:"category"`
	Value    float64         `json:"value"`
}

// Vector is the ordered feature list. Its order and length never change.
type Vector []Feature

// definition fixes a feature's position, category and neutral value. The
// neutral value is reported whenever the measurement is undefined.
type definition struct {
	name     string
	category camera.Category
	neutral  float64
}

// Feature names.
const (
	EarlyPlaneMean      = "early_backswing_plane_mean"
	EarlyPlaneStd       = "early_backswing_plane_std"
	EarlyPlaneDeviation = "early_backswing_plane_deviation"
	EarlyPlaneTendency  = "early_backswing_plane_tendency"

	PlaneMean      = "swing_plane_mean"
	PlaneMax       = "swing_plane_max"
	PlaneMin       = "swing_plane_min"
	PlaneRange     = "swing_plane_range"
	PlaneStd       = "swing_plane_std"
	PlaneDeviation = "swing_plane_deviation"
	PlaneTendency  = "swing_plane_tendency"

	ShoulderRotationRange   = "shoulder_rotation_range"
	ShoulderRotationMax     = "shoulder_rotation_max"
	HipRotationRange        = "hip_rotation_range"
	HipRotationMax          = "hip_rotation_max"
	XFactorMean             = "x_factor_mean"
	XFactorMax              = "x_factor_max"
	RotationSequenceCorrect = "rotation_sequence_correct"

	HandPathLength      = "hand_path_length"
	HandPathSmoothness  = "hand_path_smoothness"
	SwingWidth          = "swing_width"
	SwingHeight         = "swing_height"
	SwingDepth          = "swing_depth"
	PlaneFitDeviation   = "plane_fit_deviation"
	PlaneFitConsistency = "plane_fit_consistency"

	HandVelocityMax         = "hand_velocity_max"
	HandVelocityMean        = "hand_velocity_mean"
	HandVelocityConsistency = "hand_velocity_consistency"
	ImpactTiming            = "impact_timing"
	MaxAcceleration         = "max_acceleration"
	MaxDeceleration         = "max_deceleration"
	TempoRatio              = "tempo_ratio"

	BalanceStability    = "balance_stability"
	LateralWeightShift  = "lateral_weight_shift"
	SagittalWeightShift = "sagittal_weight_shift"
	COMVerticalRange    = "com_vertical_range"
)

const neutralPlaneAngle = 45

var definitions = []definition{
	{EarlyPlaneMean, camera.SwingPlane, neutralPlaneAngle},
	{EarlyPlaneStd, camera.SwingPlane, 0},
	{EarlyPlaneDeviation, camera.SwingPlane, 0},
	{EarlyPlaneTendency, camera.SwingPlane, 0},

	{PlaneMean, camera.SwingPlane, neutralPlaneAngle},
	{PlaneMax, camera.SwingPlane, neutralPlaneAngle},
	{PlaneMin, camera.SwingPlane, neutralPlaneAngle},
	{PlaneRange, camera.SwingPlane, 0},
	{PlaneStd, camera.SwingPlane, 0},
	{PlaneDeviation, camera.SwingPlane, 0},
	{PlaneTendency, camera.SwingPlane, 0},

	{ShoulderRotationRange, camera.BodyRotation, 0},
	{ShoulderRotationMax, camera.BodyRotation, 0},
	{HipRotationRange, camera.BodyRotation, 0},
	{HipRotationMax, camera.BodyRotation, 0},
	{XFactorMean, camera.BodyRotation, 0},
	{XFactorMax, camera.BodyRotation, 0},
	{RotationSequenceCorrect, camera.BodyRotation, 0.5},

	{HandPathLength, camera.ClubPath, 0},
	{HandPathSmoothness, camera.ClubPath, 1},
	{SwingWidth, camera.ClubPath, 0},
	{SwingHeight, camera.ClubPath, 0},
	{SwingDepth, camera.ClubPath, 0},
	{PlaneFitDeviation, camera.ClubPath, 0},
	{PlaneFitConsistency, camera.ClubPath, 1},

	{HandVelocityMax, camera.Tempo, 0},
	{HandVelocityMean, camera.Tempo, 0},
	{HandVelocityConsistency, camera.Tempo, 1},
	{ImpactTiming, camera.Tempo, 0},
	{MaxAcceleration, camera.Tempo, 0},
	{MaxDeceleration, camera.Tempo, 0},
	{TempoRatio, camera.Tempo, 0},

	{BalanceStability, camera.Balance, 1},
	{LateralWeightShift, camera.Balance, 0},
	{SagittalWeightShift, camera.Balance, 0},
	{COMVerticalRange, camera.Balance, 0},
}

// Names returns every feature name in vector order.
func Names() []string {
	names := make([]string, len(definitions))
	for i, d := range definitions {
		names[i] = d.name
	}
	return names
}

// Neutral returns the vector with every feature at its neutral value.
func Neutral() Vector {
	v, _ := assemble(nil)
	return v
}

// assemble orders values by definition and substitutes the neutral value
// for anything missing or non-finite. It returns how many present values
// were non-finite.
func assemble(values map[string]float64) (Vector, int) {
	out := make(Vector, len(definitions))
	replaced := 0
	for i, d := range definitions {
		val, ok := values[d.name]
		if ok && (math.IsNaN(val) || math.IsInf(val, 0)) {
			ok = false
			replaced++
		}
		if !ok {
			val = d.neutral
		}
		out[i] = Feature{Name: d.name, Category: d.category, Value: val}
	}
	return out, replaced
}

// Get returns the value of a named feature.
func (v Vector) Get(name string) (float64, bool) {
	for _, f := range v {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Values returns the bare values in vector order.
func (v Vector) Values() []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = f.Value
	}
	return out
}

// Category returns the features of one category in vector order.
func (v Vector) Category(c camera.Category) Vector {
	var out Vector
	for _, f := range v {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}
