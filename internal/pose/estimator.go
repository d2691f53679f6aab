package pose

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrNoPerson is returned when an estimator finds no body in a frame.
var ErrNoPerson = errors.New("no person detected")

// Estimator defines the interface for body pose estimation implementations.
type Estimator interface {
	// Estimate analyzes a video frame and returns the body landmarks.
	// Returns ErrNoPerson if nobody is visible.
	Estimate(frame *gocv.Mat) ([NumLandmarks]Landmark, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config holds configuration options for pose estimation.
type Config struct {
	// ModelComplexity selects the MediaPipe pose model (0, 1 or 2).
	ModelComplexity int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity: 1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
