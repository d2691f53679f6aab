package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion measurement constants
const (
	// BlurSize is the Gaussian kernel size applied before differencing.
	BlurSize = 21
	// PixelThreshold is the grey-level difference that counts as a change.
	PixelThreshold = 25
)

// MotionMeter measures how much of the picture changed since the previous
// frame, using Gaussian-blurred grey frame differencing.
type MotionMeter struct {
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionMeter creates a MotionMeter with no baseline.
func NewMotionMeter() *MotionMeter {
	return &MotionMeter{prevGray: gocv.NewMat()}
}

// Measure returns the percentage of pixels that changed against the
// previous frame. The first frame after creation or Reset returns 0.
func (m *MotionMeter) Measure(frame *gocv.Mat) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: BlurSize, Y: BlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, PixelThreshold, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(thresh)
	total := thresh.Rows() * thresh.Cols()

	blurred.CopyTo(&m.prevGray)

	return float64(changed) / float64(total) * 100.0
}

// Reset drops the baseline frame.
func (m *MotionMeter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases resources used by the meter.
func (m *MotionMeter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionMeter) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// ActiveRange returns the half-open frame range [start, end) spanning the
// first to last frame whose change exceeds threshold, widened by pad frames
// on both sides and clamped to the clip. ok is false when nothing moved.
func ActiveRange(changes []float64, threshold float64, pad int) (start, end int, ok bool) {
	first, last := -1, -1
	for i, c := range changes {
		if c > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, len(changes), false
	}
	return max(0, first-pad), min(len(changes), last+1+pad), true
}
