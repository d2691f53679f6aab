package pose

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// It replays a queue of landmark sets, one per Estimate call, and then
// keeps returning the last one.
type MockEstimator struct {
	mu     sync.Mutex
	frames [][NumLandmarks]Landmark
	next   int
	err    error
}

// NewMockEstimator creates a new MockEstimator instance.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetFrames sets the landmark sets that will be returned by Estimate.
func (m *MockEstimator) SetFrames(frames [][NumLandmarks]Landmark) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.next = 0
}

// SetSequence queues every frame of seq.
func (m *MockEstimator) SetSequence(seq Sequence) {
	frames := make([][NumLandmarks]Landmark, len(seq.Frames))
	for i := range seq.Frames {
		frames[i] = seq.Frames[i].Landmarks
	}
	m.SetFrames(frames)
}

// SetError sets the error that will be returned by Estimate.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Estimate returns the next queued landmark set or the configured error.
func (m *MockEstimator) Estimate(frame *gocv.Mat) ([NumLandmarks]Landmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out [NumLandmarks]Landmark
	if m.err != nil {
		return out, m.err
	}
	if len(m.frames) == 0 {
		return out, ErrNoPerson
	}

	idx := m.next
	if idx >= len(m.frames) {
		idx = len(m.frames) - 1
	} else {
		m.next++
	}
	return m.frames[idx], nil
}

// Close is a no-op for the mock estimator.
func (m *MockEstimator) Close() error {
	return nil
}

// AddressLandmarks returns a preset golfer at address filmed side-on:
// the shoulder and hip lines lie almost flat in the image plane, arms
// hang below the shoulders and the hands meet at the grip.
func AddressLandmarks() [NumLandmarks]Landmark {
	var lm [NumLandmarks]Landmark

	set := func(id ID, x, y, z float64) {
		lm[id] = Landmark{Point3D: Point3D{X: x, Y: y, Z: z}, Confidence: 0.95}
	}

	set(Nose, 0.50, 0.30, 0.00)

	// Shoulder line: width 0.16 in the image, depth 0.02.
	set(LeftShoulder, 0.42, 0.40, 0.01)
	set(RightShoulder, 0.58, 0.40, -0.01)

	set(LeftElbow, 0.44, 0.52, 0.00)
	set(RightElbow, 0.56, 0.52, 0.00)
	set(LeftWrist, 0.48, 0.64, 0.00)
	set(RightWrist, 0.52, 0.64, 0.00)

	set(LeftHip, 0.44, 0.62, 0.01)
	set(RightHip, 0.56, 0.62, -0.01)

	set(LeftKnee, 0.44, 0.78, 0.00)
	set(RightKnee, 0.56, 0.78, 0.00)
	set(LeftAnkle, 0.43, 0.92, 0.00)
	set(RightAnkle, 0.57, 0.92, 0.00)

	return lm
}

// StaticSequence returns n identical frames of the given landmarks.
func StaticSequence(lm [NumLandmarks]Landmark, n int, fps float64) Sequence {
	seq := Sequence{FPS: fps, Frames: make([]Frame, n)}
	for i := range seq.Frames {
		seq.Frames[i] = Frame{
			Index:       i,
			TimestampMs: frameTimestamp(i, fps),
			Landmarks:   lm,
		}
	}
	return seq
}

func frameTimestamp(i int, fps float64) int64 {
	if fps <= 0 {
		return 0
	}
	return int64(float64(i) * 1000 / fps)
}
