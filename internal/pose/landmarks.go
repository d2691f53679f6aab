// Package pose provides the body-landmark types consumed by swing analysis
// and the interfaces for the external pose estimator that produces them.
package pose

import "math"

// ID identifies one tracked body landmark.
type ID int

// Body landmark indices. The set is fixed; frames always carry all of them,
// with zero confidence for landmarks the estimator did not see.
const (
	Nose ID = iota
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	NumLandmarks = 13
)

var names = [NumLandmarks]string{
	"nose",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

// LeftChain and RightChain list the landmarks on each side of the body.
var (
	LeftChain  = []ID{LeftShoulder, LeftElbow, LeftWrist, LeftHip, LeftKnee, LeftAnkle}
	RightChain = []ID{RightShoulder, RightElbow, RightWrist, RightHip, RightKnee, RightAnkle}
)

// String returns the snake_case landmark name.
func (id ID) String() string {
	if id < 0 || int(id) >= NumLandmarks {
		return "unknown"
	}
	return names[id]
}

// ParseID looks up a landmark by its snake_case name.
func ParseID(name string) (ID, bool) {
	for i, n := range names {
		if n == name {
			return ID(i), true
		}
	}
	return 0, false
}

// Point3D represents a 3D point in normalized image space.
// Y grows downward, Z grows away from the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns p + q.
func (p Point3D) Add(q Point3D) Point3D {
	return Point3D{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Scale returns p * s.
func (p Point3D) Scale(s float64) Point3D {
	return Point3D{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
}

// Norm returns the Euclidean length of p.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Norm2D returns the length of p projected onto the image (X/Y) plane.
func (p Point3D) Norm2D() float64 {
	return math.Hypot(p.X, p.Y)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3D) Point3D {
	return Point3D{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
}

// Distance calculates the Euclidean distance between two 3D points.
func Distance(a, b Point3D) float64 {
	return a.Sub(b).Norm()
}

// Landmark is one detected body point with its detection confidence in [0,1].
type Landmark struct {
	Point3D
	Confidence float64 `json:"confidence"`
}

// Finite reports whether every coordinate is a finite number.
func (l Landmark) Finite() bool {
	for _, v := range [3]float64{l.X, l.Y, l.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Frame holds all landmarks detected in one video frame.
type Frame struct {
	Index       int
	TimestampMs int64
	Landmarks   [NumLandmarks]Landmark
}

// Point returns the position of a landmark.
func (f *Frame) Point(id ID) Point3D {
	return f.Landmarks[id].Point3D
}

// Confidence returns the detection confidence of a landmark.
func (f *Frame) Confidence(id ID) float64 {
	return f.Landmarks[id].Confidence
}

// ShoulderCenter returns the midpoint of both shoulders.
func (f *Frame) ShoulderCenter() Point3D {
	return Midpoint(f.Point(LeftShoulder), f.Point(RightShoulder))
}

// HipCenter returns the midpoint of both hips.
func (f *Frame) HipCenter() Point3D {
	return Midpoint(f.Point(LeftHip), f.Point(RightHip))
}

// HandCenter returns the midpoint of both wrists, used as the grip position.
func (f *Frame) HandCenter() Point3D {
	return Midpoint(f.Point(LeftWrist), f.Point(RightWrist))
}

// Sequence is a time-ordered list of frames captured at a constant rate.
// Transforms never modify a Sequence in place; they build a new one.
type Sequence struct {
	FPS    float64
	Frames []Frame
}

// Len returns the number of frames.
func (s Sequence) Len() int {
	return len(s.Frames)
}

// Clone returns a deep copy of the sequence.
func (s Sequence) Clone() Sequence {
	out := Sequence{FPS: s.FPS}
	if s.Frames != nil {
		out.Frames = make([]Frame, len(s.Frames))
		copy(out.Frames, s.Frames)
	}
	return out
}

// HandCenters returns the grip position for every frame.
func (s Sequence) HandCenters() []Point3D {
	points := make([]Point3D, len(s.Frames))
	for i := range s.Frames {
		points[i] = s.Frames[i].HandCenter()
	}
	return points
}

// Speeds returns the frame-to-frame displacement magnitude of a point track.
// The first entry is always zero.
func Speeds(points []Point3D) []float64 {
	v := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		v[i] = Distance(points[i], points[i-1])
	}
	return v
}
