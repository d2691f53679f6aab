package pose

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestLandmarkNames(t *testing.T) {
	for id := ID(0); id < NumLandmarks; id++ {
		got, ok := ParseID(id.String())
		if !ok || got != id {
			t.Errorf("ParseID(%q) = %v, %v", id.String(), got, ok)
		}
	}
	if _, ok := ParseID("left_eye"); ok {
		t.Error("ParseID(left_eye) should fail")
	}
}

func TestPointMath(t *testing.T) {
	a := Point3D{X: 1, Y: 2, Z: 2}
	b := Point3D{X: 0, Y: 0, Z: 0}

	if got := a.Norm(); math.Abs(got-3) > epsilon {
		t.Errorf("Norm() = %v, want 3", got)
	}
	if got := a.Norm2D(); math.Abs(got-math.Sqrt(5)) > epsilon {
		t.Errorf("Norm2D() = %v, want sqrt(5)", got)
	}
	if got := Distance(a, b); math.Abs(got-3) > epsilon {
		t.Errorf("Distance() = %v, want 3", got)
	}
	if got := Midpoint(a, b); got != (Point3D{X: 0.5, Y: 1, Z: 1}) {
		t.Errorf("Midpoint() = %+v", got)
	}
	if got := a.Sub(a.Scale(2)).Add(a); got != (Point3D{}) {
		t.Errorf("a - 2a + a = %+v, want origin", got)
	}
}

func TestLandmarkFinite(t *testing.T) {
	tests := []struct {
		name string
		p    Point3D
		want bool
	}{
		{"finite", Point3D{X: 0.5, Y: 0.5}, true},
		{"nan", Point3D{X: math.NaN()}, false},
		{"inf", Point3D{Z: math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Landmark{Point3D: tt.p}).Finite(); got != tt.want {
				t.Errorf("Finite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameCenters(t *testing.T) {
	lm := AddressLandmarks()
	f := Frame{Landmarks: lm}

	sc := f.ShoulderCenter()
	if math.Abs(sc.X-0.5) > epsilon || math.Abs(sc.Y-0.40) > epsilon {
		t.Errorf("ShoulderCenter() = %+v", sc)
	}
	hc := f.HandCenter()
	if hc.Y <= sc.Y {
		t.Errorf("hands (%v) should hang below shoulders (%v)", hc.Y, sc.Y)
	}
}

func TestSequenceClone(t *testing.T) {
	seq := StaticSequence(AddressLandmarks(), 4, 30)
	c := seq.Clone()
	c.Frames[0].Landmarks[Nose].X = 9

	if seq.Frames[0].Landmarks[Nose].X == 9 {
		t.Error("Clone shares frame storage with the original")
	}
	if c.Len() != 4 || c.FPS != 30 {
		t.Errorf("Clone() = %d frames at %v fps", c.Len(), c.FPS)
	}
	if got := (Sequence{}).Clone(); got.Frames != nil {
		t.Error("Clone of empty sequence should keep nil frames")
	}
}

func TestSpeeds(t *testing.T) {
	points := []Point3D{{}, {X: 3, Y: 4}, {X: 3, Y: 4}, {X: 3, Y: 4, Z: 1}}
	want := []float64{0, 5, 0, 1}

	got := Speeds(points)
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("Speeds()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(Speeds(nil)) != 0 {
		t.Error("Speeds(nil) should be empty")
	}
}

func TestStaticSequenceTimestamps(t *testing.T) {
	seq := StaticSequence(AddressLandmarks(), 31, 30)

	if seq.Frames[0].TimestampMs != 0 {
		t.Errorf("first timestamp = %d", seq.Frames[0].TimestampMs)
	}
	if seq.Frames[30].TimestampMs != 1000 {
		t.Errorf("frame 30 timestamp = %d, want 1000", seq.Frames[30].TimestampMs)
	}
	for i, f := range seq.Frames {
		if f.Index != i {
			t.Fatalf("frame %d has index %d", i, f.Index)
		}
	}
}
