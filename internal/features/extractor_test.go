package features

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/swingscope/internal/camera"
	"github.com/ayusman/swingscope/internal/phase"
	"github.com/ayusman/swingscope/internal/pose"
	"github.com/ayusman/swingscope/testdata"
)

const epsilon = 1e-6

func extract(t *testing.T, seq pose.Sequence) Extraction {
	t.Helper()
	phases := phase.NewSegmenter(phase.DefaultConfig()).Segment(seq)
	return NewExtractor(DefaultConfig()).Extract(seq, phases, camera.InPlaneAngle)
}

func requireFinite(t *testing.T, v Vector) {
	t.Helper()
	if len(v) != len(definitions) {
		t.Fatalf("vector has %d features, want %d", len(v), len(definitions))
	}
	for _, f := range v {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			t.Errorf("%s = %v", f.Name, f.Value)
		}
	}
}

func TestVectorLayout(t *testing.T) {
	names := Names()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate feature %q", n)
		}
		seen[n] = true
	}

	v := Neutral()
	requireFinite(t, v)
	for i, f := range v {
		if f.Name != names[i] {
			t.Fatalf("feature %d = %q, want %q", i, f.Name, names[i])
		}
	}

	if got, _ := v.Get(PlaneMean); got != 45 {
		t.Errorf("neutral %s = %v, want 45", PlaneMean, got)
	}
	if _, ok := v.Get("club_head_speed"); ok {
		t.Error("Get of unknown feature should fail")
	}

	total := 0
	for _, c := range camera.Categories {
		total += len(v.Category(c))
	}
	if total != len(v) {
		t.Errorf("categories cover %d features, want %d", total, len(v))
	}
}

func TestPlaneAnglesParabola(t *testing.T) {
	seq, want := testdata.ParabolaSequence(60, 2.5, 0.1)

	got, degenerate := NewExtractor(DefaultConfig()).PlaneAngles(seq, camera.InPlaneAngle)
	if degenerate != 0 {
		t.Errorf("degenerate = %d, want 0", degenerate)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("frame %d: angle = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPlaneAnglesDegenerate(t *testing.T) {
	seq := pose.StaticSequence(pose.AddressLandmarks(), 4, testdata.FPS)
	// Frame 0 and 2: hands exactly at the shoulder center.
	for _, i := range []int{0, 2} {
		f := &seq.Frames[i]
		sc := f.ShoulderCenter()
		f.Landmarks[pose.LeftWrist].Point3D = sc
		f.Landmarks[pose.RightWrist].Point3D = sc
	}

	got, degenerate := NewExtractor(DefaultConfig()).PlaneAngles(seq, camera.InPlaneAngle)
	if degenerate != 2 {
		t.Errorf("degenerate = %d, want 2", degenerate)
	}
	if got[0] != 45 {
		t.Errorf("leading degenerate frame = %v, want 45", got[0])
	}
	if got[2] != got[1] {
		t.Errorf("degenerate frame 2 = %v, want previous %v", got[2], got[1])
	}
}

func TestExtractSwing(t *testing.T) {
	ex := extract(t, testdata.SwingSequence(120, 80))
	requireFinite(t, ex.Vector)

	get := func(name string) float64 {
		v, ok := ex.Vector.Get(name)
		if !ok {
			t.Fatalf("missing %s", name)
		}
		return v
	}

	if got := get(XFactorMax); math.Abs(got-4) > epsilon {
		t.Errorf("%s = %v, want 4", XFactorMax, got)
	}
	if get(ShoulderRotationRange) <= get(HipRotationRange) {
		t.Errorf("shoulders should turn further than hips: %v <= %v",
			get(ShoulderRotationRange), get(HipRotationRange))
	}
	if got := get(RotationSequenceCorrect); got >= 0.5 {
		t.Errorf("%s = %v, want < 0.5 when shoulders lead", RotationSequenceCorrect, got)
	}
	if got := get(PlaneMax); got < 80 || got > 90 {
		t.Errorf("%s = %v, want close to 90 with the arms horizontal", PlaneMax, got)
	}
	if got := get(EarlyPlaneTendency); got != -1 {
		t.Errorf("%s = %v, want -1 for hands still hanging", EarlyPlaneTendency, got)
	}
	if get(HandPathLength) <= get(SwingWidth) {
		t.Errorf("path length %v should exceed swing width %v", get(HandPathLength), get(SwingWidth))
	}
	if got := get(ImpactTiming); math.Abs(got-80.0/120) > 0.05 {
		t.Errorf("%s = %v, want about %v", ImpactTiming, got, 80.0/120)
	}
	if get(TempoRatio) <= 1 {
		t.Errorf("%s = %v, want backswing longer than downswing", TempoRatio, get(TempoRatio))
	}
	if get(PlaneFitDeviation) <= 0 {
		t.Errorf("%s = %v, want > 0 for a curved path", PlaneFitDeviation, get(PlaneFitDeviation))
	}
	if got := get(BalanceStability); got <= 0 || got > 1 {
		t.Errorf("%s = %v, want in (0, 1]", BalanceStability, got)
	}
}

func TestExtractStatic(t *testing.T) {
	ex := extract(t, pose.StaticSequence(pose.AddressLandmarks(), 40, testdata.FPS))
	requireFinite(t, ex.Vector)

	want := map[string]float64{
		HandPathLength:          0,
		HandVelocityMax:         0,
		HandVelocityConsistency: 1,
		BalanceStability:        1,
		LateralWeightShift:      0,
		PlaneRange:              0,
		PlaneTendency:           -1,
	}
	for name, w := range want {
		if got, _ := ex.Vector.Get(name); math.Abs(got-w) > epsilon {
			t.Errorf("%s = %v, want %v", name, got, w)
		}
	}
}

func TestExtractNonFinite(t *testing.T) {
	seq := testdata.SwingSequence(60, 40)
	seq.Frames[0].Landmarks[pose.LeftWrist].X = math.NaN()
	seq.Frames[10].Landmarks[pose.RightShoulder].Y = math.Inf(1)
	seq.Frames[11].Landmarks[pose.LeftHip].Z = math.NaN()

	ex := extract(t, seq)
	requireFinite(t, ex.Vector)
	for i, a := range ex.PlaneAngles {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			t.Errorf("plane angle %d = %v", i, a)
		}
	}
	if ex.Degenerate == 0 {
		t.Error("expected degenerate measurements to be counted")
	}
}

func TestExtractEmpty(t *testing.T) {
	ex := NewExtractor(DefaultConfig()).Extract(pose.Sequence{}, phase.Boundaries{}, nil)
	if diff := cmp.Diff(Neutral(), ex.Vector); diff != "" {
		t.Errorf("empty sequence vector (-want +got):\n%s", diff)
	}
}

func TestExtractSingleFrame(t *testing.T) {
	ex := extract(t, pose.StaticSequence(pose.AddressLandmarks(), 1, testdata.FPS))
	requireFinite(t, ex.Vector)
}

func TestExtractDeterministic(t *testing.T) {
	seq := testdata.SwingSequence(100, 70)
	first := extract(t, seq)
	again := extract(t, seq)
	if diff := cmp.Diff(first, again); diff != "" {
		t.Errorf("Extract not deterministic (-first +again):\n%s", diff)
	}
}

func TestPlaneDistances(t *testing.T) {
	t.Run("planar", func(t *testing.T) {
		var points []pose.Point3D
		for i := 0; i < 20; i++ {
			x, y := float64(i%5)*0.1, float64(i/5)*0.1
			points = append(points, pose.Point3D{X: x, Y: y, Z: 0.3*x + 0.1*y + 0.2})
		}
		dist, ok := planeDistances(points)
		if !ok {
			t.Fatal("fit failed")
		}
		for i, d := range dist {
			if d > 1e-9 {
				t.Errorf("point %d distance = %v, want 0", i, d)
			}
		}
	})

	t.Run("alternating depth", func(t *testing.T) {
		points := []pose.Point3D{
			{X: 1, Y: 1, Z: 0.1},
			{X: -1, Y: 1, Z: -0.1},
			{X: -1, Y: -1, Z: 0.1},
			{X: 1, Y: -1, Z: -0.1},
		}
		dist, ok := planeDistances(points)
		if !ok {
			t.Fatal("fit failed")
		}
		for i, d := range dist {
			if math.Abs(d-0.1) > 1e-9 {
				t.Errorf("point %d distance = %v, want 0.1", i, d)
			}
		}
	})

	t.Run("too few", func(t *testing.T) {
		if _, ok := planeDistances(make([]pose.Point3D, 2)); ok {
			t.Error("two points should not fit a plane")
		}
	})
}

func TestGradient(t *testing.T) {
	got := gradient([]float64{0, 1, 4, 9})
	want := []float64{1, 2, 4, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("gradient (-want +got):\n%s", diff)
	}
	if len(gradient(nil)) != 0 {
		t.Error("gradient(nil) should be empty")
	}
}

func TestUnwrapDegrees(t *testing.T) {
	got := unwrapDegrees([]float64{170, 179, -179, -170})
	want := []float64{170, 179, 181, 190}
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("unwrap[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
