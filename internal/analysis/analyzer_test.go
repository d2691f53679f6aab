package analysis

import (
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/swingscope/internal/camera"
	"github.com/ayusman/swingscope/internal/features"
	"github.com/ayusman/swingscope/internal/phase"
	"github.com/ayusman/swingscope/internal/pose"
	"github.com/ayusman/swingscope/testdata"
)

func newAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultConfig())
}

func checkInvariants(t *testing.T, res Result, n int) {
	t.Helper()
	if !res.Phases.Valid() || res.Phases.Frames != n {
		t.Errorf("phases %+v do not partition [0, %d)", res.Phases.Intervals, n)
	}
	if len(res.Features) != len(features.Names()) {
		t.Errorf("got %d features, want %d", len(res.Features), len(features.Names()))
	}
	for _, f := range res.Features {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			t.Errorf("feature %s = %v", f.Name, f.Value)
		}
	}
	for _, c := range camera.Categories {
		w, ok := res.Weights[c]
		if !ok || w < 0 || w > 1 {
			t.Errorf("weight %s = %v, %v", c, w, ok)
		}
	}
	if res.Quality < 0 || res.Quality > 1 {
		t.Errorf("Quality = %v", res.Quality)
	}
}

func TestAnalyzeSideOnSwing(t *testing.T) {
	seq := testdata.SwingSequence(120, 80)
	res := newAnalyzer().Analyze(seq)
	checkInvariants(t, res, 120)

	if res.CameraAngle.Angle != camera.SideOn || res.CameraAngle.Confidence <= 0.7 {
		t.Errorf("camera = %v (%.2f), want side_on > 0.7", res.CameraAngle.Angle, res.CameraAngle.Confidence)
	}
	if res.TransformApplied {
		t.Error("side-on clip should not be transformed")
	}
	if diff := cmp.Diff(seq, res.Transformed); diff != "" {
		t.Errorf("side-on transform is not the identity (-want +got):\n%s", diff)
	}
	if res.Quality <= 0.7 {
		t.Errorf("Quality = %v, want > 0.7", res.Quality)
	}
	if len(res.Issues) != 0 {
		t.Errorf("unexpected issues: %+v", res.Issues)
	}
	if !res.Phases.Get(phase.Impact).Contains(80) {
		t.Errorf("Impact = %+v, want it to contain 80", res.Phases.Get(phase.Impact))
	}
}

func TestAnalyzeSpike(t *testing.T) {
	res := newAnalyzer().Analyze(testdata.SpikeSequence(120, 80))
	checkInvariants(t, res, 120)

	impact := res.Phases.Get(phase.Impact)
	if center := (impact.Start + impact.End) / 2; center < 77 || center > 83 {
		t.Errorf("Impact = %+v, want centered within 3 frames of 80", impact)
	}
	if res.Phases.Get(phase.Backswing).End >= 80 {
		t.Errorf("Backswing = %+v, want it to end before 80", res.Phases.Get(phase.Backswing))
	}
}

func TestAnalyzeInvisible(t *testing.T) {
	res := newAnalyzer().Analyze(testdata.InvisibleSequence(30))
	checkInvariants(t, res, 30)

	if !res.Has(InvalidSequence) {
		t.Errorf("issues = %+v, want invalid_sequence", res.Issues)
	}
	if res.CameraAngle.Angle != camera.Unknown || res.CameraAngle.Confidence != 0 {
		t.Errorf("camera = %v (%v), want unknown with zero confidence", res.CameraAngle.Angle, res.CameraAngle.Confidence)
	}
	if res.Quality != 0 {
		t.Errorf("Quality = %v, want 0", res.Quality)
	}
	for _, c := range camera.Categories {
		if res.Weights[c] != 0.5 {
			t.Errorf("weight %s = %v, want 0.5", c, res.Weights[c])
		}
	}
	if diff := cmp.Diff(features.Neutral(), res.Features); diff != "" {
		t.Errorf("features not neutral (-want +got):\n%s", diff)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	res := newAnalyzer().Analyze(pose.Sequence{})
	checkInvariants(t, res, 0)

	if !res.Has(InvalidSequence) {
		t.Errorf("issues = %+v, want invalid_sequence", res.Issues)
	}
	if res.Quality != 0 {
		t.Errorf("Quality = %v, want 0", res.Quality)
	}
}

func TestAnalyzeShort(t *testing.T) {
	res := newAnalyzer().Analyze(pose.StaticSequence(pose.AddressLandmarks(), 3, testdata.FPS))
	checkInvariants(t, res, 3)

	if !res.Has(ShortSequence) {
		t.Errorf("issues = %+v, want short_sequence", res.Issues)
	}
	if res.Has(InvalidSequence) {
		t.Error("a short but visible clip is not invalid")
	}
	if !res.Phases.Coarse || res.Phases.Get(phase.Setup).Len() != 3 {
		t.Errorf("phases = %+v, want one coarse setup phase", res.Phases)
	}
	if res.Quality <= 0 {
		t.Errorf("Quality = %v, want > 0", res.Quality)
	}
}

func TestAnalyzeMostlyInvisible(t *testing.T) {
	seq := testdata.SwingSequence(60, 40)
	for i := 0; i < 40; i++ {
		for id := range seq.Frames[i].Landmarks {
			seq.Frames[i].Landmarks[id].Confidence = 0
		}
	}

	res := newAnalyzer().Analyze(seq)
	checkInvariants(t, res, 60)

	if !res.Has(InsufficientLandmarks) {
		t.Errorf("issues = %+v, want insufficient_landmarks", res.Issues)
	}
	if res.Has(InvalidSequence) {
		t.Error("a partly visible clip is not invalid")
	}
	want := res.CameraAngle.Confidence * 20 / 60
	if math.Abs(res.Quality-want) > 1e-9 {
		t.Errorf("Quality = %v, want %v", res.Quality, want)
	}
}

func TestAnalyzeDegenerate(t *testing.T) {
	seq := testdata.SwingSequence(60, 40)
	seq.Frames[5].Landmarks[pose.LeftWrist].X = math.NaN()

	res := newAnalyzer().Analyze(seq)
	checkInvariants(t, res, 60)

	if !res.Has(DegenerateGeometry) {
		t.Errorf("issues = %+v, want degenerate_geometry", res.Issues)
	}
	if res.CameraAngle.Angle != camera.SideOn {
		t.Errorf("camera = %v, want side_on", res.CameraAngle.Angle)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := newAnalyzer()
	seq := testdata.SwingSequence(90, 60)

	first := a.Analyze(seq)
	if diff := cmp.Diff(first, a.Analyze(seq)); diff != "" {
		t.Errorf("Analyze not deterministic (-first +again):\n%s", diff)
	}
}

func TestAnalyzeDoesNotMutateInput(t *testing.T) {
	seq := testdata.SwingSequence(60, 40)
	before := seq.Clone()

	newAnalyzer().Analyze(seq)

	if diff := cmp.Diff(before, seq); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestAnalyzeConcurrent(t *testing.T) {
	a := newAnalyzer()
	seq := testdata.SwingSequence(120, 80)
	want := a.Analyze(seq)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Analyze(seq)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("goroutine %d result differs (-want +got):\n%s", i, diff)
		}
	}
}
