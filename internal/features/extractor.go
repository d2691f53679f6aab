package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/swingscope/internal/camera"
	"github.com/ayusman/swingscope/internal/phase"
	"github.com/ayusman/swingscope/internal/pose"
)

// Config holds the feature extraction constants.
type Config struct {
	// IdealPlaneAngle is the reference swing-plane angle in degrees and the
	// fallback for an undefined plane angle.
	IdealPlaneAngle float64
	// UprightPlaneAngle and FlatPlaneAngle bound the neutral tendency band.
	UprightPlaneAngle float64
	FlatPlaneAngle    float64
	// The early backswing is the first 1/EarlyBackswingDivisor of the
	// backswing, clamped to [EarlyBackswingMin, EarlyBackswingMax] frames.
	EarlyBackswingDivisor int
	EarlyBackswingMin     int
	EarlyBackswingMax     int
	// Epsilon is the vector length below which a direction is undefined.
	Epsilon float64
}

// DefaultConfig returns the standard extraction constants.
func DefaultConfig() Config {
	return Config{
		IdealPlaneAngle:       45,
		UprightPlaneAngle:     35,
		FlatPlaneAngle:        55,
		EarlyBackswingDivisor: 4,
		EarlyBackswingMin:     3,
		EarlyBackswingMax:     5,
		Epsilon:               1e-3,
	}
}

// Extraction is the output of one extraction run.
type Extraction struct {
	Vector Vector
	// PlaneAngles is the per-frame swing-plane angle in degrees.
	PlaneAngles []float64
	// Degenerate counts measurements that fell back to a previous or
	// neutral value.
	Degenerate int
}

// Extractor computes the feature vector. It holds only read-only
// configuration and is safe for concurrent use.
type Extractor struct {
	config Config
}

// NewExtractor creates an Extractor.
func NewExtractor(config Config) *Extractor {
	return &Extractor{config: config}
}

// collector accumulates named values and the number of fallbacks taken.
type collector struct {
	values     map[string]float64
	degenerate int
}

func (c *collector) set(name string, v float64) {
	c.values[name] = v
}

// Extract measures seq, which must already be in the canonical side-on
// frame, using phases from the same sequence. planeAngle is the view's
// swing-plane formula; nil selects camera.InPlaneAngle.
func (e *Extractor) Extract(seq pose.Sequence, phases phase.Boundaries, planeAngle camera.PlaneAngleFunc) Extraction {
	if seq.Len() == 0 {
		return Extraction{Vector: Neutral()}
	}
	if planeAngle == nil {
		planeAngle = camera.InPlaneAngle
	}

	c := &collector{values: make(map[string]float64, len(definitions))}

	angles, filled := e.PlaneAngles(seq, planeAngle)
	c.degenerate += filled
	e.swingPlane(c, angles, phases)

	e.rotation(c, seq)

	hands, filled := track(seq, (*pose.Frame).HandCenter)
	c.degenerate += filled
	e.path(c, hands)
	e.tempo(c, hands, phases)

	com, filled := track(seq, centerOfMass)
	c.degenerate += filled
	e.balance(c, com)

	v, replaced := assemble(c.values)
	return Extraction{
		Vector:      v,
		PlaneAngles: angles,
		Degenerate:  c.degenerate + replaced,
	}
}

// PlaneAngles returns the angle between the shoulder-center to hand-center
// vector and the vertical for every frame. Undefined angles take the
// previous valid value, or IdealPlaneAngle before the first one. The
// second result counts the substituted frames.
func (e *Extractor) PlaneAngles(seq pose.Sequence, planeAngle camera.PlaneAngleFunc) ([]float64, int) {
	angles := make([]float64, seq.Len())
	for i := range seq.Frames {
		f := &seq.Frames[i]
		v := f.HandCenter().Sub(f.ShoulderCenter())

		deg, ok := planeAngle(v)
		if !ok || !finitePoint(v) || !finite(deg) || v.Norm() < e.config.Epsilon {
			deg = math.NaN()
		}
		angles[i] = deg
	}
	return angles, fillSeries(angles, e.config.IdealPlaneAngle)
}

func (e *Extractor) swingPlane(c *collector, angles []float64, phases phase.Boundaries) {
	cfg := e.config

	mean, std := stat.PopMeanStdDev(angles, nil)
	lo, hi := floats.Min(angles), floats.Max(angles)
	c.set(PlaneMean, mean)
	c.set(PlaneMax, hi)
	c.set(PlaneMin, lo)
	c.set(PlaneRange, hi-lo)
	c.set(PlaneStd, std)
	c.set(PlaneDeviation, math.Abs(mean-cfg.IdealPlaneAngle))
	c.set(PlaneTendency, e.tendency(mean))

	bs := phases.Get(phase.Backswing)
	k := bs.Len() / cfg.EarlyBackswingDivisor
	k = min(max(k, cfg.EarlyBackswingMin), cfg.EarlyBackswingMax, bs.Len())
	start := min(max(bs.Start, 0), len(angles))
	end := min(start+k, len(angles))
	if end <= start {
		c.degenerate++
		return
	}

	early := angles[start:end]
	mean, std = stat.PopMeanStdDev(early, nil)
	c.set(EarlyPlaneMean, mean)
	c.set(EarlyPlaneStd, std)
	c.set(EarlyPlaneDeviation, math.Abs(mean-cfg.IdealPlaneAngle))
	c.set(EarlyPlaneTendency, e.tendency(mean))
}

// tendency is -1 for an upright plane, +1 for a flat one and 0 otherwise.
func (e *Extractor) tendency(mean float64) float64 {
	switch {
	case mean < e.config.UprightPlaneAngle:
		return -1
	case mean > e.config.FlatPlaneAngle:
		return 1
	default:
		return 0
	}
}

func (e *Extractor) rotation(c *collector, seq pose.Sequence) {
	shoulders := e.lineAngles(seq, pose.LeftShoulder, pose.RightShoulder)
	hips := e.lineAngles(seq, pose.LeftHip, pose.RightHip)
	c.degenerate += fillSeries(shoulders, 0)
	c.degenerate += fillSeries(hips, 0)

	c.set(ShoulderRotationRange, peakToPeak(shoulders))
	c.set(ShoulderRotationMax, maxAbs(shoulders))
	c.set(HipRotationRange, peakToPeak(hips))
	c.set(HipRotationMax, maxAbs(hips))

	xf := make([]float64, len(shoulders))
	for i := range xf {
		xf[i] = math.Abs(math.Remainder(shoulders[i]-hips[i], 360))
	}
	c.set(XFactorMean, stat.Mean(xf, nil))
	c.set(XFactorMax, floats.Max(xf))

	if len(shoulders) < 2 {
		return
	}
	gs := gradient(unwrapDegrees(shoulders))
	gh := gradient(unwrapDegrees(hips))
	leading := 0
	for i := range gs {
		if math.Abs(gh[i]) > math.Abs(gs[i]) {
			leading++
		}
	}
	c.set(RotationSequenceCorrect, float64(leading)/float64(len(gs)))
}

// lineAngles returns the orientation in degrees of the left-to-right line
// in the horizontal x-z plane, NaN where the line is degenerate.
func (e *Extractor) lineAngles(seq pose.Sequence, left, right pose.ID) []float64 {
	out := make([]float64, seq.Len())
	for i := range seq.Frames {
		f := &seq.Frames[i]
		d := f.Point(right).Sub(f.Point(left))
		if !finitePoint(d) || math.Hypot(d.X, d.Z) < e.config.Epsilon {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Atan2(d.Z, d.X) * 180 / math.Pi
	}
	return out
}

func (e *Extractor) path(c *collector, hands []pose.Point3D) {
	c.set(HandPathLength, floats.Sum(pose.Speeds(hands)))

	if len(hands) >= 3 {
		bends := make([]float64, len(hands)-2)
		for i := range bends {
			d0 := hands[i+1].Sub(hands[i])
			d1 := hands[i+2].Sub(hands[i+1])
			bends[i] = d1.Sub(d0).Norm()
		}
		_, std := stat.PopMeanStdDev(bends, nil)
		c.set(HandPathSmoothness, 1/(1+std*std))
	}

	xs, ys, zs := axes(hands)
	c.set(SwingWidth, peakToPeak(xs))
	c.set(SwingHeight, peakToPeak(ys))
	c.set(SwingDepth, peakToPeak(zs))

	if dist, ok := planeDistances(hands); ok {
		mean, std := stat.PopMeanStdDev(dist, nil)
		c.set(PlaneFitDeviation, mean)
		c.set(PlaneFitConsistency, 1/(1+std))
	} else {
		c.degenerate++
	}
}

// planeDistances fits a plane through the points by SVD of the centered
// cloud and returns each point's absolute distance to it. The normal is
// the right singular vector of the smallest singular value.
func planeDistances(points []pose.Point3D) ([]float64, bool) {
	if len(points) < 3 {
		return nil, false
	}

	var center pose.Point3D
	for _, p := range points {
		center = center.Add(p)
	}
	center = center.Scale(1 / float64(len(points)))

	data := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		q := p.Sub(center)
		data.SetRow(i, []float64{q.X, q.Y, q.Z})
	}

	var svd mat.SVD
	if !svd.Factorize(data, mat.SVDThin) {
		return nil, false
	}
	var v mat.Dense
	svd.VTo(&v)
	normal := mat.Col(nil, 2, &v)

	dist := make([]float64, len(points))
	for i := range points {
		dist[i] = math.Abs(floats.Dot(data.RawRowView(i), normal))
	}
	return dist, true
}

func (e *Extractor) tempo(c *collector, hands []pose.Point3D, phases phase.Boundaries) {
	velocity := pose.Speeds(hands)

	mean, std := stat.PopMeanStdDev(velocity, nil)
	c.set(HandVelocityMax, floats.Max(velocity))
	c.set(HandVelocityMean, mean)
	c.set(HandVelocityConsistency, 1/(1+std))
	c.set(ImpactTiming, float64(floats.MaxIdx(velocity))/float64(len(velocity)))

	accel := gradient(velocity)
	c.set(MaxAcceleration, max(0, floats.Max(accel)))
	c.set(MaxDeceleration, max(0, -floats.Min(accel)))

	back, down := phases.Get(phase.Backswing).Len(), phases.Get(phase.Downswing).Len()
	if back > 0 && down > 0 {
		c.set(TempoRatio, float64(back)/float64(down))
	}
}

func (e *Extractor) balance(c *collector, com []pose.Point3D) {
	if len(com) >= 2 {
		c.set(BalanceStability, 1/(1+stat.Mean(pose.Speeds(com)[1:], nil)))
	}

	xs, ys, zs := axes(com)
	c.set(LateralWeightShift, peakToPeak(xs))
	c.set(SagittalWeightShift, peakToPeak(zs))
	c.set(COMVerticalRange, peakToPeak(ys))
}

// centerOfMass approximates the body's center of mass by the mean of both
// shoulders and both hips.
func centerOfMass(f *pose.Frame) pose.Point3D {
	return pose.Midpoint(f.ShoulderCenter(), f.HipCenter())
}

// track samples one point per frame. Frames with a non-finite point take
// the previous valid point, or the first valid one for a leading gap. It
// returns the number of replaced frames.
func track(seq pose.Sequence, pick func(*pose.Frame) pose.Point3D) ([]pose.Point3D, int) {
	points := make([]pose.Point3D, seq.Len())
	valid := make([]bool, seq.Len())
	first := -1
	for i := range seq.Frames {
		points[i] = pick(&seq.Frames[i])
		valid[i] = finitePoint(points[i])
		if valid[i] && first < 0 {
			first = i
		}
	}

	replaced := 0
	for i := range points {
		if valid[i] {
			continue
		}
		replaced++
		switch {
		case first < 0:
			points[i] = pose.Point3D{}
		case i < first:
			points[i] = points[first]
		default:
			points[i] = points[i-1]
		}
	}
	return points, replaced
}

// fillSeries replaces NaN entries in place with the previous valid value,
// or fallback before the first one. It returns the number replaced.
func fillSeries(xs []float64, fallback float64) int {
	replaced := 0
	last := fallback
	for i, x := range xs {
		if finite(x) {
			last = x
			continue
		}
		xs[i] = last
		replaced++
	}
	return replaced
}

// gradient is the numerical derivative with central differences inside
// and one-sided differences at both ends.
func gradient(x []float64) []float64 {
	n := len(x)
	g := make([]float64, n)
	if n < 2 {
		return g
	}
	g[0] = x[1] - x[0]
	g[n-1] = x[n-1] - x[n-2]
	for i := 1; i < n-1; i++ {
		g[i] = (x[i+1] - x[i-1]) / 2
	}
	return g
}

// unwrapDegrees removes 360° jumps between consecutive angles.
func unwrapDegrees(x []float64) []float64 {
	out := make([]float64, len(x))
	offset := 0.0
	for i := range x {
		if i > 0 {
			offset -= 360 * math.Round((x[i]-x[i-1])/360)
		}
		out[i] = x[i] + offset
	}
	return out
}

func axes(points []pose.Point3D) (xs, ys, zs []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	zs = make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	return xs, ys, zs
}

func peakToPeak(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Max(xs) - floats.Min(xs)
}

func maxAbs(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = max(m, math.Abs(x))
	}
	return m
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func finitePoint(p pose.Point3D) bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}
