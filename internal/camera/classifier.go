package camera

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/swingscope/internal/pose"
)

// Config holds the classifier thresholds. All values are empirically tuned.
type Config struct {
	// MinConfidence is the visibility every essential landmark needs for a
	// frame to count as valid.
	MinConfidence float64
	// CoordinateBound rejects frames with any essential coordinate beyond it.
	CoordinateBound float64
	// Epsilon replaces zero denominators in ratios.
	Epsilon float64
	// MinScore is the winning score below which the result is Unknown.
	MinScore float64

	// Shoulder and hip width/depth ratio bands.
	SideOnRatio  float64
	AngledRatio  float64
	FrontOnRatio float64

	// Torso width/depth ratio bands.
	BodyRatioHigh float64
	BodyRatioLow  float64

	// Left/right visibility asymmetry bands.
	HighAsymmetry float64
	LowAsymmetry  float64

	// Hand offset (image plane vs depth) ratio bands.
	LowHandOffset  float64
	HighHandOffset float64
}

// DefaultConfig returns the tuned classifier thresholds.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.3,
		CoordinateBound: 2.0,
		Epsilon:         1e-3,
		MinScore:        0.3,
		SideOnRatio:     5,
		AngledRatio:     3,
		FrontOnRatio:    1,
		BodyRatioHigh:   3,
		BodyRatioLow:    1,
		HighAsymmetry:   0.3,
		LowAsymmetry:    0.1,
		LowHandOffset:   0.5,
		HighHandOffset:  2,
	}
}

// Metric names reported in Result.Metrics.
const (
	MetricShoulderWidth       = "shoulder_width"
	MetricShoulderDepth       = "shoulder_depth"
	MetricShoulderRatio       = "shoulder_ratio"
	MetricShoulderOrientation = "shoulder_orientation"
	MetricBodyRatio           = "body_ratio"
	MetricHipRatio            = "hip_ratio"
	MetricHipOrientation      = "hip_orientation"
	MetricLeftVisibility      = "left_visibility"
	MetricRightVisibility     = "right_visibility"
	MetricAsymmetry           = "asymmetry"
	MetricHandOffsetRatio     = "hand_offset_ratio"
)

var metricNames = []string{
	MetricShoulderWidth,
	MetricShoulderDepth,
	MetricShoulderRatio,
	MetricShoulderOrientation,
	MetricBodyRatio,
	MetricHipRatio,
	MetricHipOrientation,
	MetricLeftVisibility,
	MetricRightVisibility,
	MetricAsymmetry,
	MetricHandOffsetRatio,
}

// Summary aggregates one metric across valid frames.
type Summary struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes the population statistics of x. An empty slice
// yields the zero Summary.
func Summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(x, nil)
	return Summary{
		Mean:   mean,
		Std:    std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// Result is the outcome of camera angle classification.
type Result struct {
	Angle       Angle              `json:"angle"`
	Confidence  float64            `json:"confidence"`
	Reliability float64            `json:"reliability"`
	ValidFrames int                `json:"valid_frames"`
	TotalFrames int                `json:"total_frames"`
	Scores      map[Angle]float64  `json:"scores,omitempty"`
	Metrics     map[string]Summary `json:"metrics,omitempty"`
}

// ValidRatio returns the fraction of frames that passed validation.
func (r Result) ValidRatio() float64 {
	if r.TotalFrames == 0 {
		return 0
	}
	return float64(r.ValidFrames) / float64(r.TotalFrames)
}

// Classifier estimates the camera viewpoint from a landmark sequence.
// It holds only read-only configuration and is safe for concurrent use.
type Classifier struct {
	config Config
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

var essential = []pose.ID{pose.Nose, pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip}

// ValidFrame reports whether the essential landmarks of f are visible
// enough and within the sanity bound.
func (c *Classifier) ValidFrame(f *pose.Frame) bool {
	for _, id := range essential {
		lm := f.Landmarks[id]
		if lm.Confidence < c.config.MinConfidence || !lm.Finite() {
			return false
		}
		if math.Abs(lm.X) > c.config.CoordinateBound ||
			math.Abs(lm.Y) > c.config.CoordinateBound ||
			math.Abs(lm.Z) > c.config.CoordinateBound {
			return false
		}
	}
	return true
}

// Classify scores every candidate angle against the aggregated frame
// metrics and returns the winner.
func (c *Classifier) Classify(seq pose.Sequence) Result {
	series := make(map[string][]float64, len(metricNames))
	valid := 0

	for i := range seq.Frames {
		f := &seq.Frames[i]
		if !c.ValidFrame(f) {
			continue
		}
		valid++
		for name, v := range c.frameMetrics(f) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			series[name] = append(series[name], v)
		}
	}

	result := Result{
		Angle:       Unknown,
		ValidFrames: valid,
		TotalFrames: seq.Len(),
	}
	if valid == 0 {
		return result
	}

	result.Metrics = make(map[string]Summary, len(metricNames))
	for _, name := range metricNames {
		result.Metrics[name] = Summarize(series[name])
	}

	scores := c.score(result.Metrics)
	result.Scores = make(map[Angle]float64, len(Candidates))

	best, bestScore := Unknown, -1.0
	for i, a := range Candidates {
		s := math.Min(1, scores[i])
		result.Scores[a] = s
		if s > bestScore {
			best, bestScore = a, s
		}
	}

	if bestScore < c.config.MinScore {
		best = Unknown
	}
	result.Angle = best
	result.Confidence = clamp01(bestScore)
	result.Reliability = c.reliability(result.Confidence, valid)

	return result
}

// frameMetrics computes the per-frame geometry used for classification.
func (c *Classifier) frameMetrics(f *pose.Frame) map[string]float64 {
	eps := c.config.Epsilon

	shoulder := f.Point(pose.RightShoulder).Sub(f.Point(pose.LeftShoulder))
	sWidth := shoulder.Norm2D()
	sDepth := math.Abs(shoulder.Z)

	hip := f.Point(pose.RightHip).Sub(f.Point(pose.LeftHip))
	hWidth := hip.Norm2D()
	hDepth := math.Abs(hip.Z)

	torso := f.ShoulderCenter().Sub(f.HipCenter())

	leftVis := meanConfidence(f, pose.LeftChain)
	rightVis := meanConfidence(f, pose.RightChain)

	offset := f.HandCenter().Sub(f.Point(pose.Nose))

	return map[string]float64{
		MetricShoulderWidth:       sWidth,
		MetricShoulderDepth:       sDepth,
		MetricShoulderRatio:       sWidth / math.Max(sDepth, eps),
		MetricShoulderOrientation: math.Atan2(sDepth, sWidth) * 180 / math.Pi,
		MetricBodyRatio:           torso.Norm2D() / math.Max(math.Abs(torso.Z), eps),
		MetricHipRatio:            hWidth / math.Max(hDepth, eps),
		MetricHipOrientation:      math.Atan2(hDepth, hWidth) * 180 / math.Pi,
		MetricLeftVisibility:      leftVis,
		MetricRightVisibility:     rightVis,
		MetricAsymmetry:           math.Abs(leftVis - rightVis),
		MetricHandOffsetRatio:     offset.Norm2D() / math.Max(math.Abs(offset.Z), eps),
	}
}

// score runs the weighted vote. The returned slice is indexed like Candidates.
func (c *Classifier) score(m map[string]Summary) []float64 {
	cfg := c.config
	votes := make(map[Angle]float64, len(Candidates))

	// Shoulder line orientation carries the most weight.
	switch r := m[MetricShoulderRatio].Median; {
	case r > cfg.SideOnRatio:
		votes[SideOn] += 0.4
	case r > cfg.AngledRatio:
		votes[AngledSide] += 0.4
		votes[SideOn] += 0.1
	case r >= cfg.FrontOnRatio:
		votes[FrontOn] += 0.2
		votes[Behind] += 0.2
		votes[AngledFront] += 0.1
	default:
		votes[AngledFront] += 0.25
		votes[FrontOn] += 0.1
	}

	switch b := m[MetricBodyRatio].Median; {
	case b > cfg.BodyRatioHigh:
		votes[SideOn] += 0.25
		votes[AngledSide] += 0.1
	case b >= cfg.BodyRatioLow:
		votes[AngledSide] += 0.15
		votes[AngledFront] += 0.15
		votes[FrontOn] += 0.1
		votes[Behind] += 0.1
	default:
		// Torso pointing at the lens only happens from above.
		votes[Overhead] += 0.5
	}

	switch h := m[MetricHipRatio].Median; {
	case h > cfg.SideOnRatio:
		votes[SideOn] += 0.15
	case h > cfg.AngledRatio:
		votes[AngledSide] += 0.15
	case h >= cfg.FrontOnRatio:
		votes[FrontOn] += 0.075
		votes[Behind] += 0.075
	default:
		votes[AngledFront] += 0.15
	}

	switch a := m[MetricAsymmetry].Mean; {
	case a > cfg.HighAsymmetry:
		votes[AngledSide] += 0.1
		votes[AngledFront] += 0.1
	case a < cfg.LowAsymmetry:
		votes[SideOn] += 0.1
		votes[FrontOn] += 0.05
		votes[Behind] += 0.05
	}

	switch o := m[MetricHandOffsetRatio].Median; {
	case o < cfg.LowHandOffset:
		votes[Behind] += 0.1
	case o > cfg.HighHandOffset:
		votes[SideOn] += 0.1
		votes[FrontOn] += 0.05
	default:
		votes[AngledSide] += 0.05
		votes[AngledFront] += 0.05
	}

	scores := make([]float64, len(Candidates))
	for i, a := range Candidates {
		scores[i] = votes[a]
	}
	return scores
}

// reliability adds a bonus for long sequences and a penalty for very
// short ones on top of the classification confidence.
func (c *Classifier) reliability(confidence float64, valid int) float64 {
	r := confidence + math.Min(0.2, float64(valid)/100)
	if valid < 10 {
		r -= math.Max(0, 0.3-float64(valid)/10)
	}
	return clamp01(r)
}

func meanConfidence(f *pose.Frame, ids []pose.ID) float64 {
	vals := make([]float64, len(ids))
	for i, id := range ids {
		vals[i] = f.Confidence(id)
	}
	return floats.Sum(vals) / float64(len(vals))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
