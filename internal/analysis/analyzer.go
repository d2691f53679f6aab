// Package analysis runs the full swing pipeline: camera classification,
// canonicalisation, phase segmentation, feature extraction and weighting.
//
// Analyze is a pure function of its input. An Analyzer holds only
// read-only configuration and may be shared across goroutines.
package analysis

import (
	"fmt"

	"github.com/ayusman/swingscope/internal/camera"
	"github.com/ayusman/swingscope/internal/features"
	"github.com/ayusman/swingscope/internal/phase"
	"github.com/ayusman/swingscope/internal/pose"
)

// Kind classifies a problem found while analysing a sequence.
type Kind string

// Issue kinds.
const (
	// InvalidSequence means there were no frames or no usable frames; the
	// result carries neutral features and zero quality.
	InvalidSequence Kind = "invalid_sequence"
	// InsufficientLandmarks means most frames lacked the essential landmarks.
	InsufficientLandmarks Kind = "insufficient_landmarks"
	// DegenerateGeometry means some measurements fell back to a previous or
	// neutral value.
	DegenerateGeometry Kind = "degenerate_geometry"
	// ShortSequence means the clip was too short to segment and one coarse
	// phase covers it.
	ShortSequence Kind = "short_sequence"
)

// Issue is a recovered problem attached to a result.
type Issue struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

// Result is the complete analysis of one sequence.
type Result struct {
	CameraAngle      camera.Result    `json:"camera_angle"`
	Transformed      pose.Sequence    `json:"transformed"`
	TransformApplied bool             `json:"transform_applied"`
	Phases           phase.Boundaries `json:"phases"`
	Features         features.Vector  `json:"features"`
	Weights          features.Weights `json:"weights"`
	Quality          float64          `json:"quality"`
	Issues           []Issue          `json:"issues,omitempty"`
}

// Has reports whether the result carries an issue of kind k.
func (r Result) Has(k Kind) bool {
	for _, is := range r.Issues {
		if is.Kind == k {
			return true
		}
	}
	return false
}

// Config aggregates the configuration of every stage.
type Config struct {
	Camera   camera.Config
	Phase    phase.Config
	Features features.Config
	// MajorityRatio is the valid-frame ratio below which
	// InsufficientLandmarks is reported.
	MajorityRatio float64
}

// DefaultConfig returns the default configuration of every stage.
func DefaultConfig() Config {
	return Config{
		Camera:        camera.DefaultConfig(),
		Phase:         phase.DefaultConfig(),
		Features:      features.DefaultConfig(),
		MajorityRatio: 0.5,
	}
}

// Analyzer runs the pipeline.
type Analyzer struct {
	config      Config
	classifier  *camera.Classifier
	transformer *camera.Transformer
	segmenter   *phase.Segmenter
	extractor   *features.Extractor
	weighter    *features.Weighter
}

// NewAnalyzer creates an Analyzer with the given configuration.
func NewAnalyzer(config Config) *Analyzer {
	return &Analyzer{
		config:      config,
		classifier:  camera.NewClassifier(config.Camera),
		transformer: camera.NewTransformer(),
		segmenter:   phase.NewSegmenter(config.Phase),
		extractor:   features.NewExtractor(config.Features),
		weighter:    features.NewWeighter(),
	}
}

// Analyze classifies, canonicalises, segments and measures seq. It never
// fails: problems are reported as issues and reflected in Quality.
func (a *Analyzer) Analyze(seq pose.Sequence) Result {
	cam := a.classifier.Classify(seq)

	if seq.Len() == 0 || cam.ValidFrames == 0 {
		return Result{
			CameraAngle: cam,
			Transformed: seq.Clone(),
			Phases:      phase.Coarse(seq.Len()),
			Features:    features.Neutral(),
			Weights:     a.weighter.Weights(cam),
			Issues: []Issue{{
				Kind:   InvalidSequence,
				Detail: fmt.Sprintf("no usable frames among %d", seq.Len()),
			}},
		}
	}

	tr := a.transformer.Transform(seq, cam)
	phases := a.segmenter.Segment(tr.Sequence)
	ex := a.extractor.Extract(tr.Sequence, phases, camera.ProfileFor(cam.Angle).PlaneAngle)
	weighted := a.weighter.Weigh(ex.Vector, cam)

	res := Result{
		CameraAngle:      cam,
		Transformed:      tr.Sequence,
		TransformApplied: tr.Applied,
		Phases:           phases,
		Features:         weighted.Features,
		Weights:          weighted.Weights,
		Quality:          quality(cam),
	}

	if phases.Coarse {
		res.Issues = append(res.Issues, Issue{
			Kind:   ShortSequence,
			Detail: fmt.Sprintf("%d frames, need %d to segment", seq.Len(), a.config.Phase.MinFrames),
		})
	}
	if cam.ValidRatio() < a.config.MajorityRatio {
		res.Issues = append(res.Issues, Issue{
			Kind:   InsufficientLandmarks,
			Detail: fmt.Sprintf("%d of %d frames have the essential landmarks", cam.ValidFrames, cam.TotalFrames),
		})
	}
	if ex.Degenerate > 0 {
		res.Issues = append(res.Issues, Issue{
			Kind:   DegenerateGeometry,
			Detail: fmt.Sprintf("%d measurements replaced by fallback values", ex.Degenerate),
		})
	}

	return res
}

// quality is the classification confidence scaled by the share of usable
// frames.
func quality(cam camera.Result) float64 {
	q := cam.Confidence * cam.ValidRatio()
	switch {
	case q < 0:
		return 0
	case q > 1:
		return 1
	default:
		return q
	}
}
