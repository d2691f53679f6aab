package features

import "github.com/ayusman/swingscope/internal/camera"

// Weights maps each feature category to its trust weight in [0,1].
type Weights map[camera.Category]float64

// Weighted pairs an unscaled feature vector with its category weights.
// Rescaling the values is left to the consumer.
type Weighted struct {
	Features Vector  `json:"features"`
	Weights  Weights `json:"weights"`
}

// Weight returns the weight of the category a named feature belongs to.
func (w Weighted) Weight(name string) (float64, bool) {
	for _, f := range w.Features {
		if f.Name == name {
			weight, ok := w.Weights[f.Category]
			return weight, ok
		}
	}
	return 0, false
}

// Weighter derives category weights from the camera classification.
type Weighter struct{}

// NewWeighter creates a Weighter.
func NewWeighter() *Weighter {
	return &Weighter{}
}

// Weights returns base reliability × confidence for every category. Views
// whose profile is flat (Unknown) keep the base row unscaled, so an
// unclassifiable clip gets partial trust instead of none.
func (w *Weighter) Weights(res camera.Result) Weights {
	profile := camera.ProfileFor(res.Angle)

	out := make(Weights, len(camera.Categories))
	for _, c := range camera.Categories {
		base := profile.Reliability[c]
		if profile.Flat {
			out[c] = base
			continue
		}
		out[c] = clamp01(base * res.Confidence)
	}
	return out
}

// Weigh attaches category weights to v without modifying it.
func (w *Weighter) Weigh(v Vector, res camera.Result) Weighted {
	return Weighted{Features: v, Weights: w.Weights(res)}
}

func clamp01(x float64) float64 {
	switch {
	case x < 0 || !finite(x):
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
