package features

import (
	"math"
	"testing"

	"github.com/ayusman/swingscope/internal/camera"
)

func TestWeights(t *testing.T) {
	w := NewWeighter()

	tests := []struct {
		name string
		res  camera.Result
		want Weights
	}{
		{
			name: "side on",
			res:  camera.Result{Angle: camera.SideOn, Confidence: 0.8},
			want: Weights{
				camera.SwingPlane: 0.8, camera.BodyRotation: 0.56, camera.Balance: 0.64,
				camera.Tempo: 0.8, camera.ClubPath: 0.8,
			},
		},
		{
			name: "front on full confidence",
			res:  camera.Result{Angle: camera.FrontOn, Confidence: 1},
			want: Weights{
				camera.SwingPlane: 0.6, camera.BodyRotation: 1.0, camera.Balance: 1.0,
				camera.Tempo: 1.0, camera.ClubPath: 0.7,
			},
		},
		{
			name: "unknown zero confidence",
			res:  camera.Result{Angle: camera.Unknown},
			want: Weights{
				camera.SwingPlane: 0.5, camera.BodyRotation: 0.5, camera.Balance: 0.5,
				camera.Tempo: 0.5, camera.ClubPath: 0.5,
			},
		},
		{
			name: "unknown with score",
			res:  camera.Result{Angle: camera.Unknown, Confidence: 0.25},
			want: Weights{
				camera.SwingPlane: 0.5, camera.BodyRotation: 0.5, camera.Balance: 0.5,
				camera.Tempo: 0.5, camera.ClubPath: 0.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.Weights(tt.res)
			if len(got) != len(camera.Categories) {
				t.Fatalf("got %d categories, want %d", len(got), len(camera.Categories))
			}
			for c, want := range tt.want {
				if math.Abs(got[c]-want) > epsilon {
					t.Errorf("%s = %v, want %v", c, got[c], want)
				}
			}
		})
	}
}

func TestWeighLeavesValues(t *testing.T) {
	v := Neutral()
	before := v.Values()

	weighted := NewWeighter().Weigh(v, camera.Result{Angle: camera.Behind, Confidence: 0.5})

	for i, x := range weighted.Features.Values() {
		if x != before[i] {
			t.Fatalf("feature %d changed from %v to %v", i, before[i], x)
		}
	}

	got, ok := weighted.Weight(PlaneMean)
	if !ok || math.Abs(got-0.35) > epsilon {
		t.Errorf("Weight(%s) = %v, %v, want 0.35", PlaneMean, got, ok)
	}
	got, ok = weighted.Weight(BalanceStability)
	if !ok || math.Abs(got-0.45) > epsilon {
		t.Errorf("Weight(%s) = %v, %v, want 0.45", BalanceStability, got, ok)
	}
	if _, ok := weighted.Weight("nope"); ok {
		t.Error("Weight of unknown feature should fail")
	}
}
