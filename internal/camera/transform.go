package camera

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ayusman/swingscope/internal/pose"
)

// Dense returns m as a gonum matrix.
func (m Matrix3) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

// Det returns the determinant of m; ±1 for a rotation or reflection.
func (m Matrix3) Det() float64 {
	return mat.Det(m.Dense())
}

// Apply returns m·p.
func (m Matrix3) Apply(p pose.Point3D) pose.Point3D {
	return pose.Point3D{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z,
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z,
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z,
	}
}

// Transformed is a sequence expressed in the canonical side-on frame.
type Transformed struct {
	Sequence pose.Sequence
	// Applied is false when the input was passed through unchanged
	// (side-on, overhead or unknown views).
	Applied bool
	Angle   Angle
}

// Transformer rotates sequences into the canonical frame.
type Transformer struct{}

// NewTransformer creates a new Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform applies the rotation for the classified angle to every
// landmark of every frame. Confidences, frame order and landmark order are
// preserved and the input sequence is never modified.
func (t *Transformer) Transform(seq pose.Sequence, res Result) Transformed {
	profile := ProfileFor(res.Angle)
	out := Transformed{
		Sequence: seq.Clone(),
		Angle:    res.Angle,
	}
	if !profile.Transform || seq.Len() == 0 {
		return out
	}

	// Stack every landmark as one row and rotate them in a single product:
	// rotated = points · Rᵀ.
	rows := seq.Len() * pose.NumLandmarks
	data := make([]float64, 0, rows*3)
	for i := range seq.Frames {
		for _, lm := range seq.Frames[i].Landmarks {
			data = append(data, lm.X, lm.Y, lm.Z)
		}
	}
	points := mat.NewDense(rows, 3, data)

	var rotated mat.Dense
	rotated.Mul(points, profile.Rotation.Dense().T())

	for i := range out.Sequence.Frames {
		for j := range out.Sequence.Frames[i].Landmarks {
			row := i*pose.NumLandmarks + j
			lm := &out.Sequence.Frames[i].Landmarks[j]
			lm.X = rotated.At(row, 0)
			lm.Y = rotated.At(row, 1)
			lm.Z = rotated.At(row, 2)
		}
	}
	out.Applied = true

	return out
}
