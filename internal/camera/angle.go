// Package camera classifies the camera's viewing angle relative to the
// golfer and rotates landmark sequences into the canonical side-on frame.
package camera

import (
	"fmt"
	"math"

	"github.com/ayusman/swingscope/internal/pose"
)

// Angle is the classified camera viewpoint.
type Angle int

// Candidate angles in fixed iteration order. Ties in classification go to
// the earlier entry.
const (
	SideOn Angle = iota
	FrontOn
	Behind
	AngledSide
	AngledFront
	Overhead
	Unknown
)

// Candidates lists the angles the classifier scores, in tie-break order.
var Candidates = []Angle{SideOn, FrontOn, Behind, AngledSide, AngledFront, Overhead}

var angleNames = map[Angle]string{
	SideOn:      "side_on",
	FrontOn:     "front_on",
	Behind:      "behind",
	AngledSide:  "angled_side",
	AngledFront: "angled_front",
	Overhead:    "overhead",
	Unknown:     "unknown",
}

func (a Angle) String() string {
	if name, ok := angleNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAngle parses a snake_case angle name. Unrecognised names map to Unknown.
func ParseAngle(s string) Angle {
	for a, name := range angleNames {
		if name == s {
			return a
		}
	}
	return Unknown
}

// MarshalText implements encoding.TextMarshaler.
func (a Angle) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Angle) UnmarshalText(text []byte) error {
	parsed := ParseAngle(string(text))
	if parsed == Unknown && string(text) != "unknown" {
		return fmt.Errorf("unknown camera angle %q", text)
	}
	*a = parsed
	return nil
}

// Category groups features that share a reliability weight.
type Category string

// Feature categories.
const (
	SwingPlane   Category = "swing_plane"
	BodyRotation Category = "body_rotation"
	Balance      Category = "balance"
	Tempo        Category = "tempo"
	ClubPath     Category = "club_path"
)

// Categories lists every feature category in output order.
var Categories = []Category{SwingPlane, BodyRotation, Balance, Tempo, ClubPath}

// Matrix3 is a row-major 3x3 matrix.
type Matrix3 [3][3]float64

// PlaneAngleFunc measures the angle in degrees between a body-to-hands
// vector and the vertical axis. ok is false for a degenerate vector.
type PlaneAngleFunc func(v pose.Point3D) (deg float64, ok bool)

// Profile bundles everything that depends on the camera angle.
type Profile struct {
	// Rotation maps raw coordinates into the canonical side-on frame.
	Rotation Matrix3
	// Transform is false when coordinates pass through untouched.
	Transform bool
	// Reliability is the base trust per feature category before scaling
	// by classification confidence.
	Reliability map[Category]float64
	// PlaneAngle is the swing-plane formula valid for this view.
	PlaneAngle PlaneAngleFunc
	// Flat ignores confidence and applies Reliability as is.
	Flat bool
}

// degenerateLength is the vector length below which an angle is undefined.
const degenerateLength = 1e-9

// InPlaneAngle measures the angle to vertical inside the canonical image
// plane, ignoring depth. Y is vertical.
func InPlaneAngle(v pose.Point3D) (float64, bool) {
	if math.Hypot(v.X, v.Y) < degenerateLength {
		return 0, false
	}
	return math.Atan2(math.Abs(v.X), math.Abs(v.Y)) * 180 / math.Pi, true
}

// SpatialAngle measures the full 3D angle between the line and the vertical axis.
func SpatialAngle(v pose.Point3D) (float64, bool) {
	if v.Norm() < degenerateLength {
		return 0, false
	}
	return math.Atan2(math.Hypot(v.X, v.Z), math.Abs(v.Y)) * 180 / math.Pi, true
}

// rotationY returns the rotation of deg degrees about the vertical axis.
func rotationY(deg float64) Matrix3 {
	r := deg * math.Pi / 180
	c, s := math.Cos(r), math.Sin(r)
	return Matrix3{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}
}

var identity = Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// profiles is the single dispatch table keyed by angle. Adding an angle
// means adding one row here.
var profiles = map[Angle]Profile{
	SideOn: {
		Rotation: identity,
		Reliability: map[Category]float64{
			SwingPlane: 1.0, BodyRotation: 0.7, Balance: 0.8, Tempo: 1.0, ClubPath: 1.0,
		},
		PlaneAngle: InPlaneAngle,
	},
	FrontOn: {
		Rotation:  rotationY(90),
		Transform: true,
		Reliability: map[Category]float64{
			SwingPlane: 0.6, BodyRotation: 1.0, Balance: 1.0, Tempo: 1.0, ClubPath: 0.7,
		},
		PlaneAngle: InPlaneAngle,
	},
	Behind: {
		Rotation:  rotationY(-90),
		Transform: true,
		Reliability: map[Category]float64{
			SwingPlane: 0.7, BodyRotation: 0.9, Balance: 0.9, Tempo: 0.95, ClubPath: 0.8,
		},
		PlaneAngle: InPlaneAngle,
	},
	AngledSide: {
		Rotation:  rotationY(45),
		Transform: true,
		Reliability: map[Category]float64{
			SwingPlane: 0.8, BodyRotation: 0.85, Balance: 0.85, Tempo: 1.0, ClubPath: 0.85,
		},
		PlaneAngle: InPlaneAngle,
	},
	AngledFront: {
		Rotation:  rotationY(135),
		Transform: true,
		Reliability: map[Category]float64{
			SwingPlane: 0.7, BodyRotation: 0.9, Balance: 0.9, Tempo: 0.95, ClubPath: 0.75,
		},
		PlaneAngle: InPlaneAngle,
	},
	Overhead: {
		Rotation: identity,
		Reliability: map[Category]float64{
			SwingPlane: 0.4, BodyRotation: 1.0, Balance: 0.6, Tempo: 0.9, ClubPath: 0.6,
		},
		PlaneAngle: SpatialAngle,
	},
	Unknown: {
		Rotation: identity,
		Reliability: map[Category]float64{
			SwingPlane: 0.5, BodyRotation: 0.5, Balance: 0.5, Tempo: 0.5, ClubPath: 0.5,
		},
		PlaneAngle: SpatialAngle,
		Flat:       true,
	},
}

// ProfileFor returns the dispatch row for an angle. Unrecognised values
// get the Unknown row.
func ProfileFor(a Angle) Profile {
	if p, ok := profiles[a]; ok {
		return p
	}
	return profiles[Unknown]
}
