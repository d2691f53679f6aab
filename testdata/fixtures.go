// Package testdata provides synthetic swing sequences shared by tests.
package testdata

import (
	"math"

	"github.com/ayusman/swingscope/internal/pose"
)

// FPS is the frame rate of every synthetic sequence.
const FPS = 30.0

const (
	handRadius    = 0.25
	shoulderHalf  = 0.08
	hipHalf       = 0.06
	baseTwistDeg  = 7.0
	topAngleDeg   = 150.0
	gripHalfWidth = 0.015
)

// SwingSequence builds a side-on swing of n frames. The hands rest for the
// first tenth, rise slowly to the top, accelerate down to peak speed at
// frame impact and decelerate through the finish.
func SwingSequence(n, impact int) pose.Sequence {
	setupEnd := n / 10
	top := impact - (impact-setupEnd)/4

	seq := pose.Sequence{FPS: FPS, Frames: make([]pose.Frame, n)}
	for i := range seq.Frames {
		seq.Frames[i] = swingFrame(i, swingAngle(i, n, setupEnd, top, impact))
	}
	return seq
}

// swingAngle returns the arm angle in degrees from hanging straight down.
func swingAngle(i, n, setupEnd, top, impact int) float64 {
	switch {
	case i <= setupEnd:
		return 0
	case i <= top:
		u := float64(i-setupEnd) / float64(top-setupEnd)
		return topAngleDeg * (3*u*u - 2*u*u*u)
	case i <= impact:
		u := float64(i-top) / float64(impact-top)
		return topAngleDeg * (1 - u*u)
	default:
		span := n - 1 - impact
		w := 1.0
		if span > 0 {
			w = float64(i-impact) / float64(span)
		}
		return -topAngleDeg * (1 - (1-w)*(1-w))
	}
}

func swingFrame(i int, thetaDeg float64) pose.Frame {
	theta := thetaDeg * math.Pi / 180
	shoulderTwist := (baseTwistDeg + 8*thetaDeg/topAngleDeg) * math.Pi / 180
	hipTwist := (baseTwistDeg + 4*thetaDeg/topAngleDeg) * math.Pi / 180

	sc := pose.Point3D{X: 0.5 + 0.005*math.Sin(theta), Y: 0.40}
	hc := pose.Point3D{X: 0.5 + 0.01*math.Sin(theta), Y: 0.62}
	hand := sc.Add(pose.Point3D{
		X: -handRadius * math.Sin(theta),
		Y: handRadius * math.Cos(theta),
		Z: 0.03 * (1 - math.Cos(theta)),
	})

	var f pose.Frame
	f.Index = i
	f.TimestampMs = int64(float64(i) * 1000 / FPS)

	set := func(id pose.ID, p pose.Point3D) {
		f.Landmarks[id] = pose.Landmark{Point3D: p, Confidence: 0.95}
	}

	set(pose.Nose, sc.Add(pose.Point3D{Y: -0.10}))

	ls := sc.Add(pose.Point3D{X: -shoulderHalf * math.Cos(shoulderTwist), Z: shoulderHalf * math.Sin(shoulderTwist)})
	rs := sc.Add(pose.Point3D{X: shoulderHalf * math.Cos(shoulderTwist), Z: -shoulderHalf * math.Sin(shoulderTwist)})
	set(pose.LeftShoulder, ls)
	set(pose.RightShoulder, rs)

	lw := hand.Add(pose.Point3D{X: -gripHalfWidth})
	rw := hand.Add(pose.Point3D{X: gripHalfWidth})
	set(pose.LeftWrist, lw)
	set(pose.RightWrist, rw)
	set(pose.LeftElbow, pose.Midpoint(ls, lw))
	set(pose.RightElbow, pose.Midpoint(rs, rw))

	set(pose.LeftHip, hc.Add(pose.Point3D{X: -hipHalf * math.Cos(hipTwist), Z: hipHalf * math.Sin(hipTwist)}))
	set(pose.RightHip, hc.Add(pose.Point3D{X: hipHalf * math.Cos(hipTwist), Z: -hipHalf * math.Sin(hipTwist)}))

	set(pose.LeftKnee, pose.Point3D{X: 0.44, Y: 0.78})
	set(pose.RightKnee, pose.Point3D{X: 0.56, Y: 0.78})
	set(pose.LeftAnkle, pose.Point3D{X: 0.43, Y: 0.92})
	set(pose.RightAnkle, pose.Point3D{X: 0.57, Y: 0.92})

	return f
}

// SpikeSequence holds the address position except for one sharp hand
// movement: the hands jump between frame spike-1 and spike and stay there.
func SpikeSequence(n, spike int) pose.Sequence {
	seq := pose.StaticSequence(pose.AddressLandmarks(), n, FPS)
	for i := spike; i < n; i++ {
		f := &seq.Frames[i]
		f.Landmarks[pose.LeftWrist].X -= 0.2
		f.Landmarks[pose.RightWrist].X -= 0.2
	}
	return seq
}

// ParabolaSequence moves the grip along y = offset + a·u² relative to a
// fixed shoulder center, with u stepping evenly from 0.05 to 0.35. It
// returns the sequence and the closed-form angle to vertical per frame.
func ParabolaSequence(n int, a, offset float64) (pose.Sequence, []float64) {
	seq := pose.StaticSequence(pose.AddressLandmarks(), n, FPS)
	want := make([]float64, n)

	for i := range seq.Frames {
		f := &seq.Frames[i]
		u := 0.05 + 0.30*float64(i)/float64(max(n-1, 1))
		v := pose.Point3D{X: u, Y: offset + a*u*u}

		hand := f.ShoulderCenter().Add(v)
		f.Landmarks[pose.LeftWrist].Point3D = hand
		f.Landmarks[pose.RightWrist].Point3D = hand

		want[i] = math.Atan2(math.Abs(v.X), math.Abs(v.Y)) * 180 / math.Pi
	}
	return seq, want
}

// InvisibleSequence returns n frames where every landmark is present but
// has zero confidence.
func InvisibleSequence(n int) pose.Sequence {
	lm := pose.AddressLandmarks()
	for i := range lm {
		lm[i].Confidence = 0
	}
	return pose.StaticSequence(lm, n, FPS)
}
