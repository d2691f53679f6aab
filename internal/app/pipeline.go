package app

import (
	"errors"
	"fmt"
	"log"

	"github.com/ayusman/swingscope/internal/capture"
	"github.com/ayusman/swingscope/internal/pose"
)

// ReadSequence decodes every frame of src and estimates its pose.
//
// Pipeline logic:
// 1. Read frames until the end of the clip
// 2. Measure motion against the previous frame
// 3. Estimate the pose; frames without a person keep zero-confidence landmarks
// 4. Optionally drop the still lead-in and run-out around the motion
func (a *App) ReadSequence(src capture.Source) (pose.Sequence, error) {
	if err := src.Open(); err != nil {
		return pose.Sequence{}, err
	}
	defer src.Close()

	estimator := a.Estimator()
	if estimator == nil {
		return pose.Sequence{}, errors.New("no pose estimator configured")
	}

	meter := capture.NewMotionMeter()
	defer meter.Close()

	fps := src.FPS()
	seq := pose.Sequence{FPS: fps}
	var changes []float64
	missed := 0

	for i := 0; ; i++ {
		frame, err := src.ReadFrame()
		if errors.Is(err, capture.ErrEndOfClip) {
			break
		}
		if err != nil {
			return pose.Sequence{}, fmt.Errorf("read frame %d: %w", i, err)
		}

		changes = append(changes, meter.Measure(frame))
		landmarks, err := estimator.Estimate(frame)
		frame.Close()

		if err != nil {
			if !errors.Is(err, pose.ErrNoPerson) {
				log.Printf("Error estimating pose on frame %d: %v", i, err)
			}
			missed++
			landmarks = [pose.NumLandmarks]pose.Landmark{}
		}

		seq.Frames = append(seq.Frames, pose.Frame{
			Index:       i,
			TimestampMs: timestampMs(i, fps),
			Landmarks:   landmarks,
		})
	}

	if missed > 0 {
		log.Printf("No pose in %d of %d frames", missed, seq.Len())
	}

	if a.config.TrimStill {
		seq = trimStill(seq, changes, a.config.MotionThresh, a.config.TrimPadding)
	}

	return seq, nil
}

// trimStill keeps the frames around the detected motion. A clip without
// motion is returned unchanged.
func trimStill(seq pose.Sequence, changes []float64, threshold float64, pad int) pose.Sequence {
	start, end, ok := capture.ActiveRange(changes, threshold, pad)
	if !ok || (start == 0 && end == seq.Len()) {
		return seq
	}

	log.Printf("Trimmed still frames: keeping %d..%d of %d", start, end, seq.Len())
	out := pose.Sequence{FPS: seq.FPS, Frames: make([]pose.Frame, end-start)}
	copy(out.Frames, seq.Frames[start:end])
	return out
}

func timestampMs(i int, fps float64) int64 {
	if fps <= 0 {
		return 0
	}
	return int64(float64(i) * 1000 / fps)
}
