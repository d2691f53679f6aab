// Package phase segments a swing into its named motion phases using the
// hand-speed profile.
package phase

import (
	"encoding/json"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/swingscope/internal/pose"
)

// Phase is a named part of the swing.
type Phase int

// Phases in temporal order.
const (
	Setup Phase = iota
	Backswing
	Transition
	Downswing
	Impact
	FollowThrough
	NumPhases = 6
)

var phaseNames = [NumPhases]string{"setup", "backswing", "transition", "downswing", "impact", "follow_through"}

func (p Phase) String() string {
	if p < 0 || int(p) >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// ParsePhase looks a phase up by name.
func ParsePhase(name string) (Phase, bool) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), true
		}
	}
	return 0, false
}

// Interval is the half-open frame range [Start, End).
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of frames in the interval.
func (iv Interval) Len() int {
	if iv.End < iv.Start {
		return 0
	}
	return iv.End - iv.Start
}

// Contains reports whether frame i lies in the interval.
func (iv Interval) Contains(i int) bool {
	return i >= iv.Start && i < iv.End
}

// Boundaries partitions [0, N) into the six phases.
type Boundaries struct {
	Intervals [NumPhases]Interval
	// Frames is N, the length of the segmented sequence.
	Frames int
	// ImpactFrame is the frame of peak smoothed hand speed.
	ImpactFrame int
	// TransitionFrame is the hand-speed minimum before impact (top of swing).
	TransitionFrame int
	// Coarse is set when the sequence was too short to segment and the
	// whole range was assigned to Setup.
	Coarse bool
}

// Get returns the interval of one phase.
func (b Boundaries) Get(p Phase) Interval {
	return b.Intervals[p]
}

// Valid reports whether the intervals are contiguous, non-overlapping and
// cover [0, Frames) exactly.
func (b Boundaries) Valid() bool {
	next := 0
	for _, iv := range b.Intervals {
		if iv.Start != next || iv.End < iv.Start {
			return false
		}
		next = iv.End
	}
	return next == b.Frames
}

// PhaseOf returns the phase containing frame i.
func (b Boundaries) PhaseOf(i int) (Phase, bool) {
	for p, iv := range b.Intervals {
		if iv.Contains(i) {
			return Phase(p), true
		}
	}
	return 0, false
}

type jsonBoundaries struct {
	Frames          int                 `json:"frames"`
	ImpactFrame     int                 `json:"impact_frame"`
	TransitionFrame int                 `json:"transition_frame"`
	Coarse          bool                `json:"coarse"`
	Phases          map[string]Interval `json:"phases"`
}

// MarshalJSON encodes the intervals keyed by phase name.
func (b Boundaries) MarshalJSON() ([]byte, error) {
	jb := jsonBoundaries{
		Frames:          b.Frames,
		ImpactFrame:     b.ImpactFrame,
		TransitionFrame: b.TransitionFrame,
		Coarse:          b.Coarse,
		Phases:          make(map[string]Interval, NumPhases),
	}
	for p, iv := range b.Intervals {
		jb.Phases[phaseNames[p]] = iv
	}
	return json.Marshal(jb)
}

// UnmarshalJSON decodes intervals keyed by phase name.
func (b *Boundaries) UnmarshalJSON(data []byte) error {
	var jb jsonBoundaries
	if err := json.Unmarshal(data, &jb); err != nil {
		return err
	}
	out := Boundaries{
		Frames:          jb.Frames,
		ImpactFrame:     jb.ImpactFrame,
		TransitionFrame: jb.TransitionFrame,
		Coarse:          jb.Coarse,
	}
	for name, iv := range jb.Phases {
		if p, ok := ParsePhase(name); ok {
			out.Intervals[p] = iv
		}
	}
	*b = out
	return nil
}

// Coarse assigns all n frames to Setup and leaves the other phases empty.
func Coarse(n int) Boundaries {
	b := Boundaries{Frames: n, Coarse: true}
	b.Intervals[Setup] = Interval{Start: 0, End: n}
	for p := Backswing; p < NumPhases; p++ {
		b.Intervals[p] = Interval{Start: n, End: n}
	}
	return b
}

// Config holds the segmentation heuristics. The frame margins are
// empirically tuned, not physically derived.
type Config struct {
	// MaxWindow caps the smoothing window.
	MaxWindow int
	// PolyOrder is the smoothing polynomial order.
	PolyOrder int
	// MinFrames is the length below which one coarse phase covers everything.
	MinFrames int
	// ShortFrames is the length below which the transition is placed at N/2.
	ShortFrames int
	// SetupMinFrames and SetupDivisor give setup_end = max(SetupMinFrames, N/SetupDivisor).
	SetupMinFrames int
	SetupDivisor   int
	// TransitionMargin is the half-width of the transition window around the top.
	TransitionMargin int
	// BackswingOverrun is how far past the top the backswing may extend.
	BackswingOverrun int
	// ImpactLead keeps the backswing this many frames clear of impact.
	ImpactLead int
	// ImpactHalfWidth is the half-width of the impact window.
	ImpactHalfWidth int
	// DownswingTail is how far past impact the downswing extends.
	DownswingTail int
	// MinimumBefore and MinimumAfter size the neighbourhood a local speed
	// minimum is compared against.
	MinimumBefore int
	MinimumAfter  int
}

// DefaultConfig returns the tuned segmentation constants.
func DefaultConfig() Config {
	return Config{
		MaxWindow:        11,
		PolyOrder:        3,
		MinFrames:        5,
		ShortFrames:      10,
		SetupMinFrames:   5,
		SetupDivisor:     10,
		TransitionMargin: 5,
		BackswingOverrun: 10,
		ImpactLead:       5,
		ImpactHalfWidth:  3,
		DownswingTail:    5,
		MinimumBefore:    3,
		MinimumAfter:     3,
	}
}

// Segmenter splits a canonical sequence into phases. It holds only
// read-only configuration and is safe for concurrent use.
type Segmenter struct {
	config Config
}

// NewSegmenter creates a Segmenter with the given heuristics.
func NewSegmenter(config Config) *Segmenter {
	return &Segmenter{config: config}
}

// HandSpeed returns the smoothed hand-center speed profile of seq.
func (s *Segmenter) HandSpeed(seq pose.Sequence) []float64 {
	speed := pose.Speeds(seq.HandCenters())
	window := SmoothWindow(len(speed), s.config.MaxWindow, s.config.PolyOrder)
	return Smooth(speed, window, s.config.PolyOrder)
}

// Segment partitions the sequence into the six phases.
//
// Impact is the peak of the smoothed hand speed. The top of the swing is
// the last local speed minimum before impact. Each phase starts where its
// heuristic places it and runs to the start of the next one; starts are
// clamped to be non-decreasing so the phases always partition [0, N).
func (s *Segmenter) Segment(seq pose.Sequence) Boundaries {
	cfg := s.config
	n := seq.Len()

	if n < cfg.MinFrames {
		return Coarse(n)
	}

	speed := s.HandSpeed(seq)
	impact := floats.MaxIdx(speed)

	var top int
	if n < cfg.ShortFrames {
		top = n / 2
	} else {
		top = s.findTop(speed, impact)
	}

	// Each phase ends where the next starts, so Impact runs to the
	// follow-through start at impact+DownswingTail rather than stopping at
	// impact+ImpactHalfWidth. That keeps the partition gap-free.
	starts := [NumPhases + 1]int{
		Setup:         0,
		Backswing:     max(cfg.SetupMinFrames, n/cfg.SetupDivisor),
		Transition:    max(0, top-cfg.TransitionMargin),
		Downswing:     min(top+cfg.BackswingOverrun, impact-cfg.ImpactLead),
		Impact:        max(0, impact-cfg.ImpactHalfWidth),
		FollowThrough: min(impact+cfg.DownswingTail, n),
		NumPhases:     n,
	}
	for k := 1; k < NumPhases; k++ {
		starts[k] = min(max(starts[k], starts[k-1]), n)
	}

	b := Boundaries{
		Frames:          n,
		ImpactFrame:     impact,
		TransitionFrame: top,
	}
	for p := 0; p < NumPhases; p++ {
		b.Intervals[p] = Interval{Start: starts[p], End: starts[p+1]}
	}
	return b
}

// findTop searches [0, impact) backwards for the last frame whose speed is
// below both the mean of the preceding and of the following neighbourhood.
// Falls back to impact/2. Neighbourhoods are at least one frame wide.
func (s *Segmenter) findTop(speed []float64, impact int) int {
	before, after := max(1, s.config.MinimumBefore), max(1, s.config.MinimumAfter)
	n := len(speed)

	for t := impact - 1; t >= before; t-- {
		end := min(t+1+after, n)
		if t+1 >= end {
			continue
		}
		if speed[t] < stat.Mean(speed[t-before:t], nil) && speed[t] < stat.Mean(speed[t+1:end], nil) {
			return t
		}
	}
	return impact / 2
}
