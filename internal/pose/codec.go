package pose

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonSequence is the wire form of a Sequence.
type jsonSequence struct {
	FPS    float64     `json:"fps"`
	Frames []jsonFrame `json:"frames"`
}

type jsonFrame struct {
	Index       int                 `json:"index"`
	TimestampMs int64               `json:"timestamp_ms"`
	Landmarks   map[string]Landmark `json:"landmarks"`
}

// MarshalJSON encodes the frame with landmarks keyed by name.
func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSONFrame(f))
}

// UnmarshalJSON decodes a frame. Unknown landmark names are ignored and
// missing landmarks stay at zero confidence.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var jf jsonFrame
	if err := json.Unmarshal(data, &jf); err != nil {
		return err
	}
	*f = fromJSONFrame(jf)
	return nil
}

// MarshalJSON encodes the sequence.
func (s Sequence) MarshalJSON() ([]byte, error) {
	js := jsonSequence{FPS: s.FPS, Frames: make([]jsonFrame, len(s.Frames))}
	for i, f := range s.Frames {
		js.Frames[i] = toJSONFrame(f)
	}
	return json.Marshal(js)
}

// UnmarshalJSON decodes a sequence.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var js jsonSequence
	if err := json.Unmarshal(data, &js); err != nil {
		return err
	}
	out := Sequence{FPS: js.FPS, Frames: make([]Frame, len(js.Frames))}
	for i, jf := range js.Frames {
		out.Frames[i] = fromJSONFrame(jf)
	}
	*s = out
	return nil
}

// ReadSequence decodes a JSON landmark sequence from r.
func ReadSequence(r io.Reader) (Sequence, error) {
	var seq Sequence
	if err := json.NewDecoder(r).Decode(&seq); err != nil {
		return Sequence{}, fmt.Errorf("decode sequence: %w", err)
	}
	return seq, nil
}

func toJSONFrame(f Frame) jsonFrame {
	jf := jsonFrame{
		Index:       f.Index,
		TimestampMs: f.TimestampMs,
		Landmarks:   make(map[string]Landmark, NumLandmarks),
	}
	for i := 0; i < NumLandmarks; i++ {
		jf.Landmarks[names[i]] = f.Landmarks[i]
	}
	return jf
}

func fromJSONFrame(jf jsonFrame) Frame {
	f := Frame{Index: jf.Index, TimestampMs: jf.TimestampMs}
	for name, lm := range jf.Landmarks {
		if id, ok := ParseID(name); ok {
			f.Landmarks[id] = lm
		}
	}
	return f
}
