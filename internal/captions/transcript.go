package captions

import (
	"encoding/json"
	"math"
	"os"

	"clipforge/internal/services"
)

// Segment is one timed span of transcribed text. Times are seconds from the
// start of the media.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Valid reports whether the segment has usable times.
func (s Segment) Valid() bool {
	if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return false
	}
	return s.Start >= 0 && s.End >= s.Start
}

// Transcript is an ordered list of segments.
type Transcript struct {
	Language string    `json:"language,omitempty"`
	Text     string    `json:"text,omitempty"`
	Segments []Segment `json:"segments"`
}

// LoadWhisperJSON reads the JSON document written by whisper's
// --output_format json.
func LoadWhisperJSON(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "captions", "load transcript", path, err)
	}
	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "captions", "parse transcript", path, err)
	}
	return transcript, nil
}
