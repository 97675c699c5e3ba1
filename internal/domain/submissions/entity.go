package submissions

import (
	"encoding/json"
	"time"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
)

// ContentType enum
type ContentType string

const (
	TypeImage   ContentType = "image"
	TypeVideo   ContentType = "video"
	TypeAudio   ContentType = "audio"
	TypeText    ContentType = "text"
	TypeUnknown ContentType = "unknown"
)

// Detection sources
const (
	SourceVision = "vision"
	SourceModel  = "model"
)

// Submission is one uploaded file. It lives only for the duration of a
// pipeline run.
type Submission struct {
	ID          string
	FileName    string
	Content     []byte
	ContentType ContentType
	ReceivedAt  time.Time
}

// Detection is a single finding from an analyzer.
type Detection struct {
	Label    string         `json:"label"`
	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// BoundingBox in pixel coordinates of the analyzed image.
type BoundingBox struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// AudioMatch is the normalized answer of the fingerprinting service.
type AudioMatch struct {
	Title       string            `json:"title"`
	Artist      string            `json:"artist"`
	Album       string            `json:"album,omitempty"`
	ReleaseDate string            `json:"release_date,omitempty"`
	Timecode    string            `json:"timecode,omitempty"`
	SongLink    string            `json:"song_link,omitempty"`
	Links       map[string]string `json:"links,omitempty"`
}

// Failure records an analyzer sub-call that failed but did not abort the run.
type Failure struct {
	Analyzer string      `json:"analyzer"`
	Kind     faults.Kind `json:"kind"`
	Message  string      `json:"message"`
}

// AnalysisResult is what the pipeline returns for one submission.
type AnalysisResult struct {
	ID         string          `json:"id"`
	File       string          `json:"file"`
	Type       ContentType     `json:"type"`
	Detections []Detection     `json:"detections"`
	AudioMatch *AudioMatch     `json:"audio_match,omitempty"`
	Plagiarism json.RawMessage `json:"plagiarism,omitempty"`
	Frames     []string        `json:"frames,omitempty"`
	RiskScore  int             `json:"risk_score"`
	Notified   bool            `json:"notified"`
	Failures   []Failure       `json:"failures,omitempty"`
}

// Degraded reports whether any analyzer sub-call failed.
func (r *AnalysisResult) Degraded() bool { return len(r.Failures) > 0 }
