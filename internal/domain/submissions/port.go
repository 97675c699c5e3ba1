package submissions

import (
	"context"
	"encoding/json"
)

// ImageRecognizer port (hosted logo detection)
type ImageRecognizer interface {
	DetectLogos(ctx context.Context, content []byte) ([]Detection, error)
}

// ObjectDetector port (local model artifact)
type ObjectDetector interface {
	Detect(ctx context.Context, content []byte) ([]Detection, error)
}

// AudioMatcher port. A nil match with nil error means "no match".
type AudioMatcher interface {
	Match(ctx context.Context, fileName string, content []byte) (*AudioMatch, error)
}

// PlagiarismReport is the provider's JSON answer, passed through untouched.
type PlagiarismReport = json.RawMessage

// PlagiarismChecker port
type PlagiarismChecker interface {
	Check(ctx context.Context, fileName, text string) (PlagiarismReport, error)
}

// FrameExtractor port. Returns artifact identifiers of the sampled frames.
type FrameExtractor interface {
	Extract(ctx context.Context, submissionID, videoPath string) ([]string, error)
}

// Notifier port
type Notifier interface {
	Send(ctx context.Context, endpoint, message string) bool
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}
