package submissions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/ugc-sentinel/internal/application"
	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/submissions"
	"github.com/bryanwahyu/ugc-sentinel/internal/logging"
	"github.com/bryanwahyu/ugc-sentinel/internal/metrics"
)

// FailurePolicy decides what an analyzer failure does to the submission.
type FailurePolicy string

const (
	// PolicyAbort fails the whole submission; nothing is notified.
	PolicyAbort FailurePolicy = "abort"
	// PolicyDegrade keeps what the other analyzers found and still notifies.
	PolicyDegrade FailurePolicy = "degrade"
)

// Analyzer names used in failures, logs and metrics.
const (
	AnalyzerVision   = "vision"
	AnalyzerDetector = "detector"
	AnalyzerAudio    = "audio"
	AnalyzerText     = "text"
	AnalyzerVideo    = "video"
)

// Service runs the ingestion pipeline:
// classify → analyze → score → notify → respond.
// It holds no per-submission state and is safe for concurrent use.
type Service struct {
	Vision   domain.ImageRecognizer
	Detector domain.ObjectDetector
	Audio    domain.AudioMatcher
	Text     domain.PlagiarismChecker
	Video    domain.FrameExtractor
	Notifier domain.Notifier

	WebhookURL string
	TempDir    string
	Policy     FailurePolicy
	Clock      application.Clock
}

// IngestCommand is one upload.
type IngestCommand struct {
	FileName string
	Content  []byte
}

// Ingest processes one submission start to finish. On error no notification
// has been sent and no partial result is returned.
func (s *Service) Ingest(ctx context.Context, cmd IngestCommand) (*domain.AnalysisResult, error) {
	if s.Notifier == nil {
		return nil, faults.Newf(faults.KindConfig, "pipeline.notify", "notifier not configured")
	}

	sub := domain.Submission{
		ID:          uuid.New().String(),
		FileName:    cmd.FileName,
		Content:     cmd.Content,
		ContentType: domain.Classify(cmd.FileName),
		ReceivedAt:  s.clock().Now(),
	}

	log := logging.With("pipeline").With().
		Str("submission", sub.ID).
		Str("file", sub.FileName).
		Str("type", string(sub.ContentType)).
		Logger()
	ctx = logging.WithContext(ctx, log)
	log.Info().Int("bytes", len(sub.Content)).Msg("submission classified")

	res := &domain.AnalysisResult{
		ID:         sub.ID,
		File:       sub.FileName,
		Type:       sub.ContentType,
		Detections: []domain.Detection{},
	}

	if err := s.analyze(ctx, sub, res); err != nil {
		log.Error().Err(err).Str("kind", string(faults.KindOf(err))).Msg("submission aborted")
		metrics.RecordSubmission(string(sub.ContentType), "failed", 0)
		return nil, err
	}

	res.RiskScore = domain.Score(res.Detections)

	msg := fmt.Sprintf("[ALERT] UGC submission risk: %d - File: %s", res.RiskScore, sub.FileName)
	if res.Degraded() {
		msg += " (degraded)"
	}
	res.Notified = s.Notifier.Send(ctx, s.WebhookURL, msg)
	metrics.RecordNotification(res.Notified)

	outcome := "ok"
	if res.Degraded() {
		outcome = "degraded"
	}
	metrics.RecordSubmission(string(sub.ContentType), outcome, res.RiskScore)
	log.Info().
		Int("risk", res.RiskScore).
		Int("detections", len(res.Detections)).
		Int("failures", len(res.Failures)).
		Bool("notified", res.Notified).
		Dur("elapsed", application.Since(s.clock(), sub.ReceivedAt)).
		Msg("submission processed")

	return res, nil
}

func (s *Service) analyze(ctx context.Context, sub domain.Submission, res *domain.AnalysisResult) error {
	switch sub.ContentType {
	case domain.TypeImage:
		return s.analyzeImage(ctx, sub, res)
	case domain.TypeAudio:
		return s.analyzeAudio(ctx, sub, res)
	case domain.TypeText:
		return s.analyzeText(ctx, sub, res)
	case domain.TypeVideo:
		return s.analyzeVideo(ctx, sub, res)
	default:
		// unknown: langsung ke scoring
		return nil
	}
}

// analyzeImage runs both image sub-calls side by side. Each one fails on its
// own; the policy decides whether a failure sinks the submission.
func (s *Service) analyzeImage(ctx context.Context, sub domain.Submission, res *domain.AnalysisResult) error {
	if s.Vision == nil || s.Detector == nil {
		return faults.Newf(faults.KindConfig, "pipeline.image", "image analyzers not configured")
	}

	var (
		wg                  sync.WaitGroup
		visionDet, modelDet []domain.Detection
		visionErr, modelErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		visionDet, visionErr = s.Vision.DetectLogos(ctx, sub.Content)
	}()
	go func() {
		defer wg.Done()
		modelDet, modelErr = s.Detector.Detect(ctx, sub.Content)
	}()
	wg.Wait()

	if visionErr != nil {
		if err := s.capture(ctx, res, AnalyzerVision, visionErr); err != nil {
			return err
		}
	} else {
		res.Detections = append(res.Detections, visionDet...)
	}
	if modelErr != nil {
		if err := s.capture(ctx, res, AnalyzerDetector, modelErr); err != nil {
			return err
		}
	} else {
		res.Detections = append(res.Detections, modelDet...)
	}
	return nil
}

func (s *Service) analyzeAudio(ctx context.Context, sub domain.Submission, res *domain.AnalysisResult) error {
	if s.Audio == nil {
		return faults.Newf(faults.KindConfig, "pipeline.audio", "audio analyzer not configured")
	}
	match, err := s.Audio.Match(ctx, sub.FileName, sub.Content)
	if err != nil {
		return s.capture(ctx, res, AnalyzerAudio, err)
	}
	res.AudioMatch = match
	return nil
}

func (s *Service) analyzeText(ctx context.Context, sub domain.Submission, res *domain.AnalysisResult) error {
	if s.Text == nil {
		return faults.Newf(faults.KindConfig, "pipeline.text", "text analyzer not configured")
	}
	text, err := domain.DecodeText(sub.Content)
	if err != nil {
		return s.capture(ctx, res, AnalyzerText, err)
	}
	report, err := s.Text.Check(ctx, sub.FileName, text)
	if err != nil {
		return s.capture(ctx, res, AnalyzerText, err)
	}
	res.Plagiarism = report
	return nil
}

func (s *Service) analyzeVideo(ctx context.Context, sub domain.Submission, res *domain.AnalysisResult) error {
	if s.Video == nil {
		return faults.Newf(faults.KindConfig, "pipeline.video", "video analyzer not configured")
	}
	path, cleanup, err := s.spool(sub)
	if err != nil {
		return err
	}
	defer cleanup()

	frames, err := s.Video.Extract(ctx, sub.ID, path)
	if err != nil {
		return s.capture(ctx, res, AnalyzerVideo, err)
	}
	res.Frames = frames
	return nil
}

// capture records an analyzer failure. It returns the error when the
// submission must abort, nil when the failure was absorbed into res.
func (s *Service) capture(ctx context.Context, res *domain.AnalysisResult, analyzer string, err error) error {
	kind := faults.KindOf(err)
	metrics.RecordAnalyzerFault(analyzer, string(kind))

	if s.Policy != PolicyDegrade || faults.IsInput(err) {
		return fmt.Errorf("%s analyzer: %w", analyzer, err)
	}
	logging.Ctx(ctx).Warn().Err(err).Str("analyzer", analyzer).Msg("analyzer failed, continuing degraded")
	res.Failures = append(res.Failures, domain.Failure{
		Analyzer: analyzer,
		Kind:     kind,
		Message:  err.Error(),
	})
	return nil
}

// spool writes the upload to TempDir/<id>/<name> for tools that need a path.
func (s *Service) spool(sub domain.Submission) (string, func(), error) {
	dir := filepath.Join(s.TempDir, sub.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	name := filepath.Base(strings.ReplaceAll(sub.FileName, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "upload" + filepath.Ext(sub.FileName)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, sub.Content, 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	return path, cleanup, nil
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}
