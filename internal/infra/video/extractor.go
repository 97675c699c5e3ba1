package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/submissions"
	"github.com/bryanwahyu/ugc-sentinel/internal/logging"
)

const (
	opOpen    = "video.open"
	opExtract = "video.extract"
)

// Stream yields decoded frames in order. Next returns io.EOF at end-of-stream.
type Stream interface {
	FPS() float64
	Next() (image.Image, error)
	Close() error
}

// Decoder opens a container for sequential decoding.
type Decoder interface {
	Open(ctx context.Context, path string) (Stream, error)
}

// Extractor samples one frame every IntervalSeconds of video and writes each
// sample as a JPEG under OutputDir/<submissionID>/. When Store is set the
// frames are uploaded and the returned identifiers are object URLs.
type Extractor struct {
	Decoder         Decoder
	OutputDir       string
	IntervalSeconds int
	Quality         int
	Store           domain.ArtifactStore
}

// FrameInterval is the number of decoded frames between two samples.
func FrameInterval(fps float64, intervalSeconds int) int {
	if intervalSeconds < 1 {
		intervalSeconds = 1
	}
	n := int(math.Floor(fps)) * intervalSeconds
	if n < 1 {
		// fps < 1 or unknown: take every frame
		return 1
	}
	return n
}

// Extract implements domain.FrameExtractor.
func (e *Extractor) Extract(ctx context.Context, submissionID, videoPath string) ([]string, error) {
	stream, err := e.Decoder.Open(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			logging.Ctx(ctx).Warn().Err(cerr).Str("submission", submissionID).Msg("decoder closed with error")
		}
	}()

	dir := filepath.Join(e.OutputDir, submissionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: create output dir: %w", opExtract, err)
	}
	if e.Store != nil {
		defer os.Remove(dir)
	}

	interval := FrameInterval(stream.FPS(), e.IntervalSeconds)
	artifacts := []string{}

	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, faults.New(faults.KindCorruptStream, opExtract, fmt.Errorf("frame %d: %w", n, err))
		}
		if n%interval != 0 {
			continue
		}

		name := fmt.Sprintf("frame%d.jpg", n)
		local := filepath.Join(dir, name)
		if err := e.writeJPEG(local, frame); err != nil {
			return nil, fmt.Errorf("%s: write %s: %w", opExtract, name, err)
		}

		if e.Store == nil {
			artifacts = append(artifacts, name)
			continue
		}
		url, err := e.Store.UploadAndCleanup(ctx, local, path.Join(submissionID, name))
		if err != nil {
			os.Remove(local)
			return nil, faults.New(faults.KindService, opExtract, err)
		}
		artifacts = append(artifacts, url)
	}

	return artifacts, nil
}

func (e *Extractor) writeJPEG(p string, img image.Image) error {
	q := e.Quality
	if q <= 0 {
		q = jpeg.DefaultQuality
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: q}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
