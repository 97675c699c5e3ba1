package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os/exec"
	"strings"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
)

// FFmpeg decodes containers by piping raw rgb24 frames out of ffmpeg.
type FFmpeg struct {
	FFprobe      string
	FFmpeg       string
	MaxDimension int
}

// Open implements Decoder.
func (f FFmpeg) Open(ctx context.Context, path string) (Stream, error) {
	info, err := probe(ctx, f.FFprobe, path, f.MaxDimension)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, faults.New(faults.KindConfig, opOpen, err)
		}
		return nil, faults.New(faults.KindCorruptStream, opOpen, err)
	}

	bin := strings.TrimSpace(f.FFmpeg)
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error", "-nostdin",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo", "-pix_fmt", "rgb24",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, faults.New(faults.KindCorruptStream, opOpen, err)
	}
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, faults.New(faults.KindConfig, opOpen, err)
		}
		return nil, faults.New(faults.KindCorruptStream, opOpen, err)
	}

	return &ffmpegStream{
		cmd:    cmd,
		stdout: stdout,
		fps:    info.FPS,
		frame: &rgbFrame{
			w:   info.Width,
			h:   info.Height,
			pix: make([]byte, info.Width*info.Height*3),
		},
	}, nil
}

type ffmpegStream struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	fps     float64
	frame   *rgbFrame
	done    bool
	waited  bool
	waitErr error
}

func (s *ffmpegStream) FPS() float64 { return s.fps }

// Next reads the next frame. The returned image is reused by the following
// call. A decoder that exits non-zero surfaces as an error instead of EOF.
func (s *ffmpegStream) Next() (image.Image, error) {
	if s.done {
		return nil, io.EOF
	}
	_, err := io.ReadFull(s.stdout, s.frame.pix)
	switch {
	case err == nil:
		return s.frame, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// partial trailing frame counts as end-of-stream
		s.done = true
		if werr := s.wait(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	default:
		return nil, err
	}
}

func (s *ffmpegStream) wait() error {
	if !s.waited {
		s.waited = true
		if err := s.cmd.Wait(); err != nil {
			var ee *exec.ExitError
			if errors.As(err, &ee) {
				s.waitErr = fmt.Errorf("ffmpeg exit %d: %w", ee.ExitCode(), err)
			} else {
				s.waitErr = fmt.Errorf("ffmpeg: %w", err)
			}
		}
	}
	return s.waitErr
}

func (s *ffmpegStream) Close() error {
	if s.waited {
		return nil
	}
	// stopped early: kill the decoder, its exit status is irrelevant
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.stdout.Close()
	_ = s.wait()
	return nil
}

// rgbFrame is a packed rgb24 image.
type rgbFrame struct {
	w, h int
	pix  []byte
}

func (f *rgbFrame) ColorModel() color.Model { return color.RGBAModel }
func (f *rgbFrame) Bounds() image.Rectangle { return image.Rect(0, 0, f.w, f.h) }
func (f *rgbFrame) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return color.RGBA{}
	}
	i := (y*f.w + x) * 3
	return color.RGBA{R: f.pix[i], G: f.pix[i+1], B: f.pix[i+2], A: 0xff}
}
