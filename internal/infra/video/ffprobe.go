package video

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type probeResult struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
}

// DefaultMaxDimension caps frame width and height (8K UHD).
const DefaultMaxDimension = 7680

// streamInfo describes the first video stream of a container.
type streamInfo struct {
	Width  int
	Height int
	FPS    float64
}

// probe executes ffprobe against path and picks the first video stream.
func probe(ctx context.Context, binary, path string, maxDim int) (streamInfo, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return streamInfo{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return streamInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(output, maxDim)
}

// parseProbe rejects streams larger than maxDim on either axis; the frame
// buffer is sized from these header values. maxDim <= 0 means
// DefaultMaxDimension.
func parseProbe(output []byte, maxDim int) (streamInfo, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	var res probeResult
	if err := json.Unmarshal(output, &res); err != nil {
		return streamInfo{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	for _, s := range res.Streams {
		if !strings.EqualFold(s.CodecType, "video") {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			return streamInfo{}, fmt.Errorf("video stream has no dimensions")
		}
		if s.Width > maxDim || s.Height > maxDim {
			return streamInfo{}, fmt.Errorf("video stream %dx%d exceeds %dpx limit", s.Width, s.Height, maxDim)
		}
		fps := parseRate(s.AvgFrameRate)
		if fps <= 0 {
			fps = parseRate(s.RFrameRate)
		}
		return streamInfo{Width: s.Width, Height: s.Height, FPS: fps}, nil
	}
	return streamInfo{}, fmt.Errorf("no video stream")
}

// parseRate reads ffprobe rationals like "30000/1001" or plain "25".
func parseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, ok := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
