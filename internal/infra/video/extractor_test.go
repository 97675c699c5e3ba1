package video

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
)

type fakeStream struct {
	fps    float64
	frames int
	failAt int
	pos    int
	closed bool
}

func (s *fakeStream) FPS() float64 { return s.fps }

func (s *fakeStream) Next() (image.Image, error) {
	if s.failAt > 0 && s.pos == s.failAt {
		return nil, errors.New("broken packet")
	}
	if s.pos >= s.frames {
		return nil, io.EOF
	}
	s.pos++
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (s *fakeStream) Close() error { s.closed = true; return nil }

type fakeDecoder struct {
	stream *fakeStream
	err    error
}

func (d *fakeDecoder) Open(ctx context.Context, path string) (Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

type memStore struct {
	mu   sync.Mutex
	keys []string
}

func (m *memStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return "http://minio.local/frames/" + key, nil
}

func (m *memStore) UploadAndCleanup(ctx context.Context, localPath, key string) (string, error) {
	url, err := m.Upload(ctx, localPath, key)
	if err != nil {
		return "", err
	}
	return url, os.Remove(localPath)
}

func TestFrameInterval(t *testing.T) {
	assert.Equal(t, 30, FrameInterval(30, 1))
	assert.Equal(t, 29, FrameInterval(29.97, 1))
	assert.Equal(t, 50, FrameInterval(25, 2))
	assert.Equal(t, 1, FrameInterval(0.5, 1))
	assert.Equal(t, 1, FrameInterval(0, 1))
	assert.Equal(t, 24, FrameInterval(24, 0))
}

func TestExtractSamplesEverySecond(t *testing.T) {
	out := t.TempDir()
	stream := &fakeStream{fps: 30, frames: 95}
	e := &Extractor{Decoder: &fakeDecoder{stream: stream}, OutputDir: out, IntervalSeconds: 1}

	frames, err := e.Extract(context.Background(), "sub-1", "clip.mov")
	require.NoError(t, err)

	assert.Equal(t, []string{"frame0.jpg", "frame30.jpg", "frame60.jpg", "frame90.jpg"}, frames)
	for _, f := range frames {
		assert.FileExists(t, filepath.Join(out, "sub-1", f))
	}
	assert.Equal(t, 95, stream.pos, "whole stream is consumed sequentially")
	assert.True(t, stream.closed)
}

func TestExtractEmptyStream(t *testing.T) {
	e := &Extractor{Decoder: &fakeDecoder{stream: &fakeStream{fps: 30}}, OutputDir: t.TempDir(), IntervalSeconds: 1}

	frames, err := e.Extract(context.Background(), "sub-2", "empty.mp4")
	require.NoError(t, err)
	assert.NotNil(t, frames)
	assert.Empty(t, frames)
}

func TestExtractOpenFailure(t *testing.T) {
	openErr := faults.Newf(faults.KindCorruptStream, opOpen, "moov atom not found")
	e := &Extractor{Decoder: &fakeDecoder{err: openErr}, OutputDir: t.TempDir()}

	_, err := e.Extract(context.Background(), "sub-3", "broken.mov")
	assert.ErrorIs(t, err, faults.ErrCorruptStream)
}

func TestExtractMidStreamFailure(t *testing.T) {
	e := &Extractor{Decoder: &fakeDecoder{stream: &fakeStream{fps: 10, frames: 50, failAt: 12}}, OutputDir: t.TempDir()}

	_, err := e.Extract(context.Background(), "sub-4", "clip.mp4")
	assert.ErrorIs(t, err, faults.ErrCorruptStream)
}

func TestExtractUploadsToStore(t *testing.T) {
	out := t.TempDir()
	store := &memStore{}
	e := &Extractor{Decoder: &fakeDecoder{stream: &fakeStream{fps: 25, frames: 60}}, OutputDir: out, IntervalSeconds: 1, Store: store}

	frames, err := e.Extract(context.Background(), "sub-5", "clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"http://minio.local/frames/sub-5/frame0.jpg",
		"http://minio.local/frames/sub-5/frame25.jpg",
		"http://minio.local/frames/sub-5/frame50.jpg",
	}, frames)
	assert.NoDirExists(t, filepath.Join(out, "sub-5"))
}

func TestExtractHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &Extractor{Decoder: &fakeDecoder{stream: &fakeStream{fps: 30, frames: 10}}, OutputDir: t.TempDir()}

	_, err := e.Extract(ctx, "sub-6", "clip.mp4")
	assert.ErrorIs(t, err, context.Canceled)
}
