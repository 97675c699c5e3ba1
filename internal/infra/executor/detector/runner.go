package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/submissions"
)

const (
	opLoad   = "detector.load"
	opDetect = "detector.detect"

	placeholderModel = "{model}"
	placeholderImage = "{image}"
)

// Runner executes a pre-trained object-detection model through an external
// detector process. The process receives the model artifact and an image path
// and prints a JSON array of xyxy records on stdout.
type Runner struct {
	modelPath string
	command   []string
	workDir   string
}

// record is one row of the detector's xyxy output.
type record struct {
	Name       string  `json:"name"`
	Class      int     `json:"class"`
	Confidence float64 `json:"confidence"`
	XMin       float64 `json:"xmin"`
	YMin       float64 `json:"ymin"`
	XMax       float64 `json:"xmax"`
	YMax       float64 `json:"ymax"`
}

// NewRunner verifies the model artifact up front so a broken deployment fails
// at start instead of on the first upload.
func NewRunner(modelPath string, command []string, workDir string) (*Runner, error) {
	if len(command) == 0 {
		return nil, faults.Newf(faults.KindConfig, opLoad, "detector command is empty")
	}
	r := &Runner{modelPath: modelPath, command: command, workDir: workDir}
	if err := r.checkModel(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) checkModel() error {
	info, err := os.Stat(r.modelPath)
	if err != nil {
		return faults.New(faults.KindModelLoad, opLoad, err)
	}
	if !info.Mode().IsRegular() {
		return faults.Newf(faults.KindModelLoad, opLoad, "%s is not a regular file", r.modelPath)
	}
	if info.Size() == 0 {
		return faults.Newf(faults.KindModelLoad, opLoad, "%s is empty", r.modelPath)
	}
	return nil
}

// Detect implements domain.ObjectDetector.
func (r *Runner) Detect(ctx context.Context, content []byte) ([]domain.Detection, error) {
	// artifact bisa hilang setelah start (volume di-unmount, dsb)
	if err := r.checkModel(); err != nil {
		return nil, err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, faults.New(faults.KindInference, opDetect, fmt.Errorf("unreadable image: %w", err))
	}

	if r.workDir != "" {
		if err := os.MkdirAll(r.workDir, 0o755); err != nil {
			return nil, faults.New(faults.KindInference, opDetect, err)
		}
	}
	f, err := os.CreateTemp(r.workDir, "detect-*."+format)
	if err != nil {
		return nil, faults.New(faults.KindInference, opDetect, err)
	}
	imgPath := f.Name()
	defer os.Remove(imgPath)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, faults.New(faults.KindInference, opDetect, err)
	}
	if err := f.Close(); err != nil {
		return nil, faults.New(faults.KindInference, opDetect, err)
	}

	args := expand(r.command, r.modelPath, imgPath)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, faults.Newf(faults.KindInference, opDetect, "exit %d: %s", ee.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, faults.New(faults.KindInference, opDetect, err)
	}

	var rows []record
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &rows); err != nil {
		return nil, faults.New(faults.KindInference, opDetect, fmt.Errorf("parse detector output: %w", err))
	}

	out := make([]domain.Detection, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Detection{
			Label:  row.Name,
			Source: domain.SourceModel,
			Metadata: map[string]any{
				"class":      row.Class,
				"confidence": row.Confidence,
				"bbox":       domain.BoundingBox{XMin: row.XMin, YMin: row.YMin, XMax: row.XMax, YMax: row.YMax},
			},
		})
	}
	return out, nil
}

func expand(command []string, modelPath, imgPath string) []string {
	absImg, err := filepath.Abs(imgPath)
	if err != nil {
		absImg = imgPath
	}
	out := make([]string, len(command))
	for i, a := range command {
		a = strings.ReplaceAll(a, placeholderModel, modelPath)
		out[i] = strings.ReplaceAll(a, placeholderImage, absImg)
	}
	return out
}
