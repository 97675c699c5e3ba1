package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"

	appsim "github.com/bryanwahyu/ugc-sentinel/internal/application/similarity"
	appsubs "github.com/bryanwahyu/ugc-sentinel/internal/application/submissions"
	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domsim "github.com/bryanwahyu/ugc-sentinel/internal/domain/similarity"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/submissions"
	"github.com/bryanwahyu/ugc-sentinel/internal/logging"
	"github.com/bryanwahyu/ugc-sentinel/internal/middleware"
)

// multipart parts above this size spill to disk
const multipartMemory = 8 << 20

// Options tune the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	RequestsPerMin int
	AllowedOrigins []string
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	subsSvc *appsubs.Service
	simSvc  *appsim.Service
	opts    Options
}

func NewRouter(subsSvc *appsubs.Service, simSvc *appsim.Service, opts Options) http.Handler {
	r := &Router{subsSvc: subsSvc, simSvc: simSvc, opts: opts}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}
	mux.Use(middleware.RateLimitMiddleware(opts.RequestsPerMin))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	mux.Post("/upload", r.wrap(r.handleUpload))
	mux.Post("/similarity", r.wrap(r.handleSimilarity))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// requestError is a client mistake caught before the pipeline runs.
type requestError struct {
	status int
	kind   string
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, kind: "bad_request", msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, kind := classify(err)
			if status >= http.StatusInternalServerError {
				logging.Ctx(req.Context()).Error().Err(err).Str("kind", kind).Msg("request failed")
			}
			writeError(w, status, kind, err.Error())
		}
	}
}

// classify maps an error to an HTTP status and the kind reported to the client.
func classify(err error) (int, string) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr.status, reqErr.kind
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "too_large"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "timeout"
	}
	if errors.Is(err, appsim.ErrNoReferences) {
		return http.StatusBadRequest, "bad_request"
	}
	if errors.Is(err, domsim.ErrZeroMagnitude) || errors.Is(err, domsim.ErrDimensionMismatch) {
		return http.StatusUnprocessableEntity, "similarity_undefined"
	}

	switch kind := faults.KindOf(err); kind {
	case faults.KindDecode, faults.KindCorruptStream:
		return http.StatusUnprocessableEntity, string(kind)
	case faults.KindService:
		return http.StatusBadGateway, string(kind)
	case faults.KindModelLoad, faults.KindInference, faults.KindConfig:
		return http.StatusInternalServerError, string(kind)
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"kind": kind, "message": msg},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /upload
// multipart/form-data, field "file"
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	if r.opts.MaxUploadBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxUploadBytes)
	}
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequest("invalid multipart body: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	file, hdr, err := req.FormFile("file")
	if err != nil {
		return badRequest("missing form field %q", "file")
	}
	defer file.Close()

	name, err := middleware.SanitizeFileName(hdr.Filename)
	if err != nil {
		return badRequest("%v", err)
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	ctx := req.Context()
	if r.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RequestTimeout)
		defer cancel()
	}

	res, err := r.subsSvc.Ingest(ctx, appsubs.IngestCommand{FileName: name, Content: content})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, uploadResponse(res))
}

// uploadResponse carries only the field that belongs to the submission's type.
func uploadResponse(res *domain.AnalysisResult) map[string]any {
	out := map[string]any{
		"id":         res.ID,
		"file":       res.File,
		"type":       res.Type,
		"detections": res.Detections,
		"risk_score": res.RiskScore,
		"notified":   res.Notified,
	}
	switch res.Type {
	case domain.TypeAudio:
		// null kalau tidak ada lagu yang cocok
		out["audio_match"] = res.AudioMatch
	case domain.TypeText:
		if len(res.Plagiarism) > 0 {
			out["plagiarism"] = res.Plagiarism
		} else {
			out["plagiarism"] = map[string]any{}
		}
	case domain.TypeVideo:
		frames := res.Frames
		if frames == nil {
			frames = []string{}
		}
		out["frames"] = frames
	}
	if res.Degraded() {
		out["failures"] = res.Failures
	}
	return out
}

// POST /similarity
// Body: {"text": "...", "references": ["...", ...]}
// Without references the configured catalog is used.
func (r *Router) handleSimilarity(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text       string   `json:"text"`
		References []string `json:"references"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid json body: %v", err)
	}
	if err := middleware.ValidateSimilarityInput(body.Text, body.References); err != nil {
		return badRequest("%v", err)
	}

	ctx := req.Context()
	if r.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RequestTimeout)
		defer cancel()
	}

	results, err := r.simSvc.RankAgainstCatalog(ctx, body.Text, body.References)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
