package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/api/option"

	"github.com/bryanwahyu/ugc-sentinel/internal/application"
	appsim "github.com/bryanwahyu/ugc-sentinel/internal/application/similarity"
	appsubs "github.com/bryanwahyu/ugc-sentinel/internal/application/submissions"
	"github.com/bryanwahyu/ugc-sentinel/internal/config"
	domsim "github.com/bryanwahyu/ugc-sentinel/internal/domain/similarity"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/ai/openai"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/audd"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/catalog"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/copyleaks"
	mysqlp "github.com/bryanwahyu/ugc-sentinel/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/ugc-sentinel/internal/infra/db/postgres"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/executor/detector"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/httpserver"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/slack"
	minioStore "github.com/bryanwahyu/ugc-sentinel/internal/infra/storage"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/video"
	"github.com/bryanwahyu/ugc-sentinel/internal/infra/vision"
	"github.com/bryanwahyu/ugc-sentinel/internal/logging"
	"github.com/bryanwahyu/ugc-sentinel/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", path).Msg("config load error")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	checkers := map[string]middleware.HealthChecker{}

	// init analyzers
	var visionOpts []option.ClientOption
	if cfg.Vision.Endpoint != "" {
		visionOpts = append(visionOpts, option.WithEndpoint(cfg.Vision.Endpoint))
	}
	visionClient, err := vision.NewClient(ctx, cfg.Vision.APIKey, httpClient, visionOpts...)
	if err != nil {
		logging.Fatal().Err(err).Msg("vision init error")
	}

	// model dicek sekali di startup, dan lagi tiap request
	runner, err := detector.NewRunner(cfg.Detector.ModelPath, cfg.Detector.Command, cfg.Server.TempDir)
	if err != nil {
		logging.Fatal().Err(err).Str("model", cfg.Detector.ModelPath).Msg("detector init error")
	}

	extractor := &video.Extractor{
		Decoder: video.FFmpeg{
			FFprobe:      cfg.Video.FFprobe,
			FFmpeg:       cfg.Video.FFmpeg,
			MaxDimension: cfg.Video.MaxDimension,
		},
		OutputDir:       cfg.Video.OutputDir,
		IntervalSeconds: cfg.Video.IntervalSeconds,
	}

	// init minio (optional)
	if cfg.MinioEnabled() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logging.Fatal().Err(err).Msg("minio init error")
		}
		extractor.Store = store
		checkers["minio"] = store
	}

	refs, closeRefs, err := openReferences(ctx, cfg, checkers)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.References.Driver).Msg("reference catalog init error")
	}
	defer closeRefs()

	// init services
	subsSvc := &appsubs.Service{
		Vision:     visionClient,
		Detector:   runner,
		Audio:      audd.NewClient(cfg.AudD.Endpoint, cfg.AudD.APIToken, cfg.AudD.Return, httpClient),
		Text:       copyleaks.NewClient(cfg.Copyleaks.Endpoint, cfg.Copyleaks.APIKey, httpClient),
		Video:      extractor,
		Notifier:   slack.NewNotifier(httpClient),
		WebhookURL: cfg.Slack.WebhookURL,
		TempDir:    cfg.Server.TempDir,
		Policy:     appsubs.FailurePolicy(cfg.Pipeline.FailurePolicy),
		Clock:      application.SystemClock{},
	}
	simSvc := &appsim.Service{
		Embedder:       openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, httpClient),
		Catalog:        refs,
		CatalogLimit:   cfg.References.Limit,
		MaxConcurrency: cfg.OpenAI.Concurrency,
	}

	// init router
	handler := httpserver.NewRouter(subsSvc, simSvc, httpserver.Options{
		MaxUploadBytes: cfg.UploadLimit(),
		RequestTimeout: cfg.Pipeline.RequestTimeout,
		RequestsPerMin: cfg.Server.RequestsPerMin,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		HealthCheckers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.Pipeline.RequestTimeout + 30*time.Second, // upload besar + analisis video bisa lama
		IdleTimeout:       60 * time.Second,
	}

	// run server
	go func() {
		logging.Info().
			Str("addr", addr).
			Str("policy", cfg.Pipeline.FailurePolicy).
			Bool("minio", cfg.MinioEnabled()).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logging.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
	}
}

// openReferences builds the reference catalog for the similarity ranker. No
// driver means callers must always send their own references.
func openReferences(ctx context.Context, cfg *config.Config, checkers map[string]middleware.HealthChecker) (domsim.ReferenceSource, func(), error) {
	noop := func() {}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.References.Driver {
	case "":
		return nil, noop, nil
	case "file":
		f, err := catalog.Load(cfg.References.Path)
		if err != nil {
			return nil, noop, err
		}
		return f, noop, nil
	case "mysql":
		if db, err = mysqlp.Connect(ctx, cfg.References.DSN); err != nil {
			return nil, noop, err
		}
		repo := mysqlp.NewReferenceRepository(db)
		checkers["references"] = repo
		return repo, func() { db.Close() }, nil
	case "postgres":
		if db, err = pgp.Connect(ctx, cfg.References.DSN); err != nil {
			return nil, noop, err
		}
		repo := pgp.NewReferenceRepository(db)
		checkers["references"] = repo
		return repo, func() { db.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown reference driver %q", cfg.References.Driver)
}
