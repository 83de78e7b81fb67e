package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/applications"
	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/config"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/cookies"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/health"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/router"
	"github.com/IT21309038/Mini-Job-Board/internal/jobs"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/jwt"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/signedlink"
	"github.com/IT21309038/Mini-Job-Board/internal/rabbitmq"
	"github.com/IT21309038/Mini-Job-Board/internal/storage/files"
	"github.com/IT21309038/Mini-Job-Board/internal/storage/postgres"
	"github.com/IT21309038/Mini-Job-Board/internal/storage/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting job board", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	if err := storage.Migrate(ctx); err != nil {
		log.Error("failed to apply migrations", sl.Err(err))
		os.Exit(1)
	}

	denylist, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer denylist.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	blobs, err := setupBlobs(ctx, cfg.Resumes)
	if err != nil {
		log.Error("failed to init resume storage", sl.Err(err))
		os.Exit(1)
	}

	authService := auth.New(
		log,
		storage,
		storage,
		storage,
		denylist,
		jwt.NewIssuer(cfg.Tokens.AccessTokenSecret, cfg.Tokens.Issuer, cfg.Tokens.AccessTokenTTL),
		cfg.Tokens.RefreshTokenTTL,
	)

	applicationService := applications.New(
		log,
		storage,
		blobs,
		msgBroker,
		signedlink.New(cfg.SignedLinks.Secret),
		applications.Config{
			PublicURL:     cfg.HTTPServer.PublicURL,
			LinkTTL:       cfg.SignedLinks.ResumeTTL,
			MaxResumeSize: cfg.Resumes.MaxSize,
		},
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := router.New(log, router.Deps{
		Auth:           authService,
		Jobs:           jobs.New(log, storage),
		Applications:   applicationService,
		Cookies:        cookies.New(cfg.Cookies, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL),
		Health:         map[string]health.Pinger{"postgres": storage, "redis": denylist},
		Registry:       registry,
		AllowedOrigins: cfg.HTTPServer.AllowedOrigins,
		MaxResumeSize:  cfg.Resumes.MaxSize,
		RateLimits:     true,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", sl.Err(err))
	} else {
		log.Info("server stopped gracefully")
	}
}

func setupBlobs(ctx context.Context, cfg config.Resumes) (applications.BlobStore, error) {
	if cfg.Driver == "s3" {
		s3, err := files.NewS3(ctx, files.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}

	local, err := files.NewLocal(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return local, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
