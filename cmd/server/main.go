package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/welldanyogia/brochure-contact-backend/internal/api"
	"github.com/welldanyogia/brochure-contact-backend/internal/config"
	"github.com/welldanyogia/brochure-contact-backend/internal/database"
	"github.com/welldanyogia/brochure-contact-backend/internal/logger"
	"github.com/welldanyogia/brochure-contact-backend/internal/metrics"
	"github.com/welldanyogia/brochure-contact-backend/internal/repository"
	"github.com/welldanyogia/brochure-contact-backend/internal/services"
	"github.com/welldanyogia/brochure-contact-backend/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := config.LoadWithValidation()
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	slog.Info("Starting contact backend server...")
	cfg.LogConfig(log)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Database
	dbOpts := database.DefaultOptions(cfg.IsProduction())
	dbOpts.LogLevel = cfg.LogLevel
	db, err := database.Connect(cfg.DatabaseURL, dbOpts)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	files, err := storage.NewLocalStorage(cfg.AttachmentStoragePath, cfg.MaxAttachmentSize)
	if err != nil {
		return fmt.Errorf("failed to initialize attachment storage: %w", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	security := logger.NewSecurityLogger()

	// Repositories
	submissionRepo := repository.NewSubmissionRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	contentRepo := repository.NewContentRepository(db)

	// Notifications
	var mailer services.Mailer
	if cfg.MailEnabled() {
		mailer = services.NewSMTPMailer(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Security: services.SMTPSecurity(cfg.SMTPSecurity),
		})
	} else {
		log.Warn("SMTP_HOST not set - notifications are logged, not sent")
		mailer = services.NewLogMailer(log)
	}
	dispatcher := services.NewDispatcher(
		adminRepo,
		mailer,
		services.NewNotificationRenderer(cfg.ClientURL, loc),
		m,
		log,
		services.DispatcherConfig{
			QueueSize: cfg.NotificationQueueSize,
			Workers:   cfg.NotificationWorkers,
		},
	)
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher.Start(workerCtx)

	// Services
	ingestionConfig := services.DefaultIngestionConfig(cfg.AllowedAttachmentTypes)
	ingestionConfig.RateLimit = cfg.ContactRateLimit
	ingestionConfig.RateWindow = cfg.ContactRateWindow
	ingestionConfig.MaxAttachments = cfg.MaxAttachments
	ingestionConfig.MaxAttachmentSize = cfg.MaxAttachmentSize

	ingestion := services.NewIngestionService(services.IngestionDeps{
		Repo:  submissionRepo,
		Files: files,
		Verifier: services.NewVerifier(services.RecaptchaConfig{
			Secret:   cfg.RecaptchaSecret,
			MinScore: cfg.RecaptchaMinScore,
		}, log),
		Notifier: dispatcher,
		Metrics:  m,
		Security: security,
		Logger:   log,
	}, ingestionConfig)

	router := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Ingestion:      ingestion,
		Submissions:    services.NewSubmissionService(submissionRepo, files, m, loc),
		Export:         services.NewExportService(submissionRepo, m, cfg.ExportMaxRows, loc),
		Analytics:      services.NewAnalyticsService(submissionRepo, contentRepo, loc),
		Logger:         log,
		Security:       security,
		Gatherer:       reg,
		Location:       loc,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: splitOrigins(cfg.AllowedOrigins),
		Production:     cfg.IsProduction(),
		RateLimit:      cfg.RateLimitRequests,
		RateBurst:      cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
		StoragePath:    cfg.AttachmentStoragePath,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}
	// In-flight requests are done, so no new notifications can be queued
	if err := dispatcher.Stop(ctx); err != nil {
		slog.Warn("pending notifications abandoned", slog.String("error", err.Error()))
	}

	slog.Info("Server stopped")
	return nil
}

func splitOrigins(v string) []string {
	var origins []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
