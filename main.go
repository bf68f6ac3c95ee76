package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"research-verifier/config"
	"research-verifier/models"
	"research-verifier/providers"
	"research-verifier/providers/europepmc"
	"research-verifier/providers/openalex"
	"research-verifier/providers/unpaywall"
	"research-verifier/services"
	"research-verifier/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logging, err := newLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()
	if cfg.LogMode != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	if cfg.TracingEnabled {
		shutdown, err := initTracer()
		if err != nil {
			logging.Fatal("Tracer setup failed", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	store := services.NewGormStore(db)
	cache := services.NewVerdictCache(db)

	metadata := services.NewMetadataClient(logging, nil, metadataProviders(cfg, logging)...)
	if cfg.UnpaywallEmail != "" {
		metadata.PDFLinks = unpaywall.NewFetcher(cfg, logging)
	}

	svc := &services.VerificationService{
		Messages:      store,
		Profiles:      store,
		Verifications: store,
		Cache:         cache,
		Papers:        services.NewPaperVerifier(services.NewLinkResolver(cfg, logging), metadata, metrics, logging),
		Evaluator:     services.NewResponseEvaluator(metrics, logging),
		Judges:        services.NewOpenAIClientFactory(cfg.LLMBaseURL, cfg.LLMTimeout),
		DefaultModel:  cfg.LLMModel,
		Concurrency:   cfg.PaperConcurrency,
		Metrics:       metrics,
		Logger:        logging,
	}
	if cfg.ReportArchiveEnabled() {
		archive, err := storage.NewReportArchive(context.Background(), cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		svc.Archive = archive
		logging.Info("Verification reports are archived", zap.String("bucket", cfg.ReportS3Bucket))
	}

	cronScheduler := cron.New()
	refreshGauge := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := cache.Count(ctx)
		if err != nil {
			logging.Error("Counting cached verdicts failed", zap.Error(err))
			return
		}
		metrics.SetCachedVerdicts(n)
	}
	if _, err := cronScheduler.AddFunc(cfg.CronSchedule, refreshGauge); err != nil {
		logging.Fatal("Invalid cron schedule", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
	}
	refreshGauge()
	cronScheduler.Start()
	defer cronScheduler.Stop()

	router := newRouter(cfg, svc, store, logging)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Verifications with several papers run for minutes.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", zap.Error(err))
	}
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch cfg.DBDriver {
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	default:
		return gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	}
}

// metadataProviders builds the enabled providers in configured order.
func metadataProviders(cfg *config.Config, logging *zap.Logger) []providers.MetadataProvider {
	var list []providers.MetadataProvider
	for _, name := range cfg.Providers() {
		switch name {
		case "openalex":
			list = append(list, openalex.NewFetcher(cfg, logging))
		case "europepmc":
			list = append(list, europepmc.NewFetcher(cfg, logging))
		default:
			logging.Warn("Unknown provider in config", zap.String("provider_name", name))
		}
	}
	if len(list) == 0 {
		logging.Warn("No valid metadata providers enabled. Check METADATA_PROVIDERS in .env")
	}
	return list
}
