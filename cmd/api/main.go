package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"patentcheck/docs"
	"patentcheck/internal/analysis"
	"patentcheck/internal/config"
	"patentcheck/internal/database"
	"patentcheck/internal/database/migration"
	handlers "patentcheck/internal/http/handler"
	"patentcheck/internal/http/middleware"
	"patentcheck/internal/intake"
	"patentcheck/internal/logging"
	"patentcheck/internal/otel"
	"patentcheck/internal/repository/postgres"
	"patentcheck/internal/service"
	"patentcheck/internal/storage"
)

const (
	shutdownTimeout = 15 * time.Second
	// multipart framing on top of the largest accepted file
	bodyLimitSlack = 1 << 20
)

// @title Patent Check API
// @version 1.0
// @description Upload intake and analysis of patent documents.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.Location())
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	intakeMetrics, err := intake.NewMetrics(reg)
	if err != nil {
		return err
	}
	analysisMetrics, err := analysis.NewMetrics(reg)
	if err != nil {
		return err
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg, "/health", "/healthz")
	if err != nil {
		return err
	}

	gate := cfg.Intake.Gate()
	log.Info("intake_policy",
		zap.Strings("allowed_types", gate.Policy().AllowedTypes),
		zap.Int64("max_size", gate.MaxSize()),
	)

	// Initialize repositories, the analysis runner and services
	docRepo := postgres.NewDocumentPostgres(db)
	analysisRepo := postgres.NewAnalysisPostgres(db)

	engine := analysis.NewSimulated(
		time.Duration(cfg.Analysis.DelayMs)*time.Millisecond,
		analysis.Thresholds{
			AI:         cfg.Analysis.AIThreshold,
			Plagiarism: cfg.Analysis.PlagiarismThreshold,
			Grammar:    cfg.Analysis.GrammarThreshold,
			Format:     cfg.Analysis.FormatThreshold,
		},
	)
	runner := analysis.NewRunner(engine, analysisRepo, log, analysisMetrics, analysis.Options{
		Workers:     cfg.Analysis.Workers,
		QueueSize:   cfg.Analysis.QueueSize,
		Timeout:     time.Duration(cfg.Analysis.TimeoutSec) * time.Second,
		SubmitRate:  cfg.Analysis.SubmitRate,
		SubmitBurst: cfg.Analysis.SubmitBurst,
	})

	docSvc := service.NewDocumentService(objStore, docRepo, gate, intakeMetrics)
	analysisSvc := service.NewAnalysisService(docRepo, analysisRepo, objStore, runner, gate, intakeMetrics)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(gate.MaxSize()),
		BodyLimit:             int(gate.MaxSize()) + bodyLimitSlack,
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Recover(log))
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())
	app.Use(middleware.Logger(log))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers.RegisterRoutes(app, db, gate, docSvc, analysisSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	runnerDone := make(chan error, 1)
	go func() { runnerDone <- runner.Run(ctx) }()

	listenErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("server_listening", zap.String("addr", addr))
		listenErr <- app.Listen(addr)
	}()

	select {
	case err = <-listenErr:
		stop()
	case <-ctx.Done():
		log.Info("shutdown_started")
		err = app.ShutdownWithTimeout(shutdownTimeout)
	}

	if rerr := <-runnerDone; rerr != nil && !errors.Is(rerr, context.Canceled) {
		log.Warn("analysis_runner_error", zap.Error(rerr))
	}
	log.Info("shutdown_complete")
	return err
}
