// Package main provides the entry point for the LexVault server
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"golang.org/x/sync/errgroup"

	"github.com/lexvault/lexvault/internal/api"
	"github.com/lexvault/lexvault/internal/merge"
	"github.com/lexvault/lexvault/internal/ocr"
	"github.com/lexvault/lexvault/internal/store"
	"github.com/lexvault/lexvault/internal/temporal/activities"
	"github.com/lexvault/lexvault/internal/temporal/workflows"
	"github.com/lexvault/lexvault/pkg/extractor"
	"github.com/lexvault/lexvault/pkg/logging"
	"github.com/lexvault/lexvault/pkg/pipeline"
)

func main() {
	cfg := pipeline.DefaultPipelineConfig().FromEnv()

	if err := logging.SetupLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	log := logging.GetLogger("server")

	for _, dir := range []string{
		cfg.DataPaths.DataRoot,
		cfg.DataPaths.UploadDir,
		cfg.DataPaths.VersionDir,
		cfg.DataPaths.TempDir,
		cfg.DataPaths.LogDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("Failed to create data directory")
		}
	}

	// Document store
	metricsCollector := store.NewSimpleMetricsCollector()
	var documentStore store.DocumentStore
	switch cfg.Storage.Driver {
	case "postgres":
		gormStore, err := store.NewGormStore(cfg.Storage.DSN, metricsCollector)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize postgres store")
		}
		documentStore = gormStore
	case "memory":
		documentStore = store.NewMemoryStore(metricsCollector)
		log.Warn().Msg("Using in-memory store, documents will not survive restarts")
	default:
		log.Fatal().Str("driver", cfg.Storage.Driver).Msg("Unknown storage driver")
	}

	// Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Temporal client")
	}
	defer temporalClient.Close()

	// Extraction engine and runner for activities
	engine := extractor.NewEngine(extractor.Config{
		Languages:      cfg.Processing.OCRLanguages,
		TessdataPrefix: cfg.Processing.TessdataPrefix,
		DPI:            float64(cfg.Processing.RenderDPI),
		LinesPerPage:   cfg.Processing.LinesPerPage,
		TempDir:        cfg.DataPaths.TempDir,
	})
	runner := ocr.NewRunner(documentStore, engine, cfg.DataPaths.VersionDir)
	activities.SetRunner(runner)

	// Worker for extraction workflows
	w := worker.New(temporalClient, workflows.DocumentOCRTaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 4,
	})
	w.RegisterWorkflow(workflows.DocumentOCRWorkflow)
	w.RegisterActivity(activities.ProcessDocumentActivity)

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName:      "LexVault API",
		BodyLimit:    int(cfg.Server.MaxRequestSize),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "UTC",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	merger := merge.NewMerger(documentStore, cfg.DataPaths.TempDir)
	handlers := api.NewHandlers(documentStore, temporalClient, merger, cfg)
	metricsHandler := api.NewMetricsHandler(metricsCollector)
	api.SetupRoutes(app, handlers, metricsHandler)

	var group errgroup.Group

	group.Go(func() error {
		return w.Run(worker.InterruptCh())
	})

	group.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info().Str("addr", addr).Msg("Starting LexVault server")
		return app.Listen(addr)
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("Shutting down server")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	if err := group.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}
