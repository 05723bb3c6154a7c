package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/cleanup"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/config"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/handlers"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/logger"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/pipeline"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/recap"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/storage"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// The logger is not built yet.
		zap.NewExample().Sugar().Fatalw("Failed to load config", "error", err)
	}

	logBuffer := logger.NewLogBuffer(logger.DefaultBufferLines)
	log := logger.Build(cfg.Log.Debug, logBuffer)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("Initializing components...")

	p, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		log.Fatalw("Failed to initialize pipeline", "error", err)
	}
	if err := p.EnsureDirs(); err != nil {
		log.Fatalw("Failed to create data directories", "error", err)
	}

	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		log.Fatalw("Failed to initialize database", "error", err)
	}
	defer db.Close()

	// Google Drive is optional; transcripts stay local without it.
	var publisher queue.Publisher
	if _, err := os.Stat(cfg.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err := storage.NewDriveClient(ctx,
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Warnw("Google Drive not available, transcripts will only be saved locally", "error", err)
		} else {
			publisher = driveClient
			log.Info("Google Drive integration enabled")
		}
	} else {
		log.Info("Google Drive credentials not found - saving locally only")
	}

	var summarizer recap.Summarizer
	if cfg.Recap.Enabled {
		s, err := recap.NewOpenAISummarizer(cfg.RecapConfig())
		if err != nil {
			log.Warnw("Recap disabled", "error", err)
		} else {
			summarizer = s
			log.Infow("Meeting recap enabled", "model", cfg.Recap.Model)
		}
	}

	workerPool := queue.NewWorkerPool(queue.Options{
		Workers:   cfg.Jobs.Workers,
		QueueSize: cfg.Jobs.QueueSize,
	}, p, publisher, db, summarizer, log)
	workerPool.Start(ctx)

	cleanupScheduler := cleanup.NewScheduler(
		p.OutputDir(),
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
		log,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: logBuffer}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	uploadHandler := handlers.NewUploadHandler(workerPool, p.Loader(), p.InputDir(), cfg.Limits.MaxFileSizeMB, log)
	gdriveHandler := handlers.NewGDriveHandler(workerPool, p.Loader(), p.InputDir(), cfg.Limits.MaxFileSizeMB, log)
	jobsHandler := handlers.NewJobsHandler(workerPool, db)
	transcriptsHandler := handlers.NewTranscriptsHandler(db)
	progressHandler := handlers.NewProgressHandler(workerPool, 0, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": version,
		})
	})

	app.Post("/upload", uploadHandler.Handle)
	app.Post("/gdrive", gdriveHandler.Handle)
	app.Get("/jobs/:id", jobsHandler.Get)
	app.Get("/ws/jobs/:id", progressHandler.Upgrade, websocket.New(progressHandler.Handle))
	app.Get("/transcripts", transcriptsHandler.List)
	app.Get("/transcripts/:id/text", transcriptsHandler.Text)

	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	addr := cfg.Addr()
	log.Infow("Server starting",
		"addr", addr,
		"chunk_minutes", cfg.Pipeline.ChunkMinutes,
		"chunk_workers", cfg.Pipeline.Workers,
		"policy", cfg.Pipeline.Policy,
		"provider", cfg.Transcription.Provider,
	)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Warnw("Server shutdown error", "error", err)
		}
	}()

	if err := app.Listen(addr); err != nil {
		log.Errorw("Server failed", "error", err)
	}

	// Let queued jobs drain before the database closes.
	workerPool.Stop()
	log.Info("Server stopped")
}
