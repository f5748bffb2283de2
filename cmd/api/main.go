package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/bootstrap"
	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/handlers"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "resume-matcher api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	docRepo := repositories.NewDocumentRepository(db)
	evalRepo := repositories.NewEvaluationRepository(db)

	// Initialize services
	storage, err := bootstrap.NewStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	model, err := bootstrap.NewModel(ctx, cfg, log)
	if err != nil {
		return err
	}

	notifier, err := bootstrap.NewNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer notifier.Close()

	talentPool, err := bootstrap.NewTalentPool(ctx, cfg, model.Embedder, log)
	if err != nil {
		return err
	}
	if talentPool == nil {
		log.Info("talent pool disabled, QDRANT_URL is not set")
	}

	parser := services.NewDocumentParser(logger.WithComponent(log, "parser"))
	fetcher := bootstrap.NewFetcher(cfg, log)

	matchService := services.NewMatchService(services.MatchServiceDeps{
		Model:      model.Client,
		Extractor:  bootstrap.NewExtractor(cfg, log),
		EvalRepo:   evalRepo,
		DocRepo:    docRepo,
		Storage:    storage,
		Parser:     parser,
		Fetcher:    fetcher,
		Notifier:   notifier,
		TalentPool: talentPool,
	}, logger.WithComponent(log, "matcher"))

	worker := services.NewWorker(evalRepo, matchService, services.WorkerOptions{
		Concurrency:  cfg.Worker.Concurrency,
		QueueSize:    cfg.Worker.QueueSize,
		PollInterval: cfg.Worker.PollInterval,
	}, log)
	worker.Start(context.Background())

	// Initialize Handlers
	handlerLog := logger.WithComponent(log, "http")
	uploadHandler := handlers.NewUploadHandler(docRepo, storage, cfg.Storage.MaxFileSize, handlerLog)
	evaluateHandler := handlers.NewEvaluationHandler(evalRepo, docRepo, worker)
	resultHandler := handlers.NewResultHandler(evalRepo)
	matchHandler := handlers.NewMatchHandler(parser, fetcher, matchService, cfg.Storage.MaxFileSize, handlerLog)
	searchHandler := handlers.NewSearchHandler(talentPool, handlerLog)

	// Synchronous matches wait on the model, so the write timeout follows it.
	writeTimeout := 30 * time.Second
	if budget := cfg.Model.Timeout*time.Duration(cfg.Model.MaxRetries) + 30*time.Second; budget > writeTimeout {
		writeTimeout = budget
	}

	app := fiber.New(fiber.Config{
		AppName:      "Resume Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"time":        time.Now(),
			"provider":    model.Client.Name(),
			"talent_pool": talentPool != nil,
		})
	})

	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/evaluate", evaluateHandler.HandleEvaluate)
	api.Get("/result/:id", resultHandler.HandleGetResult)
	api.Post("/match", matchHandler.HandleMatch)
	api.Get("/candidates/search", searchHandler.HandleSearch)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/evaluate",
				"GET /api/v1/result/:id",
				"POST /api/v1/match",
				"GET /api/v1/candidates/search?q=",
			},
		})
	})

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		worker.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("provider", model.Client.Name()))

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
