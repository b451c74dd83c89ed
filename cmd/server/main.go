package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/cache"
	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/domain/fiber/handler"
	"github.com/fadilmartias/resume-pipeline/internal/extract"
	applogger "github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/fadilmartias/resume-pipeline/internal/middleware"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/parser"
	"github.com/fadilmartias/resume-pipeline/internal/repository"
	"github.com/fadilmartias/resume-pipeline/internal/scoring"
	"github.com/fadilmartias/resume-pipeline/internal/service"
	"github.com/fadilmartias/resume-pipeline/internal/usecase"
	"github.com/fadilmartias/resume-pipeline/internal/worker"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	zlog, err := applogger.New(appConfig.LogJSON, appConfig.Debug)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llmConfig := config.LoadLLMConfig()
	if err := llmConfig.Validate(); err != nil {
		zlog.Fatal("invalid llm configuration", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:   appConfig.Name,
		BodyLimit: 110 * 1024 * 1024,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			// Status code defaults to 500
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := ConnectDB(zlog)

	llm, err := service.NewLLMService(ctx, llmConfig, zlog)
	if err != nil {
		zlog.Fatal("could not create llm service", zap.Error(err))
	}
	parserModel, scoringModel := models(llmConfig)

	var embedder service.EmbeddingServiceInterface
	if gemini, err := service.NewGeminiService(ctx, config.LoadGeminiConfig(), zlog); err != nil {
		zlog.Warn("embeddings disabled", zap.Error(err))
	} else {
		embedder = gemini
	}

	jobRepo := repository.NewBatchJobRepository(db)
	fileRepo := repository.NewFileTaskRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	vacancyRepo := repository.NewVacancyRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	resumeParser, err := parser.New(llm, parserModel, zlog)
	if err != nil {
		zlog.Fatal("could not create resume parser", zap.Error(err))
	}
	scoringConfig := config.LoadScoringConfig()
	scorer := scoring.New(llm, scoringModel, scoring.CalibrationFromConfig(scoringConfig), zlog)

	recent := cache.NewAnalysisCache(scoringConfig.CacheTTL)
	go recent.RunJanitor(ctx, 10*time.Minute)

	candidateUC := usecase.NewCandidateUsecase(candidateRepo, embedder, recent, zlog)
	vacancyUC := usecase.NewVacancyUsecase(vacancyRepo, candidateRepo, embedder, zlog)
	analysisUC := usecase.NewAnalysisUsecase(vacancyRepo, candidateRepo, analysisRepo, scorer, recent, scoringConfig, zlog)

	workerConfig := config.LoadWorkerConfig()
	orchestrator := worker.NewOrchestrator(worker.Deps{
		Jobs:         jobRepo,
		Files:        fileRepo,
		Extractor:    extract.New(config.LoadExtractorConfig(), zlog),
		Parser:       resumeParser,
		Materializer: candidateUC,
		Pinger:       llm,
	}, workerConfig, zlog)
	queue := worker.NewQueue(orchestrator, zlog,
		worker.WithWorkers(workerConfig.Workers),
		worker.WithQueueSize(workerConfig.QueueSize),
		worker.WithJobTimeout(workerConfig.JobTimeout))

	batchUC := usecase.NewBatchUsecase(jobRepo, fileRepo, queue, appConfig.StorageDir, zlog)

	handler.NewBatchHandler(batchUC).RegisterRoutes(app)
	handler.NewVacancyHandler(vacancyUC, analysisUC).RegisterRoutes(app)
	handler.NewCandidateHandler(candidateUC).RegisterRoutes(app)
	handler.NewLLMHandler(llm).RegisterRoutes(app)

	// jobs left pending or processing by a previous run
	go func() {
		if _, err := orchestrator.Recover(ctx, queue.Enqueue); err != nil {
			zlog.Error("job recovery failed", zap.Error(err))
		}
	}()

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				zlog.Debug("runtime stats", zap.Int("goroutines", runtime.NumGoroutine()))
			}
		}
	}()

	go func() {
		<-ctx.Done()
		zlog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			zlog.Error("http shutdown failed", zap.Error(err))
		}
		queue.Shutdown(shutdownCtx)
	}()

	zlog.Info("server running", zap.String("port", appConfig.Port), zap.String("llm_provider", llm.Provider()))
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

// models returns the parser and scoring model names. Gemini uses its own
// model setting unless one is configured explicitly.
func models(cfg *config.LLMConfig) (string, string) {
	if cfg.Provider == config.ProviderGemini {
		return "", ""
	}
	return cfg.ParserModel, cfg.ScoringModel
}

func ConnectDB(zlog *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{})
	if err != nil {
		zlog.Fatal("could not connect to database", zap.Error(err))
	}
	pgDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}
	if !appConfig.IsProduction() {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	for _, ext := range []string{`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`, `CREATE EXTENSION IF NOT EXISTS vector`} {
		if err := db.Exec(ext).Error; err != nil {
			zlog.Fatal("could not create extension", zap.String("sql", ext), zap.Error(err))
		}
	}

	err = db.AutoMigrate(&model.BatchJob{}, &model.FileTask{}, &model.Candidate{}, &model.Vacancy{}, &model.MatchAnalysis{})
	if err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	return db
}
