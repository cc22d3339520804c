package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/config"
	"github.com/gradeflow/gradeflow-api/internal/database"
	"github.com/gradeflow/gradeflow-api/internal/grading"
	"github.com/gradeflow/gradeflow-api/internal/handler"
	"github.com/gradeflow/gradeflow-api/internal/middleware"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/observability"
	"github.com/gradeflow/gradeflow-api/internal/repository"
	"github.com/gradeflow/gradeflow-api/internal/router"
	"github.com/gradeflow/gradeflow-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Submission{},
		&models.GradingAttempt{},
		&models.Rubric{},
		&models.RubricItem{},
		&models.RubricOption{},
		&models.Message{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	cache, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, progress caching disabled")
		cache = nil
	} else {
		defer cache.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, results will not be posted back")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	observability.RegisterMetrics()
	observability.RegisterHTTPMetrics()

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	routingTable := grading.DefaultRoutingTable(cfg.RequiredPeerGrades)
	aggregateCfg := grading.AggregateConfig{MaxGraderCount: cfg.MaxGraderCount}
	basicCheck := grading.NewBasicCheck(cfg.BasicCheckMinLength)

	publisher := service.NewResultPublisher(natsConn, "", logger)
	gradingService := service.NewGradingService(submissionRepo, attemptRepo, routingTable, aggregateCfg, publisher, validate, logger)
	dispatchService := service.NewDispatchService(submissionRepo, validate, logger)
	resultService := service.NewResultService(submissionRepo, attemptRepo, aggregateCfg, logger)
	progressService := service.NewProgressService(submissionRepo, cache, service.ProgressConfig{
		MinToUseML:   cfg.MinToUseML,
		MinToUsePeer: cfg.MinToUsePeer,
		CacheTTL:     cfg.ProgressCacheTTL,
	}, logger)
	messageService := service.NewMessageService(messageRepo, attemptRepo, validate, logger)
	intakeService, err := service.NewIntakeService(submissionRepo, gradingService, basicCheck, validate, logger)
	if err != nil {
		log.Fatalf("failed to create intake service: %v", err)
	}

	intakeHandler := handler.NewIntakeHandler(intakeService, logger)
	dispatchHandler := handler.NewDispatchHandler(dispatchService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	resultHandler := handler.NewResultHandler(resultService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)
	messageHandler := handler.NewMessageHandler(messageService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		IntakeHandler:   intakeHandler,
		DispatchHandler: dispatchHandler,
		GradingHandler:  gradingHandler,
		ResultHandler:   resultHandler,
		ProgressHandler: progressHandler,
		MessageHandler:  messageHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
