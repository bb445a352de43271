package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hangil-edu/placement-engine/internal/config"
	"github.com/hangil-edu/placement-engine/internal/database"
	"github.com/hangil-edu/placement-engine/internal/events"
	"github.com/hangil-edu/placement-engine/internal/models"
	"github.com/hangil-edu/placement-engine/internal/observability"
	"github.com/hangil-edu/placement-engine/internal/repository"
	"github.com/hangil-edu/placement-engine/internal/service"
	"github.com/hangil-edu/placement-engine/pkg/ai"
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
		&models.CurriculumLevel{},
		&models.PlacementRule{},
		&models.Exam{},
		&models.Question{},
		&models.Session{},
		&models.LevelAdjustment{},
		&models.SubmittedAnswer{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Close()

	var assistant ai.Assistant
	if cfg.OpenAIAPIKey != "" {
		assistant, err = ai.NewOpenAIAssistant(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create review assistant: %v", err)
		}
	}

	observability.RegisterMetrics()
	validate := validator.New(validator.WithRequiredStructEnabled())

	sessionRepo := repository.NewSessionRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	ruleRepo := repository.NewPlacementRuleRepository(db)
	levelRepo := repository.NewLevelRepository(db)

	levelService := service.NewLevelService(levelRepo, redisClient, cfg.LevelCacheTTL, logger)
	publisher := events.NewNATSPublisher(natsConn, logger)
	sessionService := service.NewSessionService(sessionRepo, questionRepo, ruleRepo, levelService, publisher, validate, logger)
	reviewService := service.NewReviewService(sessionRepo, questionRepo, levelService, publisher, assistant, validate, logger)

	completeSub, err := events.SubscribeCompleteRequests(natsConn, logger, func(request events.CompleteRequest) {
		result, err := sessionService.Complete(context.Background(), request.SessionRef)
		if err != nil {
			logger.Error().Err(err).Str("session_ref", request.SessionRef).Msg("failed to finalize session")
			return
		}
		logger.Info().
			Str("session_ref", result.SessionRef).
			Int("score", result.Score).
			Float64("percentage", result.Percentage).
			Bool("needs_manual_grading", result.NeedsManualGrading).
			Msg("session finalized")
	})
	if err != nil {
		log.Fatalf("failed to subscribe to completion requests: %v", err)
	}

	confirmSub, err := events.SubscribeConfirmRequests(natsConn, logger, func(request events.CompleteRequest) {
		result, err := reviewService.Confirm(context.Background(), request.SessionRef)
		if err != nil {
			logger.Error().Err(err).Str("session_ref", request.SessionRef).Msg("failed to confirm session")
			return
		}
		logger.Info().
			Str("session_ref", result.SessionRef).
			Int("score", result.Score).
			Float64("percentage", result.Percentage).
			Msg("session confirmed after review")
	})
	if err != nil {
		log.Fatalf("failed to subscribe to confirmation requests: %v", err)
	}

	logger.Info().Str("app", cfg.AppName).Str("env", cfg.AppEnv).Msg("grader worker started")
	waitForShutdown(logger, completeSub, confirmSub)
}

func waitForShutdown(logger zerolog.Logger, subscriptions ...*nats.Subscription) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	for _, subscription := range subscriptions {
		if err := subscription.Drain(); err != nil {
			logger.Warn().Err(err).Msg("graceful drain failed")
		}
	}

	logger.Info().Msg("grader worker stopped")
}
