package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/config"
	"github.com/classward/compliance/assignment-service/internal/delivery/httpd"
	"github.com/classward/compliance/assignment-service/internal/repository"
	"github.com/classward/compliance/assignment-service/internal/service"
	"github.com/classward/compliance/assignment-service/internal/service/integration"
)

type App struct {
	server         *http.Server
	publisher      *service.SchedulePublisher
	logger         zerolog.Logger
	config         *config.Config
	db             *sql.DB
	rabbitmqClient integration.RabbitMQClient
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	fileClient := integration.NewFileClient(
		cfg.Services.File.URL,
		cfg.Services.File.Timeout,
		cfg.Services.File.RetryCount,
		cfg.Services.File.RetryDelay,
		log,
	)

	pushClient := integration.NewPushClient(
		cfg.Services.Push.URL,
		cfg.Services.Push.NotifyEndpoint,
		cfg.Services.Push.Timeout,
		cfg.Services.Push.RetryCount,
		cfg.Services.Push.RetryDelay,
		log,
	)

	rabbitmqClient, err := integration.NewRabbitMQClient(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create RabbitMQ client, continuing without event publishing")
		rabbitmqClient = nil
	}

	assignmentRepo := repository.NewAssignmentRepository(db, log)
	responseRepo := repository.NewResponseRepository(db, log)
	teacherRepo := repository.NewTeacherRepository(db, log)
	statsRepo := repository.NewStatsRepository(db, log)

	clock := service.NewSystemClock()
	notifier := service.NewNotifier(rabbitmqClient, pushClient, log)

	statsService := service.NewStatsService(assignmentRepo, responseRepo, statsRepo, clock, log)
	assignmentService := service.NewAssignmentService(
		assignmentRepo,
		responseRepo,
		teacherRepo,
		statsService,
		notifier,
		clock,
		log,
	)
	submissionService := service.NewSubmissionService(
		assignmentRepo,
		responseRepo,
		statsService,
		fileClient,
		clock,
		log,
	)
	overrideService := service.NewOverrideService(
		assignmentRepo,
		teacherRepo,
		statsService,
		notifier,
		clock,
		log,
	)
	teacherService := service.NewTeacherService(teacherRepo, clock, log)

	var publisher *service.SchedulePublisher
	if cfg.Scheduler.Enabled {
		publisher = service.NewSchedulePublisher(
			assignmentRepo,
			teacherRepo,
			notifier,
			cfg.Scheduler.Interval,
			clock,
			log,
		)
	}

	authProvider := httpd.NewJWTProvider(cfg.Auth.JWTSecret)

	handler := httpd.NewHandler(
		assignmentService,
		submissionService,
		overrideService,
		statsService,
		teacherService,
		authProvider,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:         server,
		publisher:      publisher,
		logger:         log,
		config:         cfg,
		db:             db,
		rabbitmqClient: rabbitmqClient,
	}, nil
}

func (a *App) Run() error {
	if a.publisher != nil {
		a.publisher.Start()
	}

	a.logger.Info().Msgf("Starting assignment service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down assignment service...")

	if a.publisher != nil {
		a.publisher.Stop()
	}

	if a.rabbitmqClient != nil {
		if err := a.rabbitmqClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
