package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/panelevent/backend/config"
	"github.com/panelevent/backend/internal/auth"
	"github.com/panelevent/backend/internal/emaillogs"
	"github.com/panelevent/backend/internal/events"
	"github.com/panelevent/backend/internal/mailer"
	"github.com/panelevent/backend/internal/metrics"
	"github.com/panelevent/backend/internal/middleware"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/internal/program"
	"github.com/panelevent/backend/internal/ratelimit"
	"github.com/panelevent/backend/internal/registrations"
	"github.com/panelevent/backend/internal/worker"
	"github.com/panelevent/backend/pkg/database"
	"github.com/panelevent/backend/pkg/queue"
	"github.com/panelevent/backend/pkg/redis"
	"github.com/panelevent/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo)
	requireOwner := events.RequireEventOwner(eventRepo)

	programService := program.NewService(eventRepo, program.NewLocales(cfg.Program.Locales), logger)
	programHandler := program.NewHandler(programService, eventRepo, logger)

	var limiter ratelimit.Limiter
	switch cfg.RateLimit.Backend {
	case "memory":
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
	default:
		limiter = ratelimit.NewRedisLimiter(rdb.Client, "register", cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
	}
	logger.Info("registration limiter",
		zap.String("backend", cfg.RateLimit.Backend),
		zap.Int("max_attempts", cfg.RateLimit.MaxAttempts),
		zap.Duration("window", cfg.RateLimit.Window),
	)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	notifier := registrations.NewEmailNotifier(jobQueue)

	registrationRepo := registrations.NewRepository(pool)
	registrationService := registrations.NewService(eventRepo, registrationRepo, limiter, notifier, logger)
	registrationHandler := registrations.NewHandler(registrationService, registrationRepo, eventRepo, logger)

	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, registrationRepo, notifier, logger)

	router, err := middleware.NewEngine(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Fatal("router", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public: event pages, program and attendee registration
	public := router.Group("")
	public.Use(middleware.OptionalJWT(jwtService))
	{
		public.GET("/events", eventHandler.List)
		public.GET("/events/:id", eventHandler.GetByID)
		public.GET("/events/:id/program", programHandler.Get)
		public.POST("/events/:id/register", registrationHandler.Register)
		public.GET("/registrations/:token", registrationHandler.Lookup)
	}

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users", middleware.RequireRole(models.RoleAdmin), authHandler.List)

		organizer := middleware.RequireRole(models.RoleAdmin, models.RoleOrganizer)
		api.POST("/events", organizer, eventHandler.Create)
		api.PATCH("/events/:id", requireOwner, eventHandler.Update)
		api.PUT("/events/:id/program", requireOwner, programHandler.Put)

		api.GET("/events/:id/registrations", requireOwner, registrationHandler.ListByEvent)
		api.POST("/registrations/:token/checkin", registrationHandler.CheckIn)

		api.GET("/events/:id/emails", requireOwner, emailLogsHandler.ListByEvent)
		api.POST("/events/:id/emails/resend", requireOwner, emailLogsHandler.Resend)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Optional in-process email worker; production runs cmd/worker instead.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Server.RunEmailWorker {
		processor := worker.NewEmailProcessor(
			jobQueue,
			mailer.NewRenderer(),
			mailer.New(mailerConfig(cfg.Email), logger),
			emailLogsRepo,
			cfg.Email.CheckinURL,
			logger,
		)
		go processor.Run(workerCtx)
		logger.Info("email worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func mailerConfig(c config.EmailConfig) mailer.Config {
	return mailer.Config{
		Provider:    c.Provider,
		FromAddress: c.FromAddress,
		FromName:    c.FromName,
		SES: mailer.SESConfig{
			Region:          c.SES.Region,
			AccessKeyID:     c.SES.AccessKeyID,
			SecretAccessKey: c.SES.SecretAccessKey,
		},
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
