package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fitclub-crm/fitclub-api/api/swagger"
	"github.com/fitclub-crm/fitclub-api/internal/handler"
	"github.com/fitclub-crm/fitclub-api/internal/middleware"
	"github.com/fitclub-crm/fitclub-api/internal/models"
	"github.com/fitclub-crm/fitclub-api/internal/repository"
	"github.com/fitclub-crm/fitclub-api/internal/service"
	"github.com/fitclub-crm/fitclub-api/pkg/cache"
	"github.com/fitclub-crm/fitclub-api/pkg/config"
	"github.com/fitclub-crm/fitclub-api/pkg/database"
	"github.com/fitclub-crm/fitclub-api/pkg/logger"
	corsmiddleware "github.com/fitclub-crm/fitclub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fitclub-crm/fitclub-api/pkg/middleware/requestid"
)

// @title FitClub CRM API
// @version 0.1.0
// @description Fitness club management backend
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Cards are assembled from storage on every request without Redis.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	participantRepo := repository.NewParticipantRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	tariffRepo := repository.NewTariffRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	trainingRepo := repository.NewTrainingRepository(db)
	lockerRepo := repository.NewLockerRepository(db)
	eventRepo := repository.NewEventRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	changeLogRepo := repository.NewChangeLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Cards.CacheTTL, logr, cfg.Cards.CacheEnabled && redisClient != nil)
	changeLogService := service.NewChangeLogService(changeLogRepo, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	cardService := service.NewCardService(
		participantRepo, subscriptionRepo, paymentRepo, trainingRepo,
		lockerRepo, eventRepo, userRepo, cacheService, metricsService, logr,
	)

	participantService := service.NewParticipantService(participantRepo, changeLogService, cardService, validate, logr)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, tariffRepo, participantRepo, changeLogService, cardService, validate, logr)
	tariffService := service.NewTariffService(tariffRepo, changeLogService, validate, logr)
	paymentService := service.NewPaymentService(paymentRepo, participantRepo, changeLogService, cardService, validate, logr)
	trainingService := service.NewTrainingService(trainingRepo, participantRepo, changeLogService, cardService, validate, logr)
	lockerService := service.NewLockerService(lockerRepo, participantRepo, changeLogService, cardService, validate, logr)
	eventService := service.NewEventService(eventRepo, participantRepo, changeLogService, cardService, validate, logr)
	equipmentService := service.NewEquipmentService(equipmentRepo, participantRepo, changeLogService, validate, logr)
	userService := service.NewUserService(userRepo, changeLogService, validate, logr)
	profileService := service.NewProfileService(userRepo, participantRepo, logr)
	reportService := service.NewReportService(participantRepo, paymentRepo, cfg.Reports.Enabled, logr)

	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	participantHandler := handler.NewParticipantHandler(participantService, cardService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	tariffHandler := handler.NewTariffHandler(tariffService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	trainingHandler := handler.NewTrainingHandler(trainingService)
	lockerHandler := handler.NewLockerHandler(lockerService)
	eventHandler := handler.NewEventHandler(eventService)
	equipmentHandler := handler.NewEquipmentHandler(equipmentService)
	userHandler := handler.NewUserHandler(userService)
	changeLogHandler := handler.NewChangeLogHandler(changeLogService)
	reportHandler := handler.NewReportHandler(reportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := string(models.RoleAdmin)
	user := string(models.RoleUser)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)

			authed := auth.Group("", middleware.JWT(authService))
			authed.POST("/logout", authHandler.Logout)
			authed.POST("/change-password", authHandler.ChangePassword)
			authed.GET("/me", authHandler.Me)
		}

		protected := api.Group("", middleware.JWT(authService))
		{
			protected.GET("/profile", profileHandler.Get)
			protected.GET("/status", metricsHandler.Status)

			staff := protected.Group("", middleware.RBAC(admin, user))
			{
				staff.GET("/participants", participantHandler.List)
				staff.GET("/participants/:id", participantHandler.Get)
				staff.GET("/participants/:id/card", participantHandler.Card)
				staff.POST("/participants", participantHandler.Create)
				staff.PUT("/participants/:id", participantHandler.Update)
				staff.GET("/positions", participantHandler.Positions)

				staff.GET("/subscriptions", subscriptionHandler.List)
				staff.GET("/subscriptions/:id", subscriptionHandler.Get)
				staff.POST("/subscriptions", subscriptionHandler.Create)
				staff.PUT("/subscriptions/:id", subscriptionHandler.Update)

				staff.GET("/tariffs", tariffHandler.List)
				staff.GET("/tariffs/:id", tariffHandler.Get)

				staff.GET("/payments", paymentHandler.List)
				staff.GET("/payments/:id", paymentHandler.Get)
				staff.POST("/payments", paymentHandler.Create)
				staff.PATCH("/payments/:id/status", paymentHandler.UpdateStatus)

				staff.GET("/trainings", trainingHandler.ListSessions)
				staff.GET("/trainings/:id", trainingHandler.GetSession)
				staff.POST("/trainings", trainingHandler.CreateSession)
				staff.PUT("/trainings/:id", trainingHandler.UpdateSession)
				staff.GET("/trainings/:id/attendance", trainingHandler.ListAttendance)
				staff.POST("/attendance", trainingHandler.MarkAttendance)
				staff.PUT("/attendance/:id", trainingHandler.UpdateAttendance)

				staff.GET("/lockers", lockerHandler.List)
				staff.GET("/lockers/available-participants", lockerHandler.AvailableParticipants)
				staff.GET("/lockers/:id", lockerHandler.Get)
				staff.POST("/lockers", lockerHandler.Create)
				staff.PUT("/lockers/:id", lockerHandler.Update)
				staff.POST("/lockers/rentals", lockerHandler.CreateRental)
				staff.POST("/lockers/rentals/:id/close", lockerHandler.CloseRental)

				staff.GET("/events", eventHandler.List)
				staff.GET("/events/:id", eventHandler.Get)
				staff.POST("/events", eventHandler.Create)
				staff.PUT("/events/:id", eventHandler.Update)
				staff.POST("/events/registrations", eventHandler.Register)
				staff.DELETE("/events/registrations/:id", eventHandler.Unregister)

				staff.GET("/equipment", equipmentHandler.List)
				staff.GET("/equipment/:id", equipmentHandler.Get)
				staff.POST("/equipment", equipmentHandler.Create)
				staff.PUT("/equipment/:id", equipmentHandler.Update)
				staff.POST("/equipment/rentals", equipmentHandler.Rent)
				staff.POST("/equipment/rentals/:id/return", equipmentHandler.Return)

				staff.GET("/reports/members", reportHandler.MemberRoster)
				staff.GET("/reports/participants/:id/payments", reportHandler.PaymentHistory)
			}

			adminOnly := protected.Group("", middleware.RequireAdmin())
			{
				adminOnly.DELETE("/participants/:id", participantHandler.Delete)
				adminOnly.DELETE("/subscriptions/:id", subscriptionHandler.Delete)
				adminOnly.POST("/tariffs", tariffHandler.Create)
				adminOnly.PUT("/tariffs/:id", tariffHandler.Update)
				adminOnly.DELETE("/tariffs/:id", tariffHandler.Delete)
				adminOnly.DELETE("/trainings/:id", trainingHandler.DeleteSession)
				adminOnly.DELETE("/events/:id", eventHandler.Delete)
				adminOnly.DELETE("/equipment/:id", equipmentHandler.Delete)

				adminOnly.GET("/users", userHandler.List)
				adminOnly.POST("/users", userHandler.Create)
				adminOnly.PUT("/users/:id", userHandler.Update)
				adminOnly.DELETE("/users/:id", userHandler.Delete)

				adminOnly.GET("/changelog", changeLogHandler.List)
			}

			// A user may read their own account without the admin role.
			protected.GET("/users/:id", middleware.RBAC(admin, middleware.RoleSelf), userHandler.Get)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
