package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/danarifka/studyplan-api/api/swagger"
	"github.com/danarifka/studyplan-api/internal/handler"
	"github.com/danarifka/studyplan-api/internal/middleware"
	"github.com/danarifka/studyplan-api/internal/repository"
	"github.com/danarifka/studyplan-api/internal/service"
	"github.com/danarifka/studyplan-api/pkg/cache"
	"github.com/danarifka/studyplan-api/pkg/config"
	"github.com/danarifka/studyplan-api/pkg/database"
	"github.com/danarifka/studyplan-api/pkg/logger"
	corsmiddleware "github.com/danarifka/studyplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/danarifka/studyplan-api/pkg/middleware/requestid"
)

// @title StudyPlan API
// @version 1.0.0
// @description Learning resource recommendation and weekly study schedule optimization
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	recommenderSvc := service.NewRecommenderService(cfg.Recommender, cacheRepo, cfg.Cache, logr)
	retrainer := service.NewRetrainCoordinator(resourceRepo, recommenderSvc, metricsSvc, cfg.Recommender.RetrainWorkers, logr)
	goalSvc := service.NewGoalService(goalRepo, validate, logr)
	resourceSvc := service.NewResourceService(resourceRepo, retrainer, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, validate, logr)
	optimizerSvc := service.NewScheduleOptimizerService(cfg.Optimizer, logr)
	videoSvc := service.NewVideoScheduleService(cfg.Optimizer, validate, logr)
	scheduleSvc := service.NewScheduleService(service.ScheduleServiceDeps{
		Schedules:    scheduleRepo,
		Goals:        goalRepo,
		Availability: availabilityRepo,
		Resources:    resourceRepo,
		Optimizer:    optimizerSvc,
		Recommender:  recommenderSvc,
		Cache:        cacheRepo,
		CacheConfig:  cfg.Cache,
		Metrics:      metricsSvc,
		Validator:    validate,
		Logger:       logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retrainer.Start(ctx)
	defer retrainer.Stop()

	// Train the recommendation model at startup; an empty catalog is fine,
	// the model simply stays unavailable until resources exist.
	trainCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if resources, err := resourceRepo.ListAll(trainCtx); err != nil {
		logr.Warn("failed to load resource corpus", zap.Error(err))
	} else if len(resources) > 0 {
		if err := recommenderSvc.Train(trainCtx, resources); err != nil {
			logr.Warn("initial recommender training failed", zap.Error(err))
		}
	}
	cancel()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	goalHandler := handler.NewGoalHandler(goalSvc)
	resourceHandler := handler.NewResourceHandler(resourceSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, videoSvc, metricsSvc)
	recommendationHandler := handler.NewRecommendationHandler(recommenderSvc, metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/goals", goalHandler.List)
		protected.POST("/goals", goalHandler.Create)
		protected.GET("/goals/:id", goalHandler.Get)
		protected.PUT("/goals/:id", goalHandler.Update)
		protected.DELETE("/goals/:id", goalHandler.Delete)

		protected.GET("/resources", resourceHandler.List)
		protected.POST("/resources", resourceHandler.Create)
		protected.GET("/resources/:id", resourceHandler.Get)
		protected.PUT("/resources/:id", resourceHandler.Update)
		protected.DELETE("/resources/:id", resourceHandler.Delete)

		protected.GET("/availability", availabilityHandler.List)
		protected.POST("/availability", availabilityHandler.Create)
		protected.PUT("/availability", availabilityHandler.Replace)
		protected.PUT("/availability/:id", availabilityHandler.Update)
		protected.DELETE("/availability/:id", availabilityHandler.Delete)

		protected.POST("/schedules/generate", scheduleHandler.Generate)
		protected.GET("/schedules/feasibility", scheduleHandler.Feasibility)
		protected.POST("/schedules/video", scheduleHandler.GenerateVideo)
		protected.GET("/schedules", scheduleHandler.List)
		protected.GET("/schedules/:id", scheduleHandler.Get)
		protected.DELETE("/schedules/:id", scheduleHandler.Delete)
		if cfg.Export.Enabled {
			protected.GET("/schedules/:id/export", scheduleHandler.Export)
		}

		protected.GET("/recommendations", recommendationHandler.Recommend)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
