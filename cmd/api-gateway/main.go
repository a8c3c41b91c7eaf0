package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/rerc-review-api/api/swagger"
	"github.com/noah-isme/rerc-review-api/internal/handler"
	"github.com/noah-isme/rerc-review-api/internal/middleware"
	"github.com/noah-isme/rerc-review-api/internal/models"
	"github.com/noah-isme/rerc-review-api/internal/repository"
	"github.com/noah-isme/rerc-review-api/internal/service"
	"github.com/noah-isme/rerc-review-api/pkg/cache"
	"github.com/noah-isme/rerc-review-api/pkg/config"
	"github.com/noah-isme/rerc-review-api/pkg/database"
	"github.com/noah-isme/rerc-review-api/pkg/jobs"
	"github.com/noah-isme/rerc-review-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/rerc-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rerc-review-api/pkg/middleware/requestid"
	"github.com/noah-isme/rerc-review-api/pkg/storage"
)

// @title RERC Review API
// @version 1.0.0
// @description Research ethics review committee protocol tracking and SLA reporting
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	validate := validator.New()

	committeeRepo := repository.NewCommitteeRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	slaConfigRepo := repository.NewSLAConfigRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	termRepo := repository.NewTermRepository(db)
	userRepo := repository.NewUserRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Redis.Enabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	slaSvc := service.NewSLAService(submissionRepo, slaConfigRepo, holidayRepo, metricsSvc, logr)
	reportSvc := service.NewReportService(submissionRepo, termRepo, committeeRepo, holidayRepo, cacheSvc, metricsSvc, cfg.Reports.CacheTTL, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, projectRepo, cacheSvc, validate, logr)
	committeeSvc := service.NewCommitteeService(committeeRepo, slaConfigRepo, validate, logr)
	projectSvc := service.NewProjectService(projectRepo, committeeRepo, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, validate, logr)
	termSvc := service.NewTermService(termRepo, validate, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(reportSvc, exportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)
	exportWorker := service.NewExportWorker(exportJobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("report-exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportJobSvc := service.NewExportJobService(exportJobRepo, exportQueue, exportSvc, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exportQueue.Start(ctx)
	defer exportQueue.Stop()
	exportJobSvc.RecoverPendingJobs(ctx)
	exportJobSvc.StartCleanup(ctx)

	authHandler := handler.NewAuthHandler(authSvc)
	committeeHandler := handler.NewCommitteeHandler(committeeSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, slaSvc)
	holidayHandler := handler.NewHolidayHandler(holidaySvc)
	termHandler := handler.NewTermHandler(termSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	exportHandler := handler.NewExportHandler(exportJobSvc)
	workdaysHandler := handler.NewWorkdaysHandler(slaSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", authHandler.Me)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	admin := middleware.RequireRoles(models.RoleAdmin)

	committees := authed.Group("/committees")
	{
		committees.GET("", committeeHandler.List)
		committees.GET("/:id", committeeHandler.Get)
		committees.POST("", admin, committeeHandler.Create)
		committees.PUT("/:id", admin, committeeHandler.Update)
		committees.DELETE("/:id", admin, committeeHandler.Delete)
		committees.GET("/:id/sla-configs", committeeHandler.ListSLAConfigs)
		committees.POST("/:id/sla-configs", admin, committeeHandler.CreateSLAConfig)
		committees.PUT("/:id/sla-configs/:configId", admin, committeeHandler.UpdateSLAConfig)
		committees.DELETE("/:id/sla-configs/:configId", admin, committeeHandler.DeleteSLAConfig)
	}

	projects := authed.Group("/projects")
	{
		projects.GET("", projectHandler.List)
		projects.GET("/:id", projectHandler.Get)
		projects.POST("", staff, projectHandler.Create)
		projects.PUT("/:id", staff, projectHandler.Update)
	}

	submissions := authed.Group("/submissions")
	{
		submissions.GET("", submissionHandler.List)
		submissions.GET("/:id", submissionHandler.Get)
		submissions.POST("", staff, submissionHandler.Create)
		submissions.POST("/:id/status", staff, submissionHandler.Transition)
		submissions.POST("/:id/classify", staff, submissionHandler.Classify)
		submissions.PUT("/:id/decision", staff, submissionHandler.Decision)
		submissions.GET("/:id/sla", submissionHandler.SLASummary)
	}

	holidays := authed.Group("/holidays")
	{
		holidays.GET("", holidayHandler.List)
		holidays.POST("", admin, holidayHandler.Create)
		holidays.PUT("/:id", admin, holidayHandler.Update)
		holidays.DELETE("/:id", admin, holidayHandler.Delete)
	}

	terms := authed.Group("/terms")
	{
		terms.GET("", termHandler.List)
		terms.GET("/:id", termHandler.Get)
		terms.POST("", admin, termHandler.Create)
		terms.PUT("/:id", admin, termHandler.Update)
		terms.DELETE("/:id", admin, termHandler.Delete)
	}

	authed.GET("/reports/academic-year", reportHandler.AcademicYear)
	authed.POST("/reports/academic-year/export", staff, exportHandler.Create)
	authed.GET("/reports/academic-year/export/:id", exportHandler.Status)
	api.GET("/reports/export/:token", exportHandler.Download)
	authed.GET("/utils/working-days", workdaysHandler.WorkingDays)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
