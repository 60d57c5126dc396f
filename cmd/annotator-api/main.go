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

	_ "github.com/annoforge/annotator-api/api/swagger"
	"github.com/annoforge/annotator-api/internal/dom"
	"github.com/annoforge/annotator-api/internal/handler"
	"github.com/annoforge/annotator-api/internal/middleware"
	"github.com/annoforge/annotator-api/internal/repository"
	"github.com/annoforge/annotator-api/internal/service"
	"github.com/annoforge/annotator-api/pkg/cache"
	"github.com/annoforge/annotator-api/pkg/config"
	"github.com/annoforge/annotator-api/pkg/export"
	"github.com/annoforge/annotator-api/pkg/jobs"
	"github.com/annoforge/annotator-api/pkg/logger"
	corsmiddleware "github.com/annoforge/annotator-api/pkg/middleware/cors"
	reqidmiddleware "github.com/annoforge/annotator-api/pkg/middleware/requestid"
	"github.com/annoforge/annotator-api/pkg/storage"
)

// @title Annotator API
// @version 1.0.0
// @description HTML email template annotation service
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

	var sessions repository.SessionRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		sessions = repository.NewRedisSessionRepository(client, cfg.Session.TTL, logr)
		logr.Sugar().Infow("session store", "backend", "redis")
	} else {
		sessions = repository.NewMemorySessionRepository(cfg.Session.TTL)
		logr.Sugar().Infow("session store", "backend", "memory")
	}

	detector, err := dom.NewDetector(dom.DetectorConfig{
		BracketPatterns: cfg.Detector.BracketPatterns,
		HashPatterns:    cfg.Detector.HashPatterns,
	})
	if err != nil {
		logr.Sugar().Fatalw("failed to compile detector patterns", "error", err)
	}

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	metricsSvc := service.NewMetricsService()
	validate := validator.New()
	highlighter := dom.NewHighlighter(logr)

	templateSvc := service.NewTemplateService(sessions, detector, highlighter, metricsSvc, logr, service.TemplateServiceConfig{
		MaxFileSizeBytes:  cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
		MaxFilesPerUpload: cfg.Uploads.MaxFilesPerUpload,
	})
	annotationSvc := service.NewAnnotationService(sessions, validate, logr)
	exportSvc := service.NewExportService(sessions, export.NewPDFExporter(), export.NewZipBundler(), logr)

	jobRepo := repository.NewExportJobRepository()
	exportJobSvc := service.NewExportJobService(jobRepo, nil, exportSvc, exportStorage, signer, metricsSvc, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
		DownloadPath:    cfg.APIPrefix + "/exports/download",
	})
	queue := jobs.NewQueue("exports", exportJobSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportJobSvc.SetQueue(queue)

	ctx := context.Background()
	queue.Start(ctx)
	defer queue.Stop()
	exportJobSvc.StartCleanup(ctx)

	templateHandler := handler.NewTemplateHandler(templateSvc)
	annotationHandler := handler.NewAnnotationHandler(annotationSvc)
	exportHandler := handler.NewExportHandler(exportSvc, exportJobSvc)
	sessionHandler := handler.NewSessionHandler(templateSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Session(cfg.Session, logr))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
	}
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/upload", templateHandler.Upload)
		api.GET("/files", templateHandler.List)
		api.GET("/files/:id", templateHandler.Get)

		api.POST("/files/:id/annotations", annotationHandler.Add)
		api.PUT("/files/:id/annotations", annotationHandler.Replace)
		api.POST("/files/:id/annotations/selection", annotationHandler.AddSelection)
		api.PUT("/files/:id/annotations/order", annotationHandler.Reorder)
		api.PATCH("/files/:id/annotations/:annotationId", annotationHandler.Update)
		api.DELETE("/files/:id/annotations/:annotationId", annotationHandler.Delete)

		api.POST("/exports", exportHandler.CreateBundle)
		api.POST("/exports/jobs", exportHandler.CreateJob)
		api.GET("/exports/jobs/:id", exportHandler.GetJob)
		api.GET("/exports/download", exportHandler.Download)

		api.POST("/session/clear", sessionHandler.Clear)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
