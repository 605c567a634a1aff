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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ssgb-dev/logbook-api/api/swagger"
	"github.com/ssgb-dev/logbook-api/internal/handler"
	"github.com/ssgb-dev/logbook-api/internal/middleware"
	"github.com/ssgb-dev/logbook-api/internal/repository"
	"github.com/ssgb-dev/logbook-api/internal/service"
	"github.com/ssgb-dev/logbook-api/pkg/cache"
	"github.com/ssgb-dev/logbook-api/pkg/config"
	"github.com/ssgb-dev/logbook-api/pkg/database"
	"github.com/ssgb-dev/logbook-api/pkg/jobs"
	"github.com/ssgb-dev/logbook-api/pkg/logger"
	corsmiddleware "github.com/ssgb-dev/logbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ssgb-dev/logbook-api/pkg/middleware/requestid"
	"github.com/ssgb-dev/logbook-api/pkg/storage"
)

// @title Logbook API
// @version 1.0.0
// @description Student record management with collaborative edit locks
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	lockRepo := repository.NewLockRepository(rdb, cfg.Locks.TTL, logr)

	authSvc := service.NewAuthService(userRepo, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	recordSvc := service.NewRecordService(recordRepo, lockRepo, assignmentRepo, nil, logr,
		cfg.Records.MaxBytes, cfg.School.DefaultYear)
	lockSvc := service.NewLockService(lockRepo, recordRepo, recordSvc, userRepo, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, userRepo, subjectRepo, nil, logr, cfg.School.DefaultYear)
	teacherSvc := service.NewTeacherService(assignmentRepo, recordRepo, logr, cfg.School.DefaultYear)
	importerSvc := service.NewImporterService(userSvc, subjectSvc, assignmentSvc, logr)
	metricsSvc := service.NewMetricsService()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportRepo := repository.NewExportRepository(db)
		exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

		exportQueue = jobs.NewQueue("exports", func(ctx context.Context, job jobs.Job) error {
			return exportSvc.ProcessJob(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportSvc = service.NewExportService(exportRepo, recordRepo, exportQueue, exportStorage, signer, nil, logr,
			service.ExportConfig{
				APIPrefix:       cfg.APIPrefix,
				ResultTTL:       cfg.Exports.ResultTTL,
				CleanupInterval: cfg.Exports.CleanupInterval,
			})

		exportSvc.SetMetrics(metricsSvc)

		exportQueue.Start(ctx)
		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, handler.Services{
		Auth:        authSvc,
		Users:       userSvc,
		Subjects:    subjectSvc,
		Records:     recordSvc,
		Locks:       lockSvc,
		Assignments: assignmentSvc,
		Teacher:     teacherSvc,
		Importer:    importerSvc,
		Exports:     exportSvc,
		Metrics:     metricsSvc,
		AuditRepo:   userRepo,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}
