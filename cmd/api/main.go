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
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-pedagogy-api/api/swagger"
	"github.com/noah-isme/sma-pedagogy-api/internal/handler"
	"github.com/noah-isme/sma-pedagogy-api/internal/middleware"
	"github.com/noah-isme/sma-pedagogy-api/internal/repository"
	"github.com/noah-isme/sma-pedagogy-api/internal/service"
	"github.com/noah-isme/sma-pedagogy-api/pkg/cache"
	"github.com/noah-isme/sma-pedagogy-api/pkg/config"
	"github.com/noah-isme/sma-pedagogy-api/pkg/cron"
	"github.com/noah-isme/sma-pedagogy-api/pkg/csvimport"
	"github.com/noah-isme/sma-pedagogy-api/pkg/database"
	"github.com/noah-isme/sma-pedagogy-api/pkg/jobs"
	"github.com/noah-isme/sma-pedagogy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-pedagogy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-pedagogy-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-pedagogy-api/pkg/ratelimit"
	"github.com/noah-isme/sma-pedagogy-api/pkg/render"
	"github.com/noah-isme/sma-pedagogy-api/pkg/storage"
)

// @title SMA Pedagogy API
// @version 1.0.0
// @description Pedagogical management for schools: documents, risk alerts, interventions and occurrences.
// @BasePath /api/v1
// @schemes http https
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	loc := time.UTC
	if cfg.Maintenance.Timezone != "" {
		l, err := time.LoadLocation(cfg.Maintenance.Timezone)
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
		loc = l
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Migrations.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
		logr.Info("migrations applied")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		return err
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	tx := database.NewTransactor(db)

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	sequenceRepo := repository.NewDocumentSequenceRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	ruleRepo := repository.NewRiskRuleRepository(db)
	alertRepo := repository.NewRiskAlertRepository(db)
	interventionRepo := repository.NewInterventionRepository(db)
	occurrenceRepo := repository.NewOccurrenceRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	importLogRepo := repository.NewImportLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	numbering := service.NewDocumentNumbering(documentRepo, sequenceRepo, schoolRepo, metrics, cfg.Documents.ReservationTTL, loc, logr)
	documentSvc := service.NewDocumentService(service.DocumentServiceParams{
		Documents: documentRepo,
		Numbering: numbering,
		Templates: templateRepo,
		Schools:   schoolRepo,
		Users:     userRepo,
		Audit:     auditRepo,
		Tx:        tx,
		Cache:     cacheSvc,
		PDF:       render.NewPDFRenderer(),
		DOCX:      render.NewDOCXRenderer(),
		Validator: validate,
		Location:  loc,
		Logger:    logr,
	})
	templateSvc := service.NewTemplateService(templateRepo, validate, logr)
	ruleSvc := service.NewRiskRuleService(ruleRepo, alertRepo, cacheSvc, validate, logr)
	evaluator := service.NewRiskEvaluator(service.RiskEvaluatorParams{
		Rules:         ruleRepo,
		Students:      studentRepo,
		Occurrences:   occurrenceRepo,
		Alerts:        alertRepo,
		Interventions: interventionRepo,
		Audit:         auditRepo,
		Tx:            tx,
		Locker:        cache.NewLocker(redisClient),
		Cache:         cacheSvc,
		Metrics:       metrics,
		LockTTL:       cfg.Risk.LockTTL,
		Logger:        logr,
	})
	interventionSvc := service.NewInterventionService(interventionRepo, studentRepo, auditRepo, cacheSvc, validate, logr)
	occurrenceSvc := service.NewOccurrenceService(occurrenceRepo, studentRepo, auditRepo, cacheSvc, validate, logr)
	importSvc := service.NewImportService(studentRepo, importLogRepo, csvimport.NewGradeParser(validate), auditRepo, tx, loc, logr)
	uploadSvc := service.NewUploadService(service.UploadServiceParams{
		Files:       files,
		Attachments: attachmentRepo,
		Signer:      storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL),
		Audit:       auditRepo,
		Config: service.UploadConfig{
			MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
			MaxFormSize:  cfg.Uploads.MaxFormSizeBytes,
			AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
			DownloadBase: cfg.APIPrefix + "/uploads",
		},
		Logger: logr,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Alerts:        alertRepo,
		Interventions: interventionRepo,
		Occurrences:   occurrenceRepo,
		Documents:     documentRepo,
		Cache:         cacheSvc,
		Metrics:       metrics,
		CacheTTL:      cfg.Dashboard.CacheTTL,
		Logger:        logr,
	})
	maintenanceSvc := service.NewMaintenanceService(service.MaintenanceServiceParams{
		Files:                     files,
		Attachments:               attachmentRepo,
		Occurrences:               occurrenceRepo,
		Documents:                 documentRepo,
		Numbering:                 numbering,
		OccurrenceRetention:       cfg.Maintenance.OccurrenceRetention,
		ArchivedDocumentRetention: cfg.Maintenance.ArchivedDocumentRetention,
		Logger:                    logr,
	})

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	scheduler := service.NewRiskScheduler(schoolRepo, evaluator, jobs.QueueConfig{
		Workers:    cfg.Risk.WorkerConcurrency,
		MaxRetries: cfg.Risk.WorkerRetries,
		RetryDelay: 30 * time.Second,
		Logger:     logr,
	}, logr)
	scheduler.Start(rootCtx)
	defer scheduler.Stop()

	runner, err := cron.New(rootCtx, cfg.Maintenance.Timezone, logr)
	if err != nil {
		return err
	}
	if cfg.Risk.ScheduleEnabled {
		if _, err := runner.Add("risk-evaluation", cfg.Risk.Schedule, scheduler.EnqueueAll); err != nil {
			return err
		}
	}
	if cfg.Maintenance.Enabled {
		if _, err := runner.Add("maintenance", cfg.Maintenance.Schedule, func(ctx context.Context) error {
			_, err := maintenanceSvc.Run(ctx)
			return err
		}); err != nil {
			return err
		}
	}
	runner.Start()
	defer runner.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, db, logr)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limiter := ratelimit.New(redisClient)
	limit := func(name string, perWindow int) gin.HandlerFunc {
		if !cfg.RateLimit.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimit(limiter, ratelimit.Bucket{Name: name, Limit: perWindow, Window: cfg.RateLimit.Window}, metrics, logr)
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Documents:     handler.NewDocumentHandler(documentSvc),
		Templates:     handler.NewTemplateHandler(templateSvc),
		Risk:          handler.NewRiskHandler(ruleSvc, evaluator),
		Interventions: handler.NewInterventionHandler(interventionSvc),
		Occurrences:   handler.NewOccurrenceHandler(occurrenceSvc),
		Imports:       handler.NewImportHandler(importSvc),
		Uploads:       handler.NewUploadHandler(uploadSvc, cfg.Uploads.MaxFormSizeBytes),
		Reference:     handler.NewReferenceHandler(service.NewReferenceService(studentRepo, schoolRepo, templateRepo)),
		Audit:         handler.NewAuditHandler(service.NewAuditService(auditRepo)),
		Metrics:       metricsHandler,
	}, handler.RouteMiddleware{
		Auth:          middleware.JWT(authSvc),
		SchoolScope:   middleware.SchoolScope(),
		DefaultLimit:  limit("default", cfg.RateLimit.Default),
		CriticalLimit: limit("critical", cfg.RateLimit.Critical),
		RequireRoles:  middleware.RequireRoles,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logr.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
