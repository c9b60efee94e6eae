package main

import (
	"context"
	"errors"
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

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Timetable generation, versioning and distribution for schools
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	timetableRepo := repository.NewTimetableRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	termRepo := repository.NewTermRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled)
	}

	reportSvc := service.NewReportService(timetableRepo, termRepo, slotRepo, venueRepo, cacheSvc, logr, service.ReportServiceConfig{
		CacheEnabled: cacheSvc.Enabled(),
		CacheTTL:     cfg.Reports.CacheTTL,
	})

	distributionSvc := service.NewDistributionService(timetableRepo, enrollmentRepo, userRepo, service.DistributionServiceConfig{
		Workers:    cfg.Distribution.Workers,
		MaxRetries: cfg.Distribution.MaxRetries,
	}, logr)
	if cfg.Distribution.Enabled {
		distributionSvc.Start(ctx)
		defer distributionSvc.Stop()
	}

	compiler := service.NewRequirementCompiler(requirementRepo, assignmentRepo, logr)
	solver := service.NewSolver(cfg.Scheduler.SolverNodeBudget, logr)

	timetableSvc := service.NewTimetableService(
		timetableRepo,
		termRepo,
		slotRepo,
		venueRepo,
		availabilityRepo,
		assignmentRepo,
		compiler,
		solver,
		reportSvc,
		distributionSvc,
		metricsSvc,
		validate,
		logr,
		service.TimetableServiceConfig{SeedFromPublished: cfg.Scheduler.SeedFromPublished},
	)

	slotSvc := service.NewSlotService(slotRepo, timetableRepo, validate, logr)
	requirementSvc := service.NewRequirementService(requirementRepo, termRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, validate, logr)
	personalSvc := service.NewPersonalTimetableService(userRepo, enrollmentRepo, timetableRepo, logr)
	exportSvc := service.NewExportService(timetableRepo, nil, nil, logr)

	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	personalHandler := handler.NewPersonalHandler(personalSvc)
	slotHandler := handler.NewSlotHandler(slotSvc)
	requirementHandler := handler.NewRequirementHandler(requirementSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	staff := api.Group("")
	staff.Use(middleware.RBAC(models.RoleSuperAdmin, models.RoleAdmin))
	{
		staff.POST("/timetables/versions", timetableHandler.CreateVersion)
		staff.POST("/timetables/versions/:id/clone", timetableHandler.CloneVersion)
		staff.POST("/timetables/versions/:id/publish", timetableHandler.PublishVersion)
		staff.POST("/timetables/versions/:id/archive", timetableHandler.ArchiveVersion)
		staff.POST("/timetables/versions/:id/generate", timetableHandler.GenerateTimetable)
		staff.POST("/timetables/versions/:id/lessons", timetableHandler.AddLesson)
		staff.DELETE("/timetables/versions/:id/lessons/:lessonId", timetableHandler.RemoveLesson)

		staff.POST("/slots", slotHandler.Create)
		staff.DELETE("/slots/:id", slotHandler.Delete)

		staff.POST("/requirements", requirementHandler.Create)
		staff.DELETE("/requirements/:id", requirementHandler.Delete)

		staff.GET("/terms/:termId/reports/clashes", reportHandler.Clashes)
		staff.GET("/terms/:termId/reports/free-slots", reportHandler.FreeSlots)
		staff.GET("/terms/:termId/reports/venue-utilization", reportHandler.VenueUtilization)
		staff.GET("/terms/:termId/reports/teacher-workload", reportHandler.TeacherWorkload)
		staff.GET("/reports/compare", reportHandler.CompareVersions)

		staff.GET("/admin/metrics", metricsHandler.Snapshot)
	}

	planning := api.Group("")
	planning.Use(middleware.RBAC(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))
	{
		planning.GET("/timetables/versions/:id", timetableHandler.GetVersion)
		planning.GET("/terms/:termId/versions", timetableHandler.ListVersions)
		planning.GET("/timetables/versions/:id/export.csv", timetableHandler.ExportCSV)
		planning.GET("/timetables/versions/:id/export.pdf", timetableHandler.ExportPDF)
		planning.GET("/schools/:schoolId/slots", slotHandler.ListBySchool)
		planning.GET("/terms/:termId/requirements", requirementHandler.ListByTerm)
		planning.PUT("/availability", availabilityHandler.Reset)
		planning.GET("/teachers/:teacherId/terms/:termId/availability", availabilityHandler.ListForTeacher)
	}

	api.GET("/me/timetable", personalHandler.MyTimetable)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
