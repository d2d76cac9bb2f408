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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edu-ops-api/api/swagger"
	"github.com/noah-isme/edu-ops-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edu-ops-api/internal/middleware"
	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/internal/repository"
	"github.com/noah-isme/edu-ops-api/internal/service"
	"github.com/noah-isme/edu-ops-api/pkg/cache"
	"github.com/noah-isme/edu-ops-api/pkg/config"
	"github.com/noah-isme/edu-ops-api/pkg/database"
	"github.com/noah-isme/edu-ops-api/pkg/export"
	"github.com/noah-isme/edu-ops-api/pkg/jobs"
	"github.com/noah-isme/edu-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-ops-api/pkg/middleware/requestid"
	"github.com/noah-isme/edu-ops-api/pkg/sheets"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
	"github.com/noah-isme/edu-ops-api/pkg/ws"
)

// @title Edu Ops API
// @version 1.0.0
// @description Teacher rostering and make-up class assignment for a language centre.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	time.Local = cfg.Location()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := timeslot.NewValidator()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "edu-ops:", logr.Named("cache")),
		metricsSvc, cfg.Cache.TTL, logr.Named("cache"), cfg.Cache.Enabled && redisClient != nil,
	)

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	teacherLevelRepo := repository.NewTeacherLevelRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	workShiftRepo := repository.NewWorkShiftRepository(db)
	freeScheduleRepo := repository.NewFreeScheduleRepository(db)
	makeupRepo := repository.NewMakeupClassRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := ws.NewHub(logr.Named("ws"))
	defer hub.Close()
	notificationSvc := service.NewNotificationService(notificationRepo, hub, logr.Named("notifications"))

	authSvc := service.NewAuthService(userRepo, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, teacherRepo, validate, logr.Named("users"))
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr.Named("subjects"))
	teacherSvc := service.NewTeacherService(teacherRepo, teacherLevelRepo, subjectRepo, cacheSvc, validate, logr.Named("teachers"))
	classSvc := service.NewClassService(classRepo, subjectRepo, teacherRepo, cacheSvc, validate, logr.Named("classes"))
	scheduleSvc := service.NewScheduleService(scheduleRepo, classRepo, teacherRepo, makeupRepo, cacheSvc, validate, logr.Named("schedules"))
	commitmentSvc := service.NewCommitmentService(teacherRepo, workShiftRepo, freeScheduleRepo, scheduleRepo, makeupRepo)

	assignmentSvc := service.NewAssignmentService(service.AssignmentRepositories{
		Makeups:       makeupRepo,
		Teachers:      teacherRepo,
		Levels:        teacherLevelRepo,
		WorkShifts:    workShiftRepo,
		FreeSchedules: freeScheduleRepo,
		Schedules:     scheduleRepo,
	}, notificationSvc, metricsSvc, cacheSvc, cfg.Assignment.LoadWindow, logr.Named("assignment"))

	shiftSvc := service.NewShiftService(shiftRepo, cacheSvc, validate, logr.Named("shifts"))
	workShiftSvc := service.NewWorkShiftService(workShiftRepo, shiftRepo, teacherRepo, assignmentSvc, cacheSvc, validate, logr.Named("work-shifts"))
	freeScheduleSvc := service.NewFreeScheduleService(freeScheduleRepo, teacherRepo, cacheSvc, validate, logr.Named("free-schedules"))

	assignQueue := jobs.NewQueue("assignment", assignmentSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Assignment.Workers,
		MaxRetries: cfg.Assignment.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logr.Named("jobs"),
	})
	assignQueue.Start(ctx)
	defer assignQueue.Stop()

	makeupSvc := service.NewMakeupClassService(makeupRepo, subjectRepo, assignmentSvc, service.MakeupClassServiceConfig{
		Queue:        assignQueue,
		Notifier:     notificationSvc,
		Cache:        cacheSvc,
		Renderer:     export.NewRenderer(),
		AutoOnCreate: cfg.Assignment.AutoOnCreate,
		Validator:    validate,
		Logger:       logr.Named("makeups"),
	})

	var sheetClient sheets.Client
	if cfg.Sheets.Enabled {
		gc, err := sheets.NewGoogleClient(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID)
		if err != nil {
			logr.Error("google sheets client unavailable, sync disabled", zap.Error(err))
		} else {
			sheetClient = gc
		}
	}
	syncSvc := service.NewSheetSyncService(sheetClient, service.SheetSyncConfig{
		Enabled:      sheetClient != nil,
		ReadRange:    cfg.Sheets.ReadRange,
		StatusColumn: cfg.Sheets.StatusColumn,
		Schedule:     cfg.Sheets.Schedule,
		Timeout:      cfg.Sheets.Timeout,
	}, makeupRepo, subjectSvc, makeupSvc, notificationSvc, metricsSvc,
		cache.NewLock(redisClient, "edu-ops:lock:sheet-sync", cfg.Sheets.LockTTL), logr.Named("sheets"))

	scheduler := jobs.NewScheduler(ctx, logr.Named("scheduler"))
	if sheetClient != nil {
		if err := scheduler.Register("sheet-sync", cfg.Sheets.Schedule, cfg.Sheets.Timeout, true, syncSvc.Task); err != nil {
			logr.Fatal("invalid sheet sync schedule", zap.String("schedule", cfg.Sheets.Schedule), zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", cfg.APIPrefix+"/notifications/ws"))
	r.Use(internalmiddleware.WithResponseMeta())

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = redisPinger(redisClient)
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var makeupHandlers []*handler.MakeupClassHandler
	for _, kind := range []models.MakeupKind{models.MakeupOffset, models.MakeupSupplementary, models.MakeupTest} {
		makeupHandlers = append(makeupHandlers, handler.NewMakeupClassHandler(kind, makeupSvc, assignmentSvc))
	}

	routeCfg := handler.RouteConfig{AuthEnabled: cfg.Auth.Enabled, Tokens: authSvc}
	var socketTokens internalmiddleware.TokenValidator
	if cfg.Auth.Enabled {
		socketTokens = authSvc
	} else {
		logr.Warn("authentication disabled, every endpoint is public")
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Teachers:      handler.NewTeacherHandler(teacherSvc, commitmentSvc),
		Subjects:      handler.NewSubjectHandler(subjectSvc),
		Classes:       handler.NewClassHandler(classSvc),
		Schedules:     handler.NewScheduleHandler(scheduleSvc),
		Roster:        handler.NewRosterHandler(shiftSvc, workShiftSvc, freeScheduleSvc),
		Makeups:       makeupHandlers,
		Notifications: handler.NewNotificationHandler(notificationSvc, hub, socketTokens, cfg.CORS.AllowedOrigins, logr.Named("ws")),
		Sync:          handler.NewSyncHandler(syncSvc),
	}, routeCfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func redisPinger(client *redis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
