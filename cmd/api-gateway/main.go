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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-scheduler-api/api/swagger"
	"github.com/noah-isme/campus-scheduler-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-scheduler-api/internal/middleware"
	"github.com/noah-isme/campus-scheduler-api/internal/repository"
	"github.com/noah-isme/campus-scheduler-api/internal/service"
	"github.com/noah-isme/campus-scheduler-api/pkg/cache"
	"github.com/noah-isme/campus-scheduler-api/pkg/config"
	"github.com/noah-isme/campus-scheduler-api/pkg/database"
	"github.com/noah-isme/campus-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-scheduler-api/pkg/middleware/requestid"
)

// @title Campus Scheduler API
// @version 1.0.0
// @description Course, section, room and faculty scheduling with conflict detection.
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator(cfg.Scheduling.StrictDays)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	conflictSvc := service.NewConflictService(sectionRepo, validate, metrics, logr)
	sectionSvc := service.NewSectionService(sectionRepo, courseRepo, roomRepo, facultyRepo, conflictSvc, cacheSvc, validate, logr,
		service.SectionServiceOptions{Locking: cfg.Scheduling.Locking, StrictDays: cfg.Scheduling.StrictDays})
	courseSvc := service.NewCourseService(courseRepo, sectionRepo, sectionSvc, cacheSvc, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, cacheSvc, validate, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, validate, logr)
	facultySvc := service.NewFacultyService(facultyRepo, departmentRepo, cacheSvc, validate, logr)
	timetableSvc := service.NewTimetableService(sectionRepo, facultySvc, roomSvc, cacheSvc, metrics, logr)
	exportSvc := service.NewExportService(timetableSvc, logr)

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	created, err := userSvc.EnsureBootstrapAdmin(bootstrapCtx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
	cancel()
	if err != nil {
		logr.Fatal("failed to bootstrap admin", zap.Error(err))
	}
	if created {
		logr.Info("bootstrap super admin created", zap.String("email", cfg.Bootstrap.AdminEmail))
	}

	dependencies := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		dependencies["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	metricsHandler := handler.NewMetricsHandler(metrics, dependencies)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Sections:    handler.NewSectionHandler(sectionSvc),
		Rooms:       handler.NewRoomHandler(roomSvc),
		Departments: handler.NewDepartmentHandler(departmentSvc),
		Faculty:     handler.NewFacultyHandler(facultySvc),
		Timetables:  handler.NewTimetableHandler(timetableSvc, exportSvc),
		Conflicts:   handler.NewConflictHandler(conflictSvc),
		Metrics:     metricsHandler,
	}, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
