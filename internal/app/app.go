package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/00-khi/class-scheduling-system-sub001/api/swagger"
	"github.com/00-khi/class-scheduling-system-sub001/internal/handler"
	internalmiddleware "github.com/00-khi/class-scheduling-system-sub001/internal/middleware"
	"github.com/00-khi/class-scheduling-system-sub001/internal/repository"
	"github.com/00-khi/class-scheduling-system-sub001/internal/scheduling"
	"github.com/00-khi/class-scheduling-system-sub001/internal/service"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/cache"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/config"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/database"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/logger"
	corsmiddleware "github.com/00-khi/class-scheduling-system-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/00-khi/class-scheduling-system-sub001/pkg/middleware/requestid"
)

// App holds the connections and services shared by the server and the CLI.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB

	Metrics     *service.MetricsService
	Settings    *service.SettingsService
	Schedule    *service.ScheduleService
	Auto        *service.AutoScheduleService
	Assignments *service.InstructorAssignmentService

	cacheRepo *repository.CacheRepository
}

// New connects to Postgres, applies the schema, optionally connects to Redis
// and builds every service. Redis is optional; without it caching is disabled.
func New(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*App, error) {
	if logr == nil {
		logr = zap.NewNop()
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	var redisClient redis.UniversalClient
	cacheEnabled := cfg.Settings.CacheEnabled
	if cacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
			cacheEnabled = false
		} else {
			redisClient = client
		}
	}

	return Build(db, redisClient, cfg, logr, cacheEnabled), nil
}

// Build wires repositories and services on top of open connections.
func Build(db *sqlx.DB, redisClient redis.UniversalClient, cfg *config.Config, logr *zap.Logger, cacheEnabled bool) *App {
	validate := validator.New()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Settings.CacheTTL, logr, cacheEnabled)

	blocks := repository.NewScheduledSubjectRepository(db)
	assignments := repository.NewInstructorAssignmentRepository(db)
	subjects := repository.NewSubjectRepository(db)
	sections := repository.NewSectionRepository(db)
	rooms := repository.NewRoomRepository(db)
	instructors := repository.NewInstructorRepository(db)

	settings := service.NewSettingsService(repository.NewSettingsRepository(db), cacheSvc, validate, logr, service.SettingsServiceConfig{
		DayStart: cfg.Settings.DefaultDayStart,
		DayEnd:   cfg.Settings.DefaultDayEnd,
		Days:     cfg.Settings.DefaultDays,
		Semester: cfg.Settings.DefaultSemester,
		CacheTTL: cfg.Settings.CacheTTL,
	})

	engine := scheduling.NewAutoScheduler(scheduling.AutoConfig{
		StepMinutes:        cfg.Scheduler.StepMinutes,
		AttemptsPerSession: cfg.Scheduler.AttemptsPerSession,
		MaxBlockMinutes:    cfg.Scheduler.MaxBlockMinutes,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))

	return &App{
		Config:      cfg,
		Logger:      logr,
		DB:          db,
		Metrics:     metrics,
		Settings:    settings,
		Schedule:    service.NewScheduleService(blocks, assignments, sections, subjects, rooms, settings, db, cacheSvc, metrics, validate, logr),
		Auto:        service.NewAutoScheduleService(blocks, sections, subjects, rooms, settings, engine, db, cacheSvc, metrics, logr),
		Assignments: service.NewInstructorAssignmentService(blocks, assignments, instructors, settings, db, cacheSvc, metrics, validate, logr),
		cacheRepo:   cacheRepo,
	}
}

// Router builds the gin engine with middleware, ops endpoints and the API.
func (a *App) Router() *gin.Engine {
	if a.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(a.Metrics))

	metricsHandler := handler.NewMetricsHandler(a.Metrics, map[string]handler.ReadinessCheck{
		"database": a.DB.PingContext,
		"cache":    a.cacheRepo.Ping,
	})
	handler.RegisterOps(r, metricsHandler)
	handler.RegisterRoutes(r.Group(a.Config.APIPrefix), handler.Handlers{
		Schedule:   handler.NewScheduleHandler(a.Schedule),
		Auto:       handler.NewAutoScheduleHandler(a.Auto, a.Logger),
		Instructor: handler.NewInstructorHandler(a.Assignments),
		Settings:   handler.NewSettingsHandler(a.Settings),
		Metrics:    metricsHandler,
	})

	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

// Close releases the Redis and Postgres connections.
func (a *App) Close() error {
	return errors.Join(a.cacheRepo.Close(), a.DB.Close())
}
