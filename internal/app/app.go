package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/ARPITJ0SHI/Attendance-Manager/internal/messaging/kafka"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/middleware"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/apperror"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/config"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/connection"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/contextutil"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/metrics"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// Dependencies are the process-wide handles shared by every module. Redis and
// Outbox are optional.
type Dependencies struct {
	Config   config.Config
	DB       *gorm.DB
	SQL      *sql.DB
	Redis    *redis.Client
	Outbox   kafka.OutboxRepository
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// BuildApp opens storage, runs migrations when enabled and mounts every route
// on router. The returned cleanup closes what was opened.
func BuildApp(router *gin.Engine, cfg config.Config) (func(), error) {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DSN(), cfg.DBMaxRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("close database failed", zap.Error(err))
		}
	}

	if cfg.DBAutoMigrate {
		if err := AutoMigrate(gormDB); err != nil {
			cleanup()
			return nil, err
		}
		logger.Info("schema migrated")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.DBMaxRetries)
		if err != nil {
			cleanup()
			return nil, err
		}
		logger.Info("redis connection established")
		closeDB := cleanup
		cleanup = func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("close redis failed", zap.Error(err))
			}
			closeDB()
		}
	}

	var outboxRepo kafka.OutboxRepository
	if cfg.KafkaBroker != "" {
		outboxRepo = kafka.NewOutboxRepository(sqlDB)
	}

	Mount(router, Dependencies{
		Config:   cfg,
		DB:       gormDB,
		SQL:      sqlDB,
		Redis:    rdb,
		Outbox:   outboxRepo,
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
		Logger:   zap.L(),
	})

	return cleanup, nil
}

// Mount installs the global middleware, the resource modules and the
// operational endpoints on router.
func Mount(router *gin.Engine, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(deps.Logger),
		middleware.Metrics(deps.Metrics),
	)

	router.GET("/", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"message": "Welcome to HRMS Lite API"})
	})
	router.GET("/health", healthHandler(deps.SQL))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	registerModules(router, deps)
}

func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		err := errors.New("database not configured")
		if db != nil {
			err = db.PingContext(ctx)
		}
		if err != nil {
			contextutil.GetLogger(c.Request.Context(), zap.L()).Warn("health check failed", zap.Error(err))
			e := apperror.ErrServiceUnavailable
			response.Error(c, e.HTTPStatus, e.Code, e.Message, nil)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
