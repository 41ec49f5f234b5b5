package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/goldierill/board/internal/config"
	"github.com/goldierill/board/internal/database"
	"github.com/goldierill/board/internal/middleware"
	"github.com/goldierill/board/internal/modules/auth"
	"github.com/goldierill/board/internal/modules/board/comment"
	"github.com/goldierill/board/internal/modules/board/message"
	"github.com/goldierill/board/internal/modules/board/responder"
	"github.com/goldierill/board/internal/modules/storage/upload"
	"github.com/goldierill/board/internal/pkg/cron"
	"github.com/goldierill/board/internal/pkg/jwt"
	"github.com/goldierill/board/internal/pkg/redis"
)

// App owns the HTTP server, database handle and background scheduler.
type App struct {
	cfg       *config.AppConfig
	db        *gorm.DB
	rdb       *redis.Client
	engine    *gin.Engine
	server    *http.Server
	scheduler *cron.Scheduler

	uploadSvc *upload.Service
}

func New(cfg *config.AppConfig) (*App, error) {
	jwt.SetSecret(cfg.JWTSecret)

	db, err := database.Connect(cfg.DSN, cfg.IsDev())
	if err != nil {
		return nil, err
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		// Redis only backs the anonymous rate limiter; the board runs
		// without it.
		zap.L().Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		rdb = nil
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(cors.New(corsConfig(cfg)))

	a := &App{
		cfg:       cfg,
		db:        db,
		rdb:       rdb,
		engine:    engine,
		scheduler: cron.NewScheduler(),
	}
	if err := a.registerRoutes(); err != nil {
		return nil, err
	}
	a.registerJobs()

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowOrigins = cfg.AllowedOrigins
	} else {
		c.AllowAllOrigins = true
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	return c
}

func (a *App) registerRoutes() error {
	authMW := middleware.Auth(a.db)
	optionalAuth := middleware.OptionalAuth(a.db)

	api := a.engine.Group("/api")
	api.Use(optionalAuth)
	if a.rdb != nil {
		api.Use(middleware.RateLimit(a.rdb))
	}

	authSvc := auth.NewService(a.db)
	auth.NewHandler(authSvc).RegisterRoutes(api, authMW)

	messageSvc := message.NewService(a.db, a.cfg.UploadsDir)
	message.NewHandler(messageSvc).RegisterRoutes(api, optionalAuth)

	bot := responder.New(a.db, a.cfg.AI)
	commentSvc := comment.NewService(a.db)
	comment.NewHandler(commentSvc, bot).RegisterRoutes(api, optionalAuth)

	uploadSvc, err := upload.NewService(a.db, a.cfg.UploadsDir, a.cfg.S3)
	if err != nil {
		return err
	}
	a.uploadSvc = uploadSvc
	uploadHandler := upload.NewHandler(uploadSvc)
	uploadHandler.RegisterRoutes(api, optionalAuth)
	uploadHandler.RegisterFileRoutes(a.engine, optionalAuth)

	a.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return nil
}

// Run starts the scheduler and serves HTTP until the server closes.
func (a *App) Run() error {
	a.scheduler.Start()
	zap.L().Info("server listening", zap.Int("port", a.cfg.Port))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops background jobs.
func (a *App) Shutdown(ctx context.Context) error {
	a.scheduler.Stop()
	return a.server.Shutdown(ctx)
}
