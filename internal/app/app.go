// Package app boots the console: configuration, logging, database, cache,
// scheduler and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dataround/link/internal/cache"
	"github.com/dataround/link/internal/config"
	"github.com/dataround/link/internal/db"
	"github.com/dataround/link/internal/http/api"
	"github.com/dataround/link/internal/logging"
	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/scheduler"
	"github.com/dataround/link/internal/settings"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database, applies migrations and seeds the connector
// catalog.
func Migrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log)

	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	return db.SeedConnectors(conn)
}

// RunServer boots the console server and blocks until the context is
// cancelled or a termination signal arrives.
func RunServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log)

	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := db.SeedConnectors(conn); errSeed != nil {
		return errSeed
	}
	if errSettings := settings.Refresh(ctx, conn); errSettings != nil {
		return fmt.Errorf("load settings: %w", errSettings)
	}

	var fileCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, errRedis := cache.NewRedis(ctx, cfg.Redis)
		if errRedis != nil {
			return fmt.Errorf("connect redis: %w", errRedis)
		}
		fileCache = redisCache
		log.WithField("addr", cfg.Redis.Addr).Info("using redis cache")
	} else {
		fileCache = cache.NewMemory()
	}

	executor := scheduler.NewEngineExecutor(conn, cfg.Engine.SubmitURL)
	sched := scheduler.New(conn, executor)
	if cfg.Scheduler.Enabled {
		if errStart := sched.Start(ctx); errStart != nil {
			return errStart
		}
		defer sched.Stop()

		monitor := scheduler.NewMonitor(conn, cfg.Engine.StatusURL)
		monitor.Start()
		defer monitor.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	api.RegisterRoutes(engine, api.Deps{
		DB:        conn,
		Scheduler: sched,
		Schemas:   mapping.NewSchemaCache(),
		Cache:     fileCache,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("console listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-shutdownCtx.Done():
		log.Info("shutting down")
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(closeCtx)
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("request")
	}
}
