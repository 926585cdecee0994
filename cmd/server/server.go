// server.go wires config, storage, and the HTTP/WS surfaces together and
// runs the process, grounded on the teacher's cmd/v1/session/main.go
// graceful-shutdown shape: start ListenAndServe in a goroutine, wait for
// SIGINT/SIGTERM, then Shutdown with a bounded grace period.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/adeyems/wordround/internal/v1/clockid"
	"github.com/adeyems/wordround/internal/v1/config"
	"github.com/adeyems/wordround/internal/v1/health"
	"github.com/adeyems/wordround/internal/v1/httpapi"
	"github.com/adeyems/wordround/internal/v1/logging"
	"github.com/adeyems/wordround/internal/v1/persist"
	"github.com/adeyems/wordround/internal/v1/ratelimit"
	"github.com/adeyems/wordround/internal/v1/registry"
	"github.com/adeyems/wordround/internal/v1/wsapi"
)

func run(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}

	if err := logging.Initialize(cfg.DevelopmentMode); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log := logging.GetLogger()
	log.Info("starting wordround server", cfg.LogFields()...)

	var redisClient *redis.Client
	var persistLog *persist.Log
	if cfg.RedisEnabled {
		persistLog, err = persist.NewLog(cfg.RedisAddr, cfg.RedisPassword, log)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer persistLog.Close()
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer redisClient.Close()
	}

	reg := registry.New(clockid.SystemClock{}, clockid.RandomIDSource{}, cfg.RoomCleanupGrace, persistLog, log)

	limiter, err := ratelimit.New(cfg, redisClient)
	if err != nil {
		return fmt.Errorf("build rate limiter: %w", err)
	}

	healthHandler := health.NewHandler(persistLog)
	wsServer := wsapi.New(reg, cfg.AllowedOrigins, log)

	router := httpapi.NewRouter(httpapi.Deps{
		Registry:     reg,
		Limiter:      limiter,
		Health:       healthHandler,
		AllowOrigins: cfg.AllowedOrigins,
		Upgrade:      wsServer.Upgrade,
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		log.Info("shutting down")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server exited cleanly")
	return nil
}
