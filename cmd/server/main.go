package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/config"
	"github.com/smilecms/internal/db"
	"github.com/smilecms/internal/handler"
	"github.com/smilecms/internal/logging"
	"github.com/smilecms/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text", os.Stderr).WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	gin.SetMode(cfg.GinMode)

	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, Path: cfg.DatabasePath, DSN: cfg.DatabaseDSN}); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	if err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.WithError(err).Fatal("failed to ensure super root user")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := router.SetupRouter(db.DB, router.Options{
		SessionSecret: cfg.SessionSecret,
		API: handler.Options{
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  cfg.JWTTTL,
			UploadDir: cfg.UploadDir,
			UploadURL: cfg.UploadURLPath,
		},
		UploadDir:         cfg.UploadDir,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		RateLimitDisabled: cfg.RateLimitDisabled,
		Logger:            log,
		Done:              ctx.Done(),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to run server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}
