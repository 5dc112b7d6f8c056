package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"grievance-intake-go/internal/api"
	"grievance-intake-go/internal/app"
	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/logger"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "grievance-intake-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer a.Close()

	auth, err := api.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		log.WithError(err).Fatal("authentication not configured")
	}
	attachments, err := api.NewLocalAttachments(cfg.UploadDir)
	if err != nil {
		log.WithError(err).Fatal("upload directory unavailable")
	}

	router := api.NewRouter(api.Deps{
		Pipeline:       a.Pipeline,
		Workflow:       a.Workflow,
		Store:          a.Store,
		Classifier:     a.Classifier,
		Assistant:      a.Assistant,
		Localizer:      a.Normalizer,
		Attachments:    attachments,
		Auth:           auth,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		Log:            log,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
