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
	"github.com/sirupsen/logrus"

	"fms-squat-go/internal/config"
	"fms-squat-go/internal/gemini"
	"fms-squat-go/internal/logger"
	"fms-squat-go/internal/processor"
	"fms-squat-go/internal/transport"
)

func main() {
	// Load first so LOG_LEVEL and ENVIRONMENT from .env reach the logger.
	cfg, err := config.Load()
	log := logger.New()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	model := gemini.NewInvoker(cfg.Model, log)
	proc := processor.New(model, log)
	handler := transport.NewHandler(cfg, proc, log)

	// The model budget bounds how long a single analyze request may run.
	writeTimeout := cfg.Model.MaxRetryTime + cfg.Model.Timeout + 10*time.Second
	server := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"service": transport.ServiceName,
			"version": transport.ServiceVersion,
			"address": cfg.ServerAddress(),
			"model":   model.Model(),
			"mock":    cfg.Model.UseMock,
		}).Info("starting HTTP server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
		return
	}
	log.Info("server exited")
}
