// cmd/server/main.go
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
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/javajoker/b2b-marketplace/internal/cache"
	"github.com/javajoker/b2b-marketplace/internal/config"
	"github.com/javajoker/b2b-marketplace/internal/database"
	"github.com/javajoker/b2b-marketplace/internal/events"
	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/router"
	"github.com/javajoker/b2b-marketplace/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogging(cfg)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}
	if cfg.Database.SeedAdmin {
		if err := database.SeedInitialData(db, cfg.Database.AdminEmail, cfg.Database.AdminPass); err != nil {
			logrus.WithError(err).Fatal("Failed to seed initial data")
		}
	}

	shutdownTracing, err := telemetry.InitTracer(cfg.Tracing, cfg.Environment, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize tracing")
	}

	deps := router.Dependencies{}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, checkout idempotency disabled")
		} else {
			defer client.Close()
			deps.Idempotency = cache.NewRedisIdempotencyStore(client)
			logrus.WithField("addr", cfg.Redis.Addr()).Info("Redis connected")
		}
	}

	if cfg.Kafka.Enabled {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		deps.Publisher = publisher
		logrus.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("Kafka publisher enabled")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r, stopRouter, err := router.Initialize(db, cfg, deps)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize router")
	}
	defer stopRouter()

	var handler http.Handler = r
	if cfg.Tracing.Enabled {
		handler = otelhttp.NewHandler(r, cfg.Tracing.ServiceName)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to flush traces")
	}

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	format := cfg.Logging.Format
	if format == "" && cfg.IsProduction() {
		format = "json"
	}
	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)
}
