package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/autoresponder/common/id"
	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/common/otel"
	"basegraph.app/autoresponder/core/config"
	"basegraph.app/autoresponder/internal/http/handler/webhook"
	"basegraph.app/autoresponder/internal/http/middleware"
	httprouter "basegraph.app/autoresponder/internal/http/router"
	"basegraph.app/autoresponder/internal/queue"
	"basegraph.app/autoresponder/internal/service"
	"basegraph.app/autoresponder/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		// Can't use slog yet, OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "autoresponder starting",
		"env", cfg.Env,
		"service", cfg.OTel.ServiceName,
		"pipeline_mode", cfg.Pipeline.Mode,
		"triage_enabled", cfg.Agent.TriageEnabled,
		"public_responses", cfg.Agent.PublicResponses)
	if err := id.Init(id.NodeServer); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	services, err := service.NewServices(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build services", "error", err)
		os.Exit(1)
	}

	var (
		starter  webhook.PipelineStarter
		deferred *worker.Deferred
	)
	if cfg.Pipeline.Queued() {
		redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

		producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
		defer producer.Close()
		starter = webhook.NewQueueStarter(producer)
	} else {
		deferred = worker.NewDeferred(worker.DeferredConfig{
			Timeout:        cfg.Pipeline.Timeout,
			MaxConcurrency: cfg.Pipeline.MaxConcurrency,
		})
		starter = webhook.NewInlineStarter(services.Tickets(), services.Runner(), deferred)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	zendeskHandler := webhook.NewZendeskWebhookHandler(cfg.Webhook.Secret, services.Tickets(), starter)
	router := setupRouter(cfg, zendeskHandler)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	// Deferred runs get their full budget; comments may be half posted otherwise.
	if deferred != nil {
		drainCtx, drainCancel := context.WithTimeout(ctx, cfg.Pipeline.Timeout+5*time.Second)
		if err := deferred.Shutdown(drainCtx); err != nil {
			slog.ErrorContext(drainCtx, "deferred pipeline runs did not finish", "error", err)
		}
		drainCancel()
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, zendeskHandler *webhook.ZendeskWebhookHandler) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, zendeskHandler)

	return router
}

const banner = `
  __ _ _   _| |_ ___  _ __ ___  ___ _ __   ___  _ __   __| | ___ _ __
 / _' | | | | __/ _ \| '__/ _ \/ __| '_ \ / _ \| '_ \ / _' |/ _ \ '__|
| (_| | |_| | || (_) | | |  __/\__ \ |_) | (_) | | | | (_| |  __/ |
 \__,_|\__,_|\__\___/|_|  \___||___/ .__/ \___/|_| |_|\__,_|\___|_|
                                   |_|                      server
`
