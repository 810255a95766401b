package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/autoresponder/common/id"
	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/common/otel"
	"basegraph.app/autoresponder/core/config"
	"basegraph.app/autoresponder/internal/queue"
	"basegraph.app/autoresponder/internal/service"
	"basegraph.app/autoresponder/internal/worker"
)

func main() {
	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "autoresponder worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer,
		"triage_enabled", cfg.Agent.TriageEnabled)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	services, err := service.NewServices(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build services", "error", err)
		os.Exit(1)
	}

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
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer,
		DLQStream: cfg.Pipeline.RedisDLQStream,
		BatchSize: 1,
		Block:     5 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, services.Processor(), worker.Config{
		TaskTimeout: cfg.Pipeline.Timeout,
	})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:   max(5*time.Minute, 2*cfg.Pipeline.Timeout),
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go reclaimer.Run(ctx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.Timeout+5*time.Second)
	defer cancel()

	reclaimer.Stop()

	// Stop waits for the task in flight; a blocked read ends with ctx.
	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
		cancelRun()
	case <-stopped:
		if err := <-errCh; err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			slog.ErrorContext(ctx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
  __ _ _   _| |_ ___  _ __ ___  ___ _ __   ___  _ __   __| | ___ _ __
 / _' | | | | __/ _ \| '__/ _ \/ __| '_ \ / _ \| '_ \ / _' |/ _ \ '__|
| (_| | |_| | || (_) | | |  __/\__ \ |_) | (_) | | | | (_| |  __/ |
 \__,_|\__,_|\__\___/|_|  \___||___/ .__/ \___/|_| |_|\__,_|\___|_|
                                   |_|                      worker
`
