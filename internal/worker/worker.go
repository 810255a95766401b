package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/internal/pipeline"
	"basegraph.app/autoresponder/internal/queue"
)

type Config struct {
	TaskTimeout time.Duration
}

// Worker consumes ticket tasks from the queue. Every message is acked exactly once:
// on success, or by moving it to the dead letter stream on failure. Failed tasks are
// not retried because their comments may already be posted.
type Worker struct {
	consumer  Consumer
	processor TicketProcessor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, processor TicketProcessor, cfg Config) *Worker {
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 60 * time.Second
	}
	return &Worker{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "autoresponder.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		w.ProcessMessage(ctx, msg)
	}
	return nil
}

// ProcessMessage runs one task and settles its message. Exported for the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) {
	msgID := msg.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: &msgID,
		TicketID:  logger.Ptr(msg.Task.TicketID),
		TaskID:    logger.Ptr(msg.Task.TaskID),
	})

	sc := logger.StartSpanFromTraceID(ctx, msg.Task.TraceID, "worker.process_ticket")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(attribute.Int64("ticket.id", msg.Task.TicketID))

	if !msg.Task.EnqueuedAt.IsZero() {
		slog.InfoContext(ctx, "processing ticket task",
			"queue_latency_ms", time.Since(msg.Task.EnqueuedAt).Milliseconds())
	}

	if err := w.processSafe(ctx, msg); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "ticket task failed", "error", err)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}
}

func (w *Worker) processSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, w.cfg.TaskTimeout)
	defer cancel()

	return w.processor.Process(ctx, pipeline.TicketRef{
		TicketID: msg.Task.TicketID,
		TaskID:   msg.Task.TaskID,
	})
}
