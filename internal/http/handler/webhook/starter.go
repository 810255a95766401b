package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/autoresponder/common/id"
	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/internal/model"
	"basegraph.app/autoresponder/internal/pipeline"
	"basegraph.app/autoresponder/internal/queue"
	"basegraph.app/autoresponder/internal/ticket"
	"basegraph.app/autoresponder/internal/worker"
)

// PipelineStarter hands a loaded ticket to the AI pipeline without waiting for it.
type PipelineStarter interface {
	Start(ctx context.Context, snap *ticket.Snapshot) error
}

type ConversationBuilder interface {
	BuildConversation(ctx context.Context, snap *ticket.Snapshot) []model.ConversationMessage
}

type PipelineRunner interface {
	Run(ctx context.Context, job pipeline.Job) error
}

type Scheduler interface {
	Submit(ctx context.Context, name string, task worker.Task) error
}

type inlineStarter struct {
	builder   ConversationBuilder
	runner    PipelineRunner
	scheduler Scheduler
}

// NewInlineStarter assembles the conversation on the request path and runs the
// pipeline in-process once the response is sent.
func NewInlineStarter(builder ConversationBuilder, runner PipelineRunner, scheduler Scheduler) PipelineStarter {
	return &inlineStarter{builder: builder, runner: runner, scheduler: scheduler}
}

func (s *inlineStarter) Start(ctx context.Context, snap *ticket.Snapshot) error {
	job := pipeline.Job{
		TaskID:   id.New(),
		Ticket:   snap.Context,
		Messages: s.builder.BuildConversation(ctx, snap),
	}

	slog.InfoContext(ctx, "deferring pipeline run",
		"task_id", job.TaskID,
		"message_count", len(job.Messages))

	return s.scheduler.Submit(ctx, fmt.Sprintf("ticket-%d", snap.Context.TicketID), func(ctx context.Context) error {
		return s.runner.Run(ctx, job)
	})
}

type queueStarter struct {
	producer queue.Producer
}

// NewQueueStarter enqueues a ticket task; a worker reloads the ticket and runs the pipeline.
func NewQueueStarter(producer queue.Producer) PipelineStarter {
	return &queueStarter{producer: producer}
}

func (s *queueStarter) Start(ctx context.Context, snap *ticket.Snapshot) error {
	task := queue.TicketTask{
		TaskID:     id.New(),
		TicketID:   snap.Context.TicketID,
		TraceID:    logger.TraceIDFromContext(ctx),
		EnqueuedAt: time.Now(),
	}
	if err := s.producer.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueueing ticket %d: %w", task.TicketID, err)
	}
	return nil
}
