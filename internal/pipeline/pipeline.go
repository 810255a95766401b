package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/internal/metrics"
	"basegraph.app/autoresponder/internal/model"
)

type Triager interface {
	Triage(ctx context.Context, messages []model.ConversationMessage) (model.TriageResult, error)
}

type Responder interface {
	Respond(ctx context.Context, messages []model.ConversationMessage, metadata map[string]any) (model.ResponseResult, error)
}

type Dispatcher interface {
	DispatchTriage(ctx context.Context, tc model.TicketContext, messages []model.ConversationMessage, triage model.TriageResult) error
	DispatchResponse(ctx context.Context, tc model.TicketContext, messages []model.ConversationMessage, resp model.ResponseResult) error
}

// Job is one deferred run over an already assembled conversation.
type Job struct {
	TaskID   int64
	Ticket   model.TicketContext
	Messages []model.ConversationMessage
}

// Runner drives triage, response generation and dispatch for one ticket.
type Runner struct {
	triager    Triager
	responder  Responder
	dispatcher Dispatcher
}

// NewRunner builds a runner. A nil triager disables triage.
func NewRunner(triager Triager, responder Responder, dispatcher Dispatcher) *Runner {
	return &Runner{
		triager:    triager,
		responder:  responder,
		dispatcher: dispatcher,
	}
}

// Run triages the ticket when enabled and stops at an internal note for billing
// tickets; otherwise it generates an answer and dispatches it. Errors are terminal
// for the run.
func (r *Runner) Run(ctx context.Context, job Job) (err error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TicketID:  logger.Ptr(job.Ticket.TicketID),
		TaskID:    logger.Ptr(job.TaskID),
		Component: "autoresponder.pipeline",
	})

	sc := logger.StartSpan(ctx, "pipeline.run")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.Int64("ticket.id", job.Ticket.TicketID),
		attribute.Int("conversation.messages", len(job.Messages)),
	)

	done := metrics.StartPipeline()
	defer done()
	defer func() {
		if err != nil {
			sc.RecordError(err)
			metrics.RecordOutcome(metrics.OutcomeFailed)
		}
	}()

	slog.InfoContext(ctx, "pipeline started", "message_count", len(job.Messages))

	if r.triager != nil {
		triage, err := r.triage(ctx, job)
		if err != nil {
			return err
		}
		if triage.Category == model.CategoryAccountBilling {
			slog.InfoContext(ctx, "billing ticket, posting triage note instead of an answer")
			return r.dispatcher.DispatchTriage(ctx, job.Ticket, job.Messages, triage)
		}
	}

	resp, err := r.respond(ctx, job)
	if err != nil {
		return err
	}

	if err := r.dispatcher.DispatchResponse(ctx, job.Ticket, job.Messages, resp); err != nil {
		return fmt.Errorf("dispatching response: %w", err)
	}
	slog.InfoContext(ctx, "pipeline completed", "answer_confidence", resp.ConfidenceLabel())
	return nil
}

func (r *Runner) triage(ctx context.Context, job Job) (model.TriageResult, error) {
	sc := logger.StartSpan(ctx, "pipeline.triage")
	defer sc.End()

	result, err := r.triager.Triage(sc.Context(), job.Messages)
	if err != nil {
		sc.RecordError(err)
		return model.TriageResult{}, fmt.Errorf("triage: %w", err)
	}
	sc.SetAttributes(attribute.String("triage.category", string(result.Category)))
	return result, nil
}

func (r *Runner) respond(ctx context.Context, job Job) (model.ResponseResult, error) {
	sc := logger.StartSpan(ctx, "pipeline.respond")
	defer sc.End()

	result, err := r.responder.Respond(sc.Context(), job.Messages, job.Ticket.RequesterMetadata)
	if err != nil {
		sc.RecordError(err)
		return model.ResponseResult{}, fmt.Errorf("respond: %w", err)
	}
	sc.SetAttributes(attribute.String("response.confidence", result.ConfidenceLabel()))
	return result, nil
}
