package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/internal/model"
	"basegraph.app/autoresponder/internal/ticket"
)

type TicketLoader interface {
	LoadTicket(ctx context.Context, ticketID int64) (*ticket.Snapshot, error)
	BuildConversation(ctx context.Context, snap *ticket.Snapshot) []model.ConversationMessage
}

// TicketRef names a ticket to process from scratch.
type TicketRef struct {
	TicketID int64
	TaskID   int64
}

// Processor reloads a ticket and runs the pipeline on it. The queue worker and the
// replay command use it; the inline webhook path has the conversation already.
type Processor struct {
	loader TicketLoader
	runner *Runner
}

func NewProcessor(loader TicketLoader, runner *Runner) *Processor {
	return &Processor{loader: loader, runner: runner}
}

func (p *Processor) Process(ctx context.Context, ref TicketRef) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TicketID: logger.Ptr(ref.TicketID),
		TaskID:   logger.Ptr(ref.TaskID),
	})

	snap, err := p.loader.LoadTicket(ctx, ref.TicketID)
	if err != nil {
		return fmt.Errorf("loading ticket %d: %w", ref.TicketID, err)
	}

	messages := p.loader.BuildConversation(ctx, snap)
	slog.InfoContext(ctx, "conversation assembled",
		"comment_count", snap.Context.CommentCount,
		"message_count", len(messages))

	return p.runner.Run(ctx, Job{
		TaskID:   ref.TaskID,
		Ticket:   snap.Context,
		Messages: messages,
	})
}
