package worker

import (
	"context"

	"basegraph.app/autoresponder/internal/pipeline"
	"basegraph.app/autoresponder/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// TicketProcessor abstracts the pipeline for testability.
type TicketProcessor interface {
	Process(ctx context.Context, ref pipeline.TicketRef) error
}
