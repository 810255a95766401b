package queue

import "time"

// TicketTask asks a worker to reload a ticket and run the pipeline on it.
type TicketTask struct {
	TaskID     int64
	TicketID   int64
	TraceID    string
	EnqueuedAt time.Time
}
