package dispatch

import (
	"context"
	"fmt"
	"io"
	"sync"

	"basegraph.app/autoresponder/internal/zendesk"
)

// PrintingUpdater writes would-be comments to w instead of posting them.
type PrintingUpdater struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrintingUpdater(w io.Writer) *PrintingUpdater {
	return &PrintingUpdater{w: w}
}

func (p *PrintingUpdater) UpdateTicket(_ context.Context, ticketID int64, update zendesk.TicketUpdate) error {
	visibility := "internal"
	if update.Comment.Public {
		visibility = "public"
	}
	body := update.Comment.Body
	if body == "" {
		body = update.Comment.HTMLBody
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "--- ticket %d, %s comment ---\n%s\n\n", ticketID, visibility, body)
	return err
}
