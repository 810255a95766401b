package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/internal/analytics"
	"basegraph.app/autoresponder/internal/brain"
	"basegraph.app/autoresponder/internal/metrics"
	"basegraph.app/autoresponder/internal/model"
	"basegraph.app/autoresponder/internal/zendesk"
)

// TicketUpdater posts comments onto a ticket.
type TicketUpdater interface {
	UpdateTicket(ctx context.Context, ticketID int64, update zendesk.TicketUpdate) error
}

type Config struct {
	AgentUserID     *int64 // nil leaves attribution to the API credentials
	PublicResponses bool
}

// Dispatcher turns a pipeline result into ticket comments and an analytics entry.
// Posts are never retried.
type Dispatcher struct {
	tickets   TicketUpdater
	analytics analytics.Logger
	cfg       Config
	markdown  goldmark.Markdown
	policy    *bluemonday.Policy
}

func New(tickets TicketUpdater, log analytics.Logger, cfg Config) *Dispatcher {
	if log == nil {
		log = analytics.Nop{}
	}
	return &Dispatcher{
		tickets:   tickets,
		analytics: log,
		cfg:       cfg,
		markdown:  goldmark.New(),
		policy:    bluemonday.UGCPolicy(),
	}
}

// LowConfidenceNote is the internal note added under answers that were not very confident.
func LowConfidenceNote(r model.ResponseResult) string {
	return fmt.Sprintf("AI Agent had %s confidence level in its answer", r.ConfidenceLabel())
}

// DispatchTriage posts the triage summary as a single internal note.
func (d *Dispatcher) DispatchTriage(ctx context.Context, tc model.TicketContext, messages []model.ConversationMessage, triage model.TriageResult) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "autoresponder.dispatch"})

	note := brain.FormatTriageComment(triage)
	if err := d.post(ctx, tc.TicketID, zendesk.CommentInput{Body: note, Public: false}); err != nil {
		return fmt.Errorf("posting triage note: %w", err)
	}
	slog.InfoContext(ctx, "triage note posted", "category", triage.Category)

	metrics.RecordOutcome(metrics.OutcomeTriaged)
	d.log(ctx, tc, messages, []string{note}, false, metrics.OutcomeTriaged)
	return nil
}

// DispatchResponse posts the answer with the configured visibility. Anything short of
// very confident gets a second, internal note naming the confidence tier.
func (d *Dispatcher) DispatchResponse(ctx context.Context, tc model.TicketContext, messages []model.ConversationMessage, resp model.ResponseResult) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "autoresponder.dispatch"})

	answer := zendesk.CommentInput{
		Body:     resp.Text,
		HTMLBody: d.renderHTML(ctx, resp.Text),
		Public:   d.cfg.PublicResponses,
	}
	if err := d.post(ctx, tc.TicketID, answer); err != nil {
		return fmt.Errorf("posting answer: %w", err)
	}
	slog.InfoContext(ctx, "answer posted",
		"public", answer.Public,
		"answer_confidence", resp.ConfidenceLabel())

	posted := []string{resp.Text}
	outcome := metrics.OutcomeConfident

	if !resp.IsVeryConfident() {
		outcome = metrics.OutcomeLowConfidence
		note := LowConfidenceNote(resp)
		if err := d.post(ctx, tc.TicketID, zendesk.CommentInput{Body: note, Public: false}); err != nil {
			return fmt.Errorf("posting low confidence note: %w", err)
		}
		slog.InfoContext(ctx, "low confidence note posted")
		posted = append(posted, note)
	}

	metrics.RecordOutcome(outcome)
	d.log(ctx, tc, messages, posted, d.cfg.PublicResponses, outcome)
	return nil
}

func (d *Dispatcher) post(ctx context.Context, ticketID int64, comment zendesk.CommentInput) error {
	comment.AuthorID = d.cfg.AgentUserID
	return d.tickets.UpdateTicket(ctx, ticketID, zendesk.TicketUpdate{Comment: comment})
}

// renderHTML converts the Markdown answer into sanitized HTML. An empty result makes
// Zendesk fall back to the plain body.
func (d *Dispatcher) renderHTML(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := d.markdown.Convert([]byte(text), &buf); err != nil {
		slog.WarnContext(ctx, "markdown rendering failed, posting plain body", "error", err)
		return ""
	}
	return string(d.policy.SanitizeBytes(buf.Bytes()))
}

func (d *Dispatcher) log(ctx context.Context, tc model.TicketContext, messages []model.ConversationMessage, posted []string, public bool, outcome string) {
	records := make([]analytics.Message, 0, len(messages)+len(posted))
	for _, m := range messages {
		records = append(records, analytics.Message{Role: analytics.RoleUser, Content: m.Text()})
	}
	for _, p := range posted {
		records = append(records, analytics.Message{Role: analytics.RoleAssistant, Content: p})
	}

	visibility := "private"
	if public {
		visibility = "public"
	}
	d.analytics.LogConversation(ctx, records, map[string]any{
		"ticketId":    strconv.FormatInt(tc.TicketID, 10),
		"ticketTitle": tc.TicketTitle,
		"visibility":  visibility,
		"outcome":     outcome,
	})
}
