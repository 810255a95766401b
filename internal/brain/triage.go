package brain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"basegraph.app/autoresponder/common/llm"
	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/internal/conversation"
	"basegraph.app/autoresponder/internal/metrics"
	"basegraph.app/autoresponder/internal/model"
)

// triageMaxTries is one call plus two retries.
const triageMaxTries = 3

// triageLabels is the extraction contract. Strict JSON schema mode requires every
// property, so a missing invoice id comes back as "".
type triageLabels struct {
	Subject   string `json:"subject" jsonschema_description:"A concise (max 80 chars) subject line summarizing the main topic or request of the ticket."`
	Summary   string `json:"summary" jsonschema_description:"A clear, direct internal note capturing the key context and the key asks of the ticket. Will be left as an internal note to the support team."`
	Category  string `json:"category" jsonschema:"enum=production_issue,enum=account_billing,enum=feature_request,enum=other" jsonschema_description:"The primary category of the ticket. production_issue: issues affecting production systems or service disruptions. account_billing: billing requests related to an existing account, including refunds and cancellations. feature_request: requests for new features or enhancements. other: anything that does not fit the above. Choose only from the valid options."`
	InvoiceID string `json:"invoiceId" jsonschema_description:"The invoice ID if one is mentioned in the text, otherwise an empty string."`
}

var triageSchema = llm.GenerateSchema[triageLabels]()

// Triager classifies a ticket conversation.
type Triager struct {
	llm     llm.Client
	backOff func() backoff.BackOff
}

type TriagerOption func(*Triager)

// WithBackOff replaces the exponential wait between triage attempts.
func WithBackOff(newBackOff func() backoff.BackOff) TriagerOption {
	return func(t *Triager) {
		t.backOff = newBackOff
	}
}

func NewTriager(client llm.Client, opts ...TriagerOption) *Triager {
	t := &Triager{
		llm: client,
		backOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Triage asks the model for labels over the text of the conversation. Transient
// model failures are retried twice; anything else fails immediately.
func (t *Triager) Triage(ctx context.Context, messages []model.ConversationMessage) (model.TriageResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "autoresponder.brain.triage"})

	req := llm.Request{
		SystemPrompt: triageSystemPrompt,
		Messages:     conversation.ToTextMessages(messages),
		SchemaName:   "triage_labels",
		Schema:       triageSchema,
		Temperature:  llm.Temp(0),
	}

	attempt := 0
	labels, err := backoff.Retry(ctx, func() (triageLabels, error) {
		attempt++
		var out triageLabels
		start := time.Now()
		_, err := t.llm.Chat(ctx, req, &out)
		metrics.ObserveLLMCall("triage", start, err)
		if err == nil {
			return out, nil
		}
		if !llm.IsRetryable(ctx, err) {
			return out, backoff.Permanent(err)
		}
		slog.WarnContext(ctx, "triage attempt failed", "attempt", attempt, "error", err)
		return out, err
	}, backoff.WithBackOff(t.backOff()), backoff.WithMaxTries(triageMaxTries))
	if err != nil {
		return model.TriageResult{}, fmt.Errorf("triage after %d attempt(s): %w", attempt, err)
	}

	result := model.TriageResult{
		Subject:  strings.TrimSpace(labels.Subject),
		Summary:  strings.TrimSpace(labels.Summary),
		Category: model.ParseTriageCategory(labels.Category),
	}
	if id := strings.TrimSpace(labels.InvoiceID); id != "" {
		result.InvoiceID = &id
	}

	slog.InfoContext(ctx, "ticket triaged",
		"category", result.Category,
		"has_invoice_id", result.InvoiceID != nil,
		"attempts", attempt)

	return result, nil
}

// FormatTriageComment renders a triage result as an internal note.
func FormatTriageComment(r model.TriageResult) string {
	var b strings.Builder
	b.WriteString("AI triage\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", r.Subject)
	fmt.Fprintf(&b, "Category: %s\n", r.Category)
	if r.InvoiceID != nil {
		fmt.Fprintf(&b, "Invoice ID: %s\n", *r.InvoiceID)
	}
	fmt.Fprintf(&b, "\nSummary:\n%s", r.Summary)
	return b.String()
}
