package dto

import (
	"encoding/json"
	"maps"
)

// ZendeskWebhookRequest is the body Zendesk triggers send. Fields with the wrong JSON
// type are treated as absent and fail validation; fields the service does not know are
// kept in Extra.
type ZendeskWebhookRequest struct {
	TicketID    string         `json:"ticket_id" validate:"required,number"`
	TicketTitle *string        `json:"ticket_title" validate:"required"`
	Extra       map[string]any `json:"-"`
}

func (r *ZendeskWebhookRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if id, ok := fields["ticket_id"].(string); ok {
		r.TicketID = id
	}
	if title, ok := fields["ticket_title"].(string); ok {
		r.TicketTitle = &title
	}

	r.Extra = maps.Clone(fields)
	delete(r.Extra, "ticket_id")
	delete(r.Extra, "ticket_title")
	return nil
}

func (r ZendeskWebhookRequest) Title() string {
	if r.TicketTitle == nil {
		return ""
	}
	return *r.TicketTitle
}

type ValidationIssue struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationIssue `json:"details,omitempty"`
}

type ZendeskWebhookResponse struct {
	Message      string         `json:"message"`
	TicketID     int64          `json:"ticketId"`
	TicketTitle  string         `json:"ticketTitle"`
	CommentCount int            `json:"commentCount"`
	UserMetadata map[string]any `json:"userMetadata"`
}
