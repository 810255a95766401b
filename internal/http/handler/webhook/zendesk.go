package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/internal/http/dto"
	"basegraph.app/autoresponder/internal/metrics"
	"basegraph.app/autoresponder/internal/ticket"
)

type TicketLoader interface {
	LoadTicket(ctx context.Context, ticketID int64) (*ticket.Snapshot, error)
}

type ZendeskWebhookHandler struct {
	secret   string
	tickets  TicketLoader
	starter  PipelineStarter
	validate *validator.Validate
}

func NewZendeskWebhookHandler(secret string, tickets TicketLoader, starter PipelineStarter) *ZendeskWebhookHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &ZendeskWebhookHandler{
		secret:   secret,
		tickets:  tickets,
		starter:  starter,
		validate: v,
	}
}

// HandleEvent answers a Zendesk trigger delivery. Everything up to loading the ticket
// happens before the response; the AI pipeline runs after it.
func (h *ZendeskWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{Component: "autoresponder.webhook"})

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respond(c, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to read request body"})
		return
	}

	if !VerifySignature(h.secret, c.GetHeader(SignatureHeader), c.GetHeader(SignatureTimestampHeader), body) {
		slog.WarnContext(ctx, "rejected webhook with invalid signature")
		h.respond(c, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid webhook signature"})
		return
	}

	var req dto.ZendeskWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		slog.WarnContext(ctx, "invalid webhook json", "error", err)
		h.respond(c, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid JSON in request body"})
		return
	}

	ticketID, issues := h.validateRequest(req)
	if len(issues) > 0 {
		slog.WarnContext(ctx, "invalid webhook parameters", "issues", issues)
		h.respond(c, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request parameters", Details: issues})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TicketID: logger.Ptr(ticketID)})
	if len(req.Extra) > 0 {
		slog.DebugContext(ctx, "webhook carried extra fields", "extra", req.Extra)
	}

	snap, err := h.tickets.LoadTicket(ctx, ticketID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load ticket", "error", err)
		h.respond(c, http.StatusInternalServerError, gin.H{
			"error":   "Failed to process ticket with Zendesk API",
			"details": err.Error(),
		})
		return
	}
	snap.Context.TicketTitle = req.Title()

	if err := h.starter.Start(ctx, snap); err != nil {
		slog.ErrorContext(ctx, "failed to start pipeline", "error", err)
		h.respond(c, http.StatusInternalServerError, gin.H{
			"error":   "Failed to schedule ticket processing",
			"details": err.Error(),
		})
		return
	}

	slog.InfoContext(ctx, "zendesk webhook processed",
		"comment_count", snap.Context.CommentCount)

	h.respond(c, http.StatusOK, dto.ZendeskWebhookResponse{
		Message:      "Ticket processed",
		TicketID:     ticketID,
		TicketTitle:  snap.Context.TicketTitle,
		CommentCount: snap.Context.CommentCount,
		UserMetadata: snap.Context.RequesterMetadata,
	})
}

func (h *ZendeskWebhookHandler) respond(c *gin.Context, status int, body any) {
	metrics.RecordWebhook(status)
	c.JSON(status, body)
}

func (h *ZendeskWebhookHandler) validateRequest(req dto.ZendeskWebhookRequest) (int64, []dto.ValidationIssue) {
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return 0, []dto.ValidationIssue{{Field: "body", Tag: "invalid", Message: err.Error()}}
		}
		issues := make([]dto.ValidationIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, dto.ValidationIssue{
				Field:   fe.Field(),
				Tag:     fe.Tag(),
				Message: issueMessage(fe),
			})
		}
		return 0, issues
	}

	ticketID, err := strconv.ParseInt(req.TicketID, 10, 64)
	if err != nil || ticketID <= 0 {
		return 0, []dto.ValidationIssue{{
			Field:   "ticket_id",
			Tag:     "number",
			Message: "ticket_id must be a positive integer",
		}}
	}
	return ticketID, nil
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "number":
		return fmt.Sprintf("%s must be a numeric string", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
