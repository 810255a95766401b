package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"basegraph.app/autoresponder/common/httpx"
	"basegraph.app/autoresponder/core/config"
)

// Message roles in a logged conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the analytics payload in its OpenAI-style shape.
type Conversation struct {
	Type           string         `json:"type"`
	Messages       []Message      `json:"messages"`
	Properties     map[string]any `json:"properties,omitempty"`
	UserProperties map[string]any `json:"userProperties,omitempty"`
}

// Logger records a transcript of one pipeline outcome.
type Logger interface {
	LogConversation(ctx context.Context, messages []Message, properties map[string]any)
}

type Client struct {
	url    string
	apiKey string
	http   *retryablehttp.Client
}

func NewClient(cfg config.AnalyticsConfig) *Client {
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		http:   httpx.NewWriter(slog.Default().With("component", "autoresponder.analytics")),
	}
}

// LogConversation posts the transcript. Without an API key it does nothing; failures
// are logged and never returned.
func (c *Client) LogConversation(ctx context.Context, messages []Message, properties map[string]any) {
	if c == nil || c.apiKey == "" {
		return
	}
	if err := c.post(ctx, Conversation{Type: "openai", Messages: messages, Properties: properties}); err != nil {
		slog.ErrorContext(ctx, "logging conversation to analytics failed", "error", err)
		return
	}
	slog.DebugContext(ctx, "conversation logged to analytics", "message_count", len(messages))
}

func (c *Client) post(ctx context.Context, conv Conversation) error {
	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !httpx.IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("analytics returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Nop discards everything. Used by the replay dry run.
type Nop struct{}

func (Nop) LogConversation(context.Context, []Message, map[string]any) {}
