package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"
)

var nameInvalidChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Config holds LLM client configuration. Any OpenAI-compatible endpoint works.
type Config struct {
	APIKey  string // Required
	BaseURL string // Optional: custom API endpoint
	Model   string
}

// AgentClient supports tool-calling conversations.
type AgentClient interface {
	ChatWithTools(ctx context.Context, req AgentRequest) (*AgentResponse, error)
	Model() string
}

// AgentRequest contains the messages and tools for one turn.
type AgentRequest struct {
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature *float64
}

// Message represents a conversation message.
type Message struct {
	Role       string        // "system", "user", "assistant", "tool"
	Name       string        // Optional participant name (user messages only)
	Content    string        // Text content
	Parts      []ContentPart // Optional multimodal content (user messages only); replaces Content when set
	ToolCalls  []ToolCall    // For assistant messages that requested tool calls
	ToolCallID string        // For tool result messages
}

type PartType string

const (
	PartTypeText  PartType = "text"
	PartTypeImage PartType = "image_url"
)

// ContentPart is one element of a multimodal user message.
type ContentPart struct {
	Type     PartType
	Text     string
	ImageURL string // http(s) or data: URL
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartTypeImage, ImageURL: url}
}

// DataURL builds a data: URL for a base64 payload.
func DataURL(mimeType, base64Data string) string {
	return "data:" + mimeType + ";base64," + base64Data
}

// Tool defines a function the LLM can call.
type Tool struct {
	Name        string
	Description string
	Parameters  any // JSON Schema for parameters
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON-encoded arguments
}

// AgentResponse contains the LLM's response.
type AgentResponse struct {
	Content          string
	ToolCalls        []ToolCall
	FinishReason     string // "stop", "tool_calls", "length"
	PromptTokens     int
	CompletionTokens int
}

// FindToolCall returns the first call of the named tool, if the model made one.
func (r *AgentResponse) FindToolCall(name string) (ToolCall, bool) {
	if r == nil {
		return ToolCall{}, false
	}
	for _, tc := range r.ToolCalls {
		if tc.Name == name {
			return tc, true
		}
	}
	return ToolCall{}, false
}

// NewAgentClient creates an AgentClient backed by an OpenAI-compatible API.
func NewAgentClient(cfg Config) (AgentClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return newOpenAIClient(cfg), nil
}

// ParseToolArguments unmarshals tool arguments into the target struct.
func ParseToolArguments[T any](arguments string) (T, error) {
	var result T
	if err := json.Unmarshal([]byte(arguments), &result); err != nil {
		return result, fmt.Errorf("parse tool arguments: %w", err)
	}
	return result, nil
}

// GenerateSchemaFrom generates a JSON schema from an instance value.
func GenerateSchemaFrom(v any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}

// SanitizeName converts a display name to a valid OpenAI name parameter.
// The name must match ^[a-zA-Z0-9_-]{1,64}$.
func SanitizeName(displayName string) string {
	sanitized := nameInvalidChars.ReplaceAllString(strings.TrimSpace(displayName), "_")
	if len(sanitized) > 64 {
		sanitized = sanitized[:64]
	}
	return sanitized
}
