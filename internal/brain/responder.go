package brain

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"basegraph.app/autoresponder/common/llm"
	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/internal/conversation"
	"basegraph.app/autoresponder/internal/metrics"
	"basegraph.app/autoresponder/internal/model"
)

// Tool names offered to the response model.
const (
	ToolRecordsConsidered = "provideRecordsConsidered"
	ToolAIAnnotations     = "provideAIAnnotations"
	ToolLinks             = "provideLinks"
)

// RecordsConsideredArgs are the arguments of provideRecordsConsidered.
type RecordsConsideredArgs struct {
	RecordsConsidered []model.RecordConsidered `json:"recordsConsidered" jsonschema_description:"The information sources used to write the answer."`
}

// AIAnnotationsArgs are the arguments of provideAIAnnotations.
type AIAnnotationsArgs struct {
	AIAnnotations AIAnnotations `json:"aiAnnotations"`
}

type AIAnnotations struct {
	AnswerConfidence string `json:"answerConfidence" jsonschema:"enum=very_confident,enum=somewhat_confident,enum=not_confident,enum=no_sources,enum=other" jsonschema_description:"A measure of how confidently the AI Assistant completely and directly answered the User Question."`
}

// LinksArgs are the arguments of provideLinks.
type LinksArgs struct {
	Links []model.Link `json:"links" jsonschema_description:"Footnote-style references used in the answer."`
}

const answerConfidenceGuide = `Report how confidently you completely and directly answered the user's question.
very_confident: a complete and direct answer to every part of the question, fully cited, needing no further action from the user and asking for nothing more. Use sparingly.
somewhat_confident: a complete and direct answer with minor caveats, such as follow-up questions, requests for more information or mentioned exceptions.
not_confident: an attempt that did not fully resolve the question. The answer needs user action, asks for more information, shows uncertainty, points to support or is indirect. This is the most common level.
no_sources: no information sources were used or cited.
other: the question is unclear or unrelated to the subject matter. Use this when in doubt.`

var responderTools = []llm.Tool{
	{
		Name:        ToolRecordsConsidered,
		Description: "List the information sources you considered, with their url, title, type and breadcrumbs.",
		Parameters:  llm.GenerateSchemaFrom(&RecordsConsideredArgs{}),
	},
	{
		Name:        ToolAIAnnotations,
		Description: answerConfidenceGuide,
		Parameters:  llm.GenerateSchemaFrom(&AIAnnotationsArgs{}),
	},
	{
		Name:        ToolLinks,
		Description: "List the links referenced in the answer as footnotes.",
		Parameters:  llm.GenerateSchemaFrom(&LinksArgs{}),
	},
}

// Responder drafts an answer to the ticket conversation.
type Responder struct {
	llm llm.AgentClient
}

func NewResponder(client llm.AgentClient) *Responder {
	return &Responder{llm: client}
}

// Respond runs one model call over the whole conversation, images included. Tool
// outputs are optional; a tool the model skipped or called with malformed arguments
// leaves its field empty. Model failures are returned without retry.
func (r *Responder) Respond(ctx context.Context, messages []model.ConversationMessage, metadata map[string]any) (model.ResponseResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "autoresponder.brain.responder"})

	prompt := append([]llm.Message{{Role: llm.RoleSystem, Content: SystemPrompt(metadata)}},
		conversation.ToPromptMessages(messages)...)

	start := time.Now()
	resp, err := r.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages: prompt,
		Tools:    responderTools,
	})
	metrics.ObserveLLMCall("respond", start, err)
	if err != nil {
		return model.ResponseResult{}, fmt.Errorf("generating response: %w", err)
	}

	result := model.ResponseResult{Text: strings.TrimSpace(resp.Content)}

	if args, ok := toolArgs[AIAnnotationsArgs](ctx, resp, ToolAIAnnotations); ok {
		conf := model.AnswerConfidence(args.AIAnnotations.AnswerConfidence)
		if slices.Contains(model.AnswerConfidenceValues, conf) {
			result.AnswerConfidence = &conf
		} else {
			slog.WarnContext(ctx, "unknown answer confidence ignored", "value", args.AIAnnotations.AnswerConfidence)
		}
	}
	if args, ok := toolArgs[RecordsConsideredArgs](ctx, resp, ToolRecordsConsidered); ok {
		result.RecordsConsidered = args.RecordsConsidered
	}
	if args, ok := toolArgs[LinksArgs](ctx, resp, ToolLinks); ok {
		result.Links = args.Links
	}

	slog.InfoContext(ctx, "response generated",
		"answer_confidence", result.ConfidenceLabel(),
		"records_considered", len(result.RecordsConsidered),
		"links", len(result.Links),
		"text_length", len(result.Text))

	return result, nil
}

func toolArgs[T any](ctx context.Context, resp *llm.AgentResponse, name string) (T, bool) {
	var zero T
	call, ok := resp.FindToolCall(name)
	if !ok {
		return zero, false
	}
	args, err := llm.ParseToolArguments[T](call.Arguments)
	if err != nil {
		slog.WarnContext(ctx, "ignoring malformed tool call",
			"tool", name,
			"arguments", logger.Truncate(call.Arguments, 200),
			"error", err)
		return zero, false
	}
	return args, true
}

// SystemPrompt appends the requester metadata, rendered as YAML, to the base prompt.
// Keys whose values cannot be rendered are left out.
func SystemPrompt(metadata map[string]any) string {
	rendered := renderMetadata(metadata)
	if rendered == "" {
		return responderSystemPrompt
	}
	return responderSystemPrompt + "\n\n" + userContextHeading + "\n" + rendered
}

func renderMetadata(metadata map[string]any) string {
	keys := make([]string, 0, len(metadata))
	for k, v := range metadata {
		if v != nil {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		out, err := marshalYAML(map[string]any{k: metadata[k]})
		if err != nil {
			slog.Debug("skipping unrenderable metadata key", "key", k, "error", err)
			continue
		}
		b.Write(out)
	}
	return strings.TrimRight(b.String(), "\n")
}

// marshalYAML also turns the encoder's panics on unsupported kinds into errors.
func marshalYAML(v any) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("yaml: %v", r)
		}
	}()
	return yaml.Marshal(v)
}
