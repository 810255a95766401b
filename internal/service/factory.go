package service

import (
	"fmt"
	"log/slog"

	"basegraph.app/autoresponder/common/httpx"
	"basegraph.app/autoresponder/common/llm"
	"basegraph.app/autoresponder/core/config"
	"basegraph.app/autoresponder/internal/analytics"
	"basegraph.app/autoresponder/internal/brain"
	"basegraph.app/autoresponder/internal/conversation"
	"basegraph.app/autoresponder/internal/dispatch"
	"basegraph.app/autoresponder/internal/media"
	"basegraph.app/autoresponder/internal/pipeline"
	"basegraph.app/autoresponder/internal/ticket"
	"basegraph.app/autoresponder/internal/zendesk"
)

// Services is the object graph every binary shares: Zendesk access, the ticket
// loader and the AI pipeline.
type Services struct {
	zendesk zendesk.Client
	tickets *ticket.Loader
	runner  *pipeline.Runner
}

type Option func(*options)

type options struct {
	updater   dispatch.TicketUpdater
	analytics analytics.Logger
}

// WithTicketUpdater replaces where comments are posted. Reads still go to Zendesk.
func WithTicketUpdater(u dispatch.TicketUpdater) Option {
	return func(o *options) { o.updater = u }
}

func WithAnalytics(l analytics.Logger) Option {
	return func(o *options) { o.analytics = l }
}

func NewServices(cfg config.Config, opts ...Option) (*Services, error) {
	zd, err := zendesk.NewClient(zendesk.Config{
		Subdomain: cfg.Zendesk.Subdomain,
		User:      cfg.Zendesk.User,
		Token:     cfg.Zendesk.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("creating zendesk client: %w", err)
	}

	o := options{updater: zd, analytics: analytics.NewClient(cfg.Analytics)}
	for _, opt := range opts {
		opt(&o)
	}

	mediaLog := slog.Default().With("component", "autoresponder.media")
	resolver := media.NewResolver(httpx.NewReader(mediaLog).StandardClient(), media.ZendeskAllowList(cfg.Zendesk.Subdomain))
	loader := ticket.NewLoader(zd, conversation.NewAssembler(resolver))

	agent, err := llm.NewAgentClient(llm.Config{
		APIKey:  cfg.Inkeep.APIKey,
		BaseURL: cfg.Inkeep.BaseURL,
		Model:   cfg.Inkeep.QAModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating responder client: %w", err)
	}

	var triager pipeline.Triager
	if cfg.Agent.TriageEnabled {
		chat, err := llm.New(llm.Config{
			APIKey:  cfg.Inkeep.APIKey,
			BaseURL: cfg.Inkeep.BaseURL,
			Model:   cfg.Inkeep.ContextModel,
		})
		if err != nil {
			return nil, fmt.Errorf("creating triage client: %w", err)
		}
		triager = brain.NewTriager(chat)
	}

	dispatcher := dispatch.New(o.updater, o.analytics, dispatch.Config{
		AgentUserID:     cfg.Agent.UserID,
		PublicResponses: cfg.Agent.PublicResponses,
	})

	return &Services{
		zendesk: zd,
		tickets: loader,
		runner:  pipeline.NewRunner(triager, brain.NewResponder(agent), dispatcher),
	}, nil
}

func (s *Services) Zendesk() zendesk.Client {
	return s.zendesk
}

func (s *Services) Tickets() *ticket.Loader {
	return s.tickets
}

func (s *Services) Runner() *pipeline.Runner {
	return s.runner
}

func (s *Services) Processor() *pipeline.Processor {
	return pipeline.NewProcessor(s.tickets, s.runner)
}
