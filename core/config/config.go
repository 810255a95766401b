package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel      OTelConfig
	Zendesk   ZendeskConfig
	Webhook   WebhookConfig
	Agent     AgentConfig
	Inkeep    InkeepConfig
	Analytics AnalyticsConfig
	Pipeline  PipelineConfig
	Env       string
	Port      string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type ZendeskConfig struct {
	Subdomain string
	User      string
	Token     string
}

type WebhookConfig struct {
	Secret string
}

// AgentConfig controls how answers land on the ticket.
type AgentConfig struct {
	UserID          *int64 // nil = default actor of the API credentials
	PublicResponses bool
	TriageEnabled   bool
}

type InkeepConfig struct {
	APIKey       string
	BaseURL      string
	QAModel      string
	ContextModel string
}

type AnalyticsConfig struct {
	APIKey string
	URL    string
}

type PipelineMode string

const (
	PipelineModeInline PipelineMode = "inline"
	PipelineModeQueue  PipelineMode = "queue"
)

type PipelineConfig struct {
	Mode           PipelineMode
	Timeout        time.Duration
	MaxConcurrency int
	RedisURL       string
	RedisStream    string
	RedisGroup     string
	RedisConsumer  string
	RedisDLQStream string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
	ServiceTypeReplay ServiceType = "replay"
)

// Load loads configuration from environment variables.
// In development, it loads .env.<service> first and falls back to .env.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("APP_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	inkeepKey := getEnv("INKEEP_API_KEY", getEnv("AUTO_RESPONDER_INKEEP_API_KEY", ""))

	agentUserID, err := getEnvInt64Ptr("AI_AGENT_USER_ID")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "autoresponder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Zendesk: ZendeskConfig{
			Subdomain: getEnv("ZENDESK_SUBDOMAIN", ""),
			User:      getEnv("ZENDESK_API_USER", ""),
			Token:     getEnv("ZENDESK_API_TOKEN", ""),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("ZENDESK_WEBHOOK_SECRET", ""),
		},
		Agent: AgentConfig{
			UserID:          agentUserID,
			PublicResponses: getEnvBool("ENABLE_PUBLIC_RESPONSES", false),
			TriageEnabled:   getEnvBool("AI_TRIAGE_ENABLED", false),
		},
		Inkeep: InkeepConfig{
			APIKey:       inkeepKey,
			BaseURL:      getEnv("INKEEP_BASE_URL", "https://api.inkeep.com/v1"),
			QAModel:      getEnv("INKEEP_QA_MODEL", "inkeep-qa-expert"),
			ContextModel: getEnv("INKEEP_CONTEXT_MODEL", "inkeep-context-expert"),
		},
		Analytics: AnalyticsConfig{
			APIKey: getEnv("INKEEP_ANALYTICS_API_KEY", inkeepKey),
			URL:    getEnv("INKEEP_ANALYTICS_URL", "https://api.analytics.inkeep.com/conversations"),
		},
		Pipeline: PipelineConfig{
			Mode:           PipelineMode(getEnv("PIPELINE_MODE", string(PipelineModeInline))),
			Timeout:        getEnvDuration("PIPELINE_TIMEOUT", 60*time.Second),
			MaxConcurrency: getEnvInt("PIPELINE_MAX_CONCURRENCY", 16),
			RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisStream:    getEnv("REDIS_STREAM", "autoresponder_tickets"),
			RedisGroup:     getEnv("REDIS_CONSUMER_GROUP", "autoresponder_group"),
			RedisConsumer:  getEnv("REDIS_CONSUMER_NAME", "autoresponder-worker"),
			RedisDLQStream: getEnv("REDIS_DLQ_STREAM", "autoresponder_tickets_dlq"),
		},
	}

	if err := cfg.validate(serviceType); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate(serviceType ServiceType) error {
	if !c.Zendesk.Enabled() {
		return fmt.Errorf("ZENDESK_SUBDOMAIN, ZENDESK_API_USER and ZENDESK_API_TOKEN are required")
	}
	if c.Inkeep.APIKey == "" {
		return fmt.Errorf("INKEEP_API_KEY is required")
	}
	if serviceType == ServiceTypeServer && c.Webhook.Secret == "" {
		return fmt.Errorf("ZENDESK_WEBHOOK_SECRET is required")
	}
	switch c.Pipeline.Mode {
	case PipelineModeInline, PipelineModeQueue:
	default:
		return fmt.Errorf("unsupported PIPELINE_MODE: %s", c.Pipeline.Mode)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c ZendeskConfig) Enabled() bool {
	return c.Subdomain != "" && c.User != "" && c.Token != ""
}

func (c AnalyticsConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c PipelineConfig) Queued() bool {
	return c.Mode == PipelineModeQueue
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvBool only treats the literal "true" as enabled, matching how the webhook flags are set.
func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInt64Ptr(key string) (*int64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil, nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be numeric: %w", key, err)
	}
	return &i, nil
}
