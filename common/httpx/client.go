package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type Config struct {
	Timeout  time.Duration
	RetryMax int // 0 disables retries
	Logger   *slog.Logger
}

// New builds a retrying client. Exhausted retries hand the last response back to the
// caller instead of replacing it with a generic error, so status codes stay inspectable.
func New(cfg Config) *retryablehttp.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	c := retryablehttp.NewClient()
	c.HTTPClient = &http.Client{Timeout: timeout}
	c.RetryMax = cfg.RetryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.Logger = log.With("component", "autoresponder.httpx")
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c
}

// NewReader is the client for idempotent reads: two retries on transport errors, 429 and 5xx.
func NewReader(log *slog.Logger) *retryablehttp.Client {
	return New(Config{RetryMax: 2, Logger: log})
}

// NewWriter never retries; ticket updates and analytics posts are not idempotent.
func NewWriter(log *slog.Logger) *retryablehttp.Client {
	return New(Config{RetryMax: 0, Logger: log})
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
