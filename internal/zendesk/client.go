package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"basegraph.app/autoresponder/common/httpx"
)

// maxCommentPages bounds pagination on pathological tickets.
const maxCommentPages = 50

// Client is the subset of the Zendesk Support API the responder needs.
type Client interface {
	GetTicket(ctx context.Context, ticketID int64) (*Ticket, error)
	GetComments(ctx context.Context, ticketID int64) ([]Comment, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
	GetUserIdentities(ctx context.Context, userID int64) ([]Identity, error)
	GetOrganization(ctx context.Context, orgID int64) (*Organization, error)
	UpdateTicket(ctx context.Context, ticketID int64, update TicketUpdate) error
}

// APIError is a non-2xx answer from Zendesk.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zendesk %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a Zendesk 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Config struct {
	Subdomain string
	User      string // agent email; authenticated as "<user>/token"
	Token     string
	BaseURL   string // overrides https://<subdomain>.zendesk.com, for tests
}

type client struct {
	baseURL *url.URL
	user    string
	token   string
	reads   *retryablehttp.Client
	writes  *retryablehttp.Client
}

// NewClient builds an API-token authenticated client. Reads are retried, updates are not.
func NewClient(cfg Config) (Client, error) {
	if cfg.User == "" || cfg.Token == "" {
		return nil, fmt.Errorf("zendesk user and token are required")
	}

	raw := cfg.BaseURL
	if raw == "" {
		if cfg.Subdomain == "" {
			return nil, fmt.Errorf("zendesk subdomain is required")
		}
		raw = fmt.Sprintf("https://%s.zendesk.com", cfg.Subdomain)
	}
	base, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing zendesk base url: %w", err)
	}

	log := slog.Default().With("component", "autoresponder.zendesk")
	return &client{
		baseURL: base,
		user:    cfg.User,
		token:   cfg.Token,
		reads:   httpx.NewReader(log),
		writes:  httpx.NewWriter(log),
	}, nil
}

func (c *client) GetTicket(ctx context.Context, ticketID int64) (*Ticket, error) {
	var resp struct {
		Ticket Ticket `json:"ticket"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v2/tickets/%d.json", ticketID), &resp); err != nil {
		return nil, fmt.Errorf("fetching ticket %d: %w", ticketID, err)
	}
	return &resp.Ticket, nil
}

// GetComments returns every comment of the ticket in the order Zendesk lists them
// (chronological), following next_page links.
func (c *client) GetComments(ctx context.Context, ticketID int64) ([]Comment, error) {
	var comments []Comment
	next := c.baseURL.String() + fmt.Sprintf("/api/v2/tickets/%d/comments.json", ticketID)

	for page := 0; next != "" && page < maxCommentPages; page++ {
		pageURL, err := c.sameOrigin(next)
		if err != nil {
			return nil, fmt.Errorf("fetching comments for ticket %d: %w", ticketID, err)
		}

		var resp struct {
			Comments []Comment `json:"comments"`
			NextPage *string   `json:"next_page"`
		}
		if err := c.getURL(ctx, pageURL, &resp); err != nil {
			return nil, fmt.Errorf("fetching comments for ticket %d: %w", ticketID, err)
		}

		comments = append(comments, resp.Comments...)
		next = ""
		if resp.NextPage != nil {
			next = *resp.NextPage
		}
	}

	return comments, nil
}

func (c *client) GetUser(ctx context.Context, userID int64) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v2/users/%d.json", userID), &resp); err != nil {
		return nil, fmt.Errorf("fetching user %d: %w", userID, err)
	}
	return &resp.User, nil
}

func (c *client) GetUserIdentities(ctx context.Context, userID int64) ([]Identity, error) {
	var resp struct {
		Identities []Identity `json:"identities"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v2/users/%d/identities.json", userID), &resp); err != nil {
		return nil, fmt.Errorf("fetching identities of user %d: %w", userID, err)
	}
	return resp.Identities, nil
}

func (c *client) GetOrganization(ctx context.Context, orgID int64) (*Organization, error) {
	var resp struct {
		Organization Organization `json:"organization"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v2/organizations/%d.json", orgID), &resp); err != nil {
		return nil, fmt.Errorf("fetching organization %d: %w", orgID, err)
	}
	return &resp.Organization, nil
}

func (c *client) UpdateTicket(ctx context.Context, ticketID int64, update TicketUpdate) error {
	payload, err := json.Marshal(map[string]TicketUpdate{"ticket": update})
	if err != nil {
		return fmt.Errorf("encoding ticket update: %w", err)
	}

	path := fmt.Sprintf("/api/v2/tickets/%d.json", ticketID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, c.baseURL.String()+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building ticket update: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(c.writes, req, path, nil); err != nil {
		return fmt.Errorf("updating ticket %d: %w", ticketID, err)
	}
	return nil
}

func (c *client) get(ctx context.Context, path string, out any) error {
	return c.getURL(ctx, c.baseURL.String()+path, out)
}

func (c *client) getURL(ctx context.Context, rawURL string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(c.reads, req, req.URL.Path, out)
}

func (c *client) do(hc *retryablehttp.Client, req *retryablehttp.Request, path string, out any) error {
	req.SetBasicAuth(c.user+"/token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !httpx.IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{
			Method:     req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// sameOrigin keeps credentials on the configured host when following next_page links.
func (c *client) sameOrigin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing next page url: %w", err)
	}
	if u.Scheme != c.baseURL.Scheme || u.Host != c.baseURL.Host {
		return "", fmt.Errorf("next page url %q leaves %s", raw, c.baseURL.Host)
	}
	return u.String(), nil
}
