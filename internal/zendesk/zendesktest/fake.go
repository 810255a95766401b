// Package zendesktest provides an in-memory zendesk.Client for tests.
package zendesktest

import (
	"context"
	"net/http"
	"sync"

	"basegraph.app/autoresponder/internal/zendesk"
)

// Update is one recorded UpdateTicket call.
type Update struct {
	TicketID int64
	Update   zendesk.TicketUpdate
}

// Fake serves tickets, comments, users and organizations from maps. Unknown ids
// answer with a 404 APIError. The Fn hooks, when set, replace the map lookups.
type Fake struct {
	mu sync.Mutex

	Tickets       map[int64]zendesk.Ticket
	Comments      map[int64][]zendesk.Comment
	Users         map[int64]zendesk.User
	Identities    map[int64][]zendesk.Identity
	Organizations map[int64]zendesk.Organization

	GetTicketFn    func(ctx context.Context, ticketID int64) (*zendesk.Ticket, error)
	UpdateTicketFn func(ctx context.Context, ticketID int64, update zendesk.TicketUpdate) error

	updates   []Update
	userCalls map[int64]int
}

func NewFake() *Fake {
	return &Fake{
		Tickets:       map[int64]zendesk.Ticket{},
		Comments:      map[int64][]zendesk.Comment{},
		Users:         map[int64]zendesk.User{},
		Identities:    map[int64][]zendesk.Identity{},
		Organizations: map[int64]zendesk.Organization{},
		userCalls:     map[int64]int{},
	}
}

func notFound(path string) error {
	return &zendesk.APIError{Method: http.MethodGet, Path: path, StatusCode: http.StatusNotFound, Body: "RecordNotFound"}
}

func (f *Fake) GetTicket(ctx context.Context, ticketID int64) (*zendesk.Ticket, error) {
	if f.GetTicketFn != nil {
		return f.GetTicketFn(ctx, ticketID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Tickets[ticketID]
	if !ok {
		return nil, notFound("/api/v2/tickets")
	}
	return &t, nil
}

func (f *Fake) GetComments(_ context.Context, ticketID int64) ([]zendesk.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]zendesk.Comment(nil), f.Comments[ticketID]...), nil
}

func (f *Fake) GetUser(_ context.Context, userID int64) (*zendesk.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls[userID]++
	u, ok := f.Users[userID]
	if !ok {
		return nil, notFound("/api/v2/users")
	}
	return &u, nil
}

func (f *Fake) GetUserIdentities(_ context.Context, userID int64) ([]zendesk.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]zendesk.Identity(nil), f.Identities[userID]...), nil
}

func (f *Fake) GetOrganization(_ context.Context, orgID int64) (*zendesk.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.Organizations[orgID]
	if !ok {
		return nil, notFound("/api/v2/organizations")
	}
	return &o, nil
}

func (f *Fake) UpdateTicket(ctx context.Context, ticketID int64, update zendesk.TicketUpdate) error {
	if f.UpdateTicketFn != nil {
		if err := f.UpdateTicketFn(ctx, ticketID, update); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, Update{TicketID: ticketID, Update: update})
	return nil
}

// Updates returns the successful UpdateTicket calls in order.
func (f *Fake) Updates() []Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Update(nil), f.updates...)
}

// UserCalls returns how many times GetUser was called for userID.
func (f *Fake) UserCalls(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userCalls[userID]
}

var _ zendesk.Client = (*Fake)(nil)
