package conversation

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"basegraph.app/autoresponder/internal/model"
	"basegraph.app/autoresponder/internal/zendesk"
)

// UserFetcher is the part of the ticketing client author resolution needs.
type UserFetcher interface {
	GetUser(ctx context.Context, userID int64) (*zendesk.User, error)
}

// Authors is the request-scoped author lookup table, keyed by user id.
type Authors map[int64]zendesk.User

// ResolveAuthors fetches every distinct comment author once, concurrently. Users in
// known are reused without a fetch. A failed fetch leaves that author out of the
// table so its comments get dropped; it does not fail the call.
func ResolveAuthors(ctx context.Context, users UserFetcher, comments []zendesk.Comment, known ...zendesk.User) Authors {
	authors := make(Authors, len(known))
	for _, u := range known {
		authors[u.ID] = u
	}

	var pending []int64
	seen := make(map[int64]struct{})
	for _, c := range comments {
		if _, ok := authors[c.AuthorID]; ok {
			continue
		}
		if _, ok := seen[c.AuthorID]; ok {
			continue
		}
		seen[c.AuthorID] = struct{}{}
		pending = append(pending, c.AuthorID)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, id := range pending {
		g.Go(func() error {
			user, err := users.GetUser(ctx, id)
			if err != nil {
				slog.WarnContext(ctx, "comment author unresolved, dropping their comments",
					"author_id", id,
					"error", err)
				return nil
			}
			mu.Lock()
			authors[id] = *user
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return authors
}

// RoleFor maps a ticketing role onto a conversation role: end users are customers,
// every other role speaks for the business.
func RoleFor(user zendesk.User) model.AuthorRole {
	if user.IsEndUser() {
		return model.AuthorRoleCustomer
	}
	return model.AuthorRoleAgent
}
