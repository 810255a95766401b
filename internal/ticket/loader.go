package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"golang.org/x/sync/errgroup"

	"basegraph.app/autoresponder/internal/conversation"
	"basegraph.app/autoresponder/internal/model"
	"basegraph.app/autoresponder/internal/zendesk"
)

// Snapshot is everything read from Zendesk for one webhook delivery.
type Snapshot struct {
	Context    model.TicketContext
	Ticket     zendesk.Ticket
	Comments   []zendesk.Comment
	Requester  zendesk.User
	Identities []zendesk.Identity
}

type Loader struct {
	zendesk   zendesk.Client
	assembler *conversation.Assembler
}

func NewLoader(client zendesk.Client, assembler *conversation.Assembler) *Loader {
	return &Loader{zendesk: client, assembler: assembler}
}

// LoadTicket reads the ticket, its comments, the requester with identities and the
// requester's organization. Any read failure fails the whole load.
func (l *Loader) LoadTicket(ctx context.Context, ticketID int64) (*Snapshot, error) {
	var (
		ticket   *zendesk.Ticket
		comments []zendesk.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ticket, err = l.zendesk.GetTicket(gctx, ticketID)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = l.zendesk.GetComments(gctx, ticketID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		requester  *zendesk.User
		identities []zendesk.Identity
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requester, err = l.zendesk.GetUser(gctx, ticket.RequesterID)
		return err
	})
	g.Go(func() error {
		var err error
		identities, err = l.zendesk.GetUserIdentities(gctx, ticket.RequesterID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var org *zendesk.Organization
	if requester.OrganizationID != nil {
		var err error
		org, err = l.zendesk.GetOrganization(ctx, *requester.OrganizationID)
		if err != nil {
			return nil, err
		}
	}

	slog.DebugContext(ctx, "ticket loaded",
		"comment_count", len(comments),
		"requester_id", requester.ID,
		"has_organization", org != nil)

	return &Snapshot{
		Context: model.TicketContext{
			TicketID:          ticketID,
			TicketTitle:       ticket.Subject,
			RequesterMetadata: RequesterMetadata(*requester, identities, org),
			CommentCount:      len(comments),
			UserFields:        requester.UserFields,
		},
		Ticket:     *ticket,
		Comments:   comments,
		Requester:  *requester,
		Identities: identities,
	}, nil
}

// BuildConversation resolves comment authors and assembles the conversation.
func (l *Loader) BuildConversation(ctx context.Context, snap *Snapshot) []model.ConversationMessage {
	authors := conversation.ResolveAuthors(ctx, l.zendesk, snap.Comments, snap.Requester)
	return l.assembler.Assemble(ctx, snap.Comments, authors)
}

// RequesterMetadata merges the requester's custom fields with organization details
// and identities. Values are kept verbatim; only prompt rendering interprets them.
func RequesterMetadata(user zendesk.User, identities []zendesk.Identity, org *zendesk.Organization) map[string]any {
	meta := make(map[string]any, len(user.UserFields)+5)
	maps.Copy(meta, user.UserFields)

	if org != nil {
		meta["organization_fields"] = org.OrganizationFields
		meta["tags"] = org.Tags
		meta["notes"] = org.Notes
		meta["name"] = org.Name
	}

	if len(identities) > 0 {
		ids := make([]string, 0, len(identities))
		for _, id := range identities {
			ids = append(ids, fmt.Sprintf("%s:%s", id.Type, id.Value))
		}
		meta["identities"] = ids
	}
	return meta
}
