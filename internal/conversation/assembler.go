package conversation

import (
	"context"
	"strconv"
	"sync"

	"basegraph.app/autoresponder/internal/model"
	"basegraph.app/autoresponder/internal/zendesk"
)

// MediaResolver turns one comment's attachments and HTML into extra content parts.
type MediaResolver interface {
	Resolve(ctx context.Context, attachments []zendesk.Attachment, htmlBody string) []model.ContentPart
}

type Assembler struct {
	media MediaResolver
}

// NewAssembler builds an assembler. A nil resolver yields text-only messages.
func NewAssembler(media MediaResolver) *Assembler {
	return &Assembler{media: media}
}

// Assemble converts comments into conversation messages in source order. Comments
// whose author is not in authors are dropped. Media for all comments is resolved
// concurrently.
func (a *Assembler) Assemble(ctx context.Context, comments []zendesk.Comment, authors Authors) []model.ConversationMessage {
	type slot struct {
		comment zendesk.Comment
		author  zendesk.User
	}

	slots := make([]slot, 0, len(comments))
	for _, c := range comments {
		author, ok := authors[c.AuthorID]
		if !ok {
			continue
		}
		slots = append(slots, slot{comment: c, author: author})
	}

	messages := make([]model.ConversationMessage, len(slots))
	var wg sync.WaitGroup
	for i, s := range slots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			messages[i] = a.message(ctx, s.comment, s.author)
		}()
	}
	wg.Wait()

	return messages
}

func (a *Assembler) message(ctx context.Context, c zendesk.Comment, author zendesk.User) model.ConversationMessage {
	content := []model.ContentPart{model.TextContent(c.Body)}
	if a.media != nil && (len(c.Attachments) > 0 || c.HTMLBody != "") {
		content = append(content, a.media.Resolve(ctx, c.Attachments, c.HTMLBody)...)
	}

	return model.ConversationMessage{
		ID:         strconv.FormatInt(c.ID, 10),
		ReceivedAt: c.CreatedAt,
		Author: model.Author{
			Role:        RoleFor(author),
			DisplayName: author.Name,
			Email:       author.Email,
		},
		Content: content,
		Source:  model.SourceZendesk,
	}
}
