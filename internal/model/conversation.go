package model

import (
	"strings"
	"time"
)

// AuthorRole is who wrote a message from the support desk's point of view.
type AuthorRole string

const (
	AuthorRoleCustomer AuthorRole = "user"
	AuthorRoleAgent    AuthorRole = "business"
)

// SourceZendesk is the provenance tag of every message this service builds.
const SourceZendesk = "zendesk"

// ConversationMessage is one normalized turn of a support conversation.
// Content always starts with a text part; media parts follow in discovery order.
type ConversationMessage struct {
	ID         string
	ReceivedAt time.Time
	Author     Author
	Content    []ContentPart
	Source     string
}

type Author struct {
	Role        AuthorRole
	DisplayName string
	Email       string
}

type ContentPartType string

const (
	ContentPartText  ContentPartType = "text"
	ContentPartImage ContentPartType = "image"
)

// ContentPart is either text or a base64-encoded image.
type ContentPart struct {
	Type     ContentPartType
	Text     string
	Image    string // base64 payload, no data: prefix
	MimeType string
}

func TextContent(text string) ContentPart {
	return ContentPart{Type: ContentPartText, Text: text}
}

func ImageContent(base64Data, mimeType string) ContentPart {
	return ContentPart{Type: ContentPartImage, Image: base64Data, MimeType: mimeType}
}

// Text joins the message's text parts with blank lines.
func (m ConversationMessage) Text() string {
	var texts []string
	for _, p := range m.Content {
		if p.Type == ContentPartText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}

// Images returns the message's image parts in order.
func (m ConversationMessage) Images() []ContentPart {
	var images []ContentPart
	for _, p := range m.Content {
		if p.Type == ContentPartImage {
			images = append(images, p)
		}
	}
	return images
}

// TicketContext is built once per webhook delivery and never persisted.
type TicketContext struct {
	TicketID          int64
	TicketTitle       string
	RequesterMetadata map[string]any
	CommentCount      int
	UserFields        map[string]any
}
