package conversation

import (
	"basegraph.app/autoresponder/common/llm"
	"basegraph.app/autoresponder/internal/model"
)

// ModelRole maps a conversation role onto a chat role.
func ModelRole(role model.AuthorRole) string {
	if role == model.AuthorRoleCustomer {
		return llm.RoleUser
	}
	return llm.RoleAssistant
}

// ToPromptMessages renders the conversation for the response model. Customer turns
// carry their images as data URLs; assistant turns carry text only since the chat
// format has no image parts for them.
func ToPromptMessages(messages []model.ConversationMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := ModelRole(m.Author.Role)
		if role != llm.RoleUser {
			out = append(out, llm.Message{Role: role, Content: m.Text()})
			continue
		}

		msg := llm.Message{
			Role: role,
			Name: llm.SanitizeName(m.Author.DisplayName),
		}
		images := m.Images()
		if len(images) == 0 {
			msg.Content = m.Text()
		} else {
			parts := make([]llm.ContentPart, 0, len(images)+1)
			parts = append(parts, llm.TextPart(m.Text()))
			for _, img := range images {
				parts = append(parts, llm.ImagePart(llm.DataURL(img.MimeType, img.Image)))
			}
			msg.Parts = parts
		}
		out = append(out, msg)
	}
	return out
}

// ToTextMessages flattens the conversation to role and text, dropping media.
func ToTextMessages(messages []model.ConversationMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.Message{Role: ModelRole(m.Author.Role), Content: m.Text()})
	}
	return out
}
