package conversation_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/common/llm"
	"basegraph.app/autoresponder/internal/conversation"
	"basegraph.app/autoresponder/internal/model"
	"basegraph.app/autoresponder/internal/zendesk"
)

type fakeUsers struct {
	mu      sync.Mutex
	calls   map[int64]int
	users   map[int64]zendesk.User
	failFor map[int64]bool
}

func newFakeUsers(users ...zendesk.User) *fakeUsers {
	f := &fakeUsers{calls: map[int64]int{}, users: map[int64]zendesk.User{}, failFor: map[int64]bool{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUser(_ context.Context, id int64) (*zendesk.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if f.failFor[id] {
		return nil, errors.New("boom")
	}
	u, ok := f.users[id]
	if !ok {
		return nil, &zendesk.APIError{StatusCode: 404}
	}
	return &u, nil
}

type fakeMedia struct {
	resolveFn func(attachments []zendesk.Attachment, html string) []model.ContentPart
}

func (f *fakeMedia) Resolve(_ context.Context, attachments []zendesk.Attachment, html string) []model.ContentPart {
	return f.resolveFn(attachments, html)
}

var (
	customer = zendesk.User{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com", Role: zendesk.RoleEndUser}
	agent    = zendesk.User{ID: 2, Name: "Support Bot", Email: "agent@acme.test", Role: "agent"}
	admin    = zendesk.User{ID: 3, Name: "Admin", Email: "admin@acme.test", Role: "admin"}
)

var _ = Describe("ResolveAuthors", func() {
	ctx := context.Background()

	It("fetches each distinct author once", func() {
		users := newFakeUsers(customer, agent)
		comments := []zendesk.Comment{
			{ID: 10, AuthorID: 1}, {ID: 11, AuthorID: 2}, {ID: 12, AuthorID: 1}, {ID: 13, AuthorID: 1},
		}

		authors := conversation.ResolveAuthors(ctx, users, comments)
		Expect(authors).To(HaveLen(2))
		Expect(users.calls).To(Equal(map[int64]int{1: 1, 2: 1}))
	})

	It("reuses known users", func() {
		users := newFakeUsers(agent)
		authors := conversation.ResolveAuthors(ctx, users,
			[]zendesk.Comment{{ID: 10, AuthorID: 1}, {ID: 11, AuthorID: 2}}, customer)

		Expect(authors).To(HaveKey(int64(1)))
		Expect(authors).To(HaveKey(int64(2)))
		Expect(users.calls).NotTo(HaveKey(int64(1)))
	})

	It("leaves authors that fail to load unresolved", func() {
		users := newFakeUsers(customer, agent)
		users.failFor[2] = true

		authors := conversation.ResolveAuthors(ctx, users,
			[]zendesk.Comment{{ID: 10, AuthorID: 1}, {ID: 11, AuthorID: 2}, {ID: 12, AuthorID: 99}})
		Expect(authors).To(HaveLen(1))
		Expect(authors).To(HaveKey(int64(1)))
	})
})

var _ = Describe("RoleFor", func() {
	It("maps end users to customers and everyone else to the business", func() {
		Expect(conversation.RoleFor(customer)).To(Equal(model.AuthorRoleCustomer))
		Expect(conversation.RoleFor(agent)).To(Equal(model.AuthorRoleAgent))
		Expect(conversation.RoleFor(admin)).To(Equal(model.AuthorRoleAgent))
		Expect(conversation.RoleFor(zendesk.User{Role: ""})).To(Equal(model.AuthorRoleAgent))
	})
})

var _ = Describe("Assembler", func() {
	ctx := context.Background()
	authors := conversation.Authors{1: customer, 2: agent}

	It("drops comments by unresolved authors and keeps source order", func() {
		comments := []zendesk.Comment{
			{ID: 10, AuthorID: 1, Body: "my app crashes"},
			{ID: 11, AuthorID: 77, Body: "ghost"},
			{ID: 12, AuthorID: 2, Body: "which version?"},
			{ID: 13, AuthorID: 1, Body: "v2.1"},
		}

		messages := conversation.NewAssembler(nil).Assemble(ctx, comments, authors)
		Expect(len(messages)).To(BeNumerically("<=", len(comments)))
		Expect(messages).To(HaveLen(3))
		Expect(messages[0].ID).To(Equal("10"))
		Expect(messages[1].ID).To(Equal("12"))
		Expect(messages[2].ID).To(Equal("13"))

		Expect(messages[0].Author).To(Equal(model.Author{
			Role: model.AuthorRoleCustomer, DisplayName: "Ada Lovelace", Email: "ada@example.com",
		}))
		Expect(messages[1].Author.Role).To(Equal(model.AuthorRoleAgent))
		Expect(messages[0].Source).To(Equal(model.SourceZendesk))
	})

	It("emits every comment when all authors resolve", func() {
		comments := []zendesk.Comment{{ID: 1, AuthorID: 1}, {ID: 2, AuthorID: 2}}
		Expect(conversation.NewAssembler(nil).Assemble(ctx, comments, authors)).To(HaveLen(2))
	})

	It("puts the body text first and media after it", func() {
		var seenHTML string
		media := &fakeMedia{resolveFn: func(attachments []zendesk.Attachment, html string) []model.ContentPart {
			seenHTML = html
			return []model.ContentPart{model.ImageContent("aGVsbG8=", "image/png")}
		}}
		comments := []zendesk.Comment{{
			ID: 10, AuthorID: 1, Body: "see screenshot", HTMLBody: "<p>see screenshot</p>",
			Attachments: []zendesk.Attachment{{FileName: "a.png", ContentType: "image/png"}},
		}}

		messages := conversation.NewAssembler(media).Assemble(ctx, comments, authors)
		Expect(seenHTML).To(Equal("<p>see screenshot</p>"))
		Expect(messages).To(HaveLen(1))
		Expect(messages[0].Content).To(Equal([]model.ContentPart{
			model.TextContent("see screenshot"),
			model.ImageContent("aGVsbG8=", "image/png"),
		}))
	})

	It("keeps an empty text part for empty bodies", func() {
		messages := conversation.NewAssembler(nil).Assemble(ctx, []zendesk.Comment{{ID: 1, AuthorID: 1}}, authors)
		Expect(messages[0].Content).To(Equal([]model.ContentPart{model.TextContent("")}))
	})
})

var _ = Describe("prompt rendering", func() {
	messages := []model.ConversationMessage{
		{
			Author: model.Author{Role: model.AuthorRoleCustomer, DisplayName: "Ada Lovelace"},
			Content: []model.ContentPart{
				model.TextContent("it breaks"),
				model.TextContent("[Attached file: app.log]\nerror"),
				model.ImageContent("aGVsbG8=", "image/png"),
			},
		},
		{
			Author:  model.Author{Role: model.AuthorRoleAgent, DisplayName: "Support Bot"},
			Content: []model.ContentPart{model.TextContent("try restarting"), model.ImageContent("eA==", "image/jpeg")},
		},
	}

	It("renders customer images as data URLs and agents as text", func() {
		out := conversation.ToPromptMessages(messages)
		Expect(out).To(HaveLen(2))

		Expect(out[0].Role).To(Equal(llm.RoleUser))
		Expect(out[0].Name).To(Equal("Ada_Lovelace"))
		Expect(out[0].Parts).To(Equal([]llm.ContentPart{
			llm.TextPart("it breaks\n\n[Attached file: app.log]\nerror"),
			llm.ImagePart("data:image/png;base64,aGVsbG8="),
		}))

		Expect(out[1]).To(Equal(llm.Message{Role: llm.RoleAssistant, Content: "try restarting"}))
	})

	It("flattens to text for triage", func() {
		Expect(conversation.ToTextMessages(messages)).To(Equal([]llm.Message{
			{Role: llm.RoleUser, Content: "it breaks\n\n[Attached file: app.log]\nerror"},
			{Role: llm.RoleAssistant, Content: "try restarting"},
		}))
	})
})
