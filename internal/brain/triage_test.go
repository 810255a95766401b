package brain_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/common/llm"
	"basegraph.app/autoresponder/internal/brain"
	"basegraph.app/autoresponder/internal/model"
)

func conversationFixture() []model.ConversationMessage {
	return []model.ConversationMessage{
		{
			Author: model.Author{Role: model.AuthorRoleCustomer, DisplayName: "Ada"},
			Content: []model.ContentPart{
				model.TextContent("I was charged twice on invoice INV-42"),
				model.ImageContent("aGVsbG8=", "image/png"),
			},
		},
		{
			Author:  model.Author{Role: model.AuthorRoleAgent, DisplayName: "Agent"},
			Content: []model.ContentPart{model.TextContent("Looking into it")},
		},
	}
}

func serverError() error {
	return errors.New("read tcp: connection reset by peer")
}

var _ = Describe("Triager", func() {
	var (
		ctx  context.Context
		chat *fakeChat
		t    *brain.Triager
	)

	BeforeEach(func() {
		ctx = context.Background()
		chat = &fakeChat{}
		t = brain.NewTriager(chat, brain.WithBackOff(func() backoff.BackOff {
			return backoff.NewConstantBackOff(time.Millisecond)
		}))
	})

	It("returns the extracted labels", func() {
		var seen llm.Request
		chat.chatFn = func(_ int, req llm.Request) (string, error) {
			seen = req
			return `{"subject":"Double charge","summary":"Customer charged twice","category":"account_billing","invoiceId":"INV-42"}`, nil
		}

		result, err := t.Triage(ctx, conversationFixture())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Category).To(Equal(model.CategoryAccountBilling))
		Expect(result.Subject).To(Equal("Double charge"))
		Expect(result.InvoiceID).NotTo(BeNil())
		Expect(*result.InvoiceID).To(Equal("INV-42"))

		Expect(seen.Schema).NotTo(BeNil())
		Expect(seen.Messages).To(Equal([]llm.Message{
			{Role: llm.RoleUser, Content: "I was charged twice on invoice INV-42"},
			{Role: llm.RoleAssistant, Content: "Looking into it"},
		}))
	})

	It("maps unknown categories to other and empty invoice ids to nil", func() {
		chat.chatFn = func(int, llm.Request) (string, error) {
			return `{"subject":"Hi","summary":"Small talk","category":"weather","invoiceId":""}`, nil
		}

		result, err := t.Triage(ctx, conversationFixture())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Category).To(Equal(model.CategoryOther))
		Expect(result.InvoiceID).To(BeNil())
	})

	It("retries transient failures twice", func() {
		chat.chatFn = func(call int, _ llm.Request) (string, error) {
			if call < 3 {
				return "", serverError()
			}
			return `{"subject":"s","summary":"x","category":"production_issue","invoiceId":""}`, nil
		}

		result, err := t.Triage(ctx, conversationFixture())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Category).To(Equal(model.CategoryProductionIssue))
		Expect(chat.calls).To(Equal(3))
	})

	It("gives up after three attempts", func() {
		chat.chatFn = func(int, llm.Request) (string, error) {
			return "", serverError()
		}

		_, err := t.Triage(ctx, conversationFixture())
		Expect(err).To(HaveOccurred())
		Expect(chat.calls).To(Equal(3))
	})

	It("does not retry permanent failures", func() {
		chat.chatFn = func(int, llm.Request) (string, error) {
			return "", fmt.Errorf("unmarshal response: %w", &json.SyntaxError{Offset: 1})
		}

		_, err := t.Triage(ctx, conversationFixture())
		Expect(err).To(HaveOccurred())
		Expect(chat.calls).To(Equal(1))
	})

	It("does not retry cancellation", func() {
		chat.chatFn = func(int, llm.Request) (string, error) {
			return "", errors.Join(errors.New("request aborted"), context.Canceled)
		}

		_, err := t.Triage(ctx, conversationFixture())
		Expect(err).To(MatchError(context.Canceled))
		Expect(chat.calls).To(Equal(1))
	})
})

var _ = Describe("FormatTriageComment", func() {
	It("renders all labels", func() {
		invoice := "INV-42"
		out := brain.FormatTriageComment(model.TriageResult{
			Subject:   "Double charge",
			Summary:   "Customer charged twice",
			Category:  model.CategoryAccountBilling,
			InvoiceID: &invoice,
		})
		Expect(out).To(ContainSubstring("Subject: Double charge"))
		Expect(out).To(ContainSubstring("Category: account_billing"))
		Expect(out).To(ContainSubstring("Invoice ID: INV-42"))
		Expect(out).To(HaveSuffix("Customer charged twice"))
	})

	It("omits a missing invoice id", func() {
		out := brain.FormatTriageComment(model.TriageResult{Subject: "s", Category: model.CategoryOther})
		Expect(out).NotTo(ContainSubstring("Invoice ID"))
	})
})
