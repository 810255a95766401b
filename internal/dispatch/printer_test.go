package dispatch_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/internal/dispatch"
	"basegraph.app/autoresponder/internal/zendesk"
)

var _ = Describe("PrintingUpdater", func() {
	It("prints comments with their visibility", func() {
		var buf bytes.Buffer
		p := dispatch.NewPrintingUpdater(&buf)

		Expect(p.UpdateTicket(context.Background(), 42, zendesk.TicketUpdate{
			Comment: zendesk.CommentInput{HTMLBody: "<p>Try again</p>", Public: true},
		})).To(Succeed())
		Expect(p.UpdateTicket(context.Background(), 42, zendesk.TicketUpdate{
			Comment: zendesk.CommentInput{Body: "AI Agent had unknown confidence level in its answer"},
		})).To(Succeed())

		Expect(buf.String()).To(Equal(
			"--- ticket 42, public comment ---\n<p>Try again</p>\n\n" +
				"--- ticket 42, internal comment ---\nAI Agent had unknown confidence level in its answer\n\n"))
	})
})
