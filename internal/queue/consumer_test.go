package queue_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"basegraph.app/autoresponder/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	It("parses a ticket task as redis returns it", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID: "1700000000000-0",
			Values: map[string]any{
				"ticket_id":   "7",
				"task_id":     "123456789",
				"enqueued_at": "1700000000",
				"trace_id":    "4bf92f3577b34da6a3ce929d0e0e4736",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1700000000000-0"))
		Expect(msg.Task).To(Equal(queue.TicketTask{
			TaskID:     123456789,
			TicketID:   7,
			TraceID:    "4bf92f3577b34da6a3ce929d0e0e4736",
			EnqueuedAt: time.Unix(1700000000, 0).UTC(),
		}))
	})

	It("accepts a task without optional fields", func() {
		msg, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"ticket_id": "7"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Task.TicketID).To(Equal(int64(7)))
		Expect(msg.Task.TaskID).To(BeZero())
		Expect(msg.Task.EnqueuedAt.IsZero()).To(BeTrue())
	})

	It("rejects tasks without a ticket id", func() {
		_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"task_id": "1"}})
		Expect(err).To(MatchError(ContainSubstring("missing ticket_id")))
	})

	It("rejects non-numeric ids", func() {
		_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"ticket_id": "abc"}})
		Expect(err).To(HaveOccurred())
	})
})
