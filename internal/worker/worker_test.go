package worker_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/internal/pipeline"
	"basegraph.app/autoresponder/internal/queue"
	"basegraph.app/autoresponder/internal/worker"
)

type fakeConsumer struct {
	acked []string
	dlq   map[string]string
}

func newFakeConsumer() *fakeConsumer {
	return &fakeConsumer{dlq: map[string]string{}}
}

func (f *fakeConsumer) Read(context.Context) ([]queue.Message, error) { return nil, nil }

func (f *fakeConsumer) Ack(_ context.Context, msg queue.Message) error {
	f.acked = append(f.acked, msg.ID)
	return nil
}

func (f *fakeConsumer) SendDLQ(_ context.Context, msg queue.Message, errMsg string) error {
	f.dlq[msg.ID] = errMsg
	return nil
}

type fakeProcessor struct {
	refs      []pipeline.TicketRef
	processFn func(ctx context.Context) error
}

func (f *fakeProcessor) Process(ctx context.Context, ref pipeline.TicketRef) error {
	f.refs = append(f.refs, ref)
	if f.processFn == nil {
		return nil
	}
	return f.processFn(ctx)
}

var _ = Describe("Worker", func() {
	var (
		ctx       context.Context
		consumer  *fakeConsumer
		processor *fakeProcessor
		w         *worker.Worker
		msg       queue.Message
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = newFakeConsumer()
		processor = &fakeProcessor{}
		w = worker.New(consumer, processor, worker.Config{})
		msg = queue.Message{ID: "1-0", Task: queue.TicketTask{TaskID: 11, TicketID: 7}}
	})

	It("processes the ticket and acks", func() {
		w.ProcessMessage(ctx, msg)

		Expect(processor.refs).To(Equal([]pipeline.TicketRef{{TicketID: 7, TaskID: 11}}))
		Expect(consumer.acked).To(Equal([]string{"1-0"}))
		Expect(consumer.dlq).To(BeEmpty())
	})

	It("dead-letters failed tasks instead of retrying", func() {
		processor.processFn = func(context.Context) error { return errors.New("model down") }

		w.ProcessMessage(ctx, msg)

		Expect(processor.refs).To(HaveLen(1))
		Expect(consumer.acked).To(BeEmpty())
		Expect(consumer.dlq).To(HaveKeyWithValue("1-0", ContainSubstring("model down")))
	})

	It("dead-letters panicking tasks", func() {
		processor.processFn = func(context.Context) error { panic("nil map") }

		w.ProcessMessage(ctx, msg)
		Expect(consumer.dlq).To(HaveKeyWithValue("1-0", ContainSubstring("panic")))
	})

	It("runs each task under a deadline", func() {
		processor.processFn = func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			Expect(ok).To(BeTrue())
			return nil
		}
		w.ProcessMessage(ctx, msg)
		Expect(consumer.acked).To(HaveLen(1))
	})
})
