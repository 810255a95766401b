package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/autoresponder/common/logger"
)

type ConsumerConfig struct {
	Stream    string        // Redis stream name
	Group     string        // Redis consumer group name
	Consumer  string        // Redis consumer name
	DLQStream string        // Dead letter stream for failed tasks
	BatchSize int64         // Messages per read
	Block     time.Duration // How long a read waits for new messages
}

type Message struct {
	ID   string
	Task TicketTask
	Raw  redis.XMessage
}

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(ctx context.Context, client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}

	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}
	if err := consumer.ensureGroup(ctx); err != nil {
		return nil, err
	}
	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Starting from "0" keeps tasks enqueued while no worker was running.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Read returns new tasks for this consumer. Unparseable entries are acked and dropped.
func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "autoresponder.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			parsed, parseErr := ParseMessage(msg)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to parse message",
					"error", parseErr,
					"raw_message_id", msg.ID,
					"stream", c.cfg.Stream)
				_ = c.Ack(ctx, Message{ID: msg.ID, Raw: msg})
				continue
			}
			messages = append(messages, parsed)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read messages from stream",
			"count", len(messages),
			"stream", c.cfg.Stream,
			"consumer", c.cfg.Consumer)
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}
	slog.DebugContext(ctx, "message acknowledged", "stream", c.cfg.Stream)
	return nil
}

// SendDLQ acks msg and records it with errMsg on the dead letter stream.
func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for dlq: %w", err)
	}

	values := taskValues(msg.Task)
	values["error"] = errMsg
	values["original_message_id"] = msg.ID

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.DLQStream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "message sent to DLQ",
		"final_error", errMsg,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	ticketID, err := parseInt64(msg.Values, "ticket_id")
	if err != nil {
		return Message{}, err
	}
	taskID, err := parseOptionalInt64(msg.Values, "task_id")
	if err != nil {
		return Message{}, err
	}
	enqueuedAt, err := parseOptionalInt64(msg.Values, "enqueued_at")
	if err != nil {
		return Message{}, err
	}

	task := TicketTask{
		TicketID: ticketID,
		TraceID:  parseOptionalString(msg.Values, "trace_id"),
	}
	if taskID != nil {
		task.TaskID = *taskID
	}
	if enqueuedAt != nil {
		task.EnqueuedAt = time.Unix(*enqueuedAt, 0).UTC()
	}

	return Message{ID: msg.ID, Task: task, Raw: msg}, nil
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalInt64(values map[string]any, key string) (*int64, error) {
	if _, ok := values[key]; !ok {
		return nil, nil
	}
	num, err := parseInt64(values, key)
	if err != nil {
		return nil, err
	}
	return &num, nil
}

func parseOptionalString(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}

func taskValues(task TicketTask) map[string]any {
	values := map[string]any{
		"ticket_id": task.TicketID,
		"task_id":   task.TaskID,
	}
	if !task.EnqueuedAt.IsZero() {
		values["enqueued_at"] = task.EnqueuedAt.Unix()
	}
	if task.TraceID != "" {
		values["trace_id"] = task.TraceID
	}
	return values
}
