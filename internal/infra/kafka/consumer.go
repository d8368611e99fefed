package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// HandlerFunc processes one consumed message. A returned error marks
// the message as failed; the consumer still advances past it, so a
// caller that wants retries forwards the message to the DLQ first.
type HandlerFunc func(msg *sarama.ConsumerMessage) error

type Consumer struct {
	group  sarama.ConsumerGroup
	log    *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer(brokers []string, group string, log *zap.Logger) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Return.Errors = true

	g, err := sarama.NewConsumerGroup(brokers, group, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: g, log: log, done: make(chan struct{})}, nil
}

// Consume joins the group and feeds messages to fn until Close. The
// consume loop restarts itself after rebalances.
func (c *Consumer) Consume(topics []string, fn HandlerFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		for err := range c.group.Errors() {
			c.log.Error("kafka consume failed", zap.Error(err))
		}
	}()

	handler := groupHandler{fn: fn, log: c.log}
	go func() {
		defer close(c.done)
		for ctx.Err() == nil {
			if err := c.group.Consume(ctx, topics, handler); err != nil {
				c.log.Error("kafka consumer group exited", zap.Error(err))
			}
		}
	}()
}

func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	return c.group.Close()
}

type groupHandler struct {
	fn  HandlerFunc
	log *zap.Logger
}

func (groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h groupHandler) ConsumeClaim(s sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.fn(msg); err != nil {
			h.log.Warn("message handler failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
		s.MarkMessage(msg, "")
	}
	return nil
}
