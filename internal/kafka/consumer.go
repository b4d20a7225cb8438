package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Consumer struct {
	reader *kafka.Reader
	log    *logrus.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *logrus.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume feeds decoded payment events to handler until ctx is done. A message
// is committed only after handler succeeds; undecodable messages are logged
// and committed so they do not block the partition.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, PaymentEvent) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var event PaymentEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.WithError(err).WithField("offset", msg.Offset).Warn("skipping undecodable event")
		} else if err := handler(ctx, event); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}
