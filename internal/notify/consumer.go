package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Shopify/sarama"
	"github.com/habitloop/chat-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Consumer reads the updates topic and feeds the hub, which makes every
// service instance see updates produced by any instance.
type Consumer struct {
	group  sarama.ConsumerGroup
	hub    *Hub
	topic  string
	logger *logrus.Logger
}

func NewConsumer(group sarama.ConsumerGroup, topic string, hub *Hub, logger *logrus.Logger) *Consumer {
	return &Consumer{
		group:  group,
		hub:    hub,
		topic:  topic,
		logger: logger,
	}
}

// Run consumes until the context is cancelled. Rebalances make Consume
// return without an error, so it is called in a loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.group.Consume(ctx, []string{c.topic}, c)
		if err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		update := models.Update{}
		if err := json.Unmarshal(message.Value, &update); err != nil {
			c.logger.
				WithError(err).
				WithField("offset", message.Offset).
				Warning("skipping malformed update")
			session.MarkMessage(message, "")
			continue
		}

		c.hub.Publish(update)
		session.MarkMessage(message, "")
	}
	return nil
}
