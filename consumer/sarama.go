package consumer

import (
	"context"
	"errors"
	"strings"

	"github.com/IBM/sarama"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type SaramaConsumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler sarama.ConsumerGroupHandler
	log     loggerv2.Logger
}

func NewSaramaConsumer(group sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, log loggerv2.Logger, topics ...string) Consumer {
	return &SaramaConsumer{
		group:   group,
		topics:  topics,
		handler: handler,
		log:     log,
	}
}

// Start consumes until ctx is cancelled or the group is closed. A
// cancelled ctx is a clean stop.
func (c *SaramaConsumer) Start(ctx context.Context) error {
	c.log.InfoContext(ctx, "Consumer starting", logger.String("topics", strings.Join(c.topics, ",")))
	for {
		if err := c.group.Consume(ctx, c.topics, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return err
			}
			c.log.ErrorContext(ctx, "Error from consumer", logger.Error(err))
		}
		if ctx.Err() != nil {
			c.log.InfoContext(ctx, "Consumer stopped", logger.String("topics", strings.Join(c.topics, ",")))
			return nil
		}
	}
}
