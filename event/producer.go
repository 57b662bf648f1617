package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

type Producer interface {
	Produce(ctx context.Context, msg *sarama.ProducerMessage) (int32, int64, error)
}

// NewJSONMessage encodes v as the value of a message on topic.
func NewJSONMessage(topic, key string, v any) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	return msg, nil
}
