package consumer

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

var consumedMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "online_judge",
	Subsystem: "consumer",
	Name:      "messages_total",
	Help:      "Messages consumed, by topic and handling result.",
}, []string{"topic", "result"})

func init() {
	prometheus.MustRegister(consumedMessages)
}

type MessageHandler func(ctx context.Context, msg *sarama.ConsumerMessage) error

type GroupHandler struct {
	handler MessageHandler
	log     loggerv2.Logger
}

func NewGroupHandler(handler MessageHandler, log loggerv2.Logger) sarama.ConsumerGroupHandler {
	return &GroupHandler{
		handler: handler,
		log:     log,
	}
}

func (h *GroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.log.InfoContext(session.Context(), "Consumer group session setup", logger.String("claims", fmt.Sprintf("%v", session.Claims())))
	return nil
}

func (h *GroupHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.log.InfoContext(session.Context(), "Consumer group session cleanup")
	return nil
}

func (h *GroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		result := "ok"
		if err := h.handle(session.Context(), msg); err != nil {
			result = "error"
			h.log.ErrorContext(session.Context(), "Failed to process message", logger.Error(err), logger.String("topic", msg.Topic), logger.String("partition", fmt.Sprintf("%d", msg.Partition)), logger.String("offset", fmt.Sprintf("%d", msg.Offset)))
		}
		consumedMessages.WithLabelValues(msg.Topic, result).Inc()
		// 处理失败也提交, 重载类消息下一条会覆盖
		session.MarkMessage(msg, "")
	}
	return nil
}

func (h *GroupHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.handler(ctx, msg)
}
