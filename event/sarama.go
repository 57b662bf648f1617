package event

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
)

var producedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "online_judge",
	Subsystem: "compiler_gateway",
	Name:      "events_produced_total",
	Help:      "Total number of events handed to kafka.",
}, []string{"topic", "result"})

func init() {
	prometheus.MustRegister(producedTotal)
}

type SaramaProducer struct {
	producer sarama.SyncProducer
}

func NewSaramaProducer(producer sarama.SyncProducer) Producer {
	return &SaramaProducer{producer: producer}
}

func (s *SaramaProducer) Produce(ctx context.Context, msg *sarama.ProducerMessage) (int32, int64, error) {
	if err := ctx.Err(); err != nil {
		producedTotal.WithLabelValues(msg.Topic, "cancelled").Inc()
		return 0, 0, err
	}
	partition, offset, err := s.producer.SendMessage(msg)
	result := "ok"
	if err != nil {
		result = "error"
	}
	producedTotal.WithLabelValues(msg.Topic, result).Inc()
	return partition, offset, err
}
