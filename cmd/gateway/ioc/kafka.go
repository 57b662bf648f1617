package ioc

import (
	"log"
	"os"

	"github.com/IBM/sarama"
	"github.com/to404hanga/online_judge_compiler/cmd/gateway/service"
	"github.com/to404hanga/online_judge_compiler/config"
	"github.com/to404hanga/online_judge_compiler/consumer"
	"github.com/to404hanga/online_judge_compiler/event"
	"github.com/to404hanga/online_judge_compiler/ioc"
	"github.com/to404hanga/online_judge_compiler/telemetry"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const defaultReloadGroupID = "online_judge_compiler_reload"

// Kafka holds the shared client. It is nil when kafkaEnabled is false.
type Kafka struct {
	Client   sarama.Client
	Producer event.Producer
}

func InitKafka(cfg config.GatewayConfig) *Kafka {
	if !cfg.KafkaEnabled {
		return nil
	}
	client := ioc.InitKafka()
	return &Kafka{
		Client:   client,
		Producer: event.NewSaramaProducer(ioc.InitSyncProducer(client)),
	}
}

func InitSink(l loggerv2.Logger, cfg config.GatewayConfig, k *Kafka) telemetry.Sink {
	if k == nil || cfg.TelemetryTopic == "" {
		return telemetry.NewLogSink(l)
	}
	return telemetry.NewKafkaSink(k.Producer, cfg.TelemetryTopic, l)
}

func InitReloadConsumer(l loggerv2.Logger, cfg config.GatewayConfig, k *Kafka, reload *service.ReloadService) consumer.Consumer {
	if k == nil || cfg.ReloadTopic == "" {
		return nil
	}
	groupID := cfg.ReloadGroupID
	if groupID == "" {
		// 每个实例都要收到重载消息, 默认按主机名分组
		host, err := os.Hostname()
		if err != nil {
			log.Panicf("get hostname failed, err: %v", err)
		}
		groupID = defaultReloadGroupID + "-" + host
	}
	group := ioc.InitConsumerGroup(k.Client, groupID)
	handler := consumer.NewGroupHandler(reload.HandleMessage, l)
	return consumer.NewSaramaConsumer(group, handler, l, cfg.ReloadTopic)
}
