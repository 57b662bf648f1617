package ioc

import (
	"github.com/IBM/sarama"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_compiler/config"
)

func InitKafka() sarama.Client {
	var cfg config.KafkaConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		panic(err)
	}
	client, err := sarama.NewClient(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		panic(err)
	}
	return client
}

// NewSaramaConfig returns a client config usable by both the sync producer
// and the reload consumer group.
func NewSaramaConfig(cfg config.KafkaConfig) *sarama.Config {
	saramaCfg := sarama.NewConfig()
	if cfg.ClientID != "" {
		saramaCfg.ClientID = cfg.ClientID
	}
	// SyncProducer 要求开启
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	// 重载消息只关心启动之后的
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	return saramaCfg
}

func InitSyncProducer(client sarama.Client) sarama.SyncProducer {
	p, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		panic(err)
	}
	return p
}

func InitConsumerGroup(client sarama.Client, groupID string) sarama.ConsumerGroup {
	cg, err := sarama.NewConsumerGroupFromClient(groupID, client)
	if err != nil {
		panic(err)
	}
	return cg
}
