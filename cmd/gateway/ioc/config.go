package ioc

import (
	"log"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_compiler/config"
	dockerconfig "github.com/to404hanga/online_judge_compiler/executor/config"
)

func InitGatewayConfig() config.GatewayConfig {
	cfg := config.GatewayConfig{
		Addr:           ":10240",
		MetricsAddr:    ":2112",
		CompilerSource: config.CompilerSourceFile,
	}
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal gateway config failed, err: %v", err)
	}
	return cfg
}

func InitEnvironmentConfig() config.EnvironmentConfig {
	var cfg config.EnvironmentConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal environment config failed, err: %v", err)
	}
	return cfg
}

func InitDockerConfig() dockerconfig.DockerConfig {
	var cfg dockerconfig.DockerConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal docker config failed, err: %v", err)
	}
	return cfg
}
