// Package ioc holds the initializers shared by the gateway wire graph.
package ioc

import (
	"log"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_compiler/config"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// InitLogger 按 log 配置创建全局使用的 zap 日志
func InitLogger() loggerv2.Logger {
	var cfg config.LoggerConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal logger config fail, err: %v", err)
	}
	l, err := NewLogger(cfg)
	if err != nil {
		log.Panicf("init logger fail, err: %v", err)
	}
	return l
}

// NewLogger builds the zap context logger described by cfg.
func NewLogger(cfg config.LoggerConfig) (loggerv2.Logger, error) {
	return loggerv2.NewZapContextLoggerWithConfig(loggerv2.LoggerConfig{
		Output: loggerv2.OutputConfig{
			Type:           cfg.Type,
			FilePath:       cfg.LogFilePath,
			AutoCreateFile: cfg.AutoCreateFile,
		},
		Development: cfg.Development,
	})
}
