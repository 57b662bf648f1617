package ioc

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_compiler/config"
)

// InitRedis 连接编译结果的共享缓存, 启动时 ping 失败直接退出
func InitRedis() redis.Cmdable {
	var cfg config.RedisConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal redis config fail, err: %v", err)
	}

	cmd := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cmd.Ping(ctx).Err(); err != nil {
		log.Panicf("ping redis fail, err: %v", err)
	}
	return cmd
}
