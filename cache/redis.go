package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const redisKey = "compile:result:"

type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
	log loggerv2.Logger
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration, log loggerv2.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, log: log}
}

func (c *Redis) Get(ctx context.Context, key string) (*model.CompilationResult, bool) {
	data, err := c.rdb.Get(ctx, redisKey+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "failed to read cached result", logger.Error(err))
		}
		return nil, false
	}
	var res model.CompilationResult
	if err = json.Unmarshal(data, &res); err != nil {
		c.log.WarnContext(ctx, "failed to decode cached result", logger.Error(err))
		return nil, false
	}
	return &res, true
}

func (c *Redis) Set(ctx context.Context, key string, result *model.CompilationResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.log.WarnContext(ctx, "failed to encode result for cache", logger.Error(err))
		return
	}
	if err = c.rdb.Set(ctx, redisKey+key, data, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "failed to cache result", logger.Error(err))
	}
}
