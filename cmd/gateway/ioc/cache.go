package ioc

import (
	"log"
	"time"

	"github.com/to404hanga/online_judge_compiler/cache"
	"github.com/to404hanga/online_judge_compiler/config"
	"github.com/to404hanga/online_judge_compiler/ioc"
	"github.com/to404hanga/pkg404/cachex/lru"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const defaultCacheTTL = 10 * time.Minute

func InitCache(l loggerv2.Logger, cfg config.GatewayConfig) cache.Cache {
	var tiers []cache.Cache
	if cfg.CacheSize > 0 {
		c, err := lru.NewSimpleLRU(cfg.CacheSize)
		if err != nil {
			log.Panicf("init lru failed, err: %v", err)
		}
		tiers = append(tiers, cache.NewLRU(c))
	}
	if cfg.RedisCache {
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		tiers = append(tiers, cache.NewRedis(ioc.InitRedis(), ttl, l))
	}
	if len(tiers) == 0 {
		return cache.Nop{}
	}
	return cache.NewTiered(tiers...)
}
