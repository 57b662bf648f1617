package cache

import (
	"context"

	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/pkg404/cachex/lru"
)

type LRU struct {
	lru *lru.Cache
}

func NewLRU(c *lru.Cache) *LRU {
	return &LRU{lru: c}
}

func (c *LRU) Get(_ context.Context, key string) (*model.CompilationResult, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	res, ok := v.(*model.CompilationResult)
	return res, ok
}

func (c *LRU) Set(_ context.Context, key string, result *model.CompilationResult) {
	c.lru.Add(key, result)
}
