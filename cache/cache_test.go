package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/pkg404/cachex/lru"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func sample() *model.CompilationResult {
	return &model.CompilationResult{
		Stdout: []model.OutputLine{},
		Stderr: []model.OutputLine{},
		Asm:    model.Lines("main:", "\tret"),
	}
}

func newLRU(t *testing.T) *LRU {
	t.Helper()
	c, err := lru.NewSimpleLRU(8)
	require.NoError(t, err)
	return NewLRU(c)
}

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, time.Minute, loggerv2.GetGlobalLogger()), mr
}

func TestKeyDependsOnEveryInput(t *testing.T) {
	base := Key("c++", "g13", "r1", "int x;", []string{"-O2"}, nil, model.NewFilters("intel"))
	assert.Equal(t, base, Key("c++", "g13", "r1", "int x;", []string{"-O2"}, nil, model.Filters{"intel": true, "binary": false}))
	assert.NotEqual(t, base, Key("c++", "g12", "r1", "int x;", []string{"-O2"}, nil, model.NewFilters("intel")))
	assert.NotEqual(t, base, Key("c++", "g13", "r1", "int y;", []string{"-O2"}, nil, model.NewFilters("intel")))
	assert.NotEqual(t, base, Key("c++", "g13", "r1", "int x;", []string{"-O3"}, nil, model.NewFilters("intel")))
	assert.NotEqual(t, base, Key("c++", "g13", "r1", "int x;", []string{"-O2"}, []byte(`{"ast":true}`), model.NewFilters("intel")))
	assert.NotEqual(t, base, Key("c++", "g13", "r1", "int x;", []string{"-O2"}, nil, model.NewFilters()))
	assert.NotEqual(t, base, Key("c", "g13", "r1", "int x;", []string{"-O2"}, nil, model.NewFilters("intel")))
	assert.NotEqual(t, base, Key("c++", "g13", "r2", "int x;", []string{"-O2"}, nil, model.NewFilters("intel")))
}

func TestLRU(t *testing.T) {
	c := newLRU(t)
	ctx := context.Background()
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", sample())
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sample(), got)
}

func TestRedis(t *testing.T) {
	c, mr := newRedis(t)
	ctx := context.Background()
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", sample())
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sample(), got)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCorruptEntry(t *testing.T) {
	c, mr := newRedis(t)
	require.NoError(t, mr.Set(redisKey+"k", "{not json"))
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestTieredBackfills(t *testing.T) {
	fast := newLRU(t)
	slow, _ := newRedis(t)
	ctx := context.Background()
	slow.Set(ctx, "k", sample())

	tiered := NewTiered(fast, slow)
	got, ok := tiered.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sample(), got)

	got, ok = fast.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sample(), got)
}

func TestTieredSetWritesAll(t *testing.T) {
	fast := newLRU(t)
	slow, _ := newRedis(t)
	ctx := context.Background()
	NewTiered(fast, slow, Nop{}).Set(ctx, "k", sample())

	_, ok := fast.Get(ctx, "k")
	assert.True(t, ok)
	_, ok = slow.Get(ctx, "k")
	assert.True(t, ok)
}
