// Package cleaner periodically removes stale compiler scratch directories.
package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/to404hanga/online_judge_compiler/compiler"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// Busy reports whether compilations are running.
type Busy interface {
	IsBusy() bool
}

type Cleaner struct {
	log      loggerv2.Logger
	busy     Busy
	dir      string
	interval time.Duration
	maxAge   time.Duration

	mu      sync.Mutex
	started bool
	ticker  *time.Ticker
	done    chan struct{}
}

func New(log loggerv2.Logger, busy Busy, dir string, interval, maxAge time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	return &Cleaner{
		log:      log,
		busy:     busy,
		dir:      dir,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Start launches the periodic sweep. Calls after the first are no-ops and
// report false.
func (c *Cleaner) Start(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return false
	}
	c.started = true
	c.ticker = time.NewTicker(c.interval)
	c.done = make(chan struct{})
	go c.loop(ctx, c.ticker, c.done)
	c.log.InfoContext(ctx, "Temp dir cleaner started", logger.String("dir", c.dir))
	return true
}

func (c *Cleaner) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil {
		c.ticker.Stop()
		close(c.done)
		c.ticker = nil
	}
}

func (c *Cleaner) loop(ctx context.Context, t *time.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case now := <-t.C:
			c.Sweep(ctx, now)
		}
	}
}

// Sweep removes scratch directories older than maxAge at now. Nothing is
// removed while compilations are running.
func (c *Cleaner) Sweep(ctx context.Context, now time.Time) int {
	if c.busy.IsBusy() {
		c.log.DebugContext(ctx, "Compilations in progress, skipping temp dir sweep")
		return 0
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.log.WarnContext(ctx, "failed to list temp dir", logger.String("dir", c.dir), logger.Error(err))
		return 0
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), compiler.ScratchPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < c.maxAge {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		if err = os.RemoveAll(path); err != nil {
			c.log.WarnContext(ctx, "failed to remove stale temp dir", logger.String("path", path), logger.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		c.log.InfoContext(ctx, "Removed stale temp dirs", logger.Any("count", removed))
	}
	return removed
}
