package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/to404hanga/online_judge_compiler/cleaner"
	"github.com/to404hanga/online_judge_compiler/consumer"
	"github.com/to404hanga/online_judge_compiler/source"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// Closer releases a backend when the gateway stops.
type Closer interface {
	Close(ctx context.Context) error
}

type App struct {
	log     loggerv2.Logger
	server  *http.Server
	reload  *ReloadService
	src     source.Source
	cleaner *cleaner.Cleaner

	// reloader 为 nil 表示未开启 kafka
	reloader consumer.Consumer
	closers  []Closer
}

func NewApp(log loggerv2.Logger, server *http.Server, reload *ReloadService, src source.Source, c *cleaner.Cleaner, reloader consumer.Consumer, closers []Closer) *App {
	return &App{
		log:      log,
		server:   server,
		reload:   reload,
		src:      src,
		cleaner:  c,
		reloader: reloader,
		closers:  closers,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	// 首次加载失败时以空注册表启动, 等待下次重载
	_ = a.reload.Reload(ctx)

	if w, ok := a.src.(interface{ Watch(func()) }); ok {
		w.Watch(func() {
			_ = a.reload.Reload(ctx)
		})
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go a.reload.WatchSignals(ctx, hup)

	a.cleaner.Start(ctx)
	defer a.cleaner.Stop()

	if a.reloader != nil {
		go func() {
			if err := a.reloader.Start(ctx); err != nil {
				a.log.ErrorContext(ctx, "reload consumer stopped", logger.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.InfoContext(ctx, "gateway listening", logger.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := a.server.Shutdown(shutdownCtx); serr != nil {
		a.log.ErrorContext(shutdownCtx, "shutdown gateway failed", logger.Error(serr))
	}
	for _, c := range a.closers {
		if cerr := c.Close(shutdownCtx); cerr != nil {
			a.log.ErrorContext(shutdownCtx, "close backend failed", logger.Error(cerr))
		}
	}
	return err
}
