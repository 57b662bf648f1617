package service

import (
	"context"
	"os"
	"sync"

	"github.com/IBM/sarama"
	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/online_judge_compiler/source"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type Rebuilder interface {
	Rebuild(ctx context.Context, configs []model.CompilerConfig) ([]model.CompilerInfo, error)
}

// ReloadService rebuilds the registry from the configured source. Every
// trigger performs a full rebuild.
type ReloadService struct {
	log loggerv2.Logger
	src source.Source
	reg Rebuilder

	// 串行执行并发触发的重载
	mu sync.Mutex
}

func NewReloadService(log loggerv2.Logger, src source.Source, reg Rebuilder) *ReloadService {
	return &ReloadService{log: log, src: src, reg: reg}
}

func (s *ReloadService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configs, err := s.src.Load(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "load compiler configs failed", logger.Error(err))
		return err
	}
	infos, err := s.reg.Rebuild(ctx, configs)
	if err != nil {
		s.log.ErrorContext(ctx, "rebuild registry failed, keeping previous compilers", logger.Error(err))
		return err
	}
	s.log.InfoContext(ctx, "compilers reloaded",
		logger.Any("configured", len(configs)),
		logger.Any("available", len(infos)),
	)
	return nil
}

// HandleMessage reloads on any message from the reload topic.
func (s *ReloadService) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	s.log.InfoContext(ctx, "reload requested", logger.String("topic", msg.Topic), logger.String("key", string(msg.Key)))
	return s.Reload(ctx)
}

// WatchSignals reloads each time a signal arrives on sig, until ctx is done.
func (s *ReloadService) WatchSignals(ctx context.Context, sig <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case got := <-sig:
			s.log.InfoContext(ctx, "reload requested", logger.String("signal", got.String()))
			_ = s.Reload(ctx)
		}
	}
}
