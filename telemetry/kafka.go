package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/to404hanga/online_judge_compiler/event"
	"github.com/to404hanga/pkg404/gotools/retry"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"golang.org/x/sync/semaphore"
)

// maxPending bounds the events being published at once. Captures beyond it
// are logged and dropped.
const maxPending = 64

// KafkaSink publishes captured failures as JSON events to a topic. Capture
// never waits for the broker.
type KafkaSink struct {
	producer event.Producer
	topic    string
	log      loggerv2.Logger

	pending *semaphore.Weighted
	wg      sync.WaitGroup
}

func NewKafkaSink(producer event.Producer, topic string, log loggerv2.Logger) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		topic:    topic,
		log:      log,
		pending:  semaphore.NewWeighted(maxPending),
	}
}

func (s *KafkaSink) Capture(ctx context.Context, err error, fields map[string]string) {
	// 请求已结束时仍需上报
	ctx = context.WithoutCancel(ctx)
	msg, merr := event.NewJSONMessage(s.topic, fields["compiler"], NewEvent(err, fields))
	if merr != nil {
		s.log.ErrorContext(ctx, "failed to build telemetry event", logger.Error(merr))
		return
	}
	if !s.pending.TryAcquire(1) {
		s.log.WarnContext(ctx, "telemetry backlog full, dropping event", logger.Error(err))
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.pending.Release(1)
		perr := retry.Do(ctx, func() error {
			_, _, err := s.producer.Produce(ctx, msg)
			return err
		}, retry.WithBaseInterval(100*time.Millisecond))
		if perr != nil {
			s.log.ErrorContext(ctx, "failed to publish telemetry event", logger.Error(perr), logger.Error(err))
		}
	}()
}

// Close waits for pending events until ctx is done.
func (s *KafkaSink) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
