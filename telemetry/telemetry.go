// Package telemetry reports unexpected failures to an external collector.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// Sink receives captured failures. Capture must not fail the caller.
type Sink interface {
	Capture(ctx context.Context, err error, fields map[string]string)
}

// Event is the wire form of a captured failure.
type Event struct {
	Time    time.Time         `json:"time"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Stack   string            `json:"stack,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Describe returns err with its stack trace when one was recorded, and its
// plain message otherwise.
func Describe(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		return fmt.Sprintf("%+v", err)
	}
	return err.Error()
}

func NewEvent(err error, fields map[string]string) Event {
	ev := Event{
		Time:    time.Now(),
		Kind:    errs.KindOf(err).String(),
		Message: err.Error(),
		Context: fields,
	}
	var st stackTracer
	if errors.As(err, &st) {
		ev.Stack = fmt.Sprintf("%+v", st.StackTrace())
	}
	return ev
}

type LogSink struct {
	log loggerv2.Logger
}

func NewLogSink(log loggerv2.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Capture(ctx context.Context, err error, fields map[string]string) {
	s.log.ErrorContext(ctx, "Captured exception", logger.Error(err), logger.Any("context", fields))
}
