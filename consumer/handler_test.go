package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	marked []int64
}

func (s *fakeSession) Context() context.Context { return context.Background() }

func (s *fakeSession) Claims() map[string][]int32 { return map[string][]int32{"reload": {0}} }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	ch chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.ch }

func TestGroupHandlerMarksEveryMessage(t *testing.T) {
	var seen []string
	h := NewGroupHandler(func(_ context.Context, msg *sarama.ConsumerMessage) error {
		seen = append(seen, string(msg.Value))
		switch string(msg.Value) {
		case "bad":
			return errors.New("bad message")
		case "panic":
			panic("boom")
		}
		return nil
	}, loggerv2.GetGlobalLogger())

	claim := &fakeClaim{ch: make(chan *sarama.ConsumerMessage, 3)}
	claim.ch <- &sarama.ConsumerMessage{Topic: "reload", Offset: 1, Value: []byte("ok")}
	claim.ch <- &sarama.ConsumerMessage{Topic: "reload", Offset: 2, Value: []byte("bad")}
	claim.ch <- &sarama.ConsumerMessage{Topic: "reload", Offset: 3, Value: []byte("panic")}
	close(claim.ch)

	session := &fakeSession{}
	require.NoError(t, h.Setup(session))
	require.NoError(t, h.ConsumeClaim(session, claim))
	require.NoError(t, h.Cleanup(session))

	assert.Equal(t, []string{"ok", "bad", "panic"}, seen)
	assert.Equal(t, []int64{1, 2, 3}, session.marked)
}
