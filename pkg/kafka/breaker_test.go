package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishFunc func(ctx context.Context, topic string, e *Event) error

func (f publishFunc) Publish(ctx context.Context, topic string, e *Event) error {
	return f(ctx, topic, e)
}

func TestBreakerPublisher_TripsAfterFailures(t *testing.T) {
	calls := 0
	failing := publishFunc(func(context.Context, string, *Event) error {
		calls++
		return errors.New("broker down")
	})

	cfg := DefaultBreakerConfig("kafka-trip-test")
	cfg.MinRequests = 3
	b := NewBreakerPublisher(failing, cfg, discard())

	for i := 0; i < 3; i++ {
		assert.Error(t, b.Publish(context.Background(), "t", &Event{}))
	}
	require.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(circuitBreakerState.WithLabelValues("kafka-trip-test")))

	err := b.Publish(context.Background(), "t", &Event{})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 3, calls)
}

func TestBreakerPublisher_RecoversAfterTimeout(t *testing.T) {
	fail := true
	next := publishFunc(func(context.Context, string, *Event) error {
		if fail {
			return errors.New("broker down")
		}
		return nil
	})

	cfg := DefaultBreakerConfig("kafka-recover-test")
	cfg.MinRequests = 1
	cfg.Timeout = 10 * time.Millisecond
	b := NewBreakerPublisher(next, cfg, discard())

	assert.Error(t, b.Publish(context.Background(), "t", &Event{}))
	require.Equal(t, gobreaker.StateOpen, b.State())

	fail = false
	assert.Eventually(t, func() bool { return b.State() == gobreaker.StateHalfOpen }, time.Second, 5*time.Millisecond)
	require.NoError(t, b.Publish(context.Background(), "t", &Event{}))
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerPublisher_PassesThroughSuccess(t *testing.T) {
	var gotTopic string
	b := NewBreakerPublisher(publishFunc(func(_ context.Context, topic string, _ *Event) error {
		gotTopic = topic
		return nil
	}), DefaultBreakerConfig("kafka-ok-test"), discard())

	require.NoError(t, b.Publish(context.Background(), "nutricionista.user.updated", &Event{}))
	assert.Equal(t, "nutricionista.user.updated", gotTopic)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
