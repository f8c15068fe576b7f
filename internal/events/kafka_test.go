package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func publishFailures(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "trading_post_event_publish_failures_total" {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestKafkaPublisher_DoesNotWaitForBroker(t *testing.T) {
	// Nothing listens on this port
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "trading-post.events", zap.NewNop())
	require.True(t, p.writer.Async)

	started := time.Now()
	err := p.Publish(context.Background(), Event{Type: TypeStockUpdate, Action: ActionTransactionCreated})
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)
}

func TestKafkaPublisher_CountsFailedDeliveries(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "trading-post.events", zap.NewNop())
	before := publishFailures(t)

	p.completed([]kafka.Message{{Key: []byte("a")}, {Key: []byte("b")}}, errors.New("broker down"))
	p.completed([]kafka.Message{{Key: []byte("c")}}, nil)

	assert.Equal(t, before+2, publishFailures(t))
}
