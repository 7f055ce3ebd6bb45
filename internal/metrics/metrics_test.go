package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	// Verify all metrics are registered without conflicts.
	metrics := []prometheus.Collector{
		WebSocketConnectionsCurrent,
		WebSocketConnectionsTotal,
		WebSocketMessagesSent,
		WebSocketMessagesReceived,
		WebSocketMalformedFrames,
		WebSocketMessageSendDuration,

		BroadcasterTickDuration,
		BroadcasterEventsPublished,
		BroadcasterEventsSuppressed,
		BroadcasterDeliveryDrops,
		BroadcasterStorageErrors,

		DBQueryDuration,
		DBErrorsTotal,

		BuildInfo,
	}

	for _, metric := range metrics {
		desc := make(chan *prometheus.Desc, 1)
		metric.Describe(desc)
		close(desc)
		require.NotNil(t, <-desc, "metric should have a valid descriptor")
	}
}

func TestCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(BroadcasterDeliveryDrops)
	BroadcasterDeliveryDrops.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(BroadcasterDeliveryDrops))

	beforeVec := testutil.ToFloat64(BroadcasterEventsPublished.WithLabelValues("corridor_update"))
	BroadcasterEventsPublished.WithLabelValues("corridor_update").Inc()
	assert.Equal(t, beforeVec+1, testutil.ToFloat64(BroadcasterEventsPublished.WithLabelValues("corridor_update")))
}

func TestGaugeSetAndRead(t *testing.T) {
	WebSocketConnectionsCurrent.Set(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(WebSocketConnectionsCurrent))
	WebSocketConnectionsCurrent.Set(0)
}
