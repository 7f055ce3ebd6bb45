package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/adetumilara/stellar-insights/internal/domain"
	"github.com/adetumilara/stellar-insights/internal/logging"
	"github.com/adetumilara/stellar-insights/internal/metrics"
)

// corridorPublishInterval is both the tick period and the minimum gap
// between two updates for the same corridor key.
const corridorPublishInterval = 30 * time.Second

// Broadcaster periodically pushes corridor metrics to subscribed
// connections and relays anchor status and payment events as they happen.
// It holds a per-corridor ledger of last publish times so a corridor that
// appears in every tick is still published at most once per interval.
type Broadcaster struct {
	registry *Registry
	store    domain.CorridorStore
	clock    clockwork.Clock
	interval time.Duration

	lastSent sync.Map // corridor key -> time.Time of the last publish
}

func NewBroadcaster(registry *Registry, store domain.CorridorStore, clock clockwork.Clock) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		store:    store,
		clock:    clock,
		interval: corridorPublishInterval,
	}
}

// Run ticks until ctx is cancelled. Each tick reads the current day's
// corridor metrics and publishes the ones whose rate-limit window has
// passed. A failed read skips the tick; the loop never stops on errors.
func (b *Broadcaster) Run(ctx context.Context) {
	slog.Info("Realtime broadcaster started", "interval", b.interval.String())

	ticker := b.clock.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Realtime broadcaster stopped")
			return
		case <-ticker.Chan():
			b.publishCorridorUpdates(ctx)
		}
	}
}

func (b *Broadcaster) publishCorridorUpdates(ctx context.Context) {
	start := b.clock.Now()

	// metric rows are keyed by UTC calendar date, whatever the process zone
	corridors, err := b.store.ListCorridorMetricsForDate(ctx, start.UTC())
	if err != nil {
		metrics.BroadcasterStorageErrors.Inc()
		logging.WithError(err).Error("Failed to fetch corridor metrics, skipping tick")
		return
	}

	published := 0
	suppressed := 0
	for _, corridor := range corridors {
		if !b.shouldPublish(corridor.CorridorKey) {
			suppressed++
			continue
		}

		b.fanOut(domain.CorridorChannel(corridor.CorridorKey), domain.NewCorridorUpdate(corridor), "corridor_update")
		logging.WithCorridor(corridor.CorridorKey).Debug("Corridor update published")

		// the window only advances on an actual publish, so a suppressed
		// corridor stays due relative to its last real send
		b.lastSent.Store(corridor.CorridorKey, b.clock.Now())
		published++
	}

	if suppressed > 0 {
		metrics.BroadcasterEventsSuppressed.Add(float64(suppressed))
	}
	metrics.BroadcasterTickDuration.Observe(b.clock.Since(start).Seconds())

	slog.Debug("Corridor publish tick complete",
		"corridors", len(corridors),
		"published", published,
		"suppressed", suppressed)
}

// PublishAnchorStatus relays an anchor reliability change to every
// connection holding any anchor subscription, plus the firehose.
func (b *Broadcaster) PublishAnchorStatus(anchor domain.AnchorMetrics) {
	b.fanOut(domain.AnchorChannelPrefix, domain.NewAnchorUpdate(anchor), "anchor_update")
}

// PublishPayment relays a newly ingested payment to payments subscribers.
func (b *Broadcaster) PublishPayment(payment domain.PaymentRecord) {
	b.fanOut(domain.PaymentsChannel, domain.NewPaymentEnvelope(payment), "new_payment")
}

// PublishHealthAlert relays a corridor health alert on that corridor's
// channel.
func (b *Broadcaster) PublishHealthAlert(corridorID, severity, message string) {
	b.fanOut(domain.CorridorChannel(corridorID), domain.NewHealthAlert(corridorID, severity, message), "health_alert")
}

func (b *Broadcaster) shouldPublish(corridorKey string) bool {
	v, ok := b.lastSent.Load(corridorKey)
	if !ok {
		return true
	}
	return b.clock.Since(v.(time.Time)) >= b.interval
}

// fanOut serializes the envelope once and offers the bytes to every
// connection whose subscriptions match route. Delivery is per-connection
// best-effort: a full queue drops the event for that connection only.
func (b *Broadcaster) fanOut(route string, envelope any, eventType string) {
	data, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal event envelope",
			"event_type", eventType,
			"error", err)
		return
	}

	b.registry.countSent()

	b.registry.Range(func(id uuid.UUID, client *Client) bool {
		if !Matches(client.Subscriptions(), route) {
			return true
		}
		if !client.TrySend(data) {
			b.registry.countDeliveryError()
			metrics.BroadcasterDeliveryDrops.Inc()
			slog.Warn("Dropping event, connection queue full",
				"connection_id", id.String(),
				"event_type", eventType)
		}
		return true
	})

	metrics.BroadcasterEventsPublished.WithLabelValues(eventType).Inc()
}
