package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/adetumilara/stellar-insights/internal/domain"
	"github.com/adetumilara/stellar-insights/internal/metrics"
)

const (
	// outboundQueueSize bounds each connection's private delivery queue.
	outboundQueueSize = 32
	// broadcastQueueSize bounds each connection's receiver for the shared
	// broadcast feed. A receiver that falls this far behind misses messages.
	broadcastQueueSize = 100
)

// Client is the registry's handle for one connection: its private outbound
// queue, its receiver for the shared broadcast feed, and its subscription
// set. All three are created together at register time and destroyed
// together at remove time, so a registered id always carries all of them.
type Client struct {
	id        uuid.UUID
	outbound  chan []byte
	broadcast chan []byte

	mu            sync.RWMutex
	subscriptions []string
}

// TrySend offers a serialized frame to the client's private queue without
// blocking. It reports false when the queue is full and the frame was
// dropped for this client.
func (c *Client) TrySend(data []byte) bool {
	select {
	case c.outbound <- data:
		return true
	default:
		return false
	}
}

// Subscriptions returns a copy of the client's current subscription set.
func (c *Client) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	subs := make([]string, len(c.subscriptions))
	copy(subs, c.subscriptions)
	return subs
}

// Outbound is the receive side of the private queue, consumed by the
// connection's write loop.
func (c *Client) Outbound() <-chan []byte { return c.outbound }

// BroadcastFeed is the receive side of this client's view of the shared
// broadcast channel.
func (c *Client) BroadcastFeed() <-chan []byte { return c.broadcast }

// Registry is the concurrent connection table. Entries are keyed by
// connection id; independent connections never contend on a shared lock.
type Registry struct {
	clock     clockwork.Clock
	startTime time.Time

	clients sync.Map // uuid.UUID -> *Client

	totalConnections  atomic.Uint64
	activeConnections atomic.Uint64
	messagesSent      atomic.Uint64
	messagesReceived  atomic.Uint64
	connectionErrors  atomic.Uint64
}

func NewRegistry(clock clockwork.Clock) *Registry {
	return &Registry{
		clock:     clock,
		startTime: clock.Now(),
	}
}

// Register creates the delivery handle for a new connection and inserts it.
// Ids are generated at upgrade time; collisions are not defended against.
func (r *Registry) Register(id uuid.UUID) *Client {
	client := &Client{
		id:            id,
		outbound:      make(chan []byte, outboundQueueSize),
		broadcast:     make(chan []byte, broadcastQueueSize),
		subscriptions: []string{},
	}
	r.clients.Store(id, client)
	r.totalConnections.Add(1)
	r.activeConnections.Add(1)
	metrics.WebSocketConnectionsCurrent.Inc()
	return client
}

// Remove deletes the connection's entry. Removing an id that is already
// gone is a no-op.
func (r *Registry) Remove(id uuid.UUID) {
	if _, loaded := r.clients.LoadAndDelete(id); !loaded {
		return
	}
	r.activeConnections.Add(^uint64(0))
	metrics.WebSocketConnectionsCurrent.Dec()
}

// Lookup returns the registered client for id, if any.
func (r *Registry) Lookup(id uuid.UUID) (*Client, bool) {
	v, ok := r.clients.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Client), true
}

// Subscribe replaces the connection's subscription set with channels.
// This is overwrite semantics, not a merge: a second subscribe drops
// whatever the first one set.
func (r *Registry) Subscribe(id uuid.UUID, channels []string) {
	client, ok := r.Lookup(id)
	if !ok {
		return
	}
	client.mu.Lock()
	client.subscriptions = append([]string(nil), channels...)
	client.mu.Unlock()
}

// Unsubscribe removes exactly the named channels from the connection's set,
// leaving others intact. Names the connection never subscribed to are
// ignored.
func (r *Registry) Unsubscribe(id uuid.UUID, channels []string) {
	client, ok := r.Lookup(id)
	if !ok {
		return
	}

	remove := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		remove[ch] = struct{}{}
	}

	client.mu.Lock()
	kept := make([]string, 0, len(client.subscriptions))
	for _, ch := range client.subscriptions {
		if _, drop := remove[ch]; !drop {
			kept = append(kept, ch)
		}
	}
	client.subscriptions = kept
	client.mu.Unlock()
}

// Broadcast serializes the envelope once and offers it to every connection's
// broadcast receiver. Delivery is best-effort: a receiver whose buffer is
// full misses this message, which is accepted data loss rather than an
// error. Broadcasting with no connections registered succeeds trivially.
func (r *Registry) Broadcast(envelope any) {
	data, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal broadcast envelope", "error", err)
		return
	}

	r.messagesSent.Add(1)
	r.clients.Range(func(_, value any) bool {
		client := value.(*Client)
		select {
		case client.broadcast <- data:
		default:
			// receiver lagging; the message is lost for this client only
		}
		return true
	})
}

// Range visits every registered connection.
func (r *Registry) Range(fn func(id uuid.UUID, client *Client) bool) {
	r.clients.Range(func(key, value any) bool {
		return fn(key.(uuid.UUID), value.(*Client))
	})
}

// Snapshot returns a point-in-time view of the registry counters. Reads are
// relaxed atomics; the fields are not mutually consistent.
func (r *Registry) Snapshot() domain.MetricsSnapshot {
	return domain.MetricsSnapshot{
		TotalConnections:  r.totalConnections.Load(),
		ActiveConnections: r.activeConnections.Load(),
		MessagesSent:      r.messagesSent.Load(),
		MessagesReceived:  r.messagesReceived.Load(),
		ConnectionErrors:  r.connectionErrors.Load(),
		UptimeSeconds:     uint64(r.clock.Since(r.startTime).Seconds()),
	}
}

// ActiveConnections returns the number of currently registered connections.
func (r *Registry) ActiveConnections() uint64 {
	return r.activeConnections.Load()
}

func (r *Registry) countSent() {
	r.messagesSent.Add(1)
}

func (r *Registry) countReceived() {
	r.messagesReceived.Add(1)
	metrics.WebSocketMessagesReceived.Inc()
}

func (r *Registry) countDeliveryError() {
	r.connectionErrors.Add(1)
}
