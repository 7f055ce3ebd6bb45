package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/adetumilara/stellar-insights/internal/domain"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// dialSession spins up a server that runs the full protocol loop for each
// incoming connection and returns a dialed client side.
func dialSession(t *testing.T, registry *Registry, clock clockwork.Clock) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewSession(registry, conn, clock).Run()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWireFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return data
}

func writeWireFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func soleClientSubscriptions(registry *Registry) []string {
	var subs []string
	registry.Range(func(_ uuid.UUID, c *Client) bool {
		subs = c.Subscriptions()
		return false
	})
	return subs
}

func TestSessionSendsConnectedAck(t *testing.T) {
	registry := NewRegistry(clockwork.NewFakeClock())
	conn := dialSession(t, registry, clockwork.NewFakeClock())

	var ack domain.Connected
	require.NoError(t, json.Unmarshal(readWireFrame(t, conn), &ack))
	assert.Equal(t, domain.TypeConnected, ack.Type)

	_, err := uuid.Parse(ack.ConnectionID)
	assert.NoError(t, err, "ack must carry the assigned connection id")
}

func TestPingPongRoundTrip(t *testing.T) {
	registry := NewRegistry(clockwork.NewFakeClock())
	conn := dialSession(t, registry, clockwork.NewFakeClock())
	readWireFrame(t, conn) // connected ack

	writeWireFrame(t, conn, `{"type":"ping","timestamp":42}`)

	var pong domain.Pong
	require.NoError(t, json.Unmarshal(readWireFrame(t, conn), &pong))
	assert.Equal(t, domain.TypePong, pong.Type)
	assert.Equal(t, int64(42), pong.Timestamp, "pong echoes the client timestamp")

	require.Eventually(t, func() bool {
		return registry.Snapshot().MessagesReceived == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	registry := NewRegistry(clockwork.NewFakeClock())
	conn := dialSession(t, registry, clockwork.NewFakeClock())
	readWireFrame(t, conn)

	writeWireFrame(t, conn, "not json at all")
	writeWireFrame(t, conn, `{"notype":true}`)
	writeWireFrame(t, conn, `{"type":"ping","timestamp":7}`)

	var pong domain.Pong
	require.NoError(t, json.Unmarshal(readWireFrame(t, conn), &pong))
	assert.Equal(t, int64(7), pong.Timestamp)

	// malformed frames still count as received traffic
	require.Eventually(t, func() bool {
		return registry.Snapshot().MessagesReceived == 3
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeAndUnsubscribeFlow(t *testing.T) {
	registry := NewRegistry(clockwork.NewFakeClock())
	conn := dialSession(t, registry, clockwork.NewFakeClock())
	readWireFrame(t, conn)

	writeWireFrame(t, conn, `{"type":"subscribe","channels":["payments","corridor:USDC-XLM"]}`)
	require.Eventually(t, func() bool {
		subs := soleClientSubscriptions(registry)
		return len(subs) == 2 && subs[0] == "payments"
	}, time.Second, 10*time.Millisecond)

	writeWireFrame(t, conn, `{"type":"subscribe","channels":["anchor:circle"]}`)
	require.Eventually(t, func() bool {
		subs := soleClientSubscriptions(registry)
		return len(subs) == 1 && subs[0] == "anchor:circle"
	}, time.Second, 10*time.Millisecond, "a second subscribe replaces the set")

	writeWireFrame(t, conn, `{"type":"unsubscribe","channels":["anchor:circle"]}`)
	require.Eventually(t, func() bool {
		return len(soleClientSubscriptions(registry)) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeWithoutChannelsDoesNotTouchSet(t *testing.T) {
	registry := NewRegistry(clockwork.NewFakeClock())
	conn := dialSession(t, registry, clockwork.NewFakeClock())
	readWireFrame(t, conn)

	writeWireFrame(t, conn, `{"type":"subscribe","channels":["corridor:USDC-XLM"]}`)
	require.Eventually(t, func() bool {
		return len(soleClientSubscriptions(registry)) == 1
	}, time.Second, 10*time.Millisecond)

	// a subscribe with the channels key absent is malformed and must not
	// wipe the set down to the firehose
	writeWireFrame(t, conn, `{"type":"subscribe"}`)
	writeWireFrame(t, conn, `{"type":"unsubscribe"}`)

	writeWireFrame(t, conn, `{"type":"ping","timestamp":11}`)
	var pong domain.Pong
	require.NoError(t, json.Unmarshal(readWireFrame(t, conn), &pong))
	assert.Equal(t, int64(11), pong.Timestamp)

	assert.Equal(t, []string{"corridor:USDC-XLM"}, soleClientSubscriptions(registry))
}

func TestHeartbeatPingAfterInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	registry := NewRegistry(clock)
	conn := dialSession(t, registry, clock)
	readWireFrame(t, conn)

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(heartbeatInterval)

	var ping domain.Ping
	require.NoError(t, json.Unmarshal(readWireFrame(t, conn), &ping))
	assert.Equal(t, domain.TypePing, ping.Type)
	assert.Equal(t, clock.Now().Unix(), ping.Timestamp)
}

func TestBroadcastFrameDeliveredToSession(t *testing.T) {
	registry := NewRegistry(clockwork.NewFakeClock())
	conn := dialSession(t, registry, clockwork.NewFakeClock())
	readWireFrame(t, conn)

	require.Eventually(t, func() bool {
		return registry.ActiveConnections() == 1
	}, time.Second, 10*time.Millisecond)

	registry.Broadcast(domain.NewConnectionStatus("healthy"))

	var msg domain.ConnectionStatus
	require.NoError(t, json.Unmarshal(readWireFrame(t, conn), &msg))
	assert.Equal(t, domain.TypeConnectionStatus, msg.Type)
	assert.Equal(t, "healthy", msg.Status)
}

func TestTeardownRemovesConnection(t *testing.T) {
	// the test server's accept loop lives until cleanup; only session
	// goroutines should remain beyond it
	opts := []goleak.Option{
		goleak.IgnoreCurrent(),
		goleak.IgnoreAnyFunction("net/http.(*Server).Serve"),
	}

	registry := NewRegistry(clockwork.NewFakeClock())
	conn := dialSession(t, registry, clockwork.NewFakeClock())
	readWireFrame(t, conn)

	require.Eventually(t, func() bool {
		return registry.ActiveConnections() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return registry.ActiveConnections() == 0
	}, time.Second, 10*time.Millisecond)

	snap := registry.Snapshot()
	assert.Equal(t, uint64(1), snap.TotalConnections)

	require.Eventually(t, func() bool {
		return goleak.Find(opts...) == nil
	}, 2*time.Second, 25*time.Millisecond, "session goroutines must exit after teardown")
}
