package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/adetumilara/stellar-insights/internal/domain"
	"github.com/adetumilara/stellar-insights/internal/logging"
	"github.com/adetumilara/stellar-insights/internal/metrics"
)

const (
	// heartbeatInterval is how often the server pings an idle connection.
	heartbeatInterval = 30 * time.Second
	// writeTimeout bounds every individual socket write.
	writeTimeout = 5 * time.Second
)

// Session drives the protocol loop for one upgraded connection: the
// connected ack, heartbeats, inbound command handling and teardown. The
// read half runs on the goroutine that calls Run, the write half on its
// own goroutine; whichever half dies first closes the socket, which
// unblocks the other.
type Session struct {
	id       uuid.UUID
	conn     *websocket.Conn
	registry *Registry
	client   *Client
	clock    clockwork.Clock
	log      *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSession assigns a connection id and registers the connection with the
// registry. The caller owns the socket until Run is called.
func NewSession(registry *Registry, conn *websocket.Conn, clock clockwork.Clock) *Session {
	id := uuid.New()
	s := &Session{
		id:       id,
		conn:     conn,
		registry: registry,
		clock:    clock,
		log:      logging.WithConnection(id.String()),
		done:     make(chan struct{}),
	}
	s.client = registry.Register(s.id)
	return s
}

// ID returns the connection id assigned at upgrade time.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Run executes the protocol loop and blocks until the connection is torn
// down. The registry entry is removed exactly once on the way out, whatever
// the exit path was.
func (s *Session) Run() {
	defer s.teardown()

	s.log.Info("WebSocket connection established")

	if err := s.writeEnvelope(domain.NewConnected(s.id.String())); err != nil {
		s.log.Warn("Failed to send connection ack", "error", err)
		return
	}

	// Transport-level pings get a transport-level pong echoing the payload,
	// independent of the application ping/pong exchange.
	s.conn.SetPingHandler(func(appData string) error {
		return s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout))
	})

	s.wg.Add(1)
	go s.writeLoop()

	s.readLoop()
}

func (s *Session) teardown() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	_ = s.conn.Close()
	s.wg.Wait()
	s.registry.Remove(s.id)

	s.log.Info("WebSocket connection closed",
		"active_connections", s.registry.ActiveConnections())
}

// writeLoop serializes all outbound traffic for this connection: heartbeats,
// the shared broadcast feed and the private queue. It owns the socket's
// write side; nothing else writes data frames after it starts.
func (s *Session) writeLoop() {
	defer s.wg.Done()
	// a dead write half must unblock the read half too
	defer s.conn.Close()

	ticker := s.clock.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if err := s.writeEnvelope(domain.NewPing(s.clock.Now().Unix())); err != nil {
				s.log.Warn("Heartbeat write failed", "error", err)
				return
			}
			metrics.WebSocketMessagesSent.WithLabelValues("heartbeat").Inc()

		case data := <-s.client.broadcast:
			if err := s.writeFrame(data); err != nil {
				s.log.Warn("Broadcast write failed", "error", err)
				return
			}
			metrics.WebSocketMessagesSent.WithLabelValues("broadcast").Inc()

		case data := <-s.client.outbound:
			if err := s.writeFrame(data); err != nil {
				s.log.Warn("Direct write failed", "error", err)
				return
			}
			metrics.WebSocketMessagesSent.WithLabelValues("direct").Inc()

		case <-s.done:
			return
		}
	}
}

// readLoop consumes inbound frames until the socket dies. Non-text frames
// are ignored; gorilla handles close frames internally and surfaces them as
// a read error.
func (s *Session) readLoop() {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("WebSocket read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		s.registry.countReceived()
		s.handleClientMessage(data)
	}
}

func (s *Session) handleClientMessage(data []byte) {
	msg, err := domain.ParseClientMessage(data)
	if err != nil {
		// best-effort parsing: malformed frames are dropped without a reply
		metrics.WebSocketMalformedFrames.Inc()
		s.log.Debug("Dropping malformed client frame", "error", err)
		return
	}

	switch msg.Type {
	case domain.TypePing:
		pong, err := json.Marshal(domain.NewPong(msg.Timestamp))
		if err != nil {
			return
		}
		if !s.client.TrySend(pong) {
			s.registry.countDeliveryError()
			metrics.BroadcasterDeliveryDrops.Inc()
			s.log.Warn("Dropping pong reply, outbound queue full")
		}

	case domain.TypePong:
		// heartbeat reply, nothing to update

	case domain.TypeSubscribe:
		s.log.Info("Connection subscribed", "channels", msg.Channels)
		s.registry.Subscribe(s.id, msg.Channels)

	case domain.TypeUnsubscribe:
		s.log.Info("Connection unsubscribed", "channels", msg.Channels)
		s.registry.Unsubscribe(s.id, msg.Channels)

	default:
		s.log.Warn("Unexpected message type from client",
			"message_type", string(msg.Type))
	}
}

func (s *Session) writeFrame(data []byte) error {
	start := s.clock.Now()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.WebSocketMessageSendDuration.Observe(s.clock.Since(start).Seconds())
	return nil
}

func (s *Session) writeEnvelope(envelope any) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return s.writeFrame(data)
}
