package domain

import (
	"encoding/json"
	"fmt"
)

// MessageType tags every wire frame. Values are snake_case on the wire.
type MessageType string

const (
	TypeSnapshotUpdate   MessageType = "snapshot_update"
	TypeCorridorUpdate   MessageType = "corridor_update"
	TypeAnchorUpdate     MessageType = "anchor_update"
	TypePing             MessageType = "ping"
	TypePong             MessageType = "pong"
	TypeConnected        MessageType = "connected"
	TypeError            MessageType = "error"
	TypeSubscribe        MessageType = "subscribe"
	TypeUnsubscribe      MessageType = "unsubscribe"
	TypeNewPayment       MessageType = "new_payment"
	TypeHealthAlert      MessageType = "health_alert"
	TypeConnectionStatus MessageType = "connection_status"
)

// Envelope variants. Each carries its own type tag so a constructed value
// marshals directly into a complete wire frame. Envelopes are immutable once
// built; fan-out serializes them once and distributes the bytes.

type Connected struct {
	Type         MessageType `json:"type"`
	ConnectionID string      `json:"connection_id"`
}

func NewConnected(connectionID string) Connected {
	return Connected{Type: TypeConnected, ConnectionID: connectionID}
}

type Ping struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
}

func NewPing(timestamp int64) Ping {
	return Ping{Type: TypePing, Timestamp: timestamp}
}

type Pong struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
}

func NewPong(timestamp int64) Pong {
	return Pong{Type: TypePong, Timestamp: timestamp}
}

type CorridorUpdate struct {
	Type         MessageType `json:"type"`
	CorridorKey  string      `json:"corridor_key"`
	AssetACode   string      `json:"asset_a_code"`
	AssetAIssuer string      `json:"asset_a_issuer"`
	AssetBCode   string      `json:"asset_b_code"`
	AssetBIssuer string      `json:"asset_b_issuer"`
}

func NewCorridorUpdate(m CorridorMetric) CorridorUpdate {
	return CorridorUpdate{
		Type:         TypeCorridorUpdate,
		CorridorKey:  m.CorridorKey,
		AssetACode:   m.AssetACode,
		AssetAIssuer: m.AssetAIssuer,
		AssetBCode:   m.AssetBCode,
		AssetBIssuer: m.AssetBIssuer,
	}
}

type AnchorUpdate struct {
	Type             MessageType `json:"type"`
	AnchorID         string      `json:"anchor_id"`
	Name             string      `json:"name"`
	ReliabilityScore float64     `json:"reliability_score"`
	Status           string      `json:"status"`
}

// NewAnchorUpdate builds an anchor status frame. The anchor id and name are
// not threaded through from the scorer, so they are empty on the wire.
func NewAnchorUpdate(anchor AnchorMetrics) AnchorUpdate {
	return AnchorUpdate{
		Type:             TypeAnchorUpdate,
		ReliabilityScore: anchor.ReliabilityScore,
		Status:           string(anchor.Status),
	}
}

type NewPaymentEvent struct {
	Type    MessageType   `json:"type"`
	Payment PaymentRecord `json:"payment"`
}

func NewPaymentEnvelope(payment PaymentRecord) NewPaymentEvent {
	return NewPaymentEvent{Type: TypeNewPayment, Payment: payment}
}

type HealthAlert struct {
	Type       MessageType `json:"type"`
	CorridorID string      `json:"corridor_id"`
	Severity   string      `json:"severity"`
	Message    string      `json:"message"`
}

func NewHealthAlert(corridorID, severity, message string) HealthAlert {
	return HealthAlert{Type: TypeHealthAlert, CorridorID: corridorID, Severity: severity, Message: message}
}

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

type ConnectionStatus struct {
	Type   MessageType `json:"type"`
	Status string      `json:"status"`
}

func NewConnectionStatus(status string) ConnectionStatus {
	return ConnectionStatus{Type: TypeConnectionStatus, Status: status}
}

// ClientMessage is the inbound head frame. Clients only ever send ping, pong,
// subscribe and unsubscribe; the union of their fields is small enough that a
// single struct covers the whole inbound surface.
type ClientMessage struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Channels  []string    `json:"channels"`
}

// ParseClientMessage decodes an inbound text frame. Parsing is best-effort:
// callers drop frames that fail here without replying to the client. A frame
// whose type requires a field the payload omits is malformed: subscribe and
// unsubscribe must carry channels (an empty list is fine, a missing key is
// not) and ping must carry a timestamp.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var raw struct {
		Type      MessageType `json:"type"`
		Timestamp *int64      `json:"timestamp"`
		Channels  []string    `json:"channels"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ClientMessage{}, fmt.Errorf("failed to parse client message: %w", err)
	}
	if raw.Type == "" {
		return ClientMessage{}, fmt.Errorf("client message has no type tag")
	}

	switch raw.Type {
	case TypeSubscribe, TypeUnsubscribe:
		if raw.Channels == nil {
			return ClientMessage{}, fmt.Errorf("%s message has no channels field", raw.Type)
		}
	case TypePing:
		if raw.Timestamp == nil {
			return ClientMessage{}, fmt.Errorf("ping message has no timestamp field")
		}
	}

	msg := ClientMessage{Type: raw.Type, Channels: raw.Channels}
	if raw.Timestamp != nil {
		msg.Timestamp = *raw.Timestamp
	}
	return msg, nil
}
