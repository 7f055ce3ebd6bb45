package domain

import "time"

// CorridorMetric is one day's aggregate for a directional asset corridor,
// as stored by the ingestion pipeline and read back by the broadcaster.
type CorridorMetric struct {
	CorridorKey  string
	AssetACode   string
	AssetAIssuer string
	AssetBCode   string
	AssetBIssuer string
	PaymentCount int64
	TotalVolume  float64
	SuccessRate  float64
	MetricDate   time.Time
}

// PaymentRecord mirrors a settled payment operation as observed on ledger.
// Asset code and issuer are empty for native-asset payments.
type PaymentRecord struct {
	ID                 string `json:"id"`
	TransactionHash    string `json:"transaction_hash"`
	SourceAccount      string `json:"source_account"`
	DestinationAccount string `json:"destination_account"`
	AssetType          string `json:"asset_type"`
	AssetCode          string `json:"asset_code,omitempty"`
	AssetIssuer        string `json:"asset_issuer,omitempty"`
	Amount             string `json:"amount"`
	CreatedAt          string `json:"created_at"`
}

// AnchorStatus is the traffic-light health classification an anchor scorer
// assigns to an anchor.
type AnchorStatus string

const (
	AnchorStatusGreen  AnchorStatus = "green"
	AnchorStatusYellow AnchorStatus = "yellow"
	AnchorStatusRed    AnchorStatus = "red"
)

// AnchorMetrics is the scorer's output for one anchor. The anchor identifier
// is not part of the scorer's publish payload.
type AnchorMetrics struct {
	ReliabilityScore float64
	Status           AnchorStatus
}

// MetricsSnapshot is the JSON body served by the websocket metrics endpoint.
// Counters are read with relaxed atomics; the fields are not mutually
// consistent.
type MetricsSnapshot struct {
	TotalConnections  uint64 `json:"total_connections"`
	ActiveConnections uint64 `json:"active_connections"`
	MessagesSent      uint64 `json:"messages_sent"`
	MessagesReceived  uint64 `json:"messages_received"`
	ConnectionErrors  uint64 `json:"connection_errors"`
	UptimeSeconds     uint64 `json:"uptime_seconds"`
}
