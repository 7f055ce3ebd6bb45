package domain

// Channel name namespaces clients may subscribe to. Strings outside these
// namespaces are stored but never match any event.
const (
	// CorridorChannelPrefix namespaces per-corridor subscriptions,
	// e.g. "corridor:USDC-XLM".
	CorridorChannelPrefix = "corridor:"
	// AnchorChannelPrefix namespaces anchor subscriptions, e.g. "anchor:ANCHOR1".
	AnchorChannelPrefix = "anchor:"
	// PaymentsChannel is the flat channel carrying every new payment event.
	PaymentsChannel = "payments"
)

// CorridorChannel returns the channel name for a corridor key.
func CorridorChannel(corridorKey string) string {
	return CorridorChannelPrefix + corridorKey
}
