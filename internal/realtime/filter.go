package realtime

import (
	"strings"

	"github.com/adetumilara/stellar-insights/internal/domain"
)

// Matches reports whether a connection with the given subscription set
// should receive an event published under route. An empty set means the
// connection takes the firehose and receives everything.
func Matches(subscriptions []string, route string) bool {
	if len(subscriptions) == 0 {
		return true
	}
	for _, sub := range subscriptions {
		if matchesChannel(sub, route) {
			return true
		}
	}
	return false
}

func matchesChannel(sub, route string) bool {
	switch {
	case route == domain.PaymentsChannel:
		return sub == domain.PaymentsChannel
	case strings.HasPrefix(route, domain.CorridorChannelPrefix):
		return sub == route
	case strings.HasPrefix(route, domain.AnchorChannelPrefix):
		// Anchor identity is not threaded through to the publish site, so any
		// anchor subscription currently receives every anchor update.
		return strings.HasPrefix(sub, domain.AnchorChannelPrefix)
	default:
		// events for unmodeled categories never match a filtered subscriber
		return false
	}
}
