package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name          string
		subscriptions []string
		route         string
		want          bool
	}{
		{
			name:          "empty set takes the firehose",
			subscriptions: nil,
			route:         "corridor:USDC-XLM",
			want:          true,
		},
		{
			name:          "empty set receives payments too",
			subscriptions: []string{},
			route:         "payments",
			want:          true,
		},
		{
			name:          "exact corridor match",
			subscriptions: []string{"corridor:USDC-XLM"},
			route:         "corridor:USDC-XLM",
			want:          true,
		},
		{
			name:          "different corridor does not match",
			subscriptions: []string{"corridor:USDC-XLM"},
			route:         "corridor:EURC-XLM",
			want:          false,
		},
		{
			name:          "payments literal",
			subscriptions: []string{"payments"},
			route:         "payments",
			want:          true,
		},
		{
			name:          "payments subscriber does not get corridors",
			subscriptions: []string{"payments"},
			route:         "corridor:USDC-XLM",
			want:          false,
		},
		{
			name:          "any anchor subscription matches any anchor route",
			subscriptions: []string{"anchor:circle"},
			route:         "anchor:",
			want:          true,
		},
		{
			name:          "anchor subscription does not match payments",
			subscriptions: []string{"anchor:circle"},
			route:         "payments",
			want:          false,
		},
		{
			name:          "unrecognized route never matches a filtered set",
			subscriptions: []string{"corridor:USDC-XLM"},
			route:         "snapshots",
			want:          false,
		},
		{
			name:          "one matching subscription suffices",
			subscriptions: []string{"anchor:circle", "payments"},
			route:         "payments",
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.subscriptions, tt.route))
		})
	}
}
