package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryLabel(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"select", "SELECT * FROM corridor_metrics_daily", "select"},
		{"insert with leading newline", "\n\t\tINSERT INTO corridor_metrics_daily", "insert"},
		{"lowercase passes through", "update corridor_metrics_daily set x = 1", "update"},
		{"empty statement", "", "unknown"},
		{"whitespace only", "   \n\t  ", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, queryLabel(tt.sql))
		})
	}
}
