package actionable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"grievance-intake-go/internal/aggregator"
	"grievance-intake-go/internal/types"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		stats   aggregator.Stats
		insight string
		action  string
	}{
		{
			name:    "empty",
			stats:   aggregator.Stats{},
			insight: "No complaints recorded yet",
			action:  "Monitor intake",
		},
		{
			name: "backlog",
			stats: aggregator.Stats{
				Total:        10,
				ByStatus:     map[types.Status]int64{types.StatusSubmitted: 7, types.StatusResolved: 3},
				ByDepartment: []aggregator.Count{{Key: "Water Supply Department", Count: 6}},
			},
			insight: "70% of complaints are unresolved (7 of 10)",
			action:  "Prioritise review of the Water Supply Department queue",
		},
		{
			name: "hotspot",
			stats: aggregator.Stats{
				Total:    8,
				ByStatus: map[types.Status]int64{types.StatusResolved: 6, types.StatusInProgress: 2},
				ByArea:   []aggregator.Count{{Key: "411001", Count: 4}, {Key: "411002", Count: 2}},
			},
			insight: "Area 411001 accounts for 50% of complaints",
			action:  "Schedule a field inspection in area 411001",
		},
		{
			name: "quiet",
			stats: aggregator.Stats{
				Total:    8,
				ByStatus: map[types.Status]int64{types.StatusResolved: 8},
				ByArea:   []aggregator.Count{{Key: "411001", Count: 1}},
			},
			insight: "No strong backlog or hotspot pattern detected",
			action:  "Continue routine monitoring",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := Generate(tt.stats)
			assert.Equal(t, tt.insight, card.Insight)
			assert.Equal(t, tt.action, card.Action)
			assert.NotEmpty(t, card.Impact)
		})
	}
}
