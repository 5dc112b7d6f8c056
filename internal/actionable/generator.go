package actionable

import (
	"fmt"

	"grievance-intake-go/internal/aggregator"
	"grievance-intake-go/internal/types"
)

// Thresholds for the authority action card.
const (
	BacklogShare = 0.5
	HotspotShare = 0.25
	minSample    = 4
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate turns dashboard statistics into one recommendation: an unresolved
// backlog first, then a geographic hotspot, otherwise routine monitoring.
func Generate(s aggregator.Stats) ActionCard {
	if s.Total == 0 {
		return ActionCard{
			Insight: "No complaints recorded yet",
			Action:  "Monitor intake",
			Impact:  "None",
		}
	}

	open := s.Total - s.ByStatus[types.StatusResolved]
	share := float64(open) / float64(s.Total)
	if s.Total >= minSample && share >= BacklogShare {
		dept := "General Administration"
		if len(s.ByDepartment) > 0 {
			dept = s.ByDepartment[0].Key
		}
		return ActionCard{
			Insight: fmt.Sprintf("%.0f%% of complaints are unresolved (%d of %d)", share*100, open, s.Total),
			Action:  fmt.Sprintf("Prioritise review of the %s queue", dept),
			Impact:  "Faster resolution for the largest backlog",
		}
	}

	if len(s.ByArea) > 0 && s.Total >= minSample {
		top := s.ByArea[0]
		if areaShare := float64(top.Count) / float64(s.Total); areaShare >= HotspotShare {
			return ActionCard{
				Insight: fmt.Sprintf("Area %s accounts for %.0f%% of complaints", top.Key, areaShare*100),
				Action:  fmt.Sprintf("Schedule a field inspection in area %s", top.Key),
				Impact:  "Address a localized recurring issue",
			}
		}
	}

	return ActionCard{
		Insight: "No strong backlog or hotspot pattern detected",
		Action:  "Continue routine monitoring",
		Impact:  "Low immediate intervention",
	}
}
