// Package aggregator computes the authority dashboard statistics.
package aggregator

import (
	"context"
	"sort"

	"grievance-intake-go/internal/storage"
	"grievance-intake-go/internal/types"
)

// TopAreas bounds the ByArea breakdown.
const TopAreas = 10

type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type Stats struct {
	Total        int64                  `json:"total"`
	ByStatus     map[types.Status]int64 `json:"byStatus"`
	ByCategory   []Count                `json:"byCategory"`
	ByDepartment []Count                `json:"byDepartment"`
	ByArea       []Count                `json:"byAreaCode"`
}

// Resolved is a convenience for report writers.
func (s Stats) Resolved() int64 { return s.ByStatus[types.StatusResolved] }

// Counter is the grouped-count surface of the store.
type Counter interface {
	Count(ctx context.Context) (int64, error)
	CountBy(ctx context.Context, field storage.Field) (map[string]int64, error)
}

// Compute asks the store for every grouping.
func Compute(ctx context.Context, c Counter) (Stats, error) {
	total, err := c.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	groups := make(map[storage.Field]map[string]int64, 4)
	for _, f := range []storage.Field{storage.FieldStatus, storage.FieldCategory, storage.FieldDepartment, storage.FieldAreaCode} {
		m, err := c.CountBy(ctx, f)
		if err != nil {
			return Stats{}, err
		}
		groups[f] = m
	}
	return build(total, groups), nil
}

// Aggregate computes the same statistics over records already in memory.
func Aggregate(records []*types.ComplaintRecord) Stats {
	groups := map[storage.Field]map[string]int64{
		storage.FieldStatus:     {},
		storage.FieldCategory:   {},
		storage.FieldDepartment: {},
		storage.FieldAreaCode:   {},
	}
	for _, r := range records {
		groups[storage.FieldStatus][string(r.Status)]++
		groups[storage.FieldCategory][string(r.Category)]++
		groups[storage.FieldDepartment][r.Department]++
		groups[storage.FieldAreaCode][r.Contact.AreaCode]++
	}
	return build(int64(len(records)), groups)
}

func build(total int64, groups map[storage.Field]map[string]int64) Stats {
	byStatus := make(map[types.Status]int64, len(types.Statuses()))
	for _, st := range types.Statuses() {
		byStatus[st] = groups[storage.FieldStatus][string(st)]
	}
	return Stats{
		Total:        total,
		ByStatus:     byStatus,
		ByCategory:   sorted(groups[storage.FieldCategory], 0),
		ByDepartment: sorted(groups[storage.FieldDepartment], 0),
		ByArea:       sorted(groups[storage.FieldAreaCode], TopAreas),
	}
}

// sorted orders counts descending, ties by key; limit 0 keeps all.
func sorted(m map[string]int64, limit int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
