package search

import (
	"sort"
	"time"

	"github.com/oyakomap/spotfinder/internal/types"
)

// SortKey orders the result list.
type SortKey string

const (
	SortDistance SortKey = "distance"
	SortOverall  SortKey = "overall"
	SortCount    SortKey = "count"
	SortNew      SortKey = "new"
)

// ParseSortKey maps a raw query value onto a sort key, falling back to
// distance for anything unknown.
func ParseSortKey(raw string) SortKey {
	switch SortKey(raw) {
	case SortDistance, SortOverall, SortCount, SortNew:
		return SortKey(raw)
	default:
		return SortDistance
	}
}

// FilterByFeatures keeps items that carry every active feature code (AND
// semantics). The backend does not yet filter on all codes, so this runs
// on every recompute regardless of what the fetch requested. An empty
// active set returns items unchanged.
func FilterByFeatures(items []types.Place, active []string) []types.Place {
	if len(active) == 0 {
		return items
	}
	out := make([]types.Place, 0, len(items))
	for _, it := range items {
		keep := true
		for _, code := range active {
			if !it.HasFeature(code) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, it)
		}
	}
	return out
}

// SortPlaces orders items by key. Distance trusts the server ordering and
// returns the input as-is. The other keys sort descending with stable
// ties; missing ratings, counts, or unparseable timestamps rank as zero.
func SortPlaces(items []types.Place, key SortKey) []types.Place {
	if key == SortDistance {
		return items
	}
	out := make([]types.Place, len(items))
	copy(out, items)
	switch key {
	case SortOverall:
		sort.SliceStable(out, func(i, j int) bool {
			return ratingOf(out[i]) > ratingOf(out[j])
		})
	case SortCount:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Rating.Count > out[j].Rating.Count
		})
	case SortNew:
		sort.SliceStable(out, func(i, j int) bool {
			return createdAtMillis(out[i]) > createdAtMillis(out[j])
		})
	}
	return out
}

func ratingOf(p types.Place) float64 {
	if p.Rating.Overall == nil {
		return 0
	}
	return *p.Rating.Overall
}

func createdAtMillis(p types.Place) int64 {
	if p.CreatedAt == nil {
		return 0
	}
	t, err := time.Parse(time.RFC3339, *p.CreatedAt)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
