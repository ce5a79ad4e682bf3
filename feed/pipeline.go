package feed

import (
	"fmt"
	"sort"
	"time"
)

// RecencyFilter restricts results by publish time relative to now.
type RecencyFilter string

const (
	RecencyAll           RecencyFilter = "all"
	RecencyLastWeek      RecencyFilter = "lastWeek"
	RecencyLastMonth     RecencyFilter = "lastMonth"
	RecencyLast6Months   RecencyFilter = "last_6_months"
	RecencyBefore6Months RecencyFilter = "before_6_months"
)

const day = 24 * time.Hour

var recencyWindows = map[RecencyFilter]time.Duration{
	RecencyLastWeek:      7 * day,
	RecencyLastMonth:     30 * day,
	RecencyLast6Months:   180 * day,
	RecencyBefore6Months: 180 * day,
}

// ParseRecency validates a recency selector. Empty means RecencyAll.
func ParseRecency(s string) (RecencyFilter, error) {
	f := RecencyFilter(s)
	if f == "" || f == RecencyAll {
		return RecencyAll, nil
	}
	if _, ok := recencyWindows[f]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown upload date filter %q", s)
}

// Keep reports whether a video published at t passes the filter.
func (f RecencyFilter) Keep(t, now time.Time) bool {
	window, ok := recencyWindows[f]
	if !ok {
		return true
	}
	age := now.Sub(t)
	if f == RecencyBefore6Months {
		return age > window
	}
	return age <= window
}

// SortOrder selects the ordering of a bucket.
type SortOrder string

const (
	SortNone       SortOrder = ""
	SortRelevance  SortOrder = "relevance"
	SortMostViewed SortOrder = "mostViewed"
	SortMostLiked  SortOrder = "mostLiked"
)

// ParseSort validates a sort selector. Empty means SortNone.
func ParseSort(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortNone, SortRelevance, SortMostViewed, SortMostLiked:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// View is the filter and sort applied to a bucket.
type View struct {
	Recency RecencyFilter `json:"upload_date"`
	Sort    SortOrder     `json:"sort_by"`
}

// Apply returns the videos passing v's recency filter in v's sort order.
// The input slice is never modified. With SortNone input order is kept.
func Apply(videos []ScoredVideo, v View, now time.Time) []ScoredVideo {
	out := make([]ScoredVideo, 0, len(videos))
	for _, vid := range videos {
		if v.Recency.Keep(vid.PublishedAt, now) {
			out = append(out, vid)
		}
	}
	sortStable(out, v.Sort)
	return out
}

func sortStable(videos []ScoredVideo, order SortOrder) {
	var key func(ScoredVideo) float64
	switch order {
	case SortRelevance:
		key = func(v ScoredVideo) float64 { return v.Relevance.Total }
	case SortMostViewed:
		key = func(v ScoredVideo) float64 { return float64(v.Views) }
	case SortMostLiked:
		key = func(v ScoredVideo) float64 { return float64(v.Likes) }
	default:
		return
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return key(videos[i]) > key(videos[j])
	})
}
