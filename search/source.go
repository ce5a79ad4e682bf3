// Package search fetches video records for a query from an upstream search
// service and adapts each upstream shape into feed.VideoRecord.
package search

import (
	"context"
	"errors"
	"strings"

	"vidrank/feed"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("search query is empty")

// Request is one search submission. UploadDate and SortBy are passed to the
// upstream as hints; results are re-filtered locally either way.
type Request struct {
	Query      string
	UploadDate string
	SortBy     string
}

// CacheKey identifies the upstream result set for r.
func (r Request) CacheKey() string {
	return strings.ToLower(strings.TrimSpace(r.Query)) + "_" + r.UploadDate + "_" + r.SortBy
}

// Source returns the raw records for a search.
type Source interface {
	Search(ctx context.Context, req Request) ([]feed.VideoRecord, error)
}
