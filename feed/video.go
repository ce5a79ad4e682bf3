// Package feed ranks, categorizes and pages video search results.
//
// Pipeline: records -> ScoreAll -> Categorize -> Apply (filter/sort) -> Reveal
//
// Everything in this package is synchronous and side-effect free. Malformed
// upstream values degrade to zero values instead of failing a record.
package feed

import "time"

// Duration is the upstream duration of a video. Exactly one of Seconds or
// Text is meaningful: HasSeconds selects the numeric path.
type Duration struct {
	Seconds    int    `json:"seconds,omitempty"`
	HasSeconds bool   `json:"has_seconds,omitempty"`
	Text       string `json:"text,omitempty"`
}

// SecondsDuration returns a Duration received as a raw second count.
func SecondsDuration(sec int) Duration {
	return Duration{Seconds: sec, HasSeconds: true}
}

// TextDuration returns a Duration received as display text ("8:45").
func TextDuration(s string) Duration {
	return Duration{Text: s}
}

// VideoRecord is one search result as received from the search source.
// Records are never mutated after ingestion.
type VideoRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Channel     string   `json:"channel"`
	Thumbnail   string   `json:"thumbnail"`
	Description string   `json:"description"`
	Views       int64    `json:"views"`
	Likes       int64    `json:"likes"` // zero when the source omits it
	Duration    Duration `json:"duration"`
	Published   string   `json:"published"`
	Transcript  string   `json:"transcript,omitempty"`
}

// ScoredVideo is a VideoRecord with its derived ranking fields.
type ScoredVideo struct {
	VideoRecord

	DurationMinutes int       `json:"duration_minutes"`
	DurationSeconds int       `json:"duration_seconds"`
	PublishedAt     time.Time `json:"published_at"`
	Relevance       Relevance `json:"relevance"`
}

// Score is the composite relevance score used for ordering.
func (v ScoredVideo) Score() float64 { return v.Relevance.Total }
