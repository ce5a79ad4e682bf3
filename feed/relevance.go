package feed

import (
	"math"
	"strings"
	"time"
)

// Relevance score weights.
const (
	viewWeight       = 0.4
	transcriptWeight = 5
	textWeight       = 3

	// clickbaitFactor scales scores whose title/description match is not
	// backed by the transcript.
	clickbaitFactor = 0.5
)

// Relevance holds the terms of a relevance score. Total is only comparable
// within a single result set.
type Relevance struct {
	TranscriptMatches int     `json:"transcript_matches"`
	TextMatches       int     `json:"text_matches"`
	ViewScore         float64 `json:"view_score"`
	Penalized         bool    `json:"penalized"`
	Total             float64 `json:"total"`
}

// QueryTerms lowercases and splits a query on whitespace, dropping
// duplicates while keeping first-seen order.
func QueryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// TranscriptMatches counts the terms present as whole tokens in the
// transcript. An empty transcript scores 0.
func TranscriptMatches(terms []string, transcript string) int {
	if transcript == "" || len(terms) == 0 {
		return 0
	}
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(transcript)) {
		tokens[tok] = struct{}{}
	}
	n := 0
	for _, t := range terms {
		if _, ok := tokens[t]; ok {
			n++
		}
	}
	return n
}

// TextMatches counts the terms occurring anywhere (substring match) in the
// title followed by the description.
func TextMatches(terms []string, title, description string) int {
	if len(terms) == 0 {
		return 0
	}
	text := strings.ToLower(title + " " + description)
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

// ViewScore is ln(views + 1); negative counts score as zero views.
func ViewScore(views int64) float64 {
	if views < 0 {
		views = 0
	}
	return math.Log(float64(views) + 1)
}

// ScoreRelevance combines the view, transcript and title/description terms
// and halves the result when only the title/description matched.
func ScoreRelevance(terms []string, rec VideoRecord) Relevance {
	r := Relevance{
		TranscriptMatches: TranscriptMatches(terms, rec.Transcript),
		TextMatches:       TextMatches(terms, rec.Title, rec.Description),
		ViewScore:         ViewScore(rec.Views),
	}
	r.Total = viewWeight*r.ViewScore +
		transcriptWeight*float64(r.TranscriptMatches) +
		textWeight*float64(r.TextMatches)
	if r.TextMatches > 0 && r.TranscriptMatches == 0 {
		r.Total *= clickbaitFactor
		r.Penalized = true
	}
	return r
}

// Score derives a ScoredVideo from a record.
func Score(terms []string, rec VideoRecord, now time.Time) ScoredVideo {
	minutes, seconds := NormalizeDuration(rec.Duration)
	return ScoredVideo{
		VideoRecord:     rec,
		DurationMinutes: minutes,
		DurationSeconds: seconds,
		PublishedAt:     ResolvePublished(rec.Published, now),
		Relevance:       ScoreRelevance(terms, rec),
	}
}

// ScoreAll scores every record for query and returns them ordered by
// relevance, highest first. Ties keep upstream order.
func ScoreAll(query string, records []VideoRecord, now time.Time) []ScoredVideo {
	terms := QueryTerms(query)
	scored := make([]ScoredVideo, len(records))
	for i, rec := range records {
		scored[i] = Score(terms, rec, now)
	}
	sortStable(scored, SortRelevance)
	return scored
}
