package feed

import (
	"time"
)

// Session is the state of one search submission: the categorized results,
// the active tab and view, and how far each bucket has been revealed.
// A Session is owned by a single writer; it holds no lock.
type Session struct {
	ID       string
	Seq      uint64
	Query    string
	Analyzed int
	Results  Categorized
	Tab      Bucket
	View     View

	pager Pager
	now   func() time.Time
}

// NewSession scores and categorizes records for query. The session starts
// on the short tab with no filter and no explicit sort.
func NewSession(id string, seq uint64, query string, records []VideoRecord, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	scored := ScoreAll(query, records, now())
	return &Session{
		ID:       id,
		Seq:      seq,
		Query:    query,
		Analyzed: len(scored),
		Results:  Categorize(scored),
		Tab:      BucketShort,
		View:     View{Recency: RecencyAll},
		now:      now,
	}
}

// Page is what a renderer needs to paint one load.
type Page struct {
	SessionID string         `json:"session_id"`
	Seq       uint64         `json:"seq"`
	Query     string         `json:"query"`
	Analyzed  int            `json:"analyzed"`
	Tab       Bucket         `json:"tab"`
	View      View           `json:"view"`
	Items     []RenderItem   `json:"items"`
	Totals    map[Bucket]int `json:"totals"`
	Filtered  int            `json:"filtered"`
	Cursor    int            `json:"cursor"`
	HasMore   bool           `json:"has_more"`
}

// Filtered returns the active tab after the current view is applied.
func (s *Session) Filtered() []ScoredVideo {
	return Apply(s.Results.List(s.Tab), s.View, s.now())
}

// SetView switches tab and view and reveals the first window. Cursors are
// rewound on every call so a repeated view starts over like a fresh tab.
func (s *Session) SetView(tab Bucket, v View) Page {
	s.Tab = tab
	s.View = v
	s.pager.Reset()
	return s.More()
}

// More reveals the next window of the active tab.
func (s *Session) More() Page {
	list := s.Filtered()
	window := s.pager.Next(s.Tab, list)
	return s.page(window, len(list))
}

// Current describes the session without revealing anything.
func (s *Session) Current() Page {
	return s.page(nil, len(s.Filtered()))
}

func (s *Session) page(window []ScoredVideo, filtered int) Page {
	cursor := s.pager.Cursor(s.Tab)
	items := make([]RenderItem, len(window))
	for i, v := range window {
		items[i] = NewRenderItem(v)
	}
	return Page{
		SessionID: s.ID,
		Seq:       s.Seq,
		Query:     s.Query,
		Analyzed:  s.Analyzed,
		Tab:       s.Tab,
		View:      s.View,
		Items:     items,
		Totals:    s.Results.Totals(),
		Filtered:  filtered,
		Cursor:    cursor,
		HasMore:   cursor < filtered,
	}
}
