package results

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidrank/feed"
	"vidrank/search"
	"vidrank/session"
	"vidrank/snapshot"
)

var refNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

var cookingRecords = []feed.VideoRecord{
	{ID: "s1", Title: "Easy cooking at home", Views: 1000, Duration: feed.TextDuration("8:00"), Published: "1 day ago", Transcript: "today we are cooking pasta"},
	{ID: "s2", Title: "Quick cooking tips", Views: 50000, Duration: feed.TextDuration("5:00"), Published: "3 weeks ago"},
	{ID: "s3", Title: "Knife skills", Views: 10, Duration: feed.TextDuration("3:30"), Published: "2 days ago", Transcript: "cooking knife"},
	{ID: "l1", Title: "Cooking masterclass", Views: 200, Duration: feed.SecondsDuration(900), Published: "2 months ago"},
	{ID: "z", Title: "cooking stream", Views: 5, Published: "1 hour ago"},
}

type stubSource struct {
	mu      sync.Mutex
	records []feed.VideoRecord
	err     error
	gates   map[string]chan struct{}
	entered chan string
	reqs    []search.Request
}

func (s *stubSource) Search(ctx context.Context, req search.Request) ([]feed.VideoRecord, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	gate := s.gates[req.Query]
	s.mu.Unlock()

	if s.entered != nil {
		s.entered <- req.Query
	}
	if gate != nil {
		<-gate
	}
	return s.records, s.err
}

type recordedQuery struct{ client, query string }

type stubHistory struct {
	mu      sync.Mutex
	queries []recordedQuery
}

func (s *stubHistory) Record(_ context.Context, clientID, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, recordedQuery{clientID, query})
	return nil
}

type stubArchiver struct {
	mu    sync.Mutex
	snaps []snapshot.Snapshot
}

func (s *stubArchiver) Archive(_ context.Context, snap snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

type fixture struct {
	h       *Handler
	router  http.Handler
	source  *stubSource
	history *stubHistory
	archive *stubArchiver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source:  &stubSource{records: cookingRecords},
		history: &stubHistory{},
		archive: &stubArchiver{},
	}
	ids := 0
	f.h = &Handler{
		Source:   f.source,
		Sessions: session.NewStore(10, time.Minute),
		History:  f.history,
		Archiver: f.archive,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return refNow },
		NewID: func() string {
			ids++
			return "sess-" + string(rune('0'+ids))
		},
	}

	r := chi.NewRouter()
	r.Get("/api/search", f.h.HandleSearch)
	r.Get("/api/sessions/{id}", f.h.HandleGet)
	r.Put("/api/sessions/{id}/view", f.h.HandleView)
	r.Post("/api/sessions/{id}/more", f.h.HandleMore)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-Client-ID", "client-1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) feed.Page {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page feed.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}

func itemIDs(page feed.Page) []string {
	ids := make([]string, len(page.Items))
	for i, it := range page.Items {
		ids[i] = it.ID
	}
	return ids
}

func TestHandleSearch_FirstPage(t *testing.T) {
	f := newFixture(t)

	page := decodePage(t, f.do(t, http.MethodGet, "/api/search?query=cooking", ""))

	assert.Equal(t, "sess-1", page.SessionID)
	assert.Equal(t, uint64(1), page.Seq)
	assert.Equal(t, 5, page.Analyzed)
	assert.Equal(t, feed.BucketShort, page.Tab)
	if diff := cmp.Diff([]string{"s1", "s3"}, itemIDs(page)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[feed.Bucket]int{feed.BucketShort: 3, feed.BucketLong: 1}, page.Totals)
	assert.Equal(t, 2, page.Cursor)
	assert.Equal(t, 3, page.Filtered)
	assert.True(t, page.HasMore)
	assert.Equal(t, "https://www.youtube.com/watch?v=s1", page.Items[0].URL)

	f.h.Wait()
	require.Len(t, f.archive.snaps, 1)
	assert.Equal(t, "sess-1", f.archive.snaps[0].SessionID)
	assert.Equal(t, []recordedQuery{{"client-1", "cooking"}}, f.history.queries)
}

func TestHandleSearch_PassesHintsUpstream(t *testing.T) {
	f := newFixture(t)

	page := decodePage(t, f.do(t, http.MethodGet, "/api/search?query=cooking&tab=long&uploadDate=lastWeek&sortBy=mostViewed", ""))

	assert.Equal(t, []search.Request{{Query: "cooking", UploadDate: "lastWeek", SortBy: "mostViewed"}}, f.source.reqs)
	assert.Equal(t, feed.BucketLong, page.Tab)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}

func TestHandleSearch_BadRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing query", "/api/search"},
		{"blank query", "/api/search?query=%20%20"},
		{"bad tab", "/api/search?query=x&tab=medium"},
		{"bad upload date", "/api/search?query=x&uploadDate=yesterday"},
		{"bad sort", "/api/search?query=x&sortBy=newest"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodGet, tc.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, f.source.reqs)
		})
	}
}

func TestHandleSearch_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.source.err = errors.New("connection refused")

	rec := f.do(t, http.MethodGet, "/api/search?query=cooking", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
	assert.Equal(t, 0, f.h.Sessions.Len())
}

func TestHandleSearch_SupersededDiscarded(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.source.gates = map[string]chan struct{}{"slow": release}
	f.source.entered = make(chan string, 2)

	slow := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		slow <- f.do(t, http.MethodGet, "/api/search?query=slow", "")
	}()
	require.Equal(t, "slow", <-f.source.entered)

	fast := f.do(t, http.MethodGet, "/api/search?query=fast", "")
	<-f.source.entered
	fastPage := decodePage(t, fast)

	close(release)
	rec := <-slow
	assert.Equal(t, http.StatusConflict, rec.Code)

	got := decodePage(t, f.do(t, http.MethodGet, "/api/sessions/"+fastPage.SessionID, ""))
	assert.Equal(t, "fast", got.Query)
	assert.Equal(t, 1, f.h.Sessions.Len())
}

func TestHandleMore_PagesUntilExhausted(t *testing.T) {
	f := newFixture(t)
	first := decodePage(t, f.do(t, http.MethodGet, "/api/search?query=cooking", ""))
	path := "/api/sessions/" + first.SessionID + "/more"

	second := decodePage(t, f.do(t, http.MethodPost, path, ""))
	assert.Equal(t, []string{"s2"}, itemIDs(second))
	assert.Equal(t, 3, second.Cursor)
	assert.False(t, second.HasMore)

	third := decodePage(t, f.do(t, http.MethodPost, path, ""))
	assert.Empty(t, third.Items)
	assert.False(t, third.HasMore)
}

func TestHandleView_ResetsCursor(t *testing.T) {
	f := newFixture(t)
	first := decodePage(t, f.do(t, http.MethodGet, "/api/search?query=cooking", ""))
	base := "/api/sessions/" + first.SessionID

	long := decodePage(t, f.do(t, http.MethodPut, base+"/view", `{"tab":"long"}`))
	assert.Equal(t, []string{"l1"}, itemIDs(long))
	assert.False(t, long.HasMore)

	viewed := decodePage(t, f.do(t, http.MethodPut, base+"/view", `{"tab":"short","sort_by":"mostViewed"}`))
	assert.Equal(t, []string{"s2", "s1"}, itemIDs(viewed))
	assert.Equal(t, 2, viewed.Cursor)

	recent := decodePage(t, f.do(t, http.MethodPut, base+"/view", `{"tab":"short","upload_date":"lastWeek"}`))
	assert.Equal(t, []string{"s1", "s3"}, itemIDs(recent))
	assert.Equal(t, 2, recent.Filtered)
	assert.False(t, recent.HasMore)

	current := decodePage(t, f.do(t, http.MethodGet, base, ""))
	assert.Empty(t, current.Items)
	assert.Equal(t, feed.RecencyLastWeek, current.View.Recency)
	assert.Equal(t, 2, current.Cursor)
}

func TestHandleView_BadInput(t *testing.T) {
	f := newFixture(t)
	first := decodePage(t, f.do(t, http.MethodGet, "/api/search?query=cooking", ""))
	path := "/api/sessions/" + first.SessionID + "/view"

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, path, `{"tab":"medium"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, path, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, path, `{"tab":"short","color":"red"}`).Code)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/sessions/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/sessions/nope/more", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/api/sessions/nope/view", `{"tab":"short"}`).Code)
}
