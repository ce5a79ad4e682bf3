package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidrank/feed"
)

const resultsPage = `<!DOCTYPE html><html><head>
<script>var ytcfg = {};</script>
<script>var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[
 {"itemSectionRenderer":{"contents":[
  {"videoRenderer":{
    "videoId":"abc123",
    "title":{"runs":[{"text":"How to "},{"text":"cook pasta"}]},
    "thumbnail":{"thumbnails":[{"url":"https://i.ytimg.com/vi/abc123/hq.jpg"}]},
    "lengthText":{"simpleText":"12:30"},
    "ownerText":{"runs":[{"text":"Chef Ana"}]},
    "publishedTimeText":{"simpleText":"3 weeks ago"},
    "viewCountText":{"simpleText":"1,234,567 views"},
    "detailedMetadataSnippets":[{"snippetText":{"runs":[{"text":"Quick pasta tips"}]}}]
  }},
  {"adSlotRenderer":{}},
  {"videoRenderer":{"videoId":"def456","title":{"runs":[{"text":"Short"}]},"viewCountText":{"simpleText":"No views"}}}
 ]}},
 {"continuationItemRenderer":{}}
]}}}}};</script>
</head><body></body></html>`

func TestParseResultsPage(t *testing.T) {
	records, err := parseResultsPage(strings.NewReader(resultsPage))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, feed.VideoRecord{
		ID:          "abc123",
		Title:       "How to cook pasta",
		Channel:     "Chef Ana",
		Thumbnail:   "https://i.ytimg.com/vi/abc123/hq.jpg",
		Description: "Quick pasta tips",
		Views:       1234567,
		Duration:    feed.TextDuration("12:30"),
		Published:   "3 weeks ago",
	}, records[0])
	assert.Equal(t, "def456", records[1].ID)
	assert.Zero(t, records[1].Views)
}

func TestParseResultsPage_NoData(t *testing.T) {
	_, err := parseResultsPage(strings.NewReader(`<html><script>var x = 1;</script></html>`))
	assert.ErrorIs(t, err, ErrNoInitialData)
}

func TestParseResultsPage_Cap(t *testing.T) {
	var items []string
	for i := 0; i < maxRenderers+10; i++ {
		items = append(items, fmt.Sprintf(`{"videoRenderer":{"videoId":"v%d"}}`, i))
	}
	page := `<script>var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[` +
		strings.Join(items, ",") + `]}}]}}}}};</script>`

	records, err := parseResultsPage(strings.NewReader(page))
	require.NoError(t, err)
	assert.Len(t, records, maxRenderers)
}

func TestYouTubeSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/results":
			gotQuery = r.URL.Query().Get("search_query")
			_, _ = w.Write([]byte(resultsPage))
		case "/watch":
			if r.URL.Query().Get("v") != "abc123" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(watchPage))
		}
	}))
	defer srv.Close()

	records, err := NewYouTube(srv.URL, srv.Client()).Search(context.Background(), Request{Query: "cook pasta"})
	require.NoError(t, err)
	assert.Equal(t, "cook pasta", gotQuery)
	require.Len(t, records, 2)

	assert.Equal(t, int64(1234890), records[0].Views)
	assert.Equal(t, int64(43000), records[0].Likes)
	// The second watch page is missing; its record keeps the results page values.
	assert.Equal(t, "def456", records[1].ID)
	assert.Zero(t, records[1].Likes)
}

func TestYouTubeSearch_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewYouTube(srv.URL, nil).Search(context.Background(), Request{Query: "q"})
	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestParseAbbreviatedCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1,234 views", 1234},
		{"43K views", 43000},
		{"4.1K", 4100},
		{"1.5M views", 1500000},
		{"2B", 2000000000},
		{"No views", 0},
		{"", 0},
	}
	for _, tc := range tests {
		if got := ParseAbbreviatedCount(tc.in); got != tc.want {
			t.Errorf("ParseAbbreviatedCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
