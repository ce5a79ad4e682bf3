package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vidrank/feed"
)

// DefaultYouTubeURL is the public site scraped by YouTube.
const DefaultYouTubeURL = "https://www.youtube.com"

// maxRenderers caps how many results of one page are used.
const maxRenderers = 50

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// ErrNoInitialData means the results page carried no ytInitialData payload.
var ErrNoInitialData = errors.New("results page has no ytInitialData")

var countPattern = regexp.MustCompile(`[\d.]+`)

// YouTube reads search results straight from the YouTube results page and
// fills view and like counts from each video's watch page. Transcripts
// stay empty.
type YouTube struct {
	baseURL    string
	httpClient *http.Client
	watchLimit int
}

// NewYouTube returns a scraper rooted at baseURL (DefaultYouTubeURL when
// empty).
func NewYouTube(baseURL string, httpClient *http.Client) *YouTube {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultYouTubeURL
	}
	return &YouTube{baseURL: baseURL, httpClient: httpClient, watchLimit: defaultWatchLimit}
}

// Search fetches and parses the results page for req.Query.
func (y *YouTube) Search(ctx context.Context, req Request) ([]feed.VideoRecord, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	u := y.baseURL + "/results?search_query=" + url.QueryEscape(query)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build results request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := y.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request results page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	records, err := parseResultsPage(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if err := y.enrich(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func parseResultsPage(r io.Reader) ([]feed.VideoRecord, error) {
	raw, err := extractInitialData(r)
	if err != nil {
		return nil, err
	}

	var data initialData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode ytInitialData: %w", err)
	}

	var records []feed.VideoRecord
	for _, section := range data.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		if section.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range section.ItemSectionRenderer.Contents {
			if item.VideoRenderer == nil || item.VideoRenderer.VideoID == "" {
				continue
			}
			records = append(records, item.VideoRenderer.record())
			if len(records) == maxRenderers {
				return records, nil
			}
		}
	}
	return records, nil
}

// extractInitialData returns the ytInitialData object embedded in a page.
func extractInitialData(r io.Reader) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "ytInitialData") {
			return true
		}
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			raw = text[start : end+1]
		}
		return false
	})
	if raw == "" {
		return nil, ErrNoInitialData
	}
	return []byte(raw), nil
}

type initialData struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer *struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

// text is YouTube's formatted string: either simpleText or a list of runs.
type text struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t text) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, r := range t.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type videoRenderer struct {
	VideoID   string `json:"videoId"`
	Title     text   `json:"title"`
	Thumbnail struct {
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
	LengthText               text `json:"lengthText"`
	OwnerText                text `json:"ownerText"`
	PublishedTimeText        text `json:"publishedTimeText"`
	ViewCountText            text `json:"viewCountText"`
	DescriptionSnippet       text `json:"descriptionSnippet"`
	DetailedMetadataSnippets []struct {
		SnippetText text `json:"snippetText"`
	} `json:"detailedMetadataSnippets"`
}

func (v *videoRenderer) record() feed.VideoRecord {
	rec := feed.VideoRecord{
		ID:        v.VideoID,
		Title:     v.Title.String(),
		Channel:   v.OwnerText.String(),
		Duration:  feed.TextDuration(v.LengthText.String()),
		Published: v.PublishedTimeText.String(),
		Views:     ParseAbbreviatedCount(v.ViewCountText.String()),
	}
	if thumbs := v.Thumbnail.Thumbnails; len(thumbs) > 0 {
		rec.Thumbnail = thumbs[0].URL
	}
	if len(v.DetailedMetadataSnippets) > 0 {
		rec.Description = v.DetailedMetadataSnippets[0].SnippetText.String()
	} else {
		rec.Description = v.DescriptionSnippet.String()
	}
	return rec
}

// ParseAbbreviatedCount reads counts such as "1,234 views", "43.2K views"
// or "1.5M". Unreadable text is 0.
func ParseAbbreviatedCount(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	upper := strings.ToUpper(s)

	var multiplier float64 = 1
	num := countPattern.FindString(s)
	if num == "" {
		return 0
	}
	suffix := strings.TrimSpace(upper[strings.Index(upper, num)+len(num):])
	switch {
	case strings.HasPrefix(suffix, "K"):
		multiplier = 1e3
	case strings.HasPrefix(suffix, "M"):
		multiplier = 1e6
	case strings.HasPrefix(suffix, "B"):
		multiplier = 1e9
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * multiplier))
}
