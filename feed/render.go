package feed

import (
	"time"

	"github.com/dustin/go-humanize"
)

const (
	watchURLPrefix   = "https://www.youtube.com/watch?v="
	descriptionRunes = 100
)

// RenderItem is the immutable, display-ready form of a ScoredVideo.
type RenderItem struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	Channel         string    `json:"channel"`
	Thumbnail       string    `json:"thumbnail"`
	DurationMinutes int       `json:"duration_minutes"`
	Views           int64     `json:"views"`
	ViewsText       string    `json:"views_text"`
	Likes           int64     `json:"likes"`
	Published       string    `json:"published"`
	PublishedAt     time.Time `json:"published_at"`
	Excerpt         string    `json:"excerpt"`
	Score           float64   `json:"score"`
}

// NewRenderItem projects v for display.
func NewRenderItem(v ScoredVideo) RenderItem {
	return RenderItem{
		ID:              v.ID,
		URL:             WatchURL(v.ID),
		Title:           v.Title,
		Channel:         v.Channel,
		Thumbnail:       v.Thumbnail,
		DurationMinutes: v.DurationMinutes,
		Views:           v.Views,
		ViewsText:       humanize.Comma(v.Views),
		Likes:           v.Likes,
		Published:       v.Published,
		PublishedAt:     v.PublishedAt,
		Excerpt:         excerpt(v.Description, descriptionRunes),
		Score:           v.Relevance.Total,
	}
}

// WatchURL returns the watch page for a video id, or "" for no id.
func WatchURL(id string) string {
	if id == "" {
		return ""
	}
	return watchURLPrefix + id
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
