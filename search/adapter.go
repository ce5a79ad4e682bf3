package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"vidrank/feed"
)

// apiVideo is the video shape returned by the search backend. Counts and
// duration arrive either as JSON numbers or as display strings.
type apiVideo struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Channel     string       `json:"channel"`
	Thumbnail   string       `json:"thumbnail"`
	Description string       `json:"description"`
	Views       flexCount    `json:"views"`
	Likes       flexCount    `json:"likes"`
	Duration    flexDuration `json:"duration"`
	Published   string       `json:"published"`
	UploadDate  string       `json:"upload_date"`
	Transcript  string       `json:"transcript"`
}

func (v apiVideo) record() feed.VideoRecord {
	published := v.Published
	if published == "" || strings.EqualFold(published, "unknown") {
		published = v.UploadDate
	}
	return feed.VideoRecord{
		ID:          v.ID,
		Title:       v.Title,
		Channel:     v.Channel,
		Thumbnail:   v.Thumbnail,
		Description: v.Description,
		Views:       int64(v.Views),
		Likes:       int64(v.Likes),
		Duration:    feed.Duration(v.Duration),
		Published:   published,
		Transcript:  v.Transcript,
	}
}

// flexCount accepts 1234, 1234.0, "1,234 views" and null.
type flexCount int64

func (c *flexCount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode count: %w", err)
		}
		*c = flexCount(feed.ParseCount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*c = 0
		return nil
	}
	if f < 0 || math.IsNaN(f) || f > math.MaxInt64 {
		f = 0
	}
	*c = flexCount(f)
	return nil
}

// flexDuration accepts seconds as a number or "H:MM:SS" style text.
type flexDuration feed.Duration

func (d *flexDuration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = flexDuration{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode duration: %w", err)
		}
		*d = flexDuration(feed.TextDuration(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil || f < 0 || f > math.MaxInt32 {
		*d = flexDuration{}
		return nil
	}
	*d = flexDuration(feed.SecondsDuration(int(f)))
	return nil
}

// decodeVideos reads a backend payload. The backend answers either with a
// flat array of videos or with videos already split into short and long;
// both are flattened because categorization is redone locally.
func decodeVideos(body []byte) ([]feed.VideoRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var videos []apiVideo
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &videos); err != nil {
			return nil, fmt.Errorf("decode video list: %w", err)
		}
	case '{':
		var split struct {
			Short []apiVideo `json:"short"`
			Long  []apiVideo `json:"long"`
			Error string     `json:"error"`
		}
		if err := json.Unmarshal(body, &split); err != nil {
			return nil, fmt.Errorf("decode split video lists: %w", err)
		}
		if split.Error != "" {
			return nil, fmt.Errorf("search backend: %s", split.Error)
		}
		videos = append(split.Short, split.Long...)
	default:
		return nil, fmt.Errorf("unexpected search payload starting with %q", body[0])
	}

	records := make([]feed.VideoRecord, 0, len(videos))
	for _, v := range videos {
		records = append(records, v.record())
	}
	return records, nil
}
