package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"vidrank/feed"
)

// defaultWatchLimit bounds concurrent watch page fetches per search.
const defaultWatchLimit = 8

// watchStats are the counters read from a watch page.
type watchStats struct {
	Views int64
	Likes int64
}

// enrich fills Views and Likes from watch pages. A watch page that cannot
// be fetched or read leaves its record as the results page described it.
// Only cancellation of ctx fails the search.
func (y *YouTube) enrich(ctx context.Context, records []feed.VideoRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(y.watchLimit)
	for i := range records {
		rec := &records[i]
		g.Go(func() error {
			stats, err := y.watchStats(gctx, rec.ID)
			if err != nil {
				return gctx.Err()
			}
			if stats.Views > 0 {
				rec.Views = stats.Views
			}
			if stats.Likes > 0 {
				rec.Likes = stats.Likes
			}
			return nil
		})
	}
	return g.Wait()
}

func (y *YouTube) watchStats(ctx context.Context, id string) (watchStats, error) {
	u := y.baseURL + "/watch?v=" + url.QueryEscape(id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return watchStats{}, fmt.Errorf("build watch request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := y.httpClient.Do(httpReq)
	if err != nil {
		return watchStats{}, fmt.Errorf("request watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return watchStats{}, APIError{StatusCode: resp.StatusCode}
	}
	return parseWatchPage(io.LimitReader(resp.Body, maxBodyBytes))
}

func parseWatchPage(r io.Reader) (watchStats, error) {
	raw, err := extractInitialData(r)
	if err != nil {
		return watchStats{}, err
	}
	var data watchData
	if err := json.Unmarshal(raw, &data); err != nil {
		return watchStats{}, fmt.Errorf("decode watch ytInitialData: %w", err)
	}

	var stats watchStats
	for _, c := range data.Contents.TwoColumnWatchNextResults.Results.Results.Contents {
		info := c.VideoPrimaryInfoRenderer
		if info == nil {
			continue
		}
		stats.Views = ParseAbbreviatedCount(info.ViewCount.VideoViewCountRenderer.ViewCount.String())
		for _, b := range info.VideoActions.MenuRenderer.TopLevelButtons {
			if likes := b.likes(); likes > 0 {
				stats.Likes = likes
				break
			}
		}
		break
	}
	return stats, nil
}

type watchData struct {
	Contents struct {
		TwoColumnWatchNextResults struct {
			Results struct {
				Results struct {
					Contents []struct {
						VideoPrimaryInfoRenderer *primaryInfo `json:"videoPrimaryInfoRenderer"`
					} `json:"contents"`
				} `json:"results"`
			} `json:"results"`
		} `json:"twoColumnWatchNextResults"`
	} `json:"contents"`
}

type primaryInfo struct {
	ViewCount struct {
		VideoViewCountRenderer struct {
			ViewCount text `json:"viewCount"`
		} `json:"videoViewCountRenderer"`
	} `json:"viewCount"`
	VideoActions struct {
		MenuRenderer struct {
			TopLevelButtons []actionButton `json:"topLevelButtons"`
		} `json:"menuRenderer"`
	} `json:"videoActions"`
}

type toggleButton struct {
	DefaultText text `json:"defaultText"`
}

// actionButton is a like button in either the older toggle layout or the
// segmented like/dislike layout.
type actionButton struct {
	ToggleButtonRenderer               *toggleButton `json:"toggleButtonRenderer"`
	SegmentedLikeDislikeButtonRenderer *struct {
		LikeButton struct {
			ToggleButtonRenderer *toggleButton `json:"toggleButtonRenderer"`
		} `json:"likeButton"`
	} `json:"segmentedLikeDislikeButtonRenderer"`
}

func (b actionButton) likes() int64 {
	switch {
	case b.ToggleButtonRenderer != nil:
		return ParseAbbreviatedCount(b.ToggleButtonRenderer.DefaultText.String())
	case b.SegmentedLikeDislikeButtonRenderer != nil && b.SegmentedLikeDislikeButtonRenderer.LikeButton.ToggleButtonRenderer != nil:
		return ParseAbbreviatedCount(b.SegmentedLikeDislikeButtonRenderer.LikeButton.ToggleButtonRenderer.DefaultText.String())
	}
	return 0
}
