package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/briefcast/briefcast/internal/models"
)

const defaultVideoEndpoint = "https://www.googleapis.com/youtube/v3/search"

// VideoClient fetches video metadata from a YouTube-style search API.
type VideoClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type videoSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string    `json:"title"`
			Description  string    `json:"description"`
			ChannelTitle string    `json:"channelTitle"`
			PublishedAt  time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// NewVideoClient creates a video adapter. An empty endpoint uses the
// YouTube Data API search endpoint.
func NewVideoClient(endpoint, apiKey string) *VideoClient {
	if endpoint == "" {
		endpoint = defaultVideoEndpoint
	}
	return &VideoClient{endpoint: endpoint, apiKey: apiKey, client: newHTTPClient()}
}

// Fetch searches for videos about topic published within daysBack days.
func (c *VideoClient) Fetch(ctx context.Context, topic string, limit, daysBack int) ([]models.RawItem, error) {
	publishedAfter := cutoff(daysBack).UTC().Format(time.RFC3339)
	reqURL := fmt.Sprintf("%s?part=snippet&type=video&order=relevance&q=%s&maxResults=%d&publishedAfter=%s&key=%s",
		c.endpoint, url.QueryEscape(topic), limit, url.QueryEscape(publishedAfter), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video api returned status %d", resp.StatusCode)
	}

	var apiResp videoSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("video api: decode response: %w", err)
	}

	items := make([]models.RawItem, 0, len(apiResp.Items))
	for _, v := range apiResp.Items {
		if v.ID.VideoID == "" {
			continue
		}
		items = append(items, models.RawItem{
			SourcePlatform: models.PlatformVideo,
			ExternalID:     v.ID.VideoID,
			Title:          v.Snippet.Title,
			BodyText:       truncate(v.Snippet.Description, 1000),
			URL:            "https://youtube.com/watch?v=" + v.ID.VideoID,
			Author:         v.Snippet.ChannelTitle,
			PublishedAt:    v.Snippet.PublishedAt,
			RawPayload: map[string]string{
				"channel": v.Snippet.ChannelTitle,
			},
		})
	}
	return items, nil
}

func (c *VideoClient) Name() string { return "video" }

func (c *VideoClient) Platform() models.Platform { return models.PlatformVideo }
