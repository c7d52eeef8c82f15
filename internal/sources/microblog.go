package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/briefcast/briefcast/internal/models"
)

const defaultMicroblogEndpoint = "https://api.twitter.com/2/tweets/search/recent"

// MicroblogClient fetches short posts from a Twitter-style recent-search
// API using a bearer token.
type MicroblogClient struct {
	endpoint string
	token    string
	client   *http.Client
}

type microblogResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// NewMicroblogClient creates a microblog adapter. An empty endpoint uses
// the Twitter recent-search API.
func NewMicroblogClient(endpoint, token string) *MicroblogClient {
	if endpoint == "" {
		endpoint = defaultMicroblogEndpoint
	}
	return &MicroblogClient{endpoint: endpoint, token: token, client: newHTTPClient()}
}

// Fetch searches recent posts for topic. Retweets are excluded so the
// same text does not come back many times.
func (c *MicroblogClient) Fetch(ctx context.Context, topic string, limit, daysBack int) ([]models.RawItem, error) {
	query := topic + " -is:retweet lang:en"
	reqURL := fmt.Sprintf("%s?query=%s&max_results=%d&tweet.fields=created_at,public_metrics,author_id",
		c.endpoint, url.QueryEscape(query), validMaxResults(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("microblog api returned status %d", resp.StatusCode)
	}

	var apiResp microblogResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("microblog api: decode response: %w", err)
	}

	minPublished := cutoff(daysBack)
	items := make([]models.RawItem, 0, len(apiResp.Data))
	for _, post := range apiResp.Data {
		if len(items) >= limit {
			break
		}
		if !post.CreatedAt.IsZero() && post.CreatedAt.Before(minPublished) {
			continue
		}
		title := truncate(post.Text, 120)
		items = append(items, models.RawItem{
			SourcePlatform:  models.PlatformMicroblog,
			ExternalID:      post.ID,
			Title:           title,
			BodyText:        post.Text,
			URL:             "https://twitter.com/i/status/" + post.ID,
			Author:          post.AuthorID,
			PublishedAt:     post.CreatedAt,
			EngagementScore: float64(post.PublicMetrics.LikeCount + 2*post.PublicMetrics.RetweetCount),
			RawPayload: map[string]string{
				"likes":    strconv.Itoa(post.PublicMetrics.LikeCount),
				"retweets": strconv.Itoa(post.PublicMetrics.RetweetCount),
				"replies":  strconv.Itoa(post.PublicMetrics.ReplyCount),
			},
		})
	}
	return items, nil
}

// validMaxResults bounds the page size to what the recent-search API
// accepts (10 to 100).
func validMaxResults(limit int) int {
	if limit < 10 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func (c *MicroblogClient) Name() string { return "microblog" }

func (c *MicroblogClient) Platform() models.Platform { return models.PlatformMicroblog }
