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

const defaultNewsEndpoint = "https://newsapi.org/v2/everything"

// NewsClient fetches articles from a news-search API.
type NewsClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type newsResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
		Content     string    `json:"content"`
	} `json:"articles"`
}

// NewNewsClient creates a news adapter. An empty endpoint uses the
// NewsAPI everything endpoint.
func NewNewsClient(endpoint, apiKey string) *NewsClient {
	if endpoint == "" {
		endpoint = defaultNewsEndpoint
	}
	return &NewsClient{endpoint: endpoint, apiKey: apiKey, client: newHTTPClient()}
}

// Fetch queries the news API for topic within the last daysBack days.
func (c *NewsClient) Fetch(ctx context.Context, topic string, limit, daysBack int) ([]models.RawItem, error) {
	from := cutoff(daysBack).Format("2006-01-02")
	reqURL := fmt.Sprintf("%s?q=%s&from=%s&pageSize=%d&sortBy=publishedAt&apiKey=%s",
		c.endpoint, url.QueryEscape(topic), from, limit, c.apiKey)

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
		return nil, fmt.Errorf("news api returned status %d", resp.StatusCode)
	}

	var apiResp newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("news api: decode response: %w", err)
	}
	if apiResp.Status != "ok" {
		return nil, fmt.Errorf("news api error: %s", apiResp.Status)
	}

	items := make([]models.RawItem, 0, len(apiResp.Articles))
	for _, article := range apiResp.Articles {
		body := article.Description
		if body == "" {
			body = article.Content
		}
		items = append(items, models.RawItem{
			SourcePlatform: models.PlatformNews,
			ExternalID:     hashID(string(models.PlatformNews) + ":" + article.URL),
			Title:          article.Title,
			BodyText:       truncate(body, 1000),
			URL:            article.URL,
			Author:         article.Author,
			PublishedAt:    article.PublishedAt,
			RawPayload: map[string]string{
				"source_name": article.Source.Name,
				"source_id":   article.Source.ID,
			},
		})
	}
	return items, nil
}

func (c *NewsClient) Name() string { return "news" }

func (c *NewsClient) Platform() models.Platform { return models.PlatformNews }
