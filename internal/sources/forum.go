package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/briefcast/briefcast/internal/models"
)

const defaultForumEndpoint = "https://www.reddit.com"

// ForumClient fetches discussion posts from a Reddit-style public JSON
// search API across a configured set of communities.
type ForumClient struct {
	endpoint  string
	forums    []string
	userAgent string
	client    *http.Client
}

type forumListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Permalink   string  `json:"permalink"`
				Author      string  `json:"author"`
				CreatedUTC  float64 `json:"created_utc"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Subreddit   string  `json:"subreddit"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewForumClient creates a forum adapter over the given communities. An
// empty endpoint uses the public Reddit API.
func NewForumClient(endpoint string, forums []string) *ForumClient {
	if endpoint == "" {
		endpoint = defaultForumEndpoint
	}
	if len(forums) == 0 {
		forums = []string{"news"}
	}
	return &ForumClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		forums:    forums,
		userAgent: "briefcast/1.0",
		client:    newHTTPClient(),
	}
}

// Fetch searches each configured community for topic, splitting the item
// budget evenly between them.
func (c *ForumClient) Fetch(ctx context.Context, topic string, limit, daysBack int) ([]models.RawItem, error) {
	perForum := limit / len(c.forums)
	if perForum < 1 {
		perForum = 1
	}
	minPublished := cutoff(daysBack)

	items := make([]models.RawItem, 0, limit)
	var lastErr error
	for _, forum := range c.forums {
		batch, err := c.search(ctx, forum, topic, perForum)
		if err != nil {
			lastErr = err
			continue
		}
		for _, item := range batch {
			if !item.PublishedAt.IsZero() && item.PublishedAt.Before(minPublished) {
				continue
			}
			items = append(items, item)
			if len(items) >= limit {
				return items, nil
			}
		}
	}

	if len(items) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return items, nil
}

func (c *ForumClient) search(ctx context.Context, forum, topic string, limit int) ([]models.RawItem, error) {
	searchURL := fmt.Sprintf("%s/r/%s/search.json?q=%s&restrict_sr=1&sort=relevance&t=week&limit=%d",
		c.endpoint, url.PathEscape(forum), url.QueryEscape(topic), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forum %s returned status %d", forum, resp.StatusCode)
	}

	var listing forumListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("forum %s: decode response: %w", forum, err)
	}

	items := make([]models.RawItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		body := truncate(post.Selftext, 1000)
		items = append(items, models.RawItem{
			SourcePlatform:  models.PlatformForum,
			ExternalID:      post.ID,
			Title:           post.Title,
			BodyText:        body,
			URL:             c.endpoint + post.Permalink,
			Author:          post.Author,
			PublishedAt:     time.Unix(int64(post.CreatedUTC), 0),
			EngagementScore: float64(post.Score + post.NumComments),
			RawPayload: map[string]string{
				"subreddit": post.Subreddit,
				"score":     strconv.Itoa(post.Score),
				"comments":  strconv.Itoa(post.NumComments),
			},
		})
	}
	return items, nil
}

func (c *ForumClient) Name() string { return "forum" }

func (c *ForumClient) Platform() models.Platform { return models.PlatformForum }
