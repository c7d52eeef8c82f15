package sources

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/briefcast/briefcast/internal/models"
)

// FeedClient fetches entries from configured RSS/Atom feeds and keeps
// the ones mentioning the topic.
type FeedClient struct {
	feeds  []string
	parser *gofeed.Parser
}

// NewFeedClient creates a feed adapter over the given feed URLs.
func NewFeedClient(feeds []string) *FeedClient {
	parser := gofeed.NewParser()
	parser.Client = newHTTPClient()
	return &FeedClient{feeds: feeds, parser: parser}
}

// Fetch parses every configured feed, filters entries by topic keyword
// match on title or summary, and keeps those published within daysBack.
// Individual broken feeds are skipped; an error is returned only when no
// feed yielded anything and at least one failed.
func (c *FeedClient) Fetch(ctx context.Context, topic string, limit, daysBack int) ([]models.RawItem, error) {
	minPublished := cutoff(daysBack)
	topicLower := strings.ToLower(topic)

	items := make([]models.RawItem, 0, limit)
	var lastErr error
	for _, feedURL := range c.feeds {
		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			lastErr = err
			continue
		}

		for _, entry := range feed.Items {
			if len(items) >= limit {
				return items, nil
			}

			body := stripHTML(entry.Description)
			if body == "" && entry.Content != "" {
				body = stripHTML(entry.Content)
			}
			if !strings.Contains(strings.ToLower(entry.Title), topicLower) &&
				!strings.Contains(strings.ToLower(body), topicLower) {
				continue
			}

			item := models.RawItem{
				SourcePlatform: models.PlatformFeed,
				ExternalID:     entry.GUID,
				Title:          entry.Title,
				BodyText:       truncate(body, 1000),
				URL:            entry.Link,
				RawPayload: map[string]string{
					"feed":       feedURL,
					"feed_title": feed.Title,
				},
			}
			if entry.GUID == "" {
				item.ExternalID = hashID(string(models.PlatformFeed) + ":" + entry.Link)
			}
			if len(entry.Authors) > 0 {
				item.Author = entry.Authors[0].Name
			}
			if entry.PublishedParsed != nil {
				item.PublishedAt = *entry.PublishedParsed
				if item.PublishedAt.Before(minPublished) {
					continue
				}
			}

			items = append(items, item)
		}
	}

	if len(items) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return items, nil
}

func (c *FeedClient) Name() string { return "feed" }

func (c *FeedClient) Platform() models.Platform { return models.PlatformFeed }

// stripHTML extracts plain text from a feed entry body, which is
// frequently HTML.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}
