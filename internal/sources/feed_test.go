package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/briefcast/briefcast/internal/models"
)

func rssFixture(pubDate string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Immigration Wire</title>
    <item>
      <title>H1B visa cap reached for fiscal year</title>
      <link>https://example.org/h1b-cap</link>
      <guid>https://example.org/h1b-cap</guid>
      <dc:creator>Staff Writer</dc:creator>
      <pubDate>%s</pubDate>
      <description>&lt;p&gt;The &lt;b&gt;H1B visa&lt;/b&gt; cap has been reached.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Unrelated gardening tips</title>
      <link>https://example.org/gardening</link>
      <guid>https://example.org/gardening</guid>
      <pubDate>%s</pubDate>
      <description>Growing tomatoes in small spaces.</description>
    </item>
  </channel>
</rss>`, pubDate, pubDate)
}

func TestFeedClient_FiltersByTopicAndNormalizes(t *testing.T) {
	pubDate := time.Now().Add(-24 * time.Hour).Format(time.RFC1123Z)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture(pubDate))
	}))
	defer server.Close()

	client := NewFeedClient([]string{server.URL})
	items, err := client.Fetch(context.Background(), "h1b visa", 10, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 matching item, got %d", len(items))
	}

	item := items[0]
	if item.SourcePlatform != models.PlatformFeed {
		t.Errorf("platform = %q, want feed", item.SourcePlatform)
	}
	if item.ExternalID != "https://example.org/h1b-cap" {
		t.Errorf("external id = %q, want guid", item.ExternalID)
	}
	if item.Author != "Staff Writer" {
		t.Errorf("author = %q", item.Author)
	}
	if item.BodyText != "The H1B visa cap has been reached." {
		t.Errorf("body should be HTML-stripped, got %q", item.BodyText)
	}
	if item.PublishedAt.IsZero() {
		t.Error("expected parsed publish time")
	}
}

func TestFeedClient_ExcludesStaleEntries(t *testing.T) {
	pubDate := time.Now().Add(-30 * 24 * time.Hour).Format(time.RFC1123Z)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFixture(pubDate))
	}))
	defer server.Close()

	client := NewFeedClient([]string{server.URL})
	items, err := client.Fetch(context.Background(), "h1b visa", 10, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("month-old entry should be excluded, got %d items", len(items))
	}
}

func TestFeedClient_BrokenFeedReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewFeedClient([]string{server.URL})
	if _, err := client.Fetch(context.Background(), "h1b visa", 10, 7); err == nil {
		t.Error("expected error when the only feed is broken")
	}
}

func TestFeedClient_HealthyFeedMasksBrokenFeed(t *testing.T) {
	pubDate := time.Now().Add(-24 * time.Hour).Format(time.RFC1123Z)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFixture(pubDate))
	}))
	defer healthy.Close()

	client := NewFeedClient([]string{broken.URL, healthy.URL})
	items, err := client.Fetch(context.Background(), "h1b visa", 10, 7)
	if err != nil {
		t.Fatalf("healthy feed should mask the broken one, got error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item from the healthy feed, got %d", len(items))
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"  spaced  ", "spaced"},
	}
	for _, tc := range cases {
		if got := stripHTML(tc.in); got != tc.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short unchanged", "hello", 10, "hello"},
		{"ascii cut", "hello world", 5, "hello"},
		{"multibyte boundary", "héllo", 2, "h"},
		{"multibyte exact", "héllo", 3, "hé"},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("%s: truncate(%q, %d) = %q, want %q", tc.name, tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("%s: output is not valid UTF-8: %q", tc.name, got)
		}
	}
}
