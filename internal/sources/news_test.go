package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/briefcast/briefcast/internal/models"
)

func TestNewsClient_NormalizesArticles(t *testing.T) {
	published := time.Now().Add(-6 * time.Hour).UTC().Format(time.RFC3339)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "h1b visa" {
			t.Errorf("q = %q", got)
		}
		fmt.Fprintf(w, `{"status": "ok", "totalResults": 1, "articles": [
			{"source": {"id": "reuters", "name": "Reuters"}, "author": "A. Reporter",
			 "title": "Visa program changes announced", "description": "The program will change.",
			 "url": "https://example.org/visa", "publishedAt": %q, "content": "full text"}
		]}`, published)
	}))
	defer server.Close()

	client := NewNewsClient(server.URL, "test-key")
	items, err := client.Fetch(context.Background(), "h1b visa", 10, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.SourcePlatform != models.PlatformNews {
		t.Errorf("platform = %q", item.SourcePlatform)
	}
	if item.ExternalID == "" {
		t.Error("external id should be derived from the URL")
	}
	if item.BodyText != "The program will change." {
		t.Errorf("body = %q, want description", item.BodyText)
	}
	if item.RawPayload["source_name"] != "Reuters" {
		t.Errorf("raw payload = %v", item.RawPayload)
	}
}

func TestNewsClient_APIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "error", "articles": []}`)
	}))
	defer server.Close()

	client := NewNewsClient(server.URL, "test-key")
	if _, err := client.Fetch(context.Background(), "h1b visa", 10, 7); err == nil {
		t.Error("expected error for non-ok API status")
	}
}

