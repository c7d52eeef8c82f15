// Package sources holds one adapter per external content platform. Every
// adapter maps its platform's native response shape into models.RawItem
// and bounds its own network calls with a client timeout. Adapters return
// errors; the aggregator is the fail-soft boundary that converts them
// into empty contributions.
package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/briefcast/briefcast/internal/models"
)

const clientTimeout = 30 * time.Second

// Source is the uniform adapter contract. Fetch returns items about
// topic published within the last daysBack days, at most limit of them.
type Source interface {
	Fetch(ctx context.Context, topic string, limit, daysBack int) ([]models.RawItem, error)
	Name() string
	Platform() models.Platform
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: clientTimeout}
}

func hashID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum[:8])
}

func cutoff(daysBack int) time.Time {
	if daysBack <= 0 {
		daysBack = 7
	}
	return time.Now().AddDate(0, 0, -daysBack)
}

// truncate cuts s to at most n bytes without splitting a rune, so
// truncated payloads stay valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
