package models

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Platform identifies the origin of a content item.
type Platform string

const (
	PlatformForum     Platform = "forum"
	PlatformFeed      Platform = "feed"
	PlatformMicroblog Platform = "microblog"
	PlatformVideo     Platform = "video"
	PlatformNews      Platform = "news"
)

// KnownPlatforms lists every platform an adapter can be registered for.
var KnownPlatforms = []Platform{
	PlatformForum,
	PlatformFeed,
	PlatformMicroblog,
	PlatformVideo,
	PlatformNews,
}

// Valid reports whether p is one of the closed set of platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformForum, PlatformFeed, PlatformMicroblog, PlatformVideo, PlatformNews:
		return true
	}
	return false
}

// RawItem is one content item as returned by a single source adapter,
// normalized from the platform's native schema. Items are immutable once
// built and live only for the duration of one aggregation request.
type RawItem struct {
	SourcePlatform  Platform          `json:"source_platform"`
	ExternalID      string            `json:"external_id"`
	Title           string            `json:"title"`
	BodyText        string            `json:"body_text,omitempty"`
	URL             string            `json:"url,omitempty"`
	Author          string            `json:"author,omitempty"`
	PublishedAt     time.Time         `json:"published_at,omitempty"`
	EngagementScore float64           `json:"engagement_score"`
	Credibility     float64           `json:"credibility"`
	RawPayload      map[string]string `json:"raw_payload,omitempty"`
}

// DedupeKey is unique per item within a platform.
func (r RawItem) DedupeKey() string {
	return string(r.SourcePlatform) + ":" + r.ExternalID
}

// TitleKey normalizes the title for cross-platform duplicate detection:
// lowercased, punctuation stripped, whitespace collapsed.
func (r RawItem) TitleKey() string {
	var b strings.Builder
	lastSpace := true
	for _, c := range strings.ToLower(r.Title) {
		switch {
		case unicode.IsLetter(c) || unicode.IsDigit(c):
			b.WriteRune(c)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// ContentHash is a stable digest of title plus leading body text, used
// as a fallback identity when a platform supplies no external ID.
func (r RawItem) ContentHash() string {
	body := r.BodyText
	if len(body) > 500 {
		body = body[:500]
	}
	sum := sha256.Sum256([]byte(strings.ToLower(r.Title) + strings.ToLower(body)))
	return fmt.Sprintf("%x", sum[:8])
}

// PlatformBucket groups the surviving items for one platform.
type PlatformBucket struct {
	Count int       `json:"count"`
	Items []RawItem `json:"items"`
}

// KeyFact is one fact extracted by AI analysis, with the URLs or IDs of
// the items supporting it.
type KeyFact struct {
	Fact    string   `json:"fact"`
	Sources []string `json:"sources,omitempty"`
}

// AIAnalysis is the synthesized narrative produced from the deduplicated
// item set. Absent (nil) when the analysis step failed or was disabled.
type AIAnalysis struct {
	MainNarrative    string    `json:"main_narrative"`
	CredibilityScore float64   `json:"credibility_score"`
	KeyFacts         []KeyFact `json:"key_facts,omitempty"`
}

// FetchReason says why a platform's contribution looks the way it does.
type FetchReason string

const (
	FetchOK      FetchReason = "ok"
	FetchEmpty   FetchReason = "empty"
	FetchError   FetchReason = "error"
	FetchTimeout FetchReason = "timeout"
)

// SourceStatus records the per-adapter outcome of one fan-out, including
// why a platform came back empty. The aggregate treats empty, errored and
// timed-out platforms identically; the distinction exists for logs and
// diagnostics.
type SourceStatus struct {
	Platform Platform    `json:"platform"`
	Name     string      `json:"name"`
	Items    int         `json:"items"`
	Reason   FetchReason `json:"reason"`
	Err      string      `json:"error,omitempty"`
}

// AggregateResult is the output of one aggregation request.
//
// Invariants: TotalSources >= DeduplicatedCount, Platforms holds
// exactly the platforms whose adapter returned at least one item, and
// the bucket counts sum to TotalSources. Buckets hold the raw
// per-adapter items; Items is the deduplicated, credibility-scored set.
type AggregateResult struct {
	Topic             string                      `json:"topic"`
	Platforms         map[Platform]PlatformBucket `json:"platforms"`
	TotalSources      int                         `json:"total_sources"`
	DeduplicatedCount int                         `json:"deduplicated_count"`
	Items             []RawItem                   `json:"items"`
	AIAnalysis        *AIAnalysis                 `json:"ai_analysis,omitempty"`
	Statuses          []SourceStatus              `json:"statuses,omitempty"`
	GeneratedAt       time.Time                   `json:"generated_at"`
}
