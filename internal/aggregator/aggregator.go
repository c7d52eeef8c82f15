// Package aggregator fans out one aggregation request to every
// configured source adapter concurrently, normalizes and deduplicates
// the returned items, scores them for credibility, and optionally runs
// an AI synthesis step over the survivors.
package aggregator

import (
	"context"
	"log/slog"
	"time"

	"github.com/briefcast/briefcast/internal/models"
	"github.com/briefcast/briefcast/internal/sources"
	"github.com/briefcast/briefcast/internal/validate"
)

// Analyzer synthesizes a narrative from the deduplicated item set. It is
// an external collaborator: a nil result or an error means the analysis
// is simply absent from the aggregate.
type Analyzer interface {
	Analyze(ctx context.Context, topic string, items []models.RawItem) (*models.AIAnalysis, error)
}

// Options bounds one aggregation run.
type Options struct {
	AdapterTimeout  time.Duration // per-adapter fetch budget
	GlobalDeadline  time.Duration // whole fan-out budget
	AnalysisTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.AdapterTimeout <= 0 {
		o.AdapterTimeout = 30 * time.Second
	}
	if o.GlobalDeadline <= 0 {
		o.GlobalDeadline = 60 * time.Second
	}
	if o.AnalysisTimeout <= 0 {
		o.AnalysisTimeout = 45 * time.Second
	}
	return o
}

// Aggregator orchestrates the multi-source fan-out. All collaborators
// are injected at construction; there is no global state.
type Aggregator struct {
	sources  []sources.Source
	analyzer Analyzer
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Aggregator over the given adapters. analyzer may be nil
// to disable the AI synthesis step.
func New(srcs []sources.Source, analyzer Analyzer, opts Options, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		sources:  srcs,
		analyzer: analyzer,
		opts:     opts.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

type fetchOutcome struct {
	source sources.Source
	items  []models.RawItem
	err    error
}

// AggregateAll runs the full pipeline for topic. It is total over its
// input domain: every failure mode short of an invalid topic degrades to
// a smaller (possibly empty) result rather than an error.
func (a *Aggregator) AggregateAll(ctx context.Context, topic string, daysBack, maxPerPlatform int) (*models.AggregateResult, error) {
	topic, err := validate.Topic(topic)
	if err != nil {
		return nil, err
	}
	daysBack = validate.BoundInt(daysBack, 1, 90)
	maxPerPlatform = validate.BoundInt(maxPerPlatform, 1, 200)

	outcomes, statuses := a.fanOut(ctx, topic, daysBack, maxPerPlatform)

	var all []models.RawItem
	for _, oc := range outcomes {
		all = append(all, oc.items...)
	}
	total := len(all)

	deduped := dedupe(all)
	a.scoreCredibility(deduped)

	result := &models.AggregateResult{
		Topic:             topic,
		Platforms:         bucketize(all),
		TotalSources:      total,
		DeduplicatedCount: len(deduped),
		Items:             deduped,
		Statuses:          statuses,
		GeneratedAt:       a.now(),
	}

	if a.analyzer != nil && len(deduped) > 0 {
		actx, cancel := context.WithTimeout(ctx, a.opts.AnalysisTimeout)
		analysis, err := a.analyzer.Analyze(actx, topic, deduped)
		cancel()
		if err != nil {
			a.logger.Warn("ai analysis failed", "topic", topic, "error", err)
		} else {
			result.AIAnalysis = analysis
		}
	}

	a.logger.Info("aggregation complete",
		"topic", topic,
		"total_sources", result.TotalSources,
		"deduplicated", result.DeduplicatedCount,
		"platforms", len(result.Platforms))

	return result, nil
}

// fanOut launches every adapter concurrently and collects whatever
// finishes before the global deadline. Each goroutine writes only to its
// own outcome sent over a buffered channel, so adapters that outlive the
// deadline cannot corrupt a result already returned.
func (a *Aggregator) fanOut(ctx context.Context, topic string, daysBack, maxPerPlatform int) ([]fetchOutcome, []models.SourceStatus) {
	results := make(chan fetchOutcome, len(a.sources))

	for _, src := range a.sources {
		go func(src sources.Source) {
			fctx, cancel := context.WithTimeout(ctx, a.opts.AdapterTimeout)
			defer cancel()

			items, err := src.Fetch(fctx, topic, maxPerPlatform, daysBack)
			results <- fetchOutcome{source: src, items: items, err: err}
		}(src)
	}

	deadline := time.NewTimer(a.opts.GlobalDeadline)
	defer deadline.Stop()

	var outcomes []fetchOutcome
	statuses := make([]models.SourceStatus, 0, len(a.sources))
	pending := map[string]models.Platform{}
	for _, src := range a.sources {
		pending[src.Name()] = src.Platform()
	}

collect:
	for range a.sources {
		select {
		case oc := <-results:
			delete(pending, oc.source.Name())
			status := models.SourceStatus{
				Platform: oc.source.Platform(),
				Name:     oc.source.Name(),
				Items:    len(oc.items),
			}
			switch {
			case oc.err != nil:
				status.Reason = models.FetchError
				status.Err = oc.err.Error()
				a.logger.Warn("source fetch failed", "source", oc.source.Name(), "error", oc.err)
			case len(oc.items) == 0:
				status.Reason = models.FetchEmpty
			default:
				status.Reason = models.FetchOK
			}
			statuses = append(statuses, status)
			if oc.err == nil {
				outcomes = append(outcomes, oc)
			}
		case <-deadline.C:
			break collect
		case <-ctx.Done():
			break collect
		}
	}

	// Sources still pending when the deadline fired are excluded from
	// the aggregate. Their goroutines finish into the buffered channel.
	for name, platform := range pending {
		a.logger.Warn("source timed out", "source", name)
		statuses = append(statuses, models.SourceStatus{
			Platform: platform,
			Name:     name,
			Reason:   models.FetchTimeout,
		})
	}

	return outcomes, statuses
}

// dedupe removes duplicates: exact external-ID matches within a
// platform, then exact normalized-title matches across platforms. Fuzzy
// title similarity is deliberately not attempted; exact matching is the
// documented baseline policy. First occurrence wins, preserving adapter
// arrival order.
func dedupe(items []models.RawItem) []models.RawItem {
	seenID := make(map[string]bool, len(items))
	seenTitle := make(map[string]bool, len(items))

	out := make([]models.RawItem, 0, len(items))
	for _, item := range items {
		id := item.DedupeKey()
		if item.ExternalID == "" {
			id = string(item.SourcePlatform) + ":" + item.ContentHash()
		}
		if seenID[id] {
			continue
		}
		title := item.TitleKey()
		if title != "" && seenTitle[title] {
			continue
		}
		seenID[id] = true
		if title != "" {
			seenTitle[title] = true
		}
		out = append(out, item)
	}
	return out
}

// platformWeight reflects baseline trust in each platform's editorial
// process.
var platformWeight = map[models.Platform]float64{
	models.PlatformNews:      0.85,
	models.PlatformFeed:      0.80,
	models.PlatformVideo:     0.60,
	models.PlatformForum:     0.55,
	models.PlatformMicroblog: 0.45,
}

// scoreCredibility assigns each item a deterministic credibility score
// in [0,1]: platform trust baseline, plus a bonus for carrying a source
// URL, recency within the last week, and engagement normalized against
// the platform's own maximum in this batch.
func (a *Aggregator) scoreCredibility(items []models.RawItem) {
	maxEngagement := map[models.Platform]float64{}
	for _, item := range items {
		if item.EngagementScore > maxEngagement[item.SourcePlatform] {
			maxEngagement[item.SourcePlatform] = item.EngagementScore
		}
	}

	now := a.now()
	for i := range items {
		item := &items[i]
		score := 0.6 * platformWeight[item.SourcePlatform]

		if item.URL != "" {
			score += 0.1
		}
		if !item.PublishedAt.IsZero() {
			age := now.Sub(item.PublishedAt)
			if age < 0 {
				age = 0
			}
			if age < 7*24*time.Hour {
				score += 0.15 * (1 - age.Hours()/(7*24))
			}
		}
		if max := maxEngagement[item.SourcePlatform]; max > 0 {
			score += 0.15 * (item.EngagementScore / max)
		}

		item.Credibility = validate.BoundFloat(score, 0, 1)
	}
}

// bucketize groups the raw per-adapter items per platform, before any
// deduplication. The bucket counts therefore sum to TotalSources, and a
// platform appears in the map exactly when its adapter returned at
// least one item.
func bucketize(items []models.RawItem) map[models.Platform]models.PlatformBucket {
	buckets := make(map[models.Platform]models.PlatformBucket)
	for _, item := range items {
		b := buckets[item.SourcePlatform]
		b.Count++
		b.Items = append(b.Items, item)
		buckets[item.SourcePlatform] = b
	}
	return buckets
}
