// Package notify publishes aggregation digests to Telegram. Delivery is
// best-effort: a failed send is logged and never fails the request that
// produced the digest.
package notify

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/briefcast/briefcast/internal/models"
)

// Notifier sends digest messages to a fixed chat. A nil Notifier (no
// token configured) is a no-op.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// New creates a Telegram notifier. Returns nil when token is empty,
// which callers treat as "notifications disabled".
func New(token, chatID string, logger *slog.Logger) (*Notifier, error) {
	if token == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse telegram chat id %q: %w", chatID, err)
	}

	return &Notifier{api: api, chatID: id, logger: logger}, nil
}

// SendDigest formats and sends a summary of one aggregation result.
func (n *Notifier) SendDigest(result *models.AggregateResult) {
	if n == nil || result == nil {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, formatDigest(result))
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Warn("telegram digest send failed", "topic", result.Topic, "error", err)
	}
}

func formatDigest(result *models.AggregateResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Briefcast digest: %s\n", result.Topic)
	fmt.Fprintf(&sb, "%d sources, %d after dedup\n", result.TotalSources, result.DeduplicatedCount)

	for _, platform := range models.KnownPlatforms {
		if bucket, ok := result.Platforms[platform]; ok {
			fmt.Fprintf(&sb, "  %s: %d\n", platform, bucket.Count)
		}
	}

	if a := result.AIAnalysis; a != nil {
		fmt.Fprintf(&sb, "\n%s\n", a.MainNarrative)
		fmt.Fprintf(&sb, "Credibility: %.0f%%\n", a.CredibilityScore*100)
		for i, fact := range a.KeyFacts {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&sb, "- %s\n", fact.Fact)
		}
	}

	return sb.String()
}
