// Package ai implements the aggregator's Analyzer contract on top of the
// OpenAI chat completions API.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/briefcast/briefcast/internal/models"
	"github.com/briefcast/briefcast/internal/validate"
)

const (
	defaultModel = "gpt-4o-mini"

	// maxItemsInPrompt bounds the context size: only the first N items
	// reach the model, with truncated bodies.
	maxItemsInPrompt = 100
	maxBodyInPrompt  = 500
)

// OpenAIClient runs the synthesis step over a deduplicated item set.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates an analyzer using the given API key. An empty
// model uses gpt-4o-mini.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = defaultModel
	}
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

type analysisResponse struct {
	MainNarrative    string  `json:"main_narrative"`
	CredibilityScore float64 `json:"credibility_score"`
	KeyFacts         []struct {
		Fact    string   `json:"fact"`
		Sources []string `json:"sources"`
	} `json:"key_facts"`
}

// Analyze asks the model for a main narrative, an aggregate credibility
// score, and an ordered list of key facts with supporting source URLs.
func (c *OpenAIClient) Analyze(ctx context.Context, topic string, items []models.RawItem) (*models.AIAnalysis, error) {
	if len(items) == 0 {
		return nil, nil
	}

	prompt := buildAnalysisPrompt(topic, items)

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You are a research analyst. Synthesize multi-platform coverage into a structured JSON analysis."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(4000),
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	content := stripCodeFence(response.Choices[0].Message.Content)
	var parsed analysisResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse openai response: %w", err)
	}

	analysis := &models.AIAnalysis{
		MainNarrative:    parsed.MainNarrative,
		CredibilityScore: validate.BoundFloat(parsed.CredibilityScore, 0, 1),
	}
	for _, f := range parsed.KeyFacts {
		analysis.KeyFacts = append(analysis.KeyFacts, models.KeyFact{Fact: f.Fact, Sources: f.Sources})
	}
	return analysis, nil
}

func buildAnalysisPrompt(topic string, items []models.RawItem) string {
	if len(items) > maxItemsInPrompt {
		items = items[:maxItemsInPrompt]
	}

	var sb strings.Builder
	sb.WriteString("Analyze content from multiple platforms about: " + topic + "\n\n")
	sb.WriteString("Respond with JSON only:\n")
	sb.WriteString(`{"main_narrative": "2-3 sentence summary", "credibility_score": 0.85, "key_facts": [{"fact": "...", "sources": ["url or id"]}]}`)
	sb.WriteString("\n\nkey_facts holds the 10 most important facts, most important first, each citing the supporting source URLs.\n")
	sb.WriteString("credibility_score rates overall source reliability from 0 to 1.\n\n")
	sb.WriteString(fmt.Sprintf("SOURCES (%d items):\n\n", len(items)))

	for i, item := range items {
		sb.WriteString(fmt.Sprintf("Item %d [%s]\n", i+1, item.SourcePlatform))
		sb.WriteString("Title: " + item.Title + "\n")
		if item.BodyText != "" {
			body := item.BodyText
			if len(body) > maxBodyInPrompt {
				cut := maxBodyInPrompt
				for cut > 0 && !utf8.RuneStart(body[cut]) {
					cut--
				}
				body = body[:cut]
			}
			sb.WriteString("Content: " + body + "\n")
		}
		if item.URL != "" {
			sb.WriteString("URL: " + item.URL + "\n")
		}
		sb.WriteString(fmt.Sprintf("Engagement: %.0f\n\n", item.EngagementScore))
	}

	return sb.String()
}

// stripCodeFence tolerates models that wrap the JSON in a markdown
// fence despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
