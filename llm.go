package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

const maxPromptTicketChars = 300

type LLMUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u LLMUsage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u *LLMUsage) Add(other LLMUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

type llmSuggestedRule struct {
	Category  string   `json:"category"`
	Keywords  []string `json:"keywords"`
	Reasoning string   `json:"reasoning"`
}

// SuggestRulesWithLLM asks the model for keyword rules that would raise
// confidence on the given low-confidence tickets. Recent operator
// corrections are included so suggestions follow the operators, not the
// current rules. Suggestions with unknown categories are dropped.
func SuggestRulesWithLLM(cfg Config, items []ReviewItem, audits []CorrectionAudit) ([]RuleSuggestion, LLMUsage, error) {
	if len(items) == 0 {
		return nil, LLMUsage{}, nil
	}

	var ticketLines strings.Builder
	for _, item := range items {
		text := strings.TrimSpace(item.Ticket.Text())
		if len(text) > maxPromptTicketChars {
			text = text[:maxPromptTicketChars] + "..."
		}
		text = strings.ReplaceAll(text, "\n", " ")
		ticketLines.WriteString(fmt.Sprintf("- [%s @ %.2f] %s\n", item.Classification.Type, item.Classification.Confidence, text))
	}

	correctionsBlock := "none"
	if len(audits) > 0 {
		var cb strings.Builder
		for _, a := range audits {
			summary := strings.TrimSpace(a.Summary)
			if len(summary) > 120 {
				summary = summary[:120] + "..."
			}
			cb.WriteString(fmt.Sprintf("- \"%s\": %s -> %s\n", summary, a.OriginalCategory, a.CorrectedCategory))
		}
		correctionsBlock = cb.String()
	}

	systemPrompt := fmt.Sprintf(`You suggest keyword rules for a support-ticket classifier.
Categories (use these exact names): %s

Given tickets the classifier is unsure about, propose keywords or short phrases
whose presence strongly indicates one category. Only propose patterns that
recur across tickets; max 5 suggestions, max 5 keywords each.

Respond with JSON only (no markdown):
[{"category": "defect", "keywords": ["stack trace", "regression"], "reasoning": "..."}, ...]`, categoryList())

	userPrompt := "Recent operator corrections (follow these):\n" + correctionsBlock +
		"\nLow-confidence tickets:\n" + ticketLines.String()

	model := cfg.LLMModel
	if model == "" {
		model = defaultAnthropicModel
	}
	log.Printf("llm suggest model=%s tickets=%d corrections=%d", model, len(items), len(audits))
	responseText, usage, err := callAnthropic(cfg.AnthropicAPIKey, model, systemPrompt, userPrompt)
	if err != nil {
		return nil, usage, err
	}

	parsed, err := parseSuggestedRules(responseText)
	if err != nil {
		return nil, usage, err
	}

	var out []RuleSuggestion
	for _, s := range parsed {
		category := strings.ToLower(strings.TrimSpace(s.Category))
		if !validCategory(category) {
			log.Printf("llm suggest dropped category=%q", s.Category)
			continue
		}
		var keywords []string
		for _, kw := range s.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			continue
		}
		out = append(out, RuleSuggestion{
			Category:  category,
			Keywords:  keywords,
			Reasoning: strings.TrimSpace(s.Reasoning),
			Origin:    "llm",
		})
	}
	return out, usage, nil
}

func parseSuggestedRules(responseText string) ([]llmSuggestedRule, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var parsed []llmSuggestedRule
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		truncated := responseText
		if len(truncated) > 512 {
			truncated = truncated[:512] + fmt.Sprintf("... [truncated, total_length=%d]", len(responseText))
		}
		return nil, fmt.Errorf("parsing suggestion response: %w (truncated response: %s)", err, truncated)
	}
	return parsed, nil
}

// --- Anthropic ---

func callAnthropic(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	message, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", LLMUsage{}, fmt.Errorf("Anthropic API error: %w", err)
	}
	usage := LLMUsage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d cache_create=%d cache_read=%d", len(block.Text), usage.InputTokens, usage.OutputTokens, usage.CacheCreationInputTokens, usage.CacheReadInputTokens)
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in Anthropic response")
}
