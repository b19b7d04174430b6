package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

const (
	suggestMinTickets  = 2
	suggestMaxKeywords = 5
)

// RuleSuggestion is one proposed addition to the rule overlay. Suggestions
// are printed for the operator, never written automatically.
type RuleSuggestion struct {
	Category  string
	Keywords  []string
	Reasoning string
	Origin    string // "frequency" or "llm"
}

// FrequencySuggestions proposes keywords per category from the classified
// corpus: terms that recur across several tickets of a category, weighted by
// corpus IDF, and not already covered by the effective rules. Deterministic
// for a given corpus.
func FrequencySuggestions(tickets []ConsolidatedTicket, analyses []TicketAnalysis, rules RuleSet) []RuleSuggestion {
	byID := make(map[string]ConsolidatedTicket, len(tickets))
	texts := make([]string, 0, len(tickets))
	for _, t := range tickets {
		byID[t.ID] = t
		texts = append(texts, t.Text())
	}
	idx := buildTFIDFIndex(texts)

	// term -> tickets of the category containing it
	type termStat struct {
		tickets int
		count   int
	}
	perCategory := make(map[string]map[string]*termStat)

	for _, a := range analyses {
		t, ok := byID[a.ID]
		if !ok {
			continue
		}
		category := a.Classification.Type
		stats := perCategory[category]
		if stats == nil {
			stats = make(map[string]*termStat)
			perCategory[category] = stats
		}
		seen := make(map[string]bool)
		for _, tok := range tokenizeText(t.Text()) {
			if len(tok) < 3 || stopWords[tok] {
				continue
			}
			s := stats[tok]
			if s == nil {
				s = &termStat{}
				stats[tok] = s
			}
			s.count++
			if !seen[tok] {
				s.tickets++
				seen[tok] = true
			}
		}
	}

	var out []RuleSuggestion
	for _, category := range categoryPriority {
		stats, ok := perCategory[category]
		if !ok {
			continue
		}
		existing := rules.EffectiveKeywords(category, "")

		type scored struct {
			term  string
			score float64
		}
		var candidates []scored
		for term, s := range stats {
			if s.tickets < suggestMinTickets {
				continue
			}
			if _, covered := existing[term]; covered {
				continue
			}
			weight := 1.0
			if i, found := idx.vocab[term]; found {
				weight = idx.idf[i]
			}
			candidates = append(candidates, scored{term, float64(s.count) * weight})
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].score != candidates[b].score {
				return candidates[a].score > candidates[b].score
			}
			return candidates[a].term < candidates[b].term
		})
		if len(candidates) > suggestMaxKeywords {
			candidates = candidates[:suggestMaxKeywords]
		}
		if len(candidates) == 0 {
			continue
		}
		keywords := make([]string, len(candidates))
		for i, c := range candidates {
			keywords[i] = c.term
		}
		out = append(out, RuleSuggestion{
			Category:  category,
			Keywords:  keywords,
			Reasoning: fmt.Sprintf("recurring in %s tickets, absent from current rules", category),
			Origin:    "frequency",
		})
	}
	return out
}

// PrintSuggestions renders suggestions for the operator to fold into the
// overlay by hand.
func PrintSuggestions(suggestions []RuleSuggestion) {
	if len(suggestions) == 0 {
		fmt.Println("no rule suggestions")
		return
	}
	for _, s := range suggestions {
		color.New(color.FgCyan, color.Bold).Printf("%s", s.Category)
		fmt.Printf(" (%s)\n", s.Origin)
		fmt.Printf("  keywords: %s\n", strings.Join(s.Keywords, ", "))
		if s.Reasoning != "" {
			fmt.Printf("  %s\n", s.Reasoning)
		}
	}
}
