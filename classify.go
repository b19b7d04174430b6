package main

import (
	"math"
	"strings"
)

const (
	correctionConfidence = 0.99
	fallbackConfidence   = 0.3
	maxConfidence        = 0.99
)

// ClassifyTicket assigns a category and confidence to one consolidated
// ticket using the layered rule set plus linguistic signal. It reads the
// rule set but mutates nothing; identical input always yields identical
// output.
func ClassifyTicket(t ConsolidatedTicket, rules RuleSet) Classification {
	summary := truncate(t.Title, 200)
	text := t.Text()

	features, parsed := ExtractFeatures(text)

	// Operator corrections win outright, before any scoring.
	if category, ok := rules.Correction(t); ok {
		return Classification{
			Type:       category,
			Confidence: correctionConfidence,
			Keywords:   ExtractKeywords(text, features, rules, nil),
			Summary:    summary,
		}
	}

	if !parsed {
		return Classification{
			Type:       "inquiry",
			Confidence: fallbackConfidence,
			Summary:    summary,
		}
	}

	scores, matched := scoreCategories(text, features, rules, t.Context())
	applyFeatureBoosts(scores, features, rules.Config.FeatureWeights)

	best, bestScore := pickCategory(scores)
	if bestScore == 0 {
		return Classification{
			Type:       "inquiry",
			Confidence: fallbackConfidence,
			Summary:    summary,
		}
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	confidence := bestScore / total
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return Classification{
		Type:       best,
		Confidence: math.Round(confidence*100) / 100,
		Keywords:   ExtractKeywords(text, features, rules, matched),
		Summary:    summary,
	}
}

// scoreCategories computes the keyword score per category: each rule keyword
// present in the text adds its effective (max-across-layers) weight. Returns
// the scores and the list of keywords that matched anywhere.
func scoreCategories(text string, features LinguisticFeatures, rules RuleSet, context string) (map[string]float64, []string) {
	textLower := strings.ToLower(text)
	scores := make(map[string]float64, len(categoryPriority))
	var matched []string
	seen := make(map[string]bool)

	for _, category := range categoryPriority {
		scores[category] = 0
		for kw, weight := range rules.EffectiveKeywords(category, context) {
			hit := false
			if strings.Contains(kw, " ") {
				hit = containsPhrase(textLower, kw)
			} else {
				hit = features.HasToken(kw)
			}
			if !hit {
				continue
			}
			scores[category] += weight
			if !seen[kw] {
				seen[kw] = true
				matched = append(matched, kw)
			}
		}
	}
	return scores, matched
}

// applyFeatureBoosts adds the grammatical-signal contributions. The boosts
// mirror how the moods read in support traffic: questions signal inquiries,
// modals signal wishes, negated action verbs signal defects.
func applyFeatureBoosts(scores map[string]float64, f LinguisticFeatures, w FeatureWeights) {
	maxScore := 0.0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	if f.HasModal && maxScore < 2.0 {
		scores["enhancement"] += w.ModalEnhancement
	}
	if f.HasQuestion {
		scores["inquiry"] += w.QuestionInquiry
	}
	if f.HasNegation && len(f.Verbs) > 0 && scores["routing_issue"] < 1.0 {
		scores["defect"] += w.NegationDefect
	}
	if f.HasImperative {
		scores["enhancement"] += w.ImperativeEnhancement
	}
}

// pickCategory returns the highest-scoring category. Ties resolve to the
// earlier entry in the fixed priority order.
func pickCategory(scores map[string]float64) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, category := range categoryPriority {
		if s := scores[category]; s > bestScore {
			best = category
			bestScore = s
		}
	}
	return best, bestScore
}

// containsPhrase reports a case-insensitive, word-boundary match of a
// multi-word phrase. needle must already be lowercased.
func containsPhrase(haystackLower, needle string) bool {
	start := 0
	for {
		i := strings.Index(haystackLower[start:], needle)
		if i < 0 {
			return false
		}
		i += start
		before := i - 1
		after := i + len(needle)
		boundaryBefore := before < 0 || !isAlnum(rune(haystackLower[before]))
		boundaryAfter := after >= len(haystackLower) || !isAlnum(rune(haystackLower[after]))
		if boundaryBefore && boundaryAfter {
			return true
		}
		start = i + 1
	}
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
