package main

import (
	"regexp"
	"sort"
	"strings"
)

const maxKeywords = 10

// Component-name shapes that recur in infrastructure traffic. These catch
// service names NER has never seen.
var componentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\w+-service)\b`),
	regexp.MustCompile(`(?i)\b(\w+-api)\b`),
	regexp.MustCompile(`(?i)\b(\w+-gateway)\b`),
	regexp.MustCompile(`(?i)\b(\w+-worker)\b`),
	regexp.MustCompile(`(?i)\b(\w+-queue)\b`),
	regexp.MustCompile(`(?i)\b(\w+-db)\b`),
	regexp.MustCompile(`(?i)\b(\w+-cache)\b`),
}

// False-positive component names: generic noun phrases that happen to end
// in a component suffix.
var stopComponents = map[string]bool{
	"the-service":      true,
	"a-service":        true,
	"this-service":     true,
	"our-service":      true,
	"my-service":       true,
	"your-service":     true,
	"customer-service": true,
}

// ExtractKeywords builds the keyword list for one ticket: the rule keywords
// that matched during scoring, component names found by pattern, and named
// entities that survive the specificity filter. Globally excluded terms are
// dropped, always-include terms present in the text are added, and the
// result is deduplicated, sorted and capped.
func ExtractKeywords(text string, features LinguisticFeatures, rules RuleSet, matched []string) []string {
	excluded := rules.excludedSet()
	seen := make(map[string]bool)

	var primary []string
	add := func(dst *[]string, kw string) {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" || seen[key] || excluded[key] {
			return
		}
		seen[key] = true
		*dst = append(*dst, kw)
	}

	for _, kw := range matched {
		add(&primary, kw)
	}

	textLower := strings.ToLower(text)
	for _, kw := range rules.AlwaysInclude {
		if containsPhrase(textLower, strings.ToLower(strings.TrimSpace(kw))) {
			add(&primary, kw)
		}
	}

	var extra []string
	for _, p := range componentPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			name := strings.ToLower(m[1])
			if !stopComponents[name] {
				add(&extra, name)
			}
		}
	}
	for _, ent := range features.Entities {
		if keepEntity(ent) {
			add(&extra, ent)
		}
	}

	sort.Strings(primary)
	sort.Strings(extra)
	out := append(primary, extra...)
	if len(out) > maxKeywords {
		out = out[:maxKeywords]
	}
	return out
}

// keepEntity filters out spans NER tagged that are plainly not product or
// organization names: code fragments, URLs, bare variable names.
func keepEntity(kw string) bool {
	if kw == "" {
		return false
	}
	for _, c := range kw {
		if c < 32 && c != ' ' {
			return false
		}
	}
	if strings.ContainsAny(kw, "(){}[]<>./\\&+*=") {
		return false
	}
	if strings.Contains(strings.ToLower(kw), "http") || strings.Contains(kw, "://") {
		return false
	}
	first, last := kw[0], kw[len(kw)-1]
	if strings.ContainsRune(`'"`+"`#", rune(first)) || strings.ContainsRune(`'"`+"`", rune(last)) {
		return false
	}

	// Mostly non-alphabetic spans are code or identifiers.
	alpha := 0
	for _, c := range kw {
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == ' ' {
			alpha++
		}
	}
	if float64(alpha)/float64(len(kw)) < 0.75 {
		return false
	}

	if !strings.Contains(kw, " ") {
		// Single lowercase words and camelCase identifiers are variables,
		// not names.
		if kw == strings.ToLower(kw) {
			return false
		}
		for i := 0; i+1 < len(kw); i++ {
			if isLower(kw[i]) && isUpper(kw[i+1]) {
				return false
			}
		}
	}
	return true
}

func isLower(c byte) bool { return 'a' <= c && c <= 'z' }
func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }
