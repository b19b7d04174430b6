package main

import (
	"regexp"
	"strings"
)

// refPattern matches one shape of cross-source identifier. inferSource maps
// a matched id to the source type the shape implies ("" when unknown).
type refPattern struct {
	re          regexp.Regexp
	group       int
	inferSource string
}

var refPatterns = []refPattern{
	{re: *regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`), group: 1, inferSource: "jira"},
	{re: *regexp.MustCompile(`#(\d{4,})\b`), group: 1, inferSource: "github"},
	{re: *regexp.MustCompile(`https?://[^\s/]+/(?:browse|issues)/([A-Za-z0-9-]+)\b`), group: 1, inferSource: ""},
}

var (
	fencedBlockRE = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRE  = regexp.MustCompile("`[^`\n]*`")
	quotedLineRE  = regexp.MustCompile(`(?m)^\s*>.*$`)
)

// ExtractReferences scans free text for cross-source ticket identifiers.
// Matches inside fenced code blocks, inline code spans, and quoted lines are
// ignored. Results keep first-seen order with duplicates removed.
func ExtractReferences(text, sourceHint string) []SourceReference {
	masked := maskNonProse(text)

	var refs []SourceReference
	seen := make(map[string]bool)
	for _, p := range refPatterns {
		for _, m := range p.re.FindAllStringSubmatch(masked, -1) {
			id := m[p.group]
			source := p.inferSource
			if source == "" {
				source = sourceHint
			}
			key := source + ":" + id
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, SourceReference{Source: source, ID: id})
		}
	}
	return refs
}

// maskNonProse blanks out code and quoted spans so the reference patterns
// only see prose. Replacement preserves length so nothing else shifts.
func maskNonProse(text string) string {
	mask := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r == '\n' {
				return '\n'
			}
			return ' '
		}, s)
	}
	text = fencedBlockRE.ReplaceAllStringFunc(text, mask)
	text = inlineCodeRE.ReplaceAllStringFunc(text, mask)
	text = quotedLineRE.ReplaceAllStringFunc(text, mask)
	return text
}
