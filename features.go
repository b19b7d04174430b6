package main

import (
	"strings"
	"unicode"

	prose "github.com/jdkato/prose/v2"
)

// LinguisticFeatures is the grammatical signal extracted from ticket text:
// part-of-speech derived mood markers plus the token inventory the keyword
// scorer matches against.
type LinguisticFeatures struct {
	HasModal      bool // would, could, should (MD tag)
	HasNegation   bool // not, n't, never
	HasQuestion   bool // ends with ?, wh-word sentence openers
	HasImperative bool // sentence-initial base-form verb

	Tokens   []string // lowercased word tokens
	Verbs    []string // lowercased verb tokens (VB*)
	Entities []string // named-entity spans, original case

	tokenSet map[string]bool
}

// HasToken reports whether the lowercased word token appears in the text.
func (f LinguisticFeatures) HasToken(tok string) bool {
	return f.tokenSet[tok]
}

var negationTokens = map[string]bool{
	"not": true, "n't": true, "never": true, "cannot": true, "no": true,
}

var whTags = map[string]bool{
	"WDT": true, "WP": true, "WP$": true, "WRB": true,
}

// ExtractFeatures runs part-of-speech tagging and entity extraction over the
// text. An empty or unparseable text yields ok=false; the classifier falls
// back to its default category rather than failing.
func ExtractFeatures(text string) (LinguisticFeatures, bool) {
	f := LinguisticFeatures{tokenSet: make(map[string]bool)}
	if strings.TrimSpace(text) == "" {
		return f, false
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return f, false
	}

	f.HasQuestion = strings.Contains(text, "?")

	sentenceStart := true
	for _, tok := range doc.Tokens() {
		lower := strings.ToLower(tok.Text)

		if isWordToken(tok.Text) {
			f.Tokens = append(f.Tokens, lower)
			f.tokenSet[lower] = true
		}

		switch {
		case tok.Tag == "MD":
			f.HasModal = true
		case negationTokens[lower]:
			f.HasNegation = true
		}
		if strings.HasPrefix(tok.Tag, "VB") {
			f.Verbs = append(f.Verbs, lower)
		}
		if sentenceStart {
			if tok.Tag == "VB" {
				f.HasImperative = true
			}
			if whTags[tok.Tag] {
				f.HasQuestion = true
			}
		}
		sentenceStart = tok.Tag == "." || tok.Text == "." || tok.Text == "!" || tok.Text == "?" || tok.Text == "\n"
	}

	for _, ent := range doc.Entities() {
		f.Entities = append(f.Entities, ent.Text)
	}

	return f, len(f.Tokens) > 0
}

func isWordToken(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
