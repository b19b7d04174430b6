package main

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

type sparseVec = map[int]float64

// tfidfIndex weights terms by how distinctive they are against the run's
// ticket corpus. The rule learner uses it to pick correction keywords; the
// suggester uses it to rank candidate rule keywords.
type tfidfIndex struct {
	vocab map[string]int
	idf   []float64
	docs  []sparseVec
}

func tokenizeText(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func buildTFIDFIndex(texts []string) *tfidfIndex {
	idx := &tfidfIndex{vocab: make(map[string]int)}
	if len(texts) == 0 {
		return idx
	}

	for _, text := range texts {
		for _, tok := range tokenizeText(text) {
			if _, ok := idx.vocab[tok]; !ok {
				idx.vocab[tok] = len(idx.vocab)
			}
		}
	}

	df := make([]int, len(idx.vocab))
	idx.docs = make([]sparseVec, len(texts))
	n := float64(len(texts))

	for i, text := range texts {
		tf := make(map[int]int)
		for _, tok := range tokenizeText(text) {
			tf[idx.vocab[tok]]++
		}
		vec := make(sparseVec, len(tf))
		for term, count := range tf {
			vec[term] = float64(count)
			df[term]++
		}
		idx.docs[i] = vec
	}

	idx.idf = make([]float64, len(idx.vocab))
	for i, d := range df {
		if d > 0 {
			idx.idf[i] = math.Log(n/float64(d)) + 1.0
		}
	}
	return idx
}

// basic English stopwords, enough to keep function words out of learned
// rules.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "from": true, "have": true, "are": true, "was": true,
	"been": true, "will": true, "can": true, "has": true, "but": true,
	"not": true, "you": true, "all": true, "were": true, "when": true,
	"there": true, "what": true, "which": true, "their": true, "said": true,
	"each": true, "she": true, "how": true, "may": true, "other": true,
	"than": true, "then": true, "now": true, "only": true, "could": true,
	"our": true, "also": true, "any": true, "get": true, "its": true,
	"your": true, "would": true, "should": true, "about": true, "into": true,
}

// distinctiveTerms ranks the terms of one text by term frequency weighted
// with corpus IDF, dropping stopwords, short tokens and terms seen fewer
// than minCount times. Ties break alphabetically so repeated sessions learn
// the same keywords.
func (idx *tfidfIndex) distinctiveTerms(text string, minCount, topN int) []string {
	counts := make(map[string]int)
	for _, tok := range tokenizeText(text) {
		if len(tok) < 3 || stopWords[tok] {
			continue
		}
		counts[tok]++
	}

	type scored struct {
		term  string
		score float64
	}
	var terms []scored
	for term, count := range counts {
		if count < minCount {
			continue
		}
		weight := 1.0
		if i, ok := idx.vocab[term]; ok {
			weight = idx.idf[i]
		}
		terms = append(terms, scored{term, float64(count) * weight})
	}
	sort.Slice(terms, func(a, b int) bool {
		if terms[a].score != terms[b].score {
			return terms[a].score > terms[b].score
		}
		return terms[a].term < terms[b].term
	})
	if len(terms) > topN {
		terms = terms[:topN]
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.term
	}
	return out
}
