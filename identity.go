package main

import (
	"log"
	"sort"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// ResolveIdentities merges the participant identities observed across all
// tickets into person nodes. Stage one groups identities sharing a
// normalized email; stage two greedily attaches the remainder to the best
// name-similar node at or above the threshold. Both stages walk identities
// in a stable order, so the same input always produces the same clusters,
// and resolving the resolver's own output is a fixed point.
//
// The returned map goes from "source:source_id" to person node id.
func ResolveIdentities(tickets []ConsolidatedTicket, threshold float64) ([]PersonNode, map[string]string) {
	identities := collectIdentities(tickets)

	type cluster struct {
		members []Identity
	}
	var clusters []*cluster

	// Stage 1: exact match on normalized email.
	byEmail := make(map[string]*cluster)
	var unmatched []Identity
	for _, id := range identities {
		email := normalizeEmail(id.Email)
		if email == "" {
			unmatched = append(unmatched, id)
			continue
		}
		c, ok := byEmail[email]
		if !ok {
			c = &cluster{}
			byEmail[email] = c
			clusters = append(clusters, c)
		}
		id.Confidence = 1.0
		c.members = append(c.members, id)
	}

	// Stage 2: greedy name similarity against existing cluster labels.
	for _, id := range unmatched {
		name := normalizeName(id.DisplayName)
		if name == "" {
			id.Confidence = 1.0
			clusters = append(clusters, &cluster{members: []Identity{id}})
			continue
		}

		var best *cluster
		bestScore := 0.0
		for _, c := range clusters {
			label := normalizeName(clusterLabel(c.members))
			if label == "" {
				continue
			}
			score := nameSimilarity(name, label)
			if score >= threshold && score > bestScore {
				best = c
				bestScore = score
			}
		}
		if best != nil {
			id.Confidence = bestScore
			best.members = append(best.members, id)
		} else {
			id.Confidence = 1.0
			clusters = append(clusters, &cluster{members: []Identity{id}})
		}
	}

	nodes := make([]PersonNode, 0, len(clusters))
	keyToNode := make(map[string]string)
	for _, c := range clusters {
		node := PersonNode{
			ID:         uuid.NewString(),
			Label:      clusterLabel(c.members),
			Identities: c.members,
		}
		nodes = append(nodes, node)
		for _, m := range c.members {
			keyToNode[m.Source+":"+m.SourceID] = node.ID
		}
	}

	log.Printf("identity resolved people=%d from identities=%d", len(nodes), len(identities))
	return nodes, keyToNode
}

// collectIdentities gathers one identity per (source, source_id) across all
// tickets, in a stable (source, source_id) order. Later sightings fill in
// missing name or email fields.
func collectIdentities(tickets []ConsolidatedTicket) []Identity {
	byKey := make(map[string]*Identity)
	var keys []string
	for _, t := range tickets {
		for _, p := range t.People {
			key := p.Source + ":" + p.SourceID
			existing, ok := byKey[key]
			if !ok {
				byKey[key] = &Identity{
					Source:      p.Source,
					SourceID:    p.SourceID,
					Email:       p.Email,
					DisplayName: p.Name,
				}
				keys = append(keys, key)
				continue
			}
			if existing.Email == "" {
				existing.Email = p.Email
			}
			if existing.DisplayName == "" {
				existing.DisplayName = p.Name
			}
		}
	}
	sort.Strings(keys)
	out := make([]Identity, len(keys))
	for i, k := range keys {
		out[i] = *byKey[k]
	}
	return out
}

// clusterLabel picks the most complete display name among members. A full
// name (no initials) outranks an abbreviated one, and an email breaks the
// tie, so a node holding "J. Smith" <jsmith@co.com> and "John Smith" is
// labeled "John Smith".
func clusterLabel(members []Identity) string {
	label := ""
	bestScore := -1
	for _, m := range members {
		if m.DisplayName == "" {
			continue
		}
		score := 1
		if !hasInitialToken(m.DisplayName) {
			score += 2
		}
		if m.Email != "" {
			score++
		}
		if score > bestScore {
			bestScore = score
			label = m.DisplayName
		}
	}
	if label == "" && len(members) > 0 {
		label = members[0].SourceID
	}
	return label
}

func hasInitialToken(name string) bool {
	for _, tok := range strings.Fields(normalizeName(name)) {
		if len(tok) == 1 {
			return true
		}
	}
	return false
}

// nameSimilarity scores two normalized names in [0,1]. Single-letter tokens
// are treated as initials and expanded against the other name's tokens
// before the edit-distance ratio, so "j smith" matches "john smith" while
// "jane smith" does not.
func nameSimilarity(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	expandedA := expandInitials(tokensA, tokensB)
	expandedB := expandInitials(tokensB, tokensA)
	sort.Strings(expandedA)
	sort.Strings(expandedB)
	return strutil.Similarity(strings.Join(expandedA, " "), strings.Join(expandedB, " "), metrics.NewLevenshtein())
}

// expandInitials replaces each single-letter token with the unique token of
// the other name that starts with that letter, when one exists.
func expandInitials(tokens, other []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok
		if len(tok) != 1 {
			continue
		}
		match := ""
		for _, o := range other {
			if len(o) > 1 && o[0] == tok[0] {
				if match != "" {
					match = ""
					break
				}
				match = o
			}
		}
		if match != "" {
			out[i] = match
		}
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeName lowercases, strips diacritics and punctuation, and sorts
// the name tokens so "Smith, John" and "jöhn smith" compare equal.
func normalizeName(name string) string {
	decomposed := norm.NFD.String(strings.ToLower(name))
	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// drop combining marks
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
