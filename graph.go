package main

import "sort"

// BuildPeopleGraph derives the co-participation graph: one edge between two
// person nodes per pair, weighted by the exact number of tickets where both
// participate in any role. Runs over the final resolved ticket set only.
func BuildPeopleGraph(tickets []ConsolidatedTicket, nodes []PersonNode, keyToNode map[string]string) PeopleGraph {
	type pair struct{ a, b string }
	weights := make(map[pair]int)

	for _, t := range tickets {
		// Distinct person nodes on this ticket.
		seen := make(map[string]bool)
		var ids []string
		for _, p := range t.People {
			nodeID, ok := keyToNode[p.Source+":"+p.SourceID]
			if !ok || seen[nodeID] {
				continue
			}
			seen[nodeID] = true
			ids = append(ids, nodeID)
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				weights[pair{ids[i], ids[j]}]++
			}
		}
	}

	edges := make([]PersonEdge, 0, len(weights))
	for p, w := range weights {
		edges = append(edges, PersonEdge{From: p.a, To: p.b, Weight: w})
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].From != edges[b].From {
			return edges[a].From < edges[b].From
		}
		return edges[a].To < edges[b].To
	})

	return PeopleGraph{Nodes: nodes, Edges: edges}
}

// BuildKeywordGraph derives the keyword co-occurrence graph from the
// classified tickets: issue_count per keyword, co_occurrence per pair of
// keywords extracted from the same ticket. Counts are exact.
func BuildKeywordGraph(analyses []TicketAnalysis) KeywordGraph {
	counts := make(map[string]int)
	type pair struct{ a, b string }
	cooc := make(map[pair]int)

	for _, analysis := range analyses {
		keywords := analysis.Classification.Keywords
		for _, kw := range keywords {
			counts[kw]++
		}
		for i := 0; i < len(keywords); i++ {
			for j := i + 1; j < len(keywords); j++ {
				a, b := keywords[i], keywords[j]
				if b < a {
					a, b = b, a
				}
				cooc[pair{a, b}]++
			}
		}
	}

	nodes := make([]KeywordNode, 0, len(counts))
	for kw, n := range counts {
		nodes = append(nodes, KeywordNode{ID: kw, IssueCount: n})
	}
	sort.Slice(nodes, func(a, b int) bool { return nodes[a].ID < nodes[b].ID })

	edges := make([]KeywordEdge, 0, len(cooc))
	for p, n := range cooc {
		edges = append(edges, KeywordEdge{From: p.a, To: p.b, CoOccurrence: n})
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].From != edges[b].From {
			return edges[a].From < edges[b].From
		}
		return edges[a].To < edges[b].To
	})

	return KeywordGraph{Nodes: nodes, Edges: edges}
}
