package main

import (
	"testing"
)

func identityTickets(people ...Person) []ConsolidatedTicket {
	return []ConsolidatedTicket{{ID: "jira:PROJ-1", People: people}}
}

func nodeByLabel(t *testing.T, nodes []PersonNode, label string) PersonNode {
	t.Helper()
	for _, n := range nodes {
		if n.Label == label {
			return n
		}
	}
	t.Fatalf("no node labeled %q in %v", label, nodes)
	return PersonNode{}
}

func TestResolveIdentitiesEmailMerge(t *testing.T) {
	tickets := identityTickets(
		Person{Source: "jira", SourceID: "u1", Name: "John Smith", Email: "John@Example.com", Role: "reporter"},
		Person{Source: "github", SourceID: "jsmith", Name: "jsmith", Email: "john@example.com", Role: "commenter"},
	)
	nodes, keyToNode := ResolveIdentities(tickets, 0.85)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node from shared email, got %d", len(nodes))
	}
	if keyToNode["jira:u1"] != keyToNode["github:jsmith"] {
		t.Fatalf("expected both identities mapped to the same node")
	}
	for _, id := range nodes[0].Identities {
		if id.Confidence != 1.0 {
			t.Fatalf("expected email-merge confidence 1.0, got %v", id.Confidence)
		}
	}
}

func TestResolveIdentitiesInitialsMergeButSimilarNamesDoNot(t *testing.T) {
	tickets := identityTickets(
		Person{Source: "jira", SourceID: "u1", Name: "John Smith", Email: "john@example.com", Role: "reporter"},
		Person{Source: "github", SourceID: "jsm", Name: "J. Smith", Role: "commenter"},
		Person{Source: "slack", SourceID: "U99", Name: "Jane Smith", Role: "participant"},
	)
	nodes, keyToNode := ResolveIdentities(tickets, 0.85)
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes (John+J. merged, Jane apart), got %d: %v", len(nodes), nodes)
	}

	john := nodeByLabel(t, nodes, "John Smith")
	if len(john.Identities) != 2 {
		t.Fatalf("expected J. Smith merged into John Smith, got %v", john.Identities)
	}
	if keyToNode["jira:u1"] != keyToNode["github:jsm"] {
		t.Fatalf("expected shared node for John and J. Smith")
	}
	if keyToNode["slack:U99"] == keyToNode["jira:u1"] {
		t.Fatalf("expected Jane Smith on her own node")
	}

	// The abbreviated member records the similarity it merged at.
	for _, id := range john.Identities {
		if id.SourceID == "jsm" && id.Confidence < 0.85 {
			t.Fatalf("expected merge confidence >= threshold, got %v", id.Confidence)
		}
	}
}

func TestResolveIdentitiesLabelPrefersFullName(t *testing.T) {
	tickets := identityTickets(
		Person{Source: "github", SourceID: "jsm", Name: "J. Smith", Email: "john@example.com"},
		Person{Source: "jira", SourceID: "u1", Name: "John Smith", Email: "john@example.com"},
	)
	nodes, _ := ResolveIdentities(tickets, 0.85)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if nodes[0].Label != "John Smith" {
		t.Fatalf("expected full name as label, got %q", nodes[0].Label)
	}
}

func TestResolveIdentitiesAccentInsensitive(t *testing.T) {
	tickets := identityTickets(
		Person{Source: "jira", SourceID: "u2", Name: "José García", Email: "jose@example.com"},
		Person{Source: "slack", SourceID: "U7", Name: "Jose Garcia"},
	)
	nodes, _ := ResolveIdentities(tickets, 0.85)
	if len(nodes) != 1 {
		t.Fatalf("expected accent-insensitive merge, got %d nodes", len(nodes))
	}
}

func TestResolveIdentitiesDeterministic(t *testing.T) {
	tickets := []ConsolidatedTicket{
		{ID: "jira:A-1", People: []Person{
			{Source: "jira", SourceID: "u1", Name: "John Smith", Email: "john@example.com"},
			{Source: "slack", SourceID: "U99", Name: "Jane Smith"},
		}},
		{ID: "jira:A-2", People: []Person{
			{Source: "github", SourceID: "jsm", Name: "J. Smith"},
		}},
	}

	shape := func() map[string]int {
		nodes, _ := ResolveIdentities(tickets, 0.85)
		out := make(map[string]int)
		for _, n := range nodes {
			out[n.Label] = len(n.Identities)
		}
		return out
	}

	a, b := shape(), shape()
	if len(a) != len(b) {
		t.Fatalf("expected identical cluster count, got %v vs %v", a, b)
	}
	for label, n := range a {
		if b[label] != n {
			t.Fatalf("cluster %q differs across runs: %d vs %d", label, n, b[label])
		}
	}
}

func TestNameSimilarity(t *testing.T) {
	if s := nameSimilarity(normalizeName("J. Smith"), normalizeName("John Smith")); s < 0.99 {
		t.Fatalf("expected initial expansion to match, got %v", s)
	}
	if s := nameSimilarity(normalizeName("Jane Smith"), normalizeName("John Smith")); s >= 0.85 {
		t.Fatalf("expected distinct first names below threshold, got %v", s)
	}
	if s := nameSimilarity(normalizeName("Smith, John"), normalizeName("john smith")); s < 0.99 {
		t.Fatalf("expected token order ignored, got %v", s)
	}
}
