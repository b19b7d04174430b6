package main

import (
	"reflect"
	"testing"
	"time"
)

func testRules() RuleSet {
	return RuleSet{
		Config:      defaultRulesConfig(),
		Base:        defaultBaseRules(),
		Contexts:    map[string]map[string]CategoryRule{},
		Overrides:   map[string]CategoryRule{},
		Corrections: map[string]string{},
	}
}

func ticketWithText(title, body string) ConsolidatedTicket {
	created := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return ConsolidatedTicket{
		ID:         "jira:PROJ-1",
		References: []SourceReference{{Source: "jira", ID: "PROJ-1"}},
		Title:      title,
		CreatedAt:  created,
		UpdatedAt:  created,
		Conversation: []Message{
			{Source: "jira", Timestamp: created, Content: body},
		},
	}
}

func TestClassifyOutageScenario(t *testing.T) {
	ticket := ticketWithText("Production checkout is down",
		"All requests failing with 500 errors since the deploy.")
	c := ClassifyTicket(ticket, testRules())

	if c.Type != "outage" {
		t.Fatalf("expected outage, got %s (%.2f)", c.Type, c.Confidence)
	}
	if c.Confidence != 0.99 {
		t.Fatalf("expected confidence clamped to 0.99, got %.2f", c.Confidence)
	}
	found := false
	for _, kw := range c.Keywords {
		if kw == "down" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected matched keyword down in %v", c.Keywords)
	}
}

func TestClassifyTieBreaksByPriority(t *testing.T) {
	// One defect keyword and one enhancement keyword, equal weight.
	ticket := ticketWithText("This feature is broken", "")
	c := ClassifyTicket(ticket, testRules())
	if c.Type != "defect" {
		t.Fatalf("expected defect to win the tie, got %s", c.Type)
	}
	if c.Confidence != 0.5 {
		t.Fatalf("expected confidence 0.50, got %.2f", c.Confidence)
	}
}

func TestClassifyQuestionBoost(t *testing.T) {
	ticket := ticketWithText("How do I rotate the token?", "")
	c := ClassifyTicket(ticket, testRules())
	if c.Type != "inquiry" {
		t.Fatalf("expected inquiry, got %s", c.Type)
	}
	// inquiry: phrase 1.0 + question boost 2.0; action: rotate 1.0.
	if c.Confidence != 0.75 {
		t.Fatalf("expected confidence 0.75, got %.2f", c.Confidence)
	}
}

func TestClassifyZeroScoreDefaultsToInquiry(t *testing.T) {
	ticket := ticketWithText("Quarterly finance summary", "The report arrived yesterday.")
	c := ClassifyTicket(ticket, testRules())
	if c.Type != "inquiry" || c.Confidence != fallbackConfidence {
		t.Fatalf("expected inquiry@%.2f fallback, got %s@%.2f", fallbackConfidence, c.Type, c.Confidence)
	}
}

func TestClassifyEmptyTextDefaultsToInquiry(t *testing.T) {
	ticket := ConsolidatedTicket{ID: "jira:PROJ-2", References: []SourceReference{{Source: "jira", ID: "PROJ-2"}}}
	c := ClassifyTicket(ticket, testRules())
	if c.Type != "inquiry" || c.Confidence != fallbackConfidence {
		t.Fatalf("expected inquiry fallback for empty ticket, got %s@%.2f", c.Type, c.Confidence)
	}
}

func TestClassifyCorrectionShortCircuits(t *testing.T) {
	rules := testRules()
	rules.Corrections["jira:PROJ-1"] = "routing_issue"

	ticket := ticketWithText("Production checkout is down",
		"All requests failing with 500 errors since the deploy.")
	c := ClassifyTicket(ticket, rules)
	if c.Type != "routing_issue" {
		t.Fatalf("expected corrected category, got %s", c.Type)
	}
	if c.Confidence != correctionConfidence {
		t.Fatalf("expected correction confidence %.2f, got %.2f", correctionConfidence, c.Confidence)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	ticket := ticketWithText("Payment importer crashes nightly",
		"The importer crashed with a stack trace. It does not recover.")
	rules := testRules()
	a := ClassifyTicket(ticket, rules)
	b := ClassifyTicket(ticket, rules)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical classifications, got %+v vs %+v", a, b)
	}
	if a.Type != "defect" {
		t.Fatalf("expected defect, got %s", a.Type)
	}
}

func TestContainsPhrase(t *testing.T) {
	if !containsPhrase("all requests failing now", "all requests failing") {
		t.Fatalf("expected phrase match")
	}
	if containsPhrase("installed requests failing", "all requests failing") {
		t.Fatalf("expected no match inside a larger word")
	}
	if !containsPhrase("see 500 errors.", "500 errors") {
		t.Fatalf("expected match at punctuation boundary")
	}
}
