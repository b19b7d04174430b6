package main

import "testing"

func TestFrequencySuggestionsFindsRecurringTerms(t *testing.T) {
	tickets := []ConsolidatedTicket{
		ticketWithText("Webhook delivery broken", "The webhook retries forever."),
		ticketWithText("Webhook signature error", "Another webhook failure today."),
		ticketWithText("Quarterly summary", "Nothing unusual here."),
	}
	tickets[0].ID = "jira:A-1"
	tickets[1].ID = "jira:A-2"
	tickets[2].ID = "jira:A-3"

	analyses := []TicketAnalysis{
		{ID: "jira:A-1", Classification: Classification{Type: "defect", Confidence: 0.5}},
		{ID: "jira:A-2", Classification: Classification{Type: "defect", Confidence: 0.5}},
		{ID: "jira:A-3", Classification: Classification{Type: "inquiry", Confidence: 0.3}},
	}

	suggestions := FrequencySuggestions(tickets, analyses, testRules())

	var defect *RuleSuggestion
	for i := range suggestions {
		if suggestions[i].Category == "defect" {
			defect = &suggestions[i]
		}
	}
	if defect == nil {
		t.Fatalf("expected a defect suggestion, got %v", suggestions)
	}
	found := false
	for _, kw := range defect.Keywords {
		if kw == "webhook" {
			found = true
		}
		if kw == "error" || kw == "broken" {
			t.Fatalf("expected existing rule keywords excluded, got %v", defect.Keywords)
		}
	}
	if !found {
		t.Fatalf("expected webhook suggested, got %v", defect.Keywords)
	}
	if defect.Origin != "frequency" {
		t.Fatalf("expected frequency origin, got %s", defect.Origin)
	}
}

func TestFrequencySuggestionsSingleTicketTermsIgnored(t *testing.T) {
	tickets := []ConsolidatedTicket{
		ticketWithText("One-off zebra incident", "zebra zebra zebra"),
	}
	tickets[0].ID = "jira:A-1"
	analyses := []TicketAnalysis{
		{ID: "jira:A-1", Classification: Classification{Type: "outage", Confidence: 0.6}},
	}
	suggestions := FrequencySuggestions(tickets, analyses, testRules())
	for _, s := range suggestions {
		for _, kw := range s.Keywords {
			if kw == "zebra" {
				t.Fatalf("expected term seen in one ticket ignored, got %v", suggestions)
			}
		}
	}
}
