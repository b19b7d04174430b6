package main

import (
	"path/filepath"
	"testing"
	"time"
)

// scriptedPrompter replays a fixed sequence of decisions.
type scriptedPrompter struct {
	decisions []Decision
	presented []string
}

func (p *scriptedPrompter) Decide(t ConsolidatedTicket, current Classification) (Decision, error) {
	p.presented = append(p.presented, t.ID)
	if len(p.decisions) == 0 {
		return Decision{Quit: true}, nil
	}
	d := p.decisions[0]
	p.decisions = p.decisions[1:]
	return d, nil
}

func reviewFixtures() ([]ConsolidatedTicket, []TicketAnalysis) {
	tickets := []ConsolidatedTicket{
		ticketWithText("Quarterly finance summary", "The report arrived yesterday. The report keeps repeating itself."),
	}
	tickets[0].ID = "jira:FIN-1"
	tickets[0].References = []SourceReference{{Source: "jira", ID: "FIN-1"}}
	analyses := []TicketAnalysis{
		{ID: "jira:FIN-1", Classification: Classification{Type: "inquiry", Confidence: 0.3, Summary: "Quarterly finance summary"}},
	}
	return tickets, analyses
}

func TestLowConfidenceItemsSelectionAndOrder(t *testing.T) {
	tickets := []ConsolidatedTicket{
		{ID: "jira:A-1"}, {ID: "jira:A-2"}, {ID: "jira:A-3"},
	}
	analyses := []TicketAnalysis{
		{ID: "jira:A-1", Classification: Classification{Type: "defect", Confidence: 0.9}},
		{ID: "jira:A-2", Classification: Classification{Type: "inquiry", Confidence: 0.3}},
		{ID: "jira:A-3", Classification: Classification{Type: "inquiry", Confidence: 0.45}},
	}
	items := LowConfidenceItems(tickets, analyses, 0.5)
	if len(items) != 2 {
		t.Fatalf("expected 2 low-confidence items, got %d", len(items))
	}
	if items[0].Ticket.ID != "jira:A-2" || items[1].Ticket.ID != "jira:A-3" {
		t.Fatalf("expected ascending confidence order, got %v then %v",
			items[0].Ticket.ID, items[1].Ticket.ID)
	}
}

func TestImproveSessionWritesOverlay(t *testing.T) {
	tickets, analyses := reviewFixtures()
	items := LowConfidenceItems(tickets, analyses, 0.5)
	overlayPath := filepath.Join(t.TempDir(), "rules.custom.yaml")

	p := &scriptedPrompter{decisions: []Decision{{Category: "action"}}}
	applied, err := RunImproveSession(items, tickets, overlayPath, "", p, nil)
	if err != nil {
		t.Fatalf("RunImproveSession failed: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied correction, got %d", applied)
	}

	doc, err := loadOverlayDocument(overlayPath)
	if err != nil {
		t.Fatalf("loading overlay: %v", err)
	}
	if doc.Corrections["jira:FIN-1"] != "action" {
		t.Fatalf("expected correction recorded, got %v", doc.Corrections)
	}
	rule, ok := doc.Overrides["action"]
	if !ok || rule.Weight != learnedRuleWeight {
		t.Fatalf("expected learned override at weight %.1f, got %+v", learnedRuleWeight, doc.Overrides)
	}
	// "report" recurs in the ticket text and is not a stopword.
	found := false
	for _, kw := range rule.Keywords {
		if kw == "report" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected learned keyword report, got %v", rule.Keywords)
	}
}

func TestImproveSessionContextScope(t *testing.T) {
	tickets, analyses := reviewFixtures()
	items := LowConfidenceItems(tickets, analyses, 0.5)
	overlayPath := filepath.Join(t.TempDir(), "rules.custom.yaml")

	p := &scriptedPrompter{decisions: []Decision{{Category: "action"}}}
	if _, err := RunImproveSession(items, tickets, overlayPath, "jira", p, nil); err != nil {
		t.Fatalf("RunImproveSession failed: %v", err)
	}

	doc, err := loadOverlayDocument(overlayPath)
	if err != nil {
		t.Fatalf("loading overlay: %v", err)
	}
	if len(doc.Overrides) != 0 {
		t.Fatalf("expected no global overrides when scoped, got %v", doc.Overrides)
	}
	if _, ok := doc.Contexts["jira"]["action"]; !ok {
		t.Fatalf("expected learned rule under jira context, got %v", doc.Contexts)
	}
}

func TestImproveSessionSkipAndQuitWriteNothing(t *testing.T) {
	tickets, analyses := reviewFixtures()
	items := LowConfidenceItems(tickets, analyses, 0.5)
	overlayPath := filepath.Join(t.TempDir(), "rules.custom.yaml")

	p := &scriptedPrompter{decisions: []Decision{{Skip: true}, {Quit: true}}}
	applied, err := RunImproveSession(items, tickets, overlayPath, "", p, nil)
	if err != nil {
		t.Fatalf("RunImproveSession failed: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected no corrections, got %d", applied)
	}
	if _, err := loadOverlayDocument(overlayPath); err != nil {
		t.Fatalf("expected empty-document fallback, got %v", err)
	}
}

// A corrected ticket classifies at correction confidence next run, so it
// never reappears in the review queue.
func TestImproveSessionIdempotent(t *testing.T) {
	tickets, analyses := reviewFixtures()
	items := LowConfidenceItems(tickets, analyses, 0.5)
	overlayPath := filepath.Join(t.TempDir(), "rules.custom.yaml")

	p := &scriptedPrompter{decisions: []Decision{{Category: "action"}}}
	if _, err := RunImproveSession(items, tickets, overlayPath, "", p, nil); err != nil {
		t.Fatalf("RunImproveSession failed: %v", err)
	}

	rules := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"), overlayPath)
	c := ClassifyTicket(tickets[0], rules)
	if c.Type != "action" || c.Confidence != correctionConfidence {
		t.Fatalf("expected corrected classification action@%.2f, got %s@%.2f",
			correctionConfidence, c.Type, c.Confidence)
	}

	next := LowConfidenceItems(tickets, []TicketAnalysis{{ID: tickets[0].ID, Classification: c}}, 0.5)
	if len(next) != 0 {
		t.Fatalf("expected empty review queue after correction, got %d", len(next))
	}
}

func TestImproveSessionRecordsAudit(t *testing.T) {
	db := newTestDB(t)
	tickets, analyses := reviewFixtures()
	items := LowConfidenceItems(tickets, analyses, 0.5)
	overlayPath := filepath.Join(t.TempDir(), "rules.custom.yaml")

	p := &scriptedPrompter{decisions: []Decision{{Category: "action"}}}
	if _, err := RunImproveSession(items, tickets, overlayPath, "", p, db); err != nil {
		t.Fatalf("RunImproveSession failed: %v", err)
	}

	audits, err := GetRecentCorrectionAudits(db, time.Time{}, 10)
	if err != nil {
		t.Fatalf("GetRecentCorrectionAudits failed: %v", err)
	}
	if len(audits) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(audits))
	}
	a := audits[0]
	if a.TicketID != "jira:FIN-1" || a.OriginalCategory != "inquiry" || a.CorrectedCategory != "action" {
		t.Fatalf("unexpected audit row %+v", a)
	}
}
