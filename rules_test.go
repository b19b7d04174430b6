package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRuleFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing rule file: %v", err)
	}
	return path
}

func TestLoadRulesMissingFilesFallsBack(t *testing.T) {
	dir := t.TempDir()
	rs := LoadRules(filepath.Join(dir, "absent.yaml"), filepath.Join(dir, "absent.custom.yaml"))

	if len(rs.Base) == 0 {
		t.Fatalf("expected built-in base rules")
	}
	if rs.Config.ConfidenceThreshold != 0.5 || rs.Config.NameMatchThreshold != 0.85 {
		t.Fatalf("expected default config, got %+v", rs.Config)
	}
	if len(rs.Corrections) != 0 {
		t.Fatalf("expected no corrections, got %v", rs.Corrections)
	}
}

func TestLoadRulesInvalidOverlayFallsBackToBase(t *testing.T) {
	base := writeRuleFile(t, "rules.yaml", `
categories:
  defect:
    weight: 2.0
    keywords: [error]
`)
	overlay := writeRuleFile(t, "rules.custom.yaml", "::: not yaml {{{")

	rs := LoadRules(base, overlay)
	kw := rs.EffectiveKeywords("defect", "")
	if kw["error"] != 2.0 {
		t.Fatalf("expected base defect rules at weight 2.0, got %v", kw)
	}
	if len(rs.Overrides) != 0 {
		t.Fatalf("expected no overrides from broken overlay")
	}
}

func TestEffectiveKeywordsLayerPrecedence(t *testing.T) {
	base := writeRuleFile(t, "rules.yaml", `
categories:
  defect:
    weight: 1.0
    keywords: [error, crash]
`)
	overlay := writeRuleFile(t, "rules.custom.yaml", `
contexts:
  slack:
    defect:
      weight: 1.2
      keywords: [error]
overrides:
  defect:
    weight: 1.5
    keywords: [regression]
keyword_overrides:
  always_exclude: [crash]
`)

	rs := LoadRules(base, overlay)

	kw := rs.EffectiveKeywords("defect", "slack")
	if kw["error"] != 1.2 {
		t.Fatalf("expected context weight 1.2 for error, got %v", kw["error"])
	}
	if kw["regression"] != 1.5 {
		t.Fatalf("expected override weight 1.5 for regression, got %v", kw["regression"])
	}
	if _, ok := kw["crash"]; ok {
		t.Fatalf("expected crash excluded globally")
	}

	// Without the context the base weight stands.
	kw = rs.EffectiveKeywords("defect", "")
	if kw["error"] != 1.0 {
		t.Fatalf("expected base weight 1.0 for error, got %v", kw["error"])
	}
}

func TestEffectiveKeywordsKeepsHighestWeight(t *testing.T) {
	base := writeRuleFile(t, "rules.yaml", `
categories:
  outage:
    weight: 3.0
    keywords: [down]
`)
	overlay := writeRuleFile(t, "rules.custom.yaml", `
overrides:
  outage:
    weight: 1.5
    keywords: [down]
`)
	rs := LoadRules(base, overlay)
	kw := rs.EffectiveKeywords("outage", "")
	if kw["down"] != 3.0 {
		t.Fatalf("expected max weight 3.0 across layers, got %v", kw["down"])
	}
}

func TestCorrectionLookupChecksAllReferences(t *testing.T) {
	overlay := writeRuleFile(t, "rules.custom.yaml", `
corrections:
  "slack:C1-99": outage
  "jira:BAD-1": "not_a_category"
`)
	rs := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"), overlay)

	ticket := ConsolidatedTicket{
		ID: "jira:PROJ-1",
		References: []SourceReference{
			{Source: "jira", ID: "PROJ-1"},
			{Source: "slack", ID: "C1-99"},
		},
	}
	category, ok := rs.Correction(ticket)
	if !ok || category != "outage" {
		t.Fatalf("expected correction via secondary reference, got %q ok=%v", category, ok)
	}

	bad := ConsolidatedTicket{References: []SourceReference{{Source: "jira", ID: "BAD-1"}}}
	if _, ok := rs.Correction(bad); ok {
		t.Fatalf("expected invalid correction category ignored")
	}
}
