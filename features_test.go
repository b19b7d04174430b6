package main

import "testing"

func TestExtractFeaturesEmptyText(t *testing.T) {
	if _, ok := ExtractFeatures(""); ok {
		t.Fatalf("expected ok=false for empty text")
	}
	if _, ok := ExtractFeatures("   \n  "); ok {
		t.Fatalf("expected ok=false for whitespace text")
	}
}

func TestExtractFeaturesTokens(t *testing.T) {
	f, ok := ExtractFeatures("The payment gateway is down again.")
	if !ok {
		t.Fatalf("expected ok=true")
	}
	for _, tok := range []string{"payment", "gateway", "down"} {
		if !f.HasToken(tok) {
			t.Fatalf("expected token %q present, got %v", tok, f.Tokens)
		}
	}
	if f.HasToken("outage") {
		t.Fatalf("unexpected token outage")
	}
}

func TestExtractFeaturesModal(t *testing.T) {
	f, ok := ExtractFeatures("We would like an export option for the report.")
	if !ok || !f.HasModal {
		t.Fatalf("expected modal detected, got %+v ok=%v", f, ok)
	}
}

func TestExtractFeaturesNegation(t *testing.T) {
	f, ok := ExtractFeatures("The deploy script does not finish.")
	if !ok || !f.HasNegation {
		t.Fatalf("expected negation detected")
	}
	f, _ = ExtractFeatures("The deploy script finishes quickly.")
	if f.HasNegation {
		t.Fatalf("expected no negation")
	}
}

func TestExtractFeaturesQuestionMark(t *testing.T) {
	f, ok := ExtractFeatures("Is the cluster healthy?")
	if !ok || !f.HasQuestion {
		t.Fatalf("expected question detected")
	}
	f, _ = ExtractFeatures("The cluster is healthy.")
	if f.HasQuestion {
		t.Fatalf("expected no question")
	}
}

func TestExtractFeaturesVerbs(t *testing.T) {
	f, ok := ExtractFeatures("The importer crashed during the nightly run.")
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if len(f.Verbs) == 0 {
		t.Fatalf("expected at least one verb, got %v", f.Verbs)
	}
}
