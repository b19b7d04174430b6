package main

import (
	"testing"
)

func TestConvertJiraIssue(t *testing.T) {
	issue := jiraIssue{
		Key: "PROJ-42",
		Fields: jiraFields{
			Summary:     "Importer fails on large files",
			Description: "Stack trace attached, see also #48210",
			Created:     "2025-06-02T09:00:00.000+0000",
			Updated:     "2025-06-03T10:30:00.000+0000",
			Reporter:    &jiraUser{AccountID: "u1", DisplayName: "John Smith", EmailAddress: "john@example.com"},
			Assignee:    &jiraUser{AccountID: "u2", DisplayName: "Dana Lee"},
		},
	}
	issue.Fields.Status.Name = "Open"
	issue.Fields.Comment.Comments = []jiraComment{
		{Author: jiraUser{AccountID: "u2", DisplayName: "Dana Lee"}, Body: "Reproduced locally", Created: "2025-06-02T11:00:00.000+0000"},
	}

	rec := convertJiraIssue("https://tracker.example.com", issue)

	if rec.Reference.Key() != "jira:PROJ-42" {
		t.Fatalf("unexpected reference %s", rec.Reference.Key())
	}
	if rec.Reference.URL != "https://tracker.example.com/browse/PROJ-42" {
		t.Fatalf("unexpected URL %s", rec.Reference.URL)
	}
	if rec.Status != "open" {
		t.Fatalf("expected lowercased status, got %q", rec.Status)
	}
	if !rec.Valid() {
		t.Fatalf("expected valid record, got %+v", rec)
	}
	if rec.UpdatedAt.Before(rec.CreatedAt) {
		t.Fatalf("expected updated_at after created_at")
	}

	// reporter, assignee, commenter (deduped later at consolidation)
	if len(rec.People) != 3 {
		t.Fatalf("expected 3 people, got %+v", rec.People)
	}
	if rec.People[0].Role != "reporter" || rec.People[0].Email != "john@example.com" {
		t.Fatalf("unexpected reporter %+v", rec.People[0])
	}

	// description first, then the comment, both attributed
	if len(rec.Conversation) != 2 {
		t.Fatalf("expected 2 conversation entries, got %d", len(rec.Conversation))
	}
	if rec.Conversation[0].AuthorSourceID != "u1" || rec.Conversation[1].Author != "Dana Lee" {
		t.Fatalf("unexpected conversation %+v", rec.Conversation)
	}

	// RawText feeds reference extraction
	refs := ExtractReferences(rec.RawText, "jira")
	foundHash := false
	for _, r := range refs {
		if r.Key() == "github:48210" {
			foundHash = true
		}
	}
	if !foundHash {
		t.Fatalf("expected cross-reference in raw text, got %v", refs)
	}
}

func TestConvertJiraIssueNoReporterNoDescription(t *testing.T) {
	issue := jiraIssue{Key: "PROJ-7"}
	issue.Fields.Summary = "bare issue"
	issue.Fields.Created = "2025-06-02T09:00:00.000+0000"

	rec := convertJiraIssue("https://tracker.example.com", issue)
	if len(rec.People) != 0 || len(rec.Conversation) != 0 {
		t.Fatalf("expected empty people and conversation, got %+v", rec)
	}
	if !rec.Valid() {
		t.Fatalf("expected valid record despite missing optional fields")
	}
	if !rec.UpdatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("expected updated_at to default to created_at")
	}
}
