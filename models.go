package main

import "time"

// SourceReference points at a ticket in a specific source system.
type SourceReference struct {
	Source string `json:"source" yaml:"source"`
	ID     string `json:"id" yaml:"id"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Key is the canonical "source:id" form used for cross-reference lookups,
// correction lookups, and deterministic ticket ids.
func (r SourceReference) Key() string {
	return r.Source + ":" + r.ID
}

// Person is a participant as seen from a single source.
type Person struct {
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"` // reporter, assignee, commenter, participant
}

// Message is one conversation entry.
type Message struct {
	Source         string    `json:"source"`
	Author         string    `json:"author"`
	AuthorSourceID string    `json:"author_source_id"`
	Timestamp      time.Time `json:"timestamp"`
	Content        string    `json:"content"`
}

// RawRecord is a single-source record before consolidation. Immutable once
// gathered.
type RawRecord struct {
	Reference    SourceReference `json:"reference"`
	Title        string          `json:"title"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	People       []Person        `json:"people"`
	Conversation []Message       `json:"conversation"`
	RawText      string          `json:"raw_text"` // full text blob for cross-reference scanning
}

// Valid reports whether the record carries the fields the pipeline requires.
// Invalid records are skipped with a log line, never fatal.
func (r RawRecord) Valid() bool {
	return r.Reference.Source != "" && r.Reference.ID != "" && !r.CreatedAt.IsZero()
}

// ConsolidatedTicket is one logical support issue after merging all
// cross-referencing raw records.
type ConsolidatedTicket struct {
	ID           string            `json:"id"`
	References   []SourceReference `json:"references"`
	Title        string            `json:"title"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	People       []Person          `json:"people"`
	Conversation []Message         `json:"conversation"`
}

// Text returns the title plus every conversation entry, the blob the
// classifier and keyword extractor operate on.
func (t ConsolidatedTicket) Text() string {
	out := t.Title
	for _, m := range t.Conversation {
		out += "\n" + m.Content
	}
	return out
}

// Context is the rule-override scope for this ticket: the source of its
// primary (earliest) reference.
func (t ConsolidatedTicket) Context() string {
	if len(t.References) == 0 {
		return ""
	}
	return t.References[0].Source
}

// Classification is produced fresh each run, never persisted on the ticket.
type Classification struct {
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
	Summary    string   `json:"summary"`
}

// TicketAnalysis is the per-ticket record in the analyzed artifact.
type TicketAnalysis struct {
	ID             string         `json:"id"`
	Classification Classification `json:"classification"`
	People         []Person       `json:"people"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Identity is one (source, source_id) sighting of a person.
type Identity struct {
	Source      string  `json:"source"`
	SourceID    string  `json:"source_id"`
	Email       string  `json:"email,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Confidence  float64 `json:"confidence"` // merge confidence into the owning node
}

// PersonNode is a resolved identity cluster.
type PersonNode struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Identities []Identity `json:"identities"`
}

type PersonEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"` // tickets where both participate
}

type PeopleGraph struct {
	Nodes []PersonNode `json:"nodes"`
	Edges []PersonEdge `json:"edges"`
}

type KeywordNode struct {
	ID         string `json:"id"`
	IssueCount int    `json:"issue_count"`
}

type KeywordEdge struct {
	From         string `json:"from"`
	To           string `json:"to"`
	CoOccurrence int    `json:"co_occurrence"`
}

type KeywordGraph struct {
	Nodes []KeywordNode `json:"nodes"`
	Edges []KeywordEdge `json:"edges"`
}

type AnalysisMetadata struct {
	AnalyzedAt time.Time `json:"analyzed_at"`
	Classifier string    `json:"classifier_version"`
}

// AnalyzedData is the top-level analyzed.json artifact.
type AnalyzedData struct {
	Issues       []TicketAnalysis `json:"issues"`
	PeopleGraph  PeopleGraph      `json:"people_graph"`
	KeywordGraph KeywordGraph     `json:"keyword_graph"`
	Metadata     AnalysisMetadata `json:"metadata"`
}

const classifierVersion = "rules_linguistic_v1"
