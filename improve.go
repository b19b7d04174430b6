package main

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Weight for keywords learned from operator corrections: above base rules so
// corrected patterns win next run.
const learnedRuleWeight = 1.5

const (
	learnedKeywordMinCount = 2
	learnedKeywordTopN     = 5
)

// Decision is one operator response for one presented ticket.
type Decision struct {
	Category string
	Skip     bool
	Quit     bool
}

// prompter yields one decision per presented ticket. The readline
// implementation talks to a human; tests script their own.
type prompter interface {
	Decide(ticket ConsolidatedTicket, current Classification) (Decision, error)
}

// ReviewItem pairs a low-confidence classification with its ticket.
type ReviewItem struct {
	Ticket         ConsolidatedTicket
	Classification Classification
}

// LowConfidenceItems selects the tickets worth presenting to the operator,
// ordered by ascending confidence (most doubtful first) then id.
func LowConfidenceItems(tickets []ConsolidatedTicket, analyses []TicketAnalysis, threshold float64) []ReviewItem {
	byID := make(map[string]ConsolidatedTicket, len(tickets))
	for _, t := range tickets {
		byID[t.ID] = t
	}
	var items []ReviewItem
	for _, a := range analyses {
		if a.Classification.Confidence >= threshold {
			continue
		}
		t, ok := byID[a.ID]
		if !ok {
			continue
		}
		items = append(items, ReviewItem{Ticket: t, Classification: a.Classification})
	}
	sort.Slice(items, func(a, b int) bool {
		if items[a].Classification.Confidence != items[b].Classification.Confidence {
			return items[a].Classification.Confidence < items[b].Classification.Confidence
		}
		return items[a].Ticket.ID < items[b].Ticket.ID
	})
	return items
}

// RunImproveSession walks the operator through the low-confidence tickets
// and folds accepted corrections into the custom rule overlay. Only the
// overlay document is written; the base rules and the rule set loaded for
// this session are never modified. Corrections are keyed by ticket
// reference, so re-running the session over the same data changes nothing.
//
// context, when non-empty, scopes learned keywords to that context layer
// instead of the global overrides.
func RunImproveSession(items []ReviewItem, corpus []ConsolidatedTicket, overlayPath, context string, p prompter, db *sql.DB) (int, error) {
	if len(items) == 0 {
		log.Printf("improve nothing to review")
		return 0, nil
	}

	overlay, err := loadOverlayDocument(overlayPath)
	if err != nil {
		return 0, err
	}

	texts := make([]string, len(corpus))
	for i, t := range corpus {
		texts[i] = t.Text()
	}
	idx := buildTFIDFIndex(texts)

	applied := 0
	for _, item := range items {
		decision, err := p.Decide(item.Ticket, item.Classification)
		if err != nil {
			return applied, err
		}
		if decision.Quit {
			break
		}
		if decision.Skip {
			continue
		}

		keywords := idx.distinctiveTerms(item.Ticket.Text(), learnedKeywordMinCount, learnedKeywordTopN)
		overlay.addCorrection(item.Ticket.ID, decision.Category)
		overlay.addLearnedKeywords(decision.Category, context, keywords)
		applied++
		log.Printf("improve corrected ticket=%s from=%s to=%s keywords=%v",
			item.Ticket.ID, item.Classification.Type, decision.Category, keywords)

		if db != nil {
			audit := CorrectionAudit{
				TicketID:          item.Ticket.ID,
				OriginalCategory:  item.Classification.Type,
				CorrectedCategory: decision.Category,
				Summary:           item.Classification.Summary,
			}
			if err := InsertCorrectionAudit(db, audit); err != nil {
				log.Printf("improve audit insert failed ticket=%s err=%v", item.Ticket.ID, err)
			}
		}
	}

	if applied > 0 {
		if err := saveOverlayDocument(overlayPath, overlay); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// loadOverlayDocument reads the custom overlay for editing, starting from an
// empty document when the file does not exist yet.
func loadOverlayDocument(path string) (*ruleDocument, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ruleDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rule overlay: %w", err)
	}
	var doc ruleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule overlay: %w", err)
	}
	return &doc, nil
}

func saveOverlayDocument(path string, doc *ruleDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal rule overlay: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (doc *ruleDocument) addCorrection(ticketRef, category string) {
	if doc.Corrections == nil {
		doc.Corrections = make(map[string]string)
	}
	doc.Corrections[ticketRef] = category
}

// addLearnedKeywords merges keywords into the override layer for the
// category (or its context-scoped layer), without duplicating entries.
func (doc *ruleDocument) addLearnedKeywords(category, context string, keywords []string) {
	if len(keywords) == 0 {
		return
	}

	var layer map[string]CategoryRule
	if context != "" {
		if doc.Contexts == nil {
			doc.Contexts = make(map[string]map[string]CategoryRule)
		}
		if doc.Contexts[context] == nil {
			doc.Contexts[context] = make(map[string]CategoryRule)
		}
		layer = doc.Contexts[context]
	} else {
		if doc.Overrides == nil {
			doc.Overrides = make(map[string]CategoryRule)
		}
		layer = doc.Overrides
	}

	rule, ok := layer[category]
	if !ok {
		rule = CategoryRule{Weight: learnedRuleWeight}
	}
	existing := make(map[string]bool, len(rule.Keywords))
	for _, kw := range rule.Keywords {
		existing[strings.ToLower(kw)] = true
	}
	for _, kw := range keywords {
		if !existing[strings.ToLower(kw)] {
			rule.Keywords = append(rule.Keywords, kw)
			existing[strings.ToLower(kw)] = true
		}
	}
	layer[category] = rule
}

// --- Interactive prompter ---

type readlinePrompter struct {
	rl *readline.Instance
}

func newReadlinePrompter() (*readlinePrompter, error) {
	rl, err := readline.New("category> ")
	if err != nil {
		return nil, err
	}
	return &readlinePrompter{rl: rl}, nil
}

func (p *readlinePrompter) Close() {
	p.rl.Close()
}

// Decide shows one ticket and reads a category, "skip" or "quit". Invalid
// categories are rejected and re-prompted, never persisted.
func (p *readlinePrompter) Decide(t ConsolidatedTicket, current Classification) (Decision, error) {
	fmt.Println()
	color.New(color.FgCyan, color.Bold).Printf("%s\n", t.ID)
	fmt.Printf("  %s\n", current.Summary)
	color.New(color.FgYellow).Printf("  classified %s at %.2f\n", current.Type, current.Confidence)
	if len(current.Keywords) > 0 {
		fmt.Printf("  keywords: %s\n", strings.Join(current.Keywords, ", "))
	}
	fmt.Printf("  categories: %s (or skip, quit)\n", categoryList())

	for {
		line, err := p.rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return Decision{Quit: true}, nil
		}
		if err != nil {
			return Decision{}, err
		}
		input := strings.ToLower(strings.TrimSpace(line))
		switch {
		case input == "skip" || input == "s" || input == "":
			return Decision{Skip: true}, nil
		case input == "quit" || input == "q":
			return Decision{Quit: true}, nil
		case validCategory(input):
			return Decision{Category: input}, nil
		default:
			color.New(color.FgRed).Printf("  invalid category %q, expected one of: %s\n", input, categoryList())
		}
	}
}
