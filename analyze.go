package main

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"
)

const classifyBatchSize = 64

// RunAnalyze executes the full pipeline over the snapshot store: consolidate,
// classify, resolve identities, build graphs, write the artifact and the
// per-run history rows.
func RunAnalyze(cfg Config, db *sql.DB) (AnalyzedData, error) {
	records, err := GetAllRawRecords(db)
	if err != nil {
		return AnalyzedData{}, fmt.Errorf("loading raw records: %w", err)
	}

	rules := LoadRules(cfg.RulesPath, cfg.RulesOverlayPath)
	tickets := Consolidate(records)
	analyses := classifyAll(tickets, rules)

	nodes, keyToNode := ResolveIdentities(tickets, rules.Config.NameMatchThreshold)
	peopleGraph := BuildPeopleGraph(tickets, nodes, keyToNode)
	keywordGraph := BuildKeywordGraph(analyses)

	data := AnalyzedData{
		Issues:       analyses,
		PeopleGraph:  peopleGraph,
		KeywordGraph: keywordGraph,
		Metadata: AnalysisMetadata{
			AnalyzedAt: time.Now().UTC(),
			Classifier: classifierVersion,
		},
	}

	outPath := filepath.Join(cfg.OutputDir, "analyzed.json")
	if err := WriteAnalyzedData(outPath, data); err != nil {
		return data, err
	}

	runID, err := InsertAnalysisRun(db, len(records), len(tickets))
	if err != nil {
		log.Printf("analyze history run insert failed: %v", err)
	} else if err := InsertClassificationHistory(db, runID, analyses); err != nil {
		log.Printf("analyze history rows insert failed run=%d: %v", runID, err)
	}

	log.Printf("analyze done records=%d tickets=%d people=%d keywords=%d out=%s",
		len(records), len(tickets), len(nodes), len(keywordGraph.Nodes), outPath)
	return data, nil
}

// classifyAll classifies tickets in parallel batches. The rule set is
// read-only during the run and each goroutine writes only its own slice
// indices, so no locking is needed.
func classifyAll(tickets []ConsolidatedTicket, rules RuleSet) []TicketAnalysis {
	analyses := make([]TicketAnalysis, len(tickets))

	var wg sync.WaitGroup
	for start := 0; start < len(tickets); start += classifyBatchSize {
		end := start + classifyBatchSize
		if end > len(tickets) {
			end = len(tickets)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				t := tickets[i]
				analyses[i] = TicketAnalysis{
					ID:             t.ID,
					Classification: ClassifyTicket(t, rules),
					People:         t.People,
					CreatedAt:      t.CreatedAt,
					UpdatedAt:      t.UpdatedAt,
				}
			}
		}(start, end)
	}
	wg.Wait()

	return analyses
}
