package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "gather":
		cfg.requireGatherConfig()
		to := time.Now()
		from := to.AddDate(0, 0, -cfg.GatherWindowDays)
		inserted := Gather(db, buildConnectors(cfg), from, to)
		log.Printf("gather complete inserted=%d window=%s..%s",
			inserted, from.Format("2006-01-02"), to.Format("2006-01-02"))

	case "analyze":
		if _, err := RunAnalyze(cfg, db); err != nil {
			log.Fatalf("Analyze failed: %v", err)
		}

	case "improve":
		fs := flag.NewFlagSet("improve", flag.ExitOnError)
		context := fs.String("context", "", "scope learned keywords to this source context")
		fs.Parse(os.Args[2:])
		runImprove(cfg, db, *context)

	case "suggest":
		fs := flag.NewFlagSet("suggest", flag.ExitOnError)
		useLLM := fs.Bool("llm", false, "also ask the model for suggestions")
		fs.Parse(os.Args[2:])
		runSuggest(cfg, db, *useLLM)

	case "serve":
		cfg.requireGatherConfig()
		RunServe(cfg, db)

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: supportlens <command>

commands:
  gather    fetch raw records from configured sources into the snapshot store
  analyze   consolidate, classify, resolve identities, write analyzed.json
  improve   review low-confidence tickets and learn corrections
  suggest   propose new rule keywords (add -llm for model suggestions)
  serve     run gather+analyze on the configured schedule`)
}

func runImprove(cfg Config, db *sql.DB, context string) {
	records, err := GetAllRawRecords(db)
	if err != nil {
		log.Fatalf("Loading raw records failed: %v", err)
	}
	rules := LoadRules(cfg.RulesPath, cfg.RulesOverlayPath)
	tickets := Consolidate(records)
	analyses := classifyAll(tickets, rules)

	items := LowConfidenceItems(tickets, analyses, rules.Config.ConfidenceThreshold)
	log.Printf("improve candidates=%d threshold=%.2f", len(items), rules.Config.ConfidenceThreshold)

	p, err := newReadlinePrompter()
	if err != nil {
		log.Fatalf("Prompt init failed: %v", err)
	}
	defer p.Close()

	applied, err := RunImproveSession(items, tickets, cfg.RulesOverlayPath, context, p, db)
	if err != nil {
		log.Fatalf("Improve session failed: %v", err)
	}
	log.Printf("improve complete corrections=%d overlay=%s", applied, cfg.RulesOverlayPath)
}

func runSuggest(cfg Config, db *sql.DB, useLLM bool) {
	records, err := GetAllRawRecords(db)
	if err != nil {
		log.Fatalf("Loading raw records failed: %v", err)
	}
	rules := LoadRules(cfg.RulesPath, cfg.RulesOverlayPath)
	tickets := Consolidate(records)
	analyses := classifyAll(tickets, rules)

	suggestions := FrequencySuggestions(tickets, analyses, rules)

	if useLLM {
		cfg.requireLLMConfig()
		items := LowConfidenceItems(tickets, analyses, rules.Config.ConfidenceThreshold)
		audits, err := GetRecentCorrectionAudits(db, time.Now().AddDate(0, -3, 0), 20)
		if err != nil {
			log.Printf("suggest audit load failed: %v", err)
		}
		llmSuggestions, usage, err := SuggestRulesWithLLM(cfg, items, audits)
		if err != nil {
			log.Printf("suggest llm error: %v", err)
		} else {
			log.Printf("suggest llm done suggestions=%d tokens=%d", len(llmSuggestions), usage.TotalTokens())
			suggestions = append(suggestions, llmSuggestions...)
		}
	}

	PrintSuggestions(suggestions)
}
