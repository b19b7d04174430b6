package main

import (
	"database/sql"
	"log"
	"time"
)

// Connector fetches raw records from one source system for a time window.
type Connector interface {
	Name() string
	Fetch(from, to time.Time) ([]RawRecord, error)
}

func buildConnectors(cfg Config) []Connector {
	var out []Connector
	if len(cfg.JiraProjects) > 0 {
		out = append(out, newJiraConnector(cfg))
	}
	if len(cfg.GitHubRepos) > 0 {
		out = append(out, newGitHubConnector(cfg))
	}
	if len(cfg.SlackChannels) > 0 {
		out = append(out, newSlackConnector(cfg))
	}
	return out
}

// Gather fetches from every configured source and stores the new records.
// A failing source is logged and skipped so one outage never blocks the
// others. Already-stored records are ignored on insert.
func Gather(db *sql.DB, connectors []Connector, from, to time.Time) int {
	total := 0
	for _, c := range connectors {
		records, err := c.Fetch(from, to)
		if err != nil {
			log.Printf("gather source=%s error: %v", c.Name(), err)
			continue
		}

		valid := make([]RawRecord, 0, len(records))
		for _, r := range records {
			if !r.Valid() {
				log.Printf("gather source=%s skipped invalid record ref=%s", c.Name(), r.Reference.Key())
				continue
			}
			valid = append(valid, r)
		}

		inserted, err := InsertRawRecords(db, valid)
		if err != nil {
			log.Printf("gather source=%s insert error: %v", c.Name(), err)
			continue
		}
		log.Printf("gather source=%s fetched=%d inserted=%d", c.Name(), len(records), inserted)
		total += inserted
	}
	return total
}
