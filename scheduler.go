package main

import (
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// RunServe runs the gather+analyze cycle on the configured cron schedule,
// forever. One cycle runs immediately at startup so a fresh deployment has
// an artifact before the first tick.
// The schedule is a standard 5-field cron expression (minute hour day-of-month month day-of-week).
// Examples: "0 */6 * * *" (every 6 hours), "30 7 * * 1-5" (weekdays 7:30).
func RunServe(cfg Config, db *sql.DB) {
	schedule := strings.TrimSpace(cfg.Schedule)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Fatalf("Invalid schedule '%s': %v", schedule, err)
	}

	connectors := buildConnectors(cfg)
	log.Printf("serve scheduled cron=%s sources=%d", schedule, len(connectors))

	runCycle(cfg, db, connectors)
	for {
		now := time.Now()
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("serve next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		time.Sleep(wait)
		runCycle(cfg, db, connectors)
	}
}

func runCycle(cfg Config, db *sql.DB, connectors []Connector) {
	to := time.Now()
	from := to.AddDate(0, 0, -cfg.GatherWindowDays)

	inserted := Gather(db, connectors, from, to)
	log.Printf("serve gather complete inserted=%d window=%s..%s",
		inserted, from.Format("2006-01-02"), to.Format("2006-01-02"))

	if _, err := RunAnalyze(cfg, db); err != nil {
		log.Printf("serve analyze error: %v", err)
	}
}
