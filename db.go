package main

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS raw_records (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		source            TEXT NOT NULL,
		source_id         TEXT NOT NULL,
		url               TEXT DEFAULT '',
		title             TEXT DEFAULT '',
		status            TEXT DEFAULT '',
		created_at        DATETIME NOT NULL,
		updated_at        DATETIME NOT NULL,
		raw_text          TEXT DEFAULT '',
		people_json       TEXT DEFAULT '[]',
		conversation_json TEXT DEFAULT '[]',
		gathered_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source, source_id)
	);
	CREATE INDEX IF NOT EXISTS idx_raw_records_source ON raw_records(source);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		analyzed_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
		record_count       INTEGER NOT NULL,
		ticket_count       INTEGER NOT NULL,
		classifier_version TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS classification_history (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        INTEGER NOT NULL,
		ticket_id     TEXT NOT NULL,
		category      TEXT NOT NULL,
		confidence    REAL NOT NULL,
		keywords      TEXT DEFAULT '',
		classified_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ch_run ON classification_history(run_id);
	CREATE INDEX IF NOT EXISTS idx_ch_ticket ON classification_history(ticket_id);

	CREATE TABLE IF NOT EXISTS correction_audit (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id          TEXT NOT NULL,
		original_category  TEXT NOT NULL,
		corrected_category TEXT NOT NULL,
		summary            TEXT DEFAULT '',
		corrected_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ca_date ON correction_audit(corrected_at);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// RecordExists reports whether a record from this source is already stored.
func RecordExists(db *sql.DB, source, sourceID string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM raw_records WHERE source = ? AND source_id = ?", source, sourceID).Scan(&count)
	return count > 0, err
}

func InsertRawRecords(db *sql.DB, records []RawRecord) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO raw_records
		 (source, source_id, url, title, status, created_at, updated_at, raw_text, people_json, conversation_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		people, err := json.Marshal(r.People)
		if err != nil {
			return inserted, err
		}
		conversation, err := json.Marshal(r.Conversation)
		if err != nil {
			return inserted, err
		}
		res, err := stmt.Exec(
			r.Reference.Source, r.Reference.ID, r.Reference.URL, r.Title, r.Status,
			r.CreatedAt, r.UpdatedAt, r.RawText, string(people), string(conversation),
		)
		if err != nil {
			return inserted, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, tx.Commit()
}

func GetAllRawRecords(db *sql.DB) ([]RawRecord, error) {
	rows, err := db.Query(
		`SELECT source, source_id, url, title, status, created_at, updated_at, raw_text, people_json, conversation_json
		 FROM raw_records ORDER BY source, source_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RawRecord
	for rows.Next() {
		var r RawRecord
		var people, conversation string
		err := rows.Scan(
			&r.Reference.Source, &r.Reference.ID, &r.Reference.URL, &r.Title, &r.Status,
			&r.CreatedAt, &r.UpdatedAt, &r.RawText, &people, &conversation,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(people), &r.People); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(conversation), &r.Conversation); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// --- Analysis runs ---

func InsertAnalysisRun(db *sql.DB, recordCount, ticketCount int) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO analysis_runs (record_count, ticket_count, classifier_version) VALUES (?, ?, ?)`,
		recordCount, ticketCount, classifierVersion,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func InsertClassificationHistory(db *sql.DB, runID int64, analyses []TicketAnalysis) error {
	if len(analyses) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO classification_history (run_id, ticket_id, category, confidence, keywords)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range analyses {
		if _, err := stmt.Exec(
			runID, a.ID, a.Classification.Type, a.Classification.Confidence,
			strings.Join(a.Classification.Keywords, ","),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Correction audit ---

type CorrectionAudit struct {
	ID                int64
	TicketID          string
	OriginalCategory  string
	CorrectedCategory string
	Summary           string
	CorrectedAt       time.Time
}

func InsertCorrectionAudit(db *sql.DB, c CorrectionAudit) error {
	_, err := db.Exec(
		`INSERT INTO correction_audit (ticket_id, original_category, corrected_category, summary)
		 VALUES (?, ?, ?, ?)`,
		c.TicketID, c.OriginalCategory, c.CorrectedCategory, c.Summary,
	)
	return err
}

func GetRecentCorrectionAudits(db *sql.DB, since time.Time, limit int) ([]CorrectionAudit, error) {
	rows, err := db.Query(
		`SELECT id, ticket_id, original_category, corrected_category, summary, corrected_at
		 FROM correction_audit
		 WHERE corrected_at >= ?
		 ORDER BY corrected_at DESC
		 LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CorrectionAudit
	for rows.Next() {
		var c CorrectionAudit
		if err := rows.Scan(&c.ID, &c.TicketID, &c.OriginalCategory, &c.CorrectedCategory, &c.Summary, &c.CorrectedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
