package persistence

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// OpenInMemory opens a private in-memory database. The pool is limited to one
// connection because every SQLite connection gets its own :memory: database.
func OpenInMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	learnersTable := `
	CREATE TABLE IF NOT EXISTS learners (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		telegram_chat_id INTEGER NOT NULL DEFAULT 0,
		reminders_enabled INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		last_active TEXT NOT NULL
	);`

	_, err := db.Exec(learnersTable)
	if err != nil {
		return fmt.Errorf("failed to create learners table: %w", err)
	}

	factsTable := `
	CREATE TABLE IF NOT EXISTS facts (
		id TEXT PRIMARY KEY,
		deck TEXT NOT NULL,
		prompt TEXT NOT NULL,
		answer TEXT NOT NULL,
		UNIQUE(deck, prompt)
	);`

	_, err = db.Exec(factsTable)
	if err != nil {
		return fmt.Errorf("failed to create facts table: %w", err)
	}

	// One row per (learner, fact); mirrors learning.Item field by field.
	itemsTable := `
	CREATE TABLE IF NOT EXISTS scheduler_items (
		id TEXT PRIMARY KEY,
		learner_id TEXT NOT NULL,
		fact_id TEXT NOT NULL,
		interval_days INTEGER NOT NULL,
		repetition_count INTEGER NOT NULL,
		easiness_factor REAL NOT NULL,
		next_review_at TEXT NOT NULL,
		last_reviewed_at TEXT,
		total_reviews INTEGER NOT NULL DEFAULT 0,
		consecutive_correct INTEGER NOT NULL DEFAULT 0,
		average_accuracy REAL NOT NULL DEFAULT 0,
		average_response_time_ms REAL NOT NULL DEFAULT 0,
		difficulty_rating INTEGER NOT NULL DEFAULT 3,
		last_grade INTEGER NOT NULL DEFAULT 0,
		introduced_at TEXT NOT NULL,
		graduated INTEGER NOT NULL DEFAULT 0,
		lapse_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (learner_id) REFERENCES learners (id),
		FOREIGN KEY (fact_id) REFERENCES facts (id),
		UNIQUE(learner_id, fact_id)
	);`

	_, err = db.Exec(itemsTable)
	if err != nil {
		return fmt.Errorf("failed to create scheduler_items table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_scheduler_items_due ON scheduler_items (learner_id, next_review_at)`)
	if err != nil {
		return fmt.Errorf("failed to create due index: %w", err)
	}

	reviewHistoryTable := `
	CREATE TABLE IF NOT EXISTS review_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		learner_id TEXT NOT NULL,
		fact_id TEXT NOT NULL,
		grade INTEGER NOT NULL,
		review_time TEXT NOT NULL,
		response_time_ms INTEGER NOT NULL DEFAULT 0,
		interval_days INTEGER NOT NULL,
		easiness_factor REAL NOT NULL,
		FOREIGN KEY (item_id) REFERENCES scheduler_items (id)
	);`

	_, err = db.Exec(reviewHistoryTable)
	if err != nil {
		return fmt.Errorf("failed to create review_history table: %w", err)
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseDateTime parses a stored timestamp. Rows written by older builds may
// use one of the SQLite datetime formats.
func parseDateTime(str sql.NullString) (time.Time, error) {
	if !str.Valid {
		return time.Time{}, nil
	}

	formats := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		"2006-01-02T15:04:05.000",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05.999999999-07:00",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, str.String); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse datetime: %s", str.String)
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
