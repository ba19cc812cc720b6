package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/Tarachineno/standard-checker/internal/standards"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a sqlite database behind the same Store
// contract as the JSON file store. Each record is kept as its JSON document
// plus the columns needed for ad-hoc inspection.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS standards (
	seq    INTEGER PRIMARY KEY AUTOINCREMENT,
	id     TEXT NOT NULL UNIQUE,
	number TEXT NOT NULL,
	doc    TEXT NOT NULL
)`

// NewSQLiteStore opens (creating if needed) a sqlite-backed store.
func NewSQLiteStore(path string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open registry database %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize registry schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load reads all stored records in insertion order. Unreadable rows are
// skipped and a broken table yields an empty set, matching the JSON store's
// corrupt-file behavior.
func (s *SQLiteStore) Load() ([]standards.Record, error) {
	rows, err := s.db.Query(`SELECT doc FROM standards ORDER BY seq`)
	if err != nil {
		s.logger.Printf("registry database unreadable, starting empty: %v", err)
		return nil, nil
	}
	defer rows.Close()

	var records []standards.Record
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			s.logger.Printf("skipping unreadable registry row: %v", err)
			continue
		}
		var rec standards.Record
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			s.logger.Printf("skipping corrupt registry row: %v", err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		s.logger.Printf("registry database read interrupted: %v", err)
	}
	return records, nil
}

// Save replaces the stored set with the given records in one transaction.
func (s *SQLiteStore) Save(records []standards.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("cannot begin registry transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM standards`); err != nil {
		return fmt.Errorf("cannot clear registry table: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO standards (id, number, doc) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare registry insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("cannot serialize record %s: %w", rec.ID, err)
		}
		if _, err := stmt.Exec(rec.ID, rec.Number, string(doc)); err != nil {
			return fmt.Errorf("cannot store record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit registry transaction: %w", err)
	}
	s.logger.Printf("registry saved to database (%d record(s))", len(records))
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
