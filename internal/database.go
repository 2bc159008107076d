package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	collection  TEXT NOT NULL,
	body        TEXT NOT NULL,
	inserted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_collection ON documents (collection);`

// OpenDatabase opens (creating if needed) a SQLite document database
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases live per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(documentsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// SQLiteStore keeps documents as JSON rows in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Truncate removes every document in collection
func (s *SQLiteStore) Truncate(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ?", collection); err != nil {
		return &StoreError{Op: "truncate", Collection: collection, Err: err}
	}
	return nil
}

// InsertMany stores docs in a single transaction
func (s *SQLiteStore) InsertMany(ctx context.Context, collection string, docs []map[string]interface{}) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StoreError{Op: "insert", Collection: collection, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (collection, body, inserted_at) VALUES (?, ?, ?)")
	if err != nil {
		return 0, &StoreError{Op: "insert", Collection: collection, Err: err}
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return 0, &StoreError{Op: "insert", Collection: collection, Err: fmt.Errorf("failed to encode document: %w", err)}
		}
		if _, err := stmt.ExecContext(ctx, collection, string(body), now); err != nil {
			return 0, &StoreError{Op: "insert", Collection: collection, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &StoreError{Op: "insert", Collection: collection, Err: err}
	}
	return len(docs), nil
}

// LoadDocuments returns the documents of collection in insertion order
func (s *SQLiteStore) LoadDocuments(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT body FROM documents WHERE collection = ? ORDER BY id", collection)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var docs []map[string]interface{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		var doc map[string]interface{}
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, &StoreError{Op: "load", Collection: collection, Err: err}
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return docs, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
