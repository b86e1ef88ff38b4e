// Package testutil provides shared helpers for tests: an in-memory SQLite
// database with the application schema and mock repositories.
package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// NewTestDB creates an in-memory SQLite database for testing
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// In-memory SQLite vanishes per connection; keep exactly one.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		plan VARCHAR(20) NOT NULL DEFAULT 'free',
		sub_start BIGINT,
		sub_end BIGINT,
		sub_active BOOLEAN NOT NULL DEFAULT FALSE,
		sub_payment_id VARCHAR(255),
		sub_provider VARCHAR(50),
		is_student_offer BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
