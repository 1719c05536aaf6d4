package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"
)

// SetupTestDB connects to the database named by TEST_DATABASE_URL and
// prepares the schema. Tests that need Postgres are skipped when the
// variable is unset so the rest of the suite can run anywhere.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres-backed test")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err = db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	if err = EnsureSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	return db
}

// CleanupTestDB cleans up test data.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	// Transactions reference users, so they go first
	tables := []string{"transactions", "users"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id > 0", table))
		if err != nil {
			log.Printf("Warning: Failed to cleanup table %s: %v", table, err)
		}
	}
}

// CreateTestUser creates a test user and returns its ID.
func CreateTestUser(t *testing.T, db *sql.DB, username string, balance string) int64 {
	t.Helper()

	var userID int64

	// Make username unique by adding a timestamp
	uniqueUsername := fmt.Sprintf("%s_%d", username, time.Now().UnixNano())

	err := db.QueryRow(
		"INSERT INTO users (username, password_hash, cash_balance) VALUES ($1, $2, $3) RETURNING id",
		uniqueUsername, "test-hash", balance,
	).Scan(&userID)

	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}
