package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/notenest/notenest/internal/infrastructure/config"
	"github.com/notenest/notenest/internal/infrastructure/logging"
)

// testSecret satisfies the 32-character minimum enforced by config validation.
const testSecret = "test-secret-for-auth-0123456789abcdef"

// testDB creates a temporary SQLite database with the account schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE children (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			family_code TEXT NOT NULL UNIQUE,
			refresh_token TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE parents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			child_id TEXT NOT NULL,
			refresh_token TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (child_id) REFERENCES children(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying account schema: %v", err)
	}

	return db
}

// testService wires an account service against a fresh test database.
// The database is returned too so tests can inspect persisted state.
func testService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db := testDB(t)
	return NewService(
		NewChildRepository(db),
		NewParentRepository(db),
		ServiceConfig{
			JWTSecret:       testSecret,
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test"),
	), db
}

// seedTestChild inserts a child account directly through the repository and
// returns it with the plaintext password available to the caller.
func seedTestChild(t *testing.T, db *sql.DB, name, email string) *Child {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	code, err := GenerateFamilyCode()
	if err != nil {
		t.Fatalf("generating family code: %v", err)
	}

	repo := NewChildRepository(db)
	child := &Child{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		FamilyCode:   code,
	}
	if err := repo.Create(context.Background(), child); err != nil {
		t.Fatalf("creating test child %s: %v", email, err)
	}
	return child
}
