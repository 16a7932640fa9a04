package notes

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/notenest/notenest/internal/auth"
	"github.com/notenest/notenest/internal/infrastructure/config"
	"github.com/notenest/notenest/internal/infrastructure/logging"
)

// testDB creates a temporary SQLite database with the notes schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "notes-test-*.db")
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

		CREATE TABLE notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			owner_id TEXT NOT NULL,
			folder TEXT,
			tags TEXT NOT NULL DEFAULT '',
			is_checklist INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (owner_id) REFERENCES children(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE checklist_items (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL,
			text TEXT NOT NULL,
			checked INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying notes schema: %v", err)
	}

	return db
}

// seedChildRow inserts a bare child account row so note foreign keys hold.
func seedChildRow(t *testing.T, db *sql.DB, id, familyCode string) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO children (id, name, email, password_hash, family_code) VALUES (?, ?, ?, ?, ?)",
		id, "Child "+id, id+"@example.com", "x", familyCode)
	if err != nil {
		t.Fatalf("seeding child %s: %v", id, err)
	}
}

// testService wires a note service against a fresh test database with two
// child rows pre-seeded: chd-owner00 and chd-other00.
func testService(t *testing.T) (*Service, *SQLiteRepository) {
	t.Helper()

	db := testDB(t)
	seedChildRow(t, db, "chd-owner00", "OWNER1")
	seedChildRow(t, db, "chd-other00", "OTHER1")

	repo := NewRepository(db)
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	return NewService(repo, logger), repo
}

func childPrincipal(id string) *auth.Principal {
	return &auth.Principal{ID: id, Role: auth.RoleChild}
}

func parentPrincipal(id, childID string) *auth.Principal {
	return &auth.Principal{ID: id, Role: auth.RoleParent, ChildID: childID}
}
