package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChildRepository defines the interface for child account persistence.
type ChildRepository interface {
	Create(ctx context.Context, child *Child) error
	GetByID(ctx context.Context, id string) (*Child, error)
	GetByEmail(ctx context.Context, email string) (*Child, error)
	GetByFamilyCode(ctx context.Context, code string) (*Child, error)
	UpdateRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SQLiteChildRepository implements ChildRepository using SQLite.
type SQLiteChildRepository struct {
	db *sql.DB
}

// NewChildRepository creates a new SQLite-backed child repository.
func NewChildRepository(db *sql.DB) *SQLiteChildRepository {
	return &SQLiteChildRepository{db: db}
}

const childColumns = "id, name, email, password_hash, family_code, refresh_token, created_at"

// Create inserts a new child account. The ID is generated if empty.
//
// The row carries the freshly minted refresh token, so a successful insert
// is the whole signup write: there is no window where the account exists
// without its generated artifacts. Uniqueness races surface here as
// ErrEmailTaken or errFamilyCodeCollision, matching the pre-check errors.
func (r *SQLiteChildRepository) Create(ctx context.Context, child *Child) error {
	if child.ID == "" {
		child.ID = "chd-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	child.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO children (id, name, email, password_hash, family_code, refresh_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		child.ID, child.Name, child.Email, child.PasswordHash,
		child.FamilyCode, nullString(child.RefreshToken), now,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "children.email"):
			return ErrEmailTaken
		case uniqueViolation(err, "children.family_code"):
			return errFamilyCodeCollision
		}
		return fmt.Errorf("creating child: %w", err)
	}

	return nil
}

// GetByID retrieves a child by their unique ID.
func (r *SQLiteChildRepository) GetByID(ctx context.Context, id string) (*Child, error) {
	return r.getChild(ctx, "SELECT "+childColumns+" FROM children WHERE id = ?", id)
}

// GetByEmail retrieves a child by their email address.
func (r *SQLiteChildRepository) GetByEmail(ctx context.Context, email string) (*Child, error) {
	return r.getChild(ctx, "SELECT "+childColumns+" FROM children WHERE email = ?", email)
}

// GetByFamilyCode retrieves the child that owns a family code.
func (r *SQLiteChildRepository) GetByFamilyCode(ctx context.Context, code string) (*Child, error) {
	return r.getChild(ctx, "SELECT "+childColumns+" FROM children WHERE family_code = ?", code)
}

// UpdateRefreshToken overwrites the stored refresh token, invalidating any
// previously issued one.
func (r *SQLiteChildRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE children SET refresh_token = ? WHERE id = ?", nullString(token), id)
	if err != nil {
		return fmt.Errorf("updating child refresh token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearRefreshToken removes the stored refresh token (logout).
// Returns whether a matching account was found and updated.
func (r *SQLiteChildRepository) ClearRefreshToken(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE children SET refresh_token = NULL WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("clearing child refresh token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows > 0, nil
}

// Delete removes a child account. The child's notes (and their checklist
// items) go with it via foreign key cascades.
func (r *SQLiteChildRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM children WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting child: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the total number of child accounts.
func (r *SQLiteChildRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM children").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting children: %w", err)
	}
	return count, nil
}

// getChild executes a query and scans a single child result.
func (r *SQLiteChildRepository) getChild(ctx context.Context, query string, args ...any) (*Child, error) {
	var c Child
	var refreshToken sql.NullString
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.FamilyCode,
		&refreshToken, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting child: %w", err)
	}

	if refreshToken.Valid {
		c.RefreshToken = refreshToken.String
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &c, nil
}

// Helper functions shared by the account repositories.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// uniqueViolation checks if a SQLite error is a UNIQUE constraint violation
// on the given column (e.g. "children.email").
func uniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
