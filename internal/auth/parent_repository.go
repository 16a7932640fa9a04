package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ParentRepository defines the interface for parent account persistence.
type ParentRepository interface {
	Create(ctx context.Context, parent *Parent) error
	GetByID(ctx context.Context, id string) (*Parent, error)
	GetByEmail(ctx context.Context, email string) (*Parent, error)
	UpdateRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SQLiteParentRepository implements ParentRepository using SQLite.
type SQLiteParentRepository struct {
	db *sql.DB
}

// NewParentRepository creates a new SQLite-backed parent repository.
func NewParentRepository(db *sql.DB) *SQLiteParentRepository {
	return &SQLiteParentRepository{db: db}
}

const parentColumns = "id, name, email, password_hash, child_id, refresh_token, created_at"

// Create inserts a new parent account linked to a child. The ID is
// generated if empty. As with children, the insert carries the minted
// refresh token so the signup write is a single atomic statement.
func (r *SQLiteParentRepository) Create(ctx context.Context, parent *Parent) error {
	if parent.ID == "" {
		parent.ID = "par-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	parent.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO parents (id, name, email, password_hash, child_id, refresh_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		parent.ID, parent.Name, parent.Email, parent.PasswordHash,
		parent.ChildID, nullString(parent.RefreshToken), now,
	)
	if err != nil {
		if uniqueViolation(err, "parents.email") {
			return ErrEmailTaken
		}
		return fmt.Errorf("creating parent: %w", err)
	}

	return nil
}

// GetByID retrieves a parent by their unique ID.
func (r *SQLiteParentRepository) GetByID(ctx context.Context, id string) (*Parent, error) {
	return r.getParent(ctx, "SELECT "+parentColumns+" FROM parents WHERE id = ?", id)
}

// GetByEmail retrieves a parent by their email address.
func (r *SQLiteParentRepository) GetByEmail(ctx context.Context, email string) (*Parent, error) {
	return r.getParent(ctx, "SELECT "+parentColumns+" FROM parents WHERE email = ?", email)
}

// UpdateRefreshToken overwrites the stored refresh token, invalidating any
// previously issued one.
func (r *SQLiteParentRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE parents SET refresh_token = ? WHERE id = ?", nullString(token), id)
	if err != nil {
		return fmt.Errorf("updating parent refresh token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearRefreshToken removes the stored refresh token (logout).
// Returns whether a matching account was found and updated.
func (r *SQLiteParentRepository) ClearRefreshToken(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE parents SET refresh_token = NULL WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("clearing parent refresh token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows > 0, nil
}

// Delete removes a parent account.
func (r *SQLiteParentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM parents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting parent: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the total number of parent accounts.
func (r *SQLiteParentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM parents").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting parents: %w", err)
	}
	return count, nil
}

// getParent executes a query and scans a single parent result.
func (r *SQLiteParentRepository) getParent(ctx context.Context, query string, args ...any) (*Parent, error) {
	var p Parent
	var refreshToken sql.NullString
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.ChildID,
		&refreshToken, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting parent: %w", err)
	}

	if refreshToken.Valid {
		p.RefreshToken = refreshToken.String
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &p, nil
}
