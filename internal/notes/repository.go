package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for note persistence.
type Repository interface {
	Create(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, id string) (*Note, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id string) error
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Touch(ctx context.Context, id string) error

	AddItem(ctx context.Context, item *ChecklistItem) error
	GetItemByID(ctx context.Context, id string) (*ChecklistItem, error)
	ListItems(ctx context.Context, noteID string) ([]ChecklistItem, error)
	UpdateItem(ctx context.Context, item *ChecklistItem) error
	DeleteItem(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed note repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const noteColumns = "id, title, content, owner_id, folder, tags, is_checklist, created_at, updated_at"

// Create inserts a new note. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, note *Note) error {
	if note.ID == "" {
		note.ID = "nte-" + uuid.NewString()[:8]
	}

	tags, err := JoinTags(note.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	note.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	note.UpdatedAt = note.CreatedAt

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, owner_id, folder, tags, is_checklist, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.Title, note.Content, note.OwnerID,
		nullString(note.Folder), tags, boolToInt(note.IsChecklist), now, now,
	)
	if err != nil {
		return fmt.Errorf("creating note: %w", err)
	}
	return nil
}

// GetByID retrieves a note with its checklist items.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Note, error) {
	note, err := r.scanNote(r.db.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id = ?", id))
	if err != nil {
		return nil, err
	}

	note.Items, err = r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListByOwner returns a page of a child's notes, newest first. Items are
// loaded per note; list pages are small enough that the N+1 doesn't matter
// against an embedded store.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Note, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE owner_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var result []*Note
	for rows.Next() {
		note, err := r.scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	for _, note := range result {
		note.Items, err = r.ListItems(ctx, note.ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Update overwrites a note's mutable fields and refreshes updated_at.
func (r *SQLiteRepository) Update(ctx context.Context, note *Note) error {
	tags, err := JoinTags(note.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	note.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, folder = ?, tags = ?, is_checklist = ?, updated_at = ?
		 WHERE id = ?`,
		note.Title, note.Content, nullString(note.Folder), tags,
		boolToInt(note.IsChecklist), now, note.ID,
	)
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// Delete removes a note. Checklist items go with it via cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// Touch refreshes a note's updated_at without changing its content. Used
// when a checklist item changes underneath the note.
func (r *SQLiteRepository) Touch(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"UPDATE notes SET updated_at = ? WHERE id = ?", now, id)
	if err != nil {
		return fmt.Errorf("touching note: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// CountByOwner returns how many notes a child owns.
func (r *SQLiteRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notes WHERE owner_id = ?", ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting notes: %w", err)
	}
	return count, nil
}

// AddItem appends a checklist item to a note. The ID is generated if empty.
func (r *SQLiteRepository) AddItem(ctx context.Context, item *ChecklistItem) error {
	if item.ID == "" {
		item.ID = "itm-" + uuid.NewString()[:8]
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO checklist_items (id, note_id, text, checked) VALUES (?, ?, ?, ?)",
		item.ID, item.NoteID, item.Text, boolToInt(item.Checked))
	if err != nil {
		return fmt.Errorf("adding checklist item: %w", err)
	}
	return nil
}

// GetItemByID retrieves a single checklist item.
func (r *SQLiteRepository) GetItemByID(ctx context.Context, id string) (*ChecklistItem, error) {
	var item ChecklistItem
	var checked int

	err := r.db.QueryRowContext(ctx,
		"SELECT id, note_id, text, checked FROM checklist_items WHERE id = ?", id).
		Scan(&item.ID, &item.NoteID, &item.Text, &checked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("getting checklist item: %w", err)
	}

	item.Checked = checked != 0
	return &item, nil
}

// ListItems returns a note's checklist items in insertion order.
func (r *SQLiteRepository) ListItems(ctx context.Context, noteID string) ([]ChecklistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, note_id, text, checked FROM checklist_items WHERE note_id = ? ORDER BY rowid", noteID)
	if err != nil {
		return nil, fmt.Errorf("listing checklist items: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	items := []ChecklistItem{}
	for rows.Next() {
		var item ChecklistItem
		var checked int
		if err := rows.Scan(&item.ID, &item.NoteID, &item.Text, &checked); err != nil {
			return nil, fmt.Errorf("scanning checklist item: %w", err)
		}
		item.Checked = checked != 0
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing checklist items: %w", err)
	}
	return items, nil
}

// UpdateItem overwrites a checklist item's text and checked state.
func (r *SQLiteRepository) UpdateItem(ctx context.Context, item *ChecklistItem) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE checklist_items SET text = ?, checked = ? WHERE id = ?",
		item.Text, boolToInt(item.Checked), item.ID)
	if err != nil {
		return fmt.Errorf("updating checklist item: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItem removes a checklist item.
func (r *SQLiteRepository) DeleteItem(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM checklist_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting checklist item: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanNote(row scanner) (*Note, error) {
	var n Note
	var folder sql.NullString
	var tags string
	var isChecklist int
	var createdAt, updatedAt string

	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID,
		&folder, &tags, &isChecklist, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("getting note: %w", err)
	}

	if folder.Valid {
		n.Folder = folder.String
	}
	n.Tags = SplitTags(tags)
	n.IsChecklist = isChecklist != 0
	n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	n.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &n, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
