package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/notenest/notenest/internal/auth"
	"github.com/notenest/notenest/internal/infrastructure/logging"
)

// List pagination bounds.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// NoteInput carries the client-settable fields of a note.
type NoteInput struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Folder      string   `json:"folder"`
	Tags        []string `json:"tags"`
	IsChecklist bool     `json:"is_checklist"`
}

// ItemInput carries the client-settable fields of a checklist item.
type ItemInput struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Service enforces the ownership rules over the note repository.
//
// Children own their notes outright. A parent gets read access to the
// notes of the one child they linked at signup. Ownership violations on
// mutations surface as ErrNoteNotFound so a guessing caller cannot tell a
// foreign note from a missing one.
type Service struct {
	repo   Repository
	logger *logging.Logger
}

// NewService creates a note service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With("component", "notes"),
	}
}

// CreateNote creates a note owned by the acting child.
func (s *Service) CreateNote(ctx context.Context, actor *auth.Principal, input NoteInput) (*Note, error) {
	if actor.Role != auth.RoleChild {
		return nil, ErrForbidden
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	note := &Note{
		Title:       strings.TrimSpace(input.Title),
		Content:     input.Content,
		OwnerID:     actor.ID,
		Folder:      strings.TrimSpace(input.Folder),
		Tags:        normalizeTags(input.Tags),
		IsChecklist: input.IsChecklist,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}
	note.Items = []ChecklistItem{}

	s.logger.Info("note created", "note_id", note.ID, "owner_id", actor.ID)
	return note, nil
}

// GetNote loads a note the actor is allowed to read: the owning child, or
// a parent linked to the owning child. Anything else is reported as
// not found.
func (s *Service) GetNote(ctx context.Context, actor *auth.Principal, id string) (*Note, error) {
	note, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, note) {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

// ListNotes returns a page of a child's notes. Children list their own;
// parents list their linked child's. Requesting any other owner fails
// with ErrForbidden. An empty ownerID defaults to the actor's natural
// scope. Limit defaults to 20 and is capped at 100.
func (s *Service) ListNotes(ctx context.Context, actor *auth.Principal, ownerID string, limit, offset int) ([]*Note, error) {
	scope, err := resolveOwnerScope(actor, ownerID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	result, err := s.repo.ListByOwner(ctx, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []*Note{}
	}
	return result, nil
}

// UpdateNote overwrites a note's fields. Only the owning child may update;
// a foreign note is reported as not found.
func (s *Service) UpdateNote(ctx context.Context, actor *auth.Principal, id string, input NoteInput) (*Note, error) {
	if actor.Role != auth.RoleChild {
		return nil, ErrForbidden
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	note, err := s.ownedNote(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	note.Title = strings.TrimSpace(input.Title)
	note.Content = input.Content
	note.Folder = strings.TrimSpace(input.Folder)
	note.Tags = normalizeTags(input.Tags)
	note.IsChecklist = input.IsChecklist

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}

	s.logger.Info("note updated", "note_id", id, "owner_id", actor.ID)
	return note, nil
}

// DeleteNote removes a note and its checklist items. Only the owning
// child may delete; a foreign note is reported as not found.
func (s *Service) DeleteNote(ctx context.Context, actor *auth.Principal, id string) error {
	if actor.Role != auth.RoleChild {
		return ErrForbidden
	}

	if _, err := s.ownedNote(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("note deleted", "note_id", id, "owner_id", actor.ID)
	return nil
}

// AddChecklistItem appends an item to a note the acting child owns.
func (s *Service) AddChecklistItem(ctx context.Context, actor *auth.Principal, noteID string, input ItemInput) (*ChecklistItem, error) {
	if actor.Role != auth.RoleChild {
		return nil, ErrForbidden
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: item text is required", ErrValidation)
	}

	if _, err := s.ownedNote(ctx, actor, noteID); err != nil {
		return nil, err
	}

	item := &ChecklistItem{NoteID: noteID, Text: text, Checked: input.Checked}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	if err := s.repo.Touch(ctx, noteID); err != nil {
		return nil, err
	}
	return item, nil
}

// ListChecklistItems returns a note's items under the same read rules as
// GetNote.
func (s *Service) ListChecklistItems(ctx context.Context, actor *auth.Principal, noteID string) ([]ChecklistItem, error) {
	note, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, note) {
		return nil, ErrNoteNotFound
	}
	return note.Items, nil
}

// UpdateChecklistItem overwrites an item's text and checked state. Access
// is scoped through the owning note: only its owning child may mutate, and
// a foreign item is reported as not found.
func (s *Service) UpdateChecklistItem(ctx context.Context, actor *auth.Principal, itemID string, input ItemInput) (*ChecklistItem, error) {
	if actor.Role != auth.RoleChild {
		return nil, ErrForbidden
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: item text is required", ErrValidation)
	}

	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}

	item.Text = text
	item.Checked = input.Checked
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	if err := s.repo.Touch(ctx, item.NoteID); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteChecklistItem removes an item, scoped through the owning note.
func (s *Service) DeleteChecklistItem(ctx context.Context, actor *auth.Principal, itemID string) error {
	if actor.Role != auth.RoleChild {
		return ErrForbidden
	}

	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	return s.repo.Touch(ctx, item.NoteID)
}

// ownedNote loads a note and verifies the actor is its owning child.
// Both a missing note and a foreign note come back as ErrNoteNotFound.
func (s *Service) ownedNote(ctx context.Context, actor *auth.Principal, id string) (*Note, error) {
	note, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.OwnerID != actor.ID {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

// ownedItem loads a checklist item and verifies the actor owns the note
// it belongs to. A foreign item is reported as ErrItemNotFound.
func (s *Service) ownedItem(ctx context.Context, actor *auth.Principal, itemID string) (*ChecklistItem, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	note, err := s.repo.GetByID(ctx, item.NoteID)
	if err != nil {
		return nil, err
	}
	if note.OwnerID != actor.ID {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func canRead(actor *auth.Principal, note *Note) bool {
	switch actor.Role {
	case auth.RoleChild:
		return note.OwnerID == actor.ID
	case auth.RoleParent:
		return note.OwnerID == actor.ChildID
	}
	return false
}

// resolveOwnerScope maps a requested owner to the actor's permitted scope.
func resolveOwnerScope(actor *auth.Principal, ownerID string) (string, error) {
	switch actor.Role {
	case auth.RoleChild:
		if ownerID != "" && ownerID != actor.ID {
			return "", ErrForbidden
		}
		return actor.ID, nil
	case auth.RoleParent:
		if ownerID != "" && ownerID != actor.ChildID {
			return "", ErrForbidden
		}
		return actor.ChildID, nil
	}
	return "", ErrForbidden
}

func validateInput(input NoteInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if _, err := JoinTags(input.Tags); err != nil {
		return err
	}
	return nil
}

// normalizeTags trims whitespace and drops empty entries, preserving order.
func normalizeTags(tags []string) []string {
	out := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
