// Package notes implements note storage and the ownership rules around it.
//
// Notes belong to child accounts. A note is plain text or a checklist, may
// sit in a folder, and carries an ordered tag list stored as comma-joined
// text. Parents linked to the owning child get read access and nothing else.
package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Note is a single note owned by a child account.
type Note struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	OwnerID     string          `json:"owner_id"`
	Folder      string          `json:"folder,omitempty"`
	Tags        []string        `json:"tags"`
	IsChecklist bool            `json:"is_checklist"`
	Items       []ChecklistItem `json:"items,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ChecklistItem is one entry of a checklist note.
type ChecklistItem struct {
	ID      string `json:"id"`
	NoteID  string `json:"note_id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Sentinel errors for note operations.
var (
	ErrValidation   = errors.New("invalid input")
	ErrNoteNotFound = errors.New("note not found")
	ErrItemNotFound = errors.New("checklist item not found")
	ErrForbidden    = errors.New("access denied")
)

// JoinTags serializes a tag list to its comma-joined storage form.
// Tags may not contain commas; the empty list serializes to "".
func JoinTags(tags []string) (string, error) {
	for _, tag := range tags {
		if strings.Contains(tag, ",") {
			return "", fmt.Errorf("%w: tag %q contains a comma", ErrValidation, tag)
		}
	}
	return strings.Join(tags, ","), nil
}

// SplitTags parses the comma-joined storage form back into a tag list.
// The empty string parses to an empty list, not [""].
func SplitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
