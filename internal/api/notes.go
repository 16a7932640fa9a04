package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notenest/notenest/internal/audit"
	"github.com/notenest/notenest/internal/notes"
)

// handleCreateNote creates a note owned by the acting child.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var input notes.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	principal := principalFromContext(r.Context())
	note, err := s.notes.CreateNote(r.Context(), principal, input)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionCreate, entityNote, note.ID, principal,
		map[string]any{"title": note.Title})

	writeJSON(w, http.StatusCreated, note)
}

// handleGetNote returns a single note the caller may read.
func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	note, err := s.notes.GetNote(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// handleListNotes returns a page of notes. Children see their own; parents
// see their linked child's. An explicit owner_id outside that scope is
// rejected.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	result, err := s.notes.ListNotes(r.Context(), principal,
		r.URL.Query().Get("owner_id"), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notes": result})
}

// handleUpdateNote overwrites a note's fields.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var input notes.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	principal := principalFromContext(r.Context())
	note, err := s.notes.UpdateNote(r.Context(), principal, chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionUpdate, entityNote, note.ID, principal, nil)

	writeJSON(w, http.StatusOK, note)
}

// handleDeleteNote removes a note and its checklist items.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.notes.DeleteNote(r.Context(), principal, id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionDelete, entityNote, id, principal, nil)

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleAddChecklistItem appends an item to one of the caller's notes.
func (s *Server) handleAddChecklistItem(w http.ResponseWriter, r *http.Request) {
	var input notes.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	principal := principalFromContext(r.Context())
	item, err := s.notes.AddChecklistItem(r.Context(), principal, chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionCreate, entityChecklistItem, item.ID, principal, nil)

	writeJSON(w, http.StatusCreated, item)
}

// handleListChecklistItems returns a note's checklist items.
func (s *Server) handleListChecklistItems(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	items, err := s.notes.ListChecklistItems(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleUpdateChecklistItem overwrites an item's text and checked state.
func (s *Server) handleUpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	var input notes.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	principal := principalFromContext(r.Context())
	item, err := s.notes.UpdateChecklistItem(r.Context(), principal, chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionUpdate, entityChecklistItem, item.ID, principal, nil)

	writeJSON(w, http.StatusOK, item)
}

// handleDeleteChecklistItem removes a checklist item.
func (s *Server) handleDeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.notes.DeleteChecklistItem(r.Context(), principal, id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionDelete, entityChecklistItem, id, principal, nil)

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
