package api

import (
	"net/http"
	"testing"
)

func createNote(t *testing.T, router http.Handler, token string, payload map[string]any) map[string]any {
	t.Helper()

	status, body := doJSON(t, router, http.MethodPost, "/notes/", token, payload)
	if status != http.StatusCreated {
		t.Fatalf("create note status = %d, body = %v", status, body)
	}
	return body
}

func TestHandleCreateAndGetNote(t *testing.T) {
	_, router := testServer(t)
	child := signupChild(t, router, "Jack", "jack@example.com")
	token := bundleField(t, child, "access_token")

	note := createNote(t, router, token, map[string]any{
		"title":   "Homework",
		"content": "Chapter 4",
		"folder":  "school",
		"tags":    []string{"maths", "urgent"},
	})
	noteID := note["id"].(string)

	status, got := doJSON(t, router, http.MethodGet, "/notes/"+noteID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if got["title"] != "Homework" || got["folder"] != "school" {
		t.Errorf("note = %v", got)
	}
	tags, _ := got["tags"].([]any)
	if len(tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", got["tags"])
	}
}

func TestHandleCreateNote_Validation(t *testing.T) {
	_, router := testServer(t)
	child := signupChild(t, router, "Jack", "jack@example.com")
	token := bundleField(t, child, "access_token")

	status, _ := doJSON(t, router, http.MethodPost, "/notes/", token, map[string]any{"title": "  "})
	if status != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want 400", status)
	}

	status, _ = doJSON(t, router, http.MethodPost, "/notes/", token, map[string]any{
		"title": "ok",
		"tags":  []string{"bad,tag"},
	})
	if status != http.StatusBadRequest {
		t.Errorf("comma tag status = %d, want 400", status)
	}
}

func TestHandleListNotes_ParentScope(t *testing.T) {
	_, router := testServer(t)

	jack := signupChild(t, router, "Jack", "jack@example.com")
	jackToken := bundleField(t, jack, "access_token")
	emma := signupChild(t, router, "Emma", "emma@example.com")
	emmaToken := bundleField(t, emma, "access_token")

	createNote(t, router, jackToken, map[string]any{"title": "Jack note"})
	createNote(t, router, emmaToken, map[string]any{"title": "Emma note"})

	parent := signupParent(t, router, "Dad", "dad@example.com", userField(t, jack, "family_code"))
	parentToken := bundleField(t, parent, "access_token")

	status, body := doJSON(t, router, http.MethodGet, "/notes/", parentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("parent list status = %d", status)
	}
	list, _ := body["notes"].([]any)
	if len(list) != 1 {
		t.Fatalf("parent sees %d notes, want 1", len(list))
	}
	if list[0].(map[string]any)["title"] != "Jack note" {
		t.Errorf("parent sees wrong note: %v", list[0])
	}

	// Asking for the other child's notes is forbidden
	emmaID := userField(t, emma, "id")
	status, _ = doJSON(t, router, http.MethodGet, "/notes/?owner_id="+emmaID, parentToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("foreign owner_id status = %d, want 403", status)
	}
}

func TestHandleUpdateNote_OwnershipHidden(t *testing.T) {
	_, router := testServer(t)

	jack := signupChild(t, router, "Jack", "jack@example.com")
	jackToken := bundleField(t, jack, "access_token")
	emma := signupChild(t, router, "Emma", "emma@example.com")
	emmaToken := bundleField(t, emma, "access_token")

	note := createNote(t, router, jackToken, map[string]any{"title": "Mine"})
	noteID := note["id"].(string)

	status, body := doJSON(t, router, http.MethodPut, "/notes/"+noteID, jackToken, map[string]any{
		"title": "Renamed",
	})
	if status != http.StatusOK {
		t.Fatalf("owner update status = %d", status)
	}
	if body["title"] != "Renamed" {
		t.Errorf("title = %v", body["title"])
	}

	// Another child gets 404, indistinguishable from a missing note
	status, _ = doJSON(t, router, http.MethodPut, "/notes/"+noteID, emmaToken, map[string]any{
		"title": "Hijack",
	})
	if status != http.StatusNotFound {
		t.Errorf("foreign update status = %d, want 404", status)
	}

	status, _ = doJSON(t, router, http.MethodGet, "/notes/"+noteID, emmaToken, nil)
	if status != http.StatusNotFound {
		t.Errorf("foreign read status = %d, want 404", status)
	}
}

func TestHandleDeleteNote(t *testing.T) {
	_, router := testServer(t)
	child := signupChild(t, router, "Jack", "jack@example.com")
	token := bundleField(t, child, "access_token")

	note := createNote(t, router, token, map[string]any{"title": "Ephemeral"})
	noteID := note["id"].(string)

	status, _ := doJSON(t, router, http.MethodDelete, "/notes/"+noteID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}

	status, _ = doJSON(t, router, http.MethodGet, "/notes/"+noteID, token, nil)
	if status != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestHandleChecklistFlow(t *testing.T) {
	_, router := testServer(t)

	jack := signupChild(t, router, "Jack", "jack@example.com")
	jackToken := bundleField(t, jack, "access_token")
	parent := signupParent(t, router, "Dad", "dad@example.com", userField(t, jack, "family_code"))
	parentToken := bundleField(t, parent, "access_token")

	note := createNote(t, router, jackToken, map[string]any{
		"title":        "Packing",
		"is_checklist": true,
	})
	noteID := note["id"].(string)

	status, item := doJSON(t, router, http.MethodPost, "/notes/"+noteID+"/checklist", jackToken, map[string]any{
		"text": "torch",
	})
	if status != http.StatusCreated {
		t.Fatalf("add item status = %d, body = %v", status, item)
	}
	itemID := item["id"].(string)

	// Parent reads but cannot mutate
	status, body := doJSON(t, router, http.MethodGet, "/notes/"+noteID+"/checklist", parentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("parent list items status = %d", status)
	}
	items, _ := body["items"].([]any)
	if len(items) != 1 {
		t.Errorf("parent sees %d items, want 1", len(items))
	}
	status, _ = doJSON(t, router, http.MethodPut, "/checklist/"+itemID, parentToken, map[string]any{
		"text": "parental edit", "checked": true,
	})
	if status != http.StatusForbidden {
		t.Errorf("parent update item status = %d, want 403", status)
	}

	status, updated := doJSON(t, router, http.MethodPut, "/checklist/"+itemID, jackToken, map[string]any{
		"text": "head torch", "checked": true,
	})
	if status != http.StatusOK {
		t.Fatalf("update item status = %d", status)
	}
	if updated["text"] != "head torch" || updated["checked"] != true {
		t.Errorf("updated item = %v", updated)
	}

	status, _ = doJSON(t, router, http.MethodDelete, "/checklist/"+itemID, jackToken, nil)
	if status != http.StatusOK {
		t.Fatalf("delete item status = %d", status)
	}
	status, _ = doJSON(t, router, http.MethodDelete, "/checklist/"+itemID, jackToken, nil)
	if status != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", status)
	}
}
