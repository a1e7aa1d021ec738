package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/api/internal/search"
	"inkwell/api/internal/store"

	"github.com/rs/zerolog"
)

type stubSearch struct {
	query search.Query
}

func (s *stubSearch) Search(q search.Query) ([]search.Result, int, error) {
	s.query = q
	return []search.Result{{EntityID: "doc1", SidebarLabel: "Seed"}}, 1, nil
}

func newTestHandler(m *memStore, backend searchBackend) http.Handler {
	svc := newTestService(m, newFakeGit())
	return NewHTTPServer(svc, backend, "", zerolog.Nop()).Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireUserHeader(t *testing.T) {
	handler := newTestHandler(newMemStore(), nil)

	rec := doJSON(t, handler, http.MethodGet, "/api/organizations/org1/documents/", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity header, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["code"] != "UNAUTHENTICATED" {
		t.Fatalf("unexpected error code %v", body["code"])
	}
}

func TestHealthNeedsNoIdentity(t *testing.T) {
	handler := newTestHandler(newMemStore(), nil)

	rec := doJSON(t, handler, http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateDocumentEndpoint(t *testing.T) {
	m := newMemStore()
	m.addMember("org1", "u1", "Alice")
	handler := newTestHandler(m, nil)

	rec := doJSON(t, handler, http.MethodPost, "/api/organizations/org1/documents/", "u1",
		`{"sidebar_label":"Guide","slug":"guide","content":"hello","is_public":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["slug"] != "guide" || body["status"] != string(store.StatusDraft) {
		t.Fatalf("unexpected response %v", body)
	}
	if body["entity_id"] == "" || body["version_id"] == "" {
		t.Fatalf("response must carry ids, got %v", body)
	}
}

func TestCreateDocumentRejectsBadSlug(t *testing.T) {
	m := newMemStore()
	m.addMember("org1", "u1", "Alice")
	handler := newTestHandler(m, nil)

	rec := doJSON(t, handler, http.MethodPost, "/api/organizations/org1/documents/", "u1",
		`{"sidebar_label":"Guide","slug":"Not A Slug","content":"hello"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetUnknownDocumentIs404(t *testing.T) {
	m := newMemStore()
	m.addMember("org1", "u1", "Alice")
	handler := newTestHandler(m, nil)

	rec := doJSON(t, handler, http.MethodGet, "/api/organizations/org1/documents/doc-missing", "u1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNonMemberIs404(t *testing.T) {
	m := newMemStore()
	m.addMember("org1", "u1", "Alice")
	m.users["u2"] = store.User{ID: "u2", DisplayName: "Bob"}
	handler := newTestHandler(m, nil)

	rec := doJSON(t, handler, http.MethodGet, "/api/organizations/org1/documents/", "u2", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("membership failures must read as 404, got %d", rec.Code)
	}
}

func TestSearchWithoutBackendIs503(t *testing.T) {
	m := newMemStore()
	m.addMember("org1", "u1", "Alice")
	handler := newTestHandler(m, nil)

	rec := doJSON(t, handler, http.MethodGet, "/api/organizations/org1/search?q=routing", "u1", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSearchScopesToOrganization(t *testing.T) {
	m := newMemStore()
	m.addMember("org1", "u1", "Alice")
	backend := &stubSearch{}
	handler := newTestHandler(m, backend)

	rec := doJSON(t, handler, http.MethodGet, "/api/organizations/org1/search?q=routing&limit=5", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if backend.query.OrganizationID != "org1" || backend.query.Text != "routing" || backend.query.Limit != 5 {
		t.Fatalf("unexpected query %+v", backend.query)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/organizations/org1/search", "u1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q must be 400, got %d", rec.Code)
	}
}

func TestSubmitEndpointRequiresTitle(t *testing.T) {
	m := newMemStore()
	m.addMember("org1", "u1", "Alice")
	handler := newTestHandler(m, nil)

	rec := doJSON(t, handler, http.MethodPost, "/api/organizations/org1/pull-requests/", "u1", `{"description":"no title"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
