package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type searchBackend interface {
	Search(q search.Query) ([]search.Result, int, error)
}

type HTTPServer struct {
	service    *Service
	search     searchBackend
	corsOrigin string
	logger     zerolog.Logger
}

// NewHTTPServer wires the router. search may be nil when no backend is
// configured; the endpoint then answers 503.
func NewHTTPServer(service *Service, search searchBackend, corsOrigin string, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{service: service, search: search, corsOrigin: corsOrigin, logger: logger}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)

	r.Route("/api/organizations/{orgID}", func(r chi.Router) {
		r.Use(s.requireUser)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Get("/{entityID}", s.handleGetDocument)
			r.Put("/{entityID}", s.handleUpdateDocument)
			r.Delete("/{entityID}", s.handleDeleteDocument)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{entityID}", s.handleGetCategory)
			r.Put("/{entityID}", s.handleUpdateCategory)
			r.Delete("/{entityID}", s.handleDeleteCategory)
		})
		r.Get("/diff", s.handleBranchDiff)
		r.Get("/search", s.handleSearch)

		r.Route("/pull-requests", func(r chi.Router) {
			r.Get("/", s.handleListPullRequests)
			r.Post("/", s.handleSubmitPullRequest)
			r.Get("/{prID}", s.handleGetPullRequest)
			r.Get("/{prID}/diff", s.handlePullRequestDiff)
			r.Get("/{prID}/conflict", s.handlePullRequestConflict)
			r.Get("/{prID}/conflict-diff", s.handlePullRequestConflictDiff)
			r.Post("/{prID}/merge", s.handleMergePullRequest)
			r.Post("/{prID}/close", s.handleClosePullRequest)
			r.Post("/{prID}/reopen", s.handleReopenPullRequest)
			r.Post("/{prID}/edit-sessions", s.handleStartEditSession)
			r.Post("/{prID}/edit-sessions/finish", s.handleFinishEditSession)
			r.Post("/{prID}/fix-requests", s.handleCreateFixRequest)
		})
		r.Post("/fix-requests/{fixID}/apply", s.handleApplyFixRequest)
	})

	return r
}

type ctxKey string

const userIDKey ctxKey = "userID"

// requireUser reads the caller identity header. There is no session layer;
// the gateway in front of the API authenticates and forwards the user id.
func (s *HTTPServer) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing X-User-ID header", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func callerID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		writer := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(writer, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.Status()).
			Dur("duration", time.Since(started)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *HTTPServer) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.service.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok":     false,
			"checks": map[string]any{"database": map[string]any{"status": "error", "error": err.Error()}},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"checks": map[string]any{"database": map[string]any{"status": "ok"}},
	})
}

func editScope(r *http.Request) EditScope {
	return EditScope{
		PullRequestID: r.URL.Query().Get("edit_pull_request_id"),
		Token:         r.URL.Query().Get("pull_request_edit_token"),
	}
}

type documentPayload struct {
	SidebarLabel         string  `json:"sidebar_label"`
	Slug                 string  `json:"slug"`
	Content              string  `json:"content"`
	CategoryEntityID     *string `json:"category_entity_id"`
	FileOrder            int     `json:"file_order"`
	IsPublic             bool    `json:"is_public"`
	EditPullRequestID    string  `json:"edit_pull_request_id"`
	PullRequestEditToken string  `json:"pull_request_edit_token"`
}

func (p documentPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.SidebarLabel, validation.Required, validation.Length(1, 255)),
		validation.Field(&p.Slug, validation.Required, validation.Match(slugPattern)),
		validation.Field(&p.FileOrder, validation.Min(0)),
	)
}

func (p documentPayload) input() DocumentInput {
	return DocumentInput{
		SidebarLabel:     p.SidebarLabel,
		Slug:             p.Slug,
		Content:          p.Content,
		CategoryEntityID: p.CategoryEntityID,
		FileOrder:        p.FileOrder,
		IsPublic:         p.IsPublic,
	}
}

func (p documentPayload) scope() EditScope {
	return EditScope{PullRequestID: p.EditPullRequestID, Token: p.PullRequestEditToken}
}

type categoryPayload struct {
	SidebarLabel         string  `json:"sidebar_label"`
	Slug                 string  `json:"slug"`
	Description          string  `json:"description"`
	ParentEntityID       *string `json:"parent_entity_id"`
	Position             int     `json:"position"`
	EditPullRequestID    string  `json:"edit_pull_request_id"`
	PullRequestEditToken string  `json:"pull_request_edit_token"`
}

func (p categoryPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.SidebarLabel, validation.Required, validation.Length(1, 255)),
		validation.Field(&p.Slug, validation.Required, validation.Match(slugPattern)),
		validation.Field(&p.Position, validation.Min(0)),
	)
}

func (p categoryPayload) input() CategoryInput {
	return CategoryInput{
		SidebarLabel:   p.SidebarLabel,
		Slug:           p.Slug,
		Description:    p.Description,
		ParentEntityID: p.ParentEntityID,
		Position:       p.Position,
	}
}

func (p categoryPayload) scope() EditScope {
	return EditScope{PullRequestID: p.EditPullRequestID, Token: p.PullRequestEditToken}
}

func (s *HTTPServer) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var payload documentPayload
	if !s.decodeValid(w, r, &payload) {
		return
	}
	v, err := s.service.CreateDocument(r.Context(), chi.URLParam(r, "orgID"), callerID(r), payload.input(), payload.scope())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentView(*v))
}

func (s *HTTPServer) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var payload documentPayload
	if !s.decodeValid(w, r, &payload) {
		return
	}
	v, err := s.service.UpdateDocument(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "entityID"), payload.input(), payload.scope())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentView(*v))
}

func (s *HTTPServer) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteDocument(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "entityID"), editScope(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.GetDocumentWorkContext(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "entityID"), editScope(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if v == nil || v.IsDeleted {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "document not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, documentView(*v))
}

func (s *HTTPServer) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	var categoryID *string
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID = &raw
	}
	versions, err := s.service.ListDocumentsWorkContext(r.Context(), chi.URLParam(r, "orgID"), callerID(r), categoryID, editScope(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		items = append(items, documentView(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": items})
}

func (s *HTTPServer) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if !s.decodeValid(w, r, &payload) {
		return
	}
	v, err := s.service.CreateCategory(r.Context(), chi.URLParam(r, "orgID"), callerID(r), payload.input(), payload.scope())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryView(*v))
}

func (s *HTTPServer) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if !s.decodeValid(w, r, &payload) {
		return
	}
	v, err := s.service.UpdateCategory(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "entityID"), payload.input(), payload.scope())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryView(*v))
}

func (s *HTTPServer) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteCategory(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "entityID"), editScope(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.GetCategoryWorkContext(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "entityID"), editScope(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if v == nil || v.IsDeleted {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "category not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, categoryView(*v))
}

func (s *HTTPServer) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var parentID *string
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		parentID = &raw
	}
	versions, err := s.service.ListCategoriesWorkContext(r.Context(), chi.URLParam(r, "orgID"), callerID(r), parentID, editScope(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		items = append(items, categoryView(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": items})
}

func (s *HTTPServer) handleBranchDiff(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.BranchDiff(r.Context(), chi.URLParam(r, "orgID"), callerID(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "search is not configured", nil)
		return
	}
	text := r.URL.Query().Get("q")
	if text == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "missing query parameter q", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	results, total, err := s.search.Search(search.Query{
		Text:           text,
		OrganizationID: chi.URLParam(r, "orgID"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, search.Response{Results: results, Total: total, Query: text})
}

type submitPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Reviewers   []string `json:"reviewers"`
}

func (p submitPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 255)),
	)
}

func (s *HTTPServer) handleSubmitPullRequest(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if !s.decodeValid(w, r, &payload) {
		return
	}
	pr, err := s.service.SubmitPullRequest(r.Context(), chi.URLParam(r, "orgID"), callerID(r), SubmitInput{
		Title:       payload.Title,
		Description: payload.Description,
		Reviewers:   payload.Reviewers,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pullRequestView(*pr))
}

func (s *HTTPServer) handleListPullRequests(w http.ResponseWriter, r *http.Request) {
	prs, err := s.service.ListOrganizationPullRequests(r.Context(), chi.URLParam(r, "orgID"), callerID(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(prs))
	for _, pr := range prs {
		items = append(items, pullRequestView(pr))
	}
	writeJSON(w, http.StatusOK, map[string]any{"pull_requests": items})
}

func (s *HTTPServer) handleGetPullRequest(w http.ResponseWriter, r *http.Request) {
	pr, err := s.service.PullRequestByID(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pullRequestView(*pr))
}

func (s *HTTPServer) handlePullRequestDiff(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.PullRequestDiff(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *HTTPServer) handlePullRequestConflict(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.PullRequestConflict(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *HTTPServer) handlePullRequestConflictDiff(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.PullRequestConflictDiff(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *HTTPServer) handleMergePullRequest(w http.ResponseWriter, r *http.Request) {
	err := s.service.MergePullRequest(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleClosePullRequest(w http.ResponseWriter, r *http.Request) {
	err := s.service.ClosePullRequest(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReopenPullRequest(w http.ResponseWriter, r *http.Request) {
	err := s.service.ReopenPullRequest(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleStartEditSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.StartPullRequestEditSession(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":              session.ID,
		"pull_request_edit_token": session.Token,
	})
}

type finishSessionPayload struct {
	Token string `json:"pull_request_edit_token"`
}

func (p finishSessionPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
	)
}

func (s *HTTPServer) handleFinishEditSession(w http.ResponseWriter, r *http.Request) {
	var payload finishSessionPayload
	if !s.decodeValid(w, r, &payload) {
		return
	}
	err := s.service.FinishPullRequestEditSession(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"), payload.Token)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleCreateFixRequest(w http.ResponseWriter, r *http.Request) {
	fix, err := s.service.CreateFixRequest(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "prID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":              fix.ID,
		"pull_request_id": fix.PullRequestID,
		"status":          string(fix.Status),
	})
}

type applyFixPayload struct {
	Versions []struct {
		TargetType string `json:"target_type"`
		VersionID  string `json:"version_id"`
	} `json:"versions"`
}

func (p applyFixPayload) Validate() error {
	for _, v := range p.Versions {
		if v.TargetType != string(store.TargetDocument) && v.TargetType != string(store.TargetCategory) {
			return fmt.Errorf("invalid target_type %q", v.TargetType)
		}
		if v.VersionID == "" {
			return fmt.Errorf("missing version_id")
		}
	}
	return nil
}

func (s *HTTPServer) handleApplyFixRequest(w http.ResponseWriter, r *http.Request) {
	var payload applyFixPayload
	if !s.decodeValid(w, r, &payload) {
		return
	}
	versions := make([]store.FixRequestVersion, 0, len(payload.Versions))
	for _, v := range payload.Versions {
		versions = append(versions, store.FixRequestVersion{
			TargetType: store.TargetType(v.TargetType),
			VersionID:  v.VersionID,
		})
	}
	err := s.service.ApplyFixRequest(r.Context(), chi.URLParam(r, "orgID"), callerID(r), chi.URLParam(r, "fixID"), versions)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type validatable interface {
	Validate() error
}

func (s *HTTPServer) decodeValid(w http.ResponseWriter, r *http.Request, target validatable) bool {
	if err := decodeBody(r, target); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), nil)
		return false
	}
	if err := target.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "validation failed", err)
		return false
	}
	return true
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var domain *DomainError
	if errors.As(err, &domain) {
		writeError(w, domain.Status, domain.Code, domain.Message, domain.Details)
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
		return
	}
	s.logger.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func documentView(v store.DocumentVersion) map[string]any {
	return map[string]any{
		"entity_id":          v.EntityID,
		"version_id":         v.ID,
		"organization_id":    v.OrganizationID,
		"status":             string(v.Status),
		"sidebar_label":      v.SidebarLabel,
		"slug":               v.Slug,
		"content":            v.Content,
		"category_entity_id": v.CategoryEntityID,
		"file_order":         v.FileOrder,
		"is_public":          v.IsPublic,
		"last_edited_by":     v.LastEditedBy,
		"created_at":         v.CreatedAt,
		"updated_at":         v.UpdatedAt,
	}
}

func categoryView(v store.CategoryVersion) map[string]any {
	return map[string]any{
		"entity_id":        v.EntityID,
		"version_id":       v.ID,
		"organization_id":  v.OrganizationID,
		"status":           string(v.Status),
		"sidebar_label":    v.SidebarLabel,
		"slug":             v.Slug,
		"description":      v.Description,
		"parent_entity_id": v.ParentEntityID,
		"position":         v.Position,
		"created_at":       v.CreatedAt,
		"updated_at":       v.UpdatedAt,
	}
}

func pullRequestView(pr store.PullRequest) map[string]any {
	return map[string]any{
		"id":              pr.ID,
		"user_branch_id":  pr.UserBranchID,
		"organization_id": pr.OrganizationID,
		"pr_number":       pr.PRNumber,
		"title":           pr.Title,
		"status":          string(pr.Status),
		"created_at":      pr.CreatedAt,
		"updated_at":      pr.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
