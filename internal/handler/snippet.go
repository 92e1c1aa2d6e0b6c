// Package handler contains the HTTP handlers of the snippet API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the request (path params, query, JSON body, session)
// 2. Call the service layer
// 3. Write the response through writeJSON / writeError
//
// Handlers hold no business rules; validation, visibility and ownership all
// live in the service so the terminal editor gets the same behaviour.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/swiftsnip/internal/apperror"
	"github.com/sakif/swiftsnip/internal/auth"
	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/service"
)

// SnippetHandler serves the snippet CRUD routes.
type SnippetHandler struct {
	svc    *service.SnippetService
	logger *slog.Logger
}

func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{svc: svc, logger: logger}
}

// snippetRequest is the body of POST and PUT. Omitted fields take the same
// defaults as a fresh editor: language javascript, public.
type snippetRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Language    string `json:"language"`
	IsPublic    *bool  `json:"isPublic"`
}

func (req snippetRequest) toSnippet() (model.Snippet, error) {
	s := model.NewSnippet()
	s.Title = req.Title
	s.Description = req.Description
	s.Code = req.Code

	if req.Language != "" {
		lang, ok := model.ParseLanguage(req.Language)
		if !ok {
			return model.Snippet{}, apperror.ValidationFailed("language",
				fmt.Sprintf("unsupported language %q", req.Language))
		}
		s.Language = lang
	}
	if req.IsPublic != nil {
		s.IsPublic = *req.IsPublic
	}
	return s, nil
}

// viewer returns the signed-in user ID, or "" for anonymous requests.
func viewer(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

// HandleList returns the snippets visible to the caller, newest first.
//
// HTTP: GET /api/snippets?limit=20&offset=0&language=python
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	var lang model.Language
	if raw := r.URL.Query().Get("language"); raw != "" {
		parsed, ok := model.ParseLanguage(raw)
		if !ok {
			writeError(w, apperror.ValidationFailed("language", fmt.Sprintf("unsupported language %q", raw)))
			return
		}
		lang = parsed
	}

	snippets, err := h.svc.List(r.Context(), limit, offset, viewer(r), lang)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleGetByID returns one snippet.
//
// HTTP: GET /api/snippets/{id}
// A private snippet of someone else answers 404, exactly like a missing one.
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate stores a new snippet owned by the caller (if signed in).
//
// HTTP: POST /api/snippets
// REQUEST BODY: {"title","description","code","language","isPublic"}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	in, err := req.toSnippet()
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Create(r.Context(), in, viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate replaces the editable fields of a snippet.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	in, err := req.toSnippet()
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in, viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /api/snippets/{id} → 204 No Content
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id, viewer(r)); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Debug("snippet delete handled", slog.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}
