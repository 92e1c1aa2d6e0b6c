package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/swiftsnip/internal/editor"
	"github.com/sakif/swiftsnip/internal/model"
)

// PlaygroundHandler serves what a web editor needs besides storage: the
// language list for its selector and the rendered description preview.
type PlaygroundHandler struct {
	renderer editor.Renderer
	logger   *slog.Logger
}

func NewPlaygroundHandler(renderer editor.Renderer, logger *slog.Logger) *PlaygroundHandler {
	return &PlaygroundHandler{renderer: renderer, logger: logger}
}

// LanguageInfo is one entry of the language selector.
type LanguageInfo struct {
	ID      model.Language `json:"id"`
	Name    string         `json:"name"`
	Default bool           `json:"default,omitempty"`
}

// HandleLanguages lists the supported languages in selector order.
//
// HTTP: GET /api/languages
func (h *PlaygroundHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	langs := model.Languages()
	out := make([]LanguageInfo, 0, len(langs))
	for _, l := range langs {
		out = append(out, LanguageInfo{ID: l, Name: l.DisplayName(), Default: l == model.DefaultLanguage})
	}
	writeJSON(w, http.StatusOK, out)
}

type previewRequest struct {
	Description string `json:"description"`
}

type previewResponse struct {
	HTML     string `json:"html"`
	Rendered bool   `json:"rendered"`
}

// HandlePreview renders a description as sanitized HTML.
//
// HTTP: POST /api/preview {"description": "# Title"} → {"html": "<h1>Title</h1>\n", "rendered": true}
// An empty description is not rendered at all and yields {"html": "", "rendered": false}.
func (h *PlaygroundHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	// A throwaway editor keeps the "render only when non-empty" rule in one place.
	e := editor.New(nil, nil, h.logger)
	e.SetDescription(req.Description)

	html, rendered, err := e.Preview(h.renderer)
	if err != nil {
		h.logger.Error("failed to render preview", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{HTML: html, Rendered: rendered})
}

// HandleHealth answers liveness probes.
//
// HTTP: GET /healthz
func (h *PlaygroundHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
