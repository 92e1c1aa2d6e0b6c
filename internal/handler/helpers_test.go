package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/swiftsnip/internal/auth"
	"github.com/sakif/swiftsnip/internal/handler"
	sqliteRepo "github.com/sakif/swiftsnip/internal/repository/sqlite"
	"github.com/sakif/swiftsnip/internal/service"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newSnippetRouter wires SnippetHandler over an in-memory database. Requests
// made with asUser carry a signed-in identity.
func newSnippetRouter(t *testing.T) (http.Handler, *sqliteRepo.DB) {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := newTestLogger()
	h := handler.NewSnippetHandler(service.NewSnippetService(db, logger), logger)

	r := chi.NewRouter()
	r.Get("/api/snippets", h.HandleList)
	r.Post("/api/snippets", h.HandleCreate)
	r.Get("/api/snippets/{id}", h.HandleGetByID)
	r.Put("/api/snippets/{id}", h.HandleUpdate)
	r.Delete("/api/snippets/{id}", h.HandleDelete)
	return r, db
}

func newRequest(method, target string, body any) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf, _ := json.Marshal(b)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}
