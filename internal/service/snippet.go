// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler / TUI (input layer) → parses requests or key presses
//	Service (business layer)    → validates, enforces ownership, orchestrates
//	Repository (data layer)     → reads/writes the database
//
// Services accept plain Go values, never *http.Request, so the same
// SnippetService backs both the HTTP API and the terminal editor's save action.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/swiftsnip/internal/apperror"
	"github.com/sakif/swiftsnip/internal/editor"
	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/repository"
)

const (
	MaxTitleLength   = 100
	MaxCodeLength    = 100000
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// The terminal editor hands validated snippets straight to the service.
var _ editor.Saver = (*SnippetService)(nil)

func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
	}
}

// validate runs the editor's save gate first (title, then code, first failure
// wins, same messages the user sees in the editor) and then the limits that
// only storage cares about. Lengths are counted in characters (runes), the
// same unit the terminal editor's input limit uses.
func validate(s model.Snippet) error {
	if err := editor.Validate(s); err != nil {
		return err
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Title)) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if utf8.RuneCountInString(s.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if !s.Language.Valid() {
		return apperror.ValidationFailed("language",
			fmt.Sprintf("unsupported language %q", string(s.Language)))
	}
	return nil
}

// Create validates and stores a new snippet owned by ownerID
// (empty for an anonymous snippet). A private anonymous snippet is only
// reachable through the database file itself, which is how the terminal
// editor's local store uses it.
//
// Title and description are trimmed; code is stored exactly as typed because
// leading indentation is meaningful. in.Origin defaults to model.OriginAPI.
func (s *SnippetService) Create(ctx context.Context, in model.Snippet, ownerID string) (*model.Snippet, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Code:        in.Code,
		Language:    in.Language,
		IsPublic:    in.IsPublic,
		UserID:      ownerID,
		Origin:      in.Origin,
	}
	if snippet.Origin == "" {
		snippet.Origin = model.OriginAPI
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", snippet.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("language", string(snippet.Language)),
		slog.Bool("public", snippet.IsPublic),
	)

	return snippet, nil
}

// GetByID retrieves a snippet the viewer is allowed to see.
// A private snippet looks exactly like a missing one to anybody but its owner,
// so IDs of private snippets cannot be probed.
func (s *SnippetService) GetByID(ctx context.Context, id, viewerID string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !snippet.VisibleTo(viewerID) {
		return nil, apperror.NotFound("snippet", id)
	}

	return snippet, nil
}

// List retrieves the snippets visible to viewerID with pagination.
// limit is clamped to 1..MaxListLimit (0 → DefaultListLimit); an empty
// language means all languages.
func (s *SnippetService) List(ctx context.Context, limit, offset int, viewerID string, language model.Language) ([]model.Snippet, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if language != "" && !language.Valid() {
		return nil, apperror.ValidationFailed("language",
			fmt.Sprintf("unsupported language %q", string(language)))
	}

	snippets, err := s.repo.List(ctx, repository.ListOptions{
		Limit:    limit,
		Offset:   offset,
		ViewerID: viewerID,
		Language: language,
	})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, nil
}

// Update replaces the editable fields of an existing snippet.
//
// STRATEGY: fetch, authorise, validate, write.
// Owned snippets can only be changed by their owner. Anonymous snippets from
// the API stay editable by anyone who can see them; anonymous snippets saved
// from the terminal editor are read-only here (see checkWritable).
func (s *SnippetService) Update(ctx context.Context, id string, in model.Snippet, viewerID string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if err := checkWritable(snippet, viewerID, "edit"); err != nil {
		return nil, err
	}

	return s.replace(ctx, snippet, in)
}

// checkWritable applies the API's write rules. The terminal editor has no
// account, so the snippets it saves carry no owner and stay read-only here.
func checkWritable(snippet *model.Snippet, viewerID, action string) error {
	switch {
	case snippet.UserID != "":
		if snippet.UserID != viewerID {
			return apperror.Forbidden("only the owner can " + action + " this snippet")
		}
	case snippet.Origin == model.OriginTerminal:
		return apperror.Forbidden("snippets saved from the terminal editor can only be changed there")
	}
	return nil
}

// replace validates in and writes its editable fields over existing.
func (s *SnippetService) replace(ctx context.Context, existing *model.Snippet, in model.Snippet) (*model.Snippet, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	existing.Title = strings.TrimSpace(in.Title)
	existing.Description = strings.TrimSpace(in.Description)
	existing.Code = in.Code
	existing.Language = in.Language
	existing.IsPublic = in.IsPublic

	if err := s.repo.Update(ctx, existing); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", existing.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", existing.ID))

	return existing, nil
}

// Delete removes a snippet under the same rules as Update.
func (s *SnippetService) Delete(ctx context.Context, id, viewerID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.GetByID(ctx, id, viewerID)
	if err != nil {
		return err
	}
	if err := checkWritable(snippet, viewerID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// Save implements editor.Saver: the first save of an editor session creates
// the snippet, later saves (the editor now carries the ID) update it.
//
// The editor is the snippet's author, so visibility does not apply here; the
// stored owner must still match the snippet's UserID.
func (s *SnippetService) Save(ctx context.Context, snippet model.Snippet) (model.Snippet, error) {
	if !snippet.Persisted() {
		snippet.Origin = model.OriginTerminal
		stored, err := s.Create(ctx, snippet, snippet.UserID)
		if err != nil {
			return model.Snippet{}, err
		}
		return *stored, nil
	}

	existing, err := s.repo.GetByID(ctx, snippet.ID)
	if err != nil {
		return model.Snippet{}, err
	}
	if existing.UserID != snippet.UserID {
		return model.Snippet{}, apperror.Forbidden("only the owner can edit this snippet")
	}

	stored, err := s.replace(ctx, existing, snippet)
	if err != nil {
		return model.Snippet{}, err
	}
	return *stored, nil
}
