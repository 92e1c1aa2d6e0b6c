// Package repository declares the storage interfaces the service layer depends on.
// The sqlite sub-package is the only implementation; tests use hand-written mocks.
package repository

import (
	"context"

	"github.com/sakif/swiftsnip/internal/model"
)

// ListOptions controls which snippets List returns.
//
// ViewerID decides visibility: public snippets are always listed, private ones
// only when their owner is the viewer. An empty ViewerID lists public snippets only.
// An empty Language means every language.
type ListOptions struct {
	Limit    int
	Offset   int
	ViewerID string
	Language model.Language
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	// Upsert inserts the user or refreshes the profile of the existing account
	// with the same GitHubID. user.ID is set either way.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
