package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/swiftsnip/internal/apperror"
	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/repository"
)

// Compile-time check that *DB satisfies the interface.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, title, description, code, language, is_public, user_id, origin, created_at, updated_at`

// rowScanner is the part of *sql.Row and *sql.Rows that scanSnippet needs.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (model.Snippet, error) {
	var (
		s      model.Snippet
		lang   string
		userID sql.NullString
		origin string
	)
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Code,
		&lang,
		&s.IsPublic,
		&userID,
		&origin,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return model.Snippet{}, err
	}
	s.Language = model.Language(lang)
	s.UserID = userID.String
	s.Origin = model.Origin(origin)
	return s, nil
}

// nullable maps "" to SQL NULL so an anonymous snippet does not trip the
// users(id) foreign key.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a new snippet, filling in ID (an xid: 20 URL-safe chars,
// sortable by creation time) and both timestamps. An empty Origin is stored
// as model.OriginAPI.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()
	if snippet.Origin == "" {
		snippet.Origin = model.OriginAPI
	}

	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		string(snippet.Language),
		snippet.IsPublic,
		nullable(snippet.UserID),
		string(snippet.Origin),
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by its ID.
// A missing row becomes apperror.NotFound so the handler can answer 404.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`,
		id,
	)

	s, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return &s, nil
}

// List returns the snippets visible to opts.ViewerID, newest first.
//
// The WHERE clause is assembled from fixed fragments; only values travel as
// ? parameters, never user text.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		where []string
		args  []any
	)
	if opts.ViewerID == "" {
		where = append(where, "is_public = 1")
	} else {
		where = append(where, "(is_public = 1 OR user_id = ?)")
		args = append(args, opts.ViewerID)
	}
	if opts.Language != "" {
		where = append(where, "language = ?")
		args = append(args, string(opts.Language))
	}
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update overwrites the editable fields and bumps updated_at.
// id, user_id, origin and created_at never change.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, code = ?, language = ?, is_public = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		string(snippet.Language),
		snippet.IsPublic,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet by its ID.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}
