package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/swiftsnip/internal/apperror"
	"github.com/sakif/swiftsnip/internal/editor"
	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/notify"
	"github.com/sakif/swiftsnip/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockSnippetRepo implements repository.SnippetRepository in memory. It copies
// on the way in and on the way out so the service can never alias its state.
// Visibility filtering mirrors the SQL WHERE clause of the sqlite package.

type mockSnippetRepo struct {
	snippets  map[string]*model.Snippet
	nextID    int
	createErr error
}

func newMockRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	snippet.ID = fmt.Sprintf("mock-%03d", m.nextID)
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *snippet
	return &result, nil
}

func (m *mockSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	result := make([]model.Snippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		if !s.VisibleTo(opts.ViewerID) {
			continue
		}
		if opts.Language != "" && s.Language != opts.Language {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	if opts.Offset >= len(result) {
		return []model.Snippet{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	if _, ok := m.snippets[snippet.ID]; !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T) (*SnippetService, *mockSnippetRepo) {
	t.Helper()
	repo := newMockRepo()
	return NewSnippetService(repo, newTestLogger()), repo
}

func validInput() model.Snippet {
	s := model.NewSnippet()
	s.Title = "Hello"
	s.Code = "print(1)"
	s.Language = model.LanguagePython
	return s
}

func mustCreate(t *testing.T, svc *SnippetService, in model.Snippet, owner string) *model.Snippet {
	t.Helper()
	s, err := svc.Create(context.Background(), in, owner)
	require.NoError(t, err)
	return s
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreate_Success(t *testing.T) {
	svc, _ := newTestService(t)

	in := validInput()
	in.Description = "  *markdown*  "
	in.Code = "    indented()\n"

	s, err := svc.Create(context.Background(), in, "owner-1")
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Hello", s.Title)
	assert.Equal(t, "*markdown*", s.Description, "description is trimmed")
	assert.Equal(t, "    indented()\n", s.Code, "code is stored as typed")
	assert.Equal(t, model.LanguagePython, s.Language)
	assert.Equal(t, "owner-1", s.UserID)
}

func TestCreate_ValidationOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.Snippet)
		wantField string
		wantMsg   string
	}{
		{"empty title", func(s *model.Snippet) { s.Title = "" }, "title", editor.MsgTitleRequired},
		{"title checked before code", func(s *model.Snippet) { s.Title = "  "; s.Code = "" }, "title", editor.MsgTitleRequired},
		{"empty code", func(s *model.Snippet) { s.Code = " \n" }, "code", editor.MsgCodeRequired},
		{"title too long", func(s *model.Snippet) { s.Title = strings.Repeat("a", MaxTitleLength+1) }, "title", "title must be 100 characters or less"},
		{"code too long", func(s *model.Snippet) { s.Code = strings.Repeat("x", MaxCodeLength+1) }, "code", "code must be 100000 characters or less"},
		{"unknown language", func(s *model.Snippet) { s.Language = "cobol" }, "language", `unsupported language "cobol"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in, "")

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.Empty(t, repo.snippets, "nothing stored on validation failure")
		})
	}
}

func TestCreate_LengthsCountCharacters(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Snippet)
		wantErr string
	}{
		{"short CJK title", func(s *model.Snippet) { s.Title = strings.Repeat("日", 40) }, ""},
		{"CJK title at the limit", func(s *model.Snippet) { s.Title = strings.Repeat("日", MaxTitleLength) }, ""},
		{"CJK title over the limit", func(s *model.Snippet) { s.Title = strings.Repeat("日", MaxTitleLength+1) }, "title must be 100 characters or less"},
		{"emoji code at the limit", func(s *model.Snippet) { s.Code = strings.Repeat("🙂", MaxCodeLength) }, ""},
		{"emoji code over the limit", func(s *model.Snippet) { s.Code = strings.Repeat("🙂", MaxCodeLength+1) }, "code must be 100000 characters or less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in, "")

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantErr, appErr.Message)
		})
	}
}

// The terminal editor saves through the service, so a non-ASCII title must
// reach "Snippet Saved Successfully!" rather than a length error.
func TestSave_EditorWithMultibyteTitle(t *testing.T) {
	svc, _ := newTestService(t)
	rec := &notify.Recorder{}
	ed := editor.New(nil, rec, nil)
	ed.UseSaver(svc)

	ed.SetTitle(strings.Repeat("日", 40))
	ed.SetCode("print(1)")

	require.NoError(t, ed.Save(context.Background()))
	got := rec.All()
	require.Len(t, got, 1)
	assert.Equal(t, editor.MsgSaved, got[0].Message)
	assert.True(t, ed.Snapshot().Persisted())
}

func TestCreate_RepositoryError(t *testing.T) {
	svc, repo := newTestService(t)
	repo.createErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), validInput(), "")

	assert.ErrorIs(t, err, repo.createErr)
}

// =========================================================================
// GET / LIST
// =========================================================================

func TestGetByID_Visibility(t *testing.T) {
	svc, _ := newTestService(t)
	in := validInput()
	in.IsPublic = false
	private := mustCreate(t, svc, in, "alice")

	_, err := svc.GetByID(context.Background(), private.ID, "alice")
	assert.NoError(t, err, "owner can read")

	_, err = svc.GetByID(context.Background(), private.ID, "bob")
	assert.ErrorIs(t, err, apperror.ErrNotFound, "non-owner sees not-found, not forbidden")

	_, err = svc.GetByID(context.Background(), private.ID, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetByID_EmptyID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "   ", "")

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestList_FiltersAndClamps(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, validInput(), "")
	js := validInput()
	js.Language = model.LanguageJavaScript
	mustCreate(t, svc, js, "")
	hidden := validInput()
	hidden.IsPublic = false
	mustCreate(t, svc, hidden, "alice")

	all, err := svc.List(context.Background(), -5, -1, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(context.Background(), 1000, 0, "alice", "")
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	py, err := svc.List(context.Background(), 0, 0, "", model.LanguagePython)
	require.NoError(t, err)
	assert.Len(t, py, 1)

	_, err = svc.List(context.Background(), 0, 0, "", "cobol")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdate_ByOwner(t *testing.T) {
	svc, _ := newTestService(t)
	s := mustCreate(t, svc, validInput(), "alice")

	in := validInput()
	in.Title = "Renamed"
	in.Language = model.LanguageRust
	in.IsPublic = false

	updated, err := svc.Update(context.Background(), s.ID, in, "alice")
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.LanguageRust, updated.Language)
	assert.False(t, updated.IsPublic)
	assert.Equal(t, "alice", updated.UserID, "owner never changes")
}

func TestUpdate_WrongOwner(t *testing.T) {
	svc, _ := newTestService(t)
	s := mustCreate(t, svc, validInput(), "alice")

	_, err := svc.Update(context.Background(), s.ID, validInput(), "bob")

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdate_AnonymousSnippetEditableByAnyone(t *testing.T) {
	svc, _ := newTestService(t)
	s := mustCreate(t, svc, validInput(), "")

	in := validInput()
	in.Code = "print(2)"
	updated, err := svc.Update(context.Background(), s.ID, in, "")
	require.NoError(t, err)
	assert.Equal(t, "print(2)", updated.Code)
}

func TestUpdate_ValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	s := mustCreate(t, svc, validInput(), "")

	in := validInput()
	in.Code = ""
	_, err := svc.Update(context.Background(), s.ID, in, "")

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "missing", validInput(), "")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService(t)
	s := mustCreate(t, svc, validInput(), "alice")

	assert.ErrorIs(t, svc.Delete(context.Background(), s.ID, "bob"), apperror.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), "", "alice"), apperror.ErrValidation)
	require.NoError(t, svc.Delete(context.Background(), s.ID, "alice"))
	assert.Empty(t, repo.snippets)
	assert.ErrorIs(t, svc.Delete(context.Background(), s.ID, "alice"), apperror.ErrNotFound)
}

// =========================================================================
// SAVE (editor.Saver)
// =========================================================================

func TestSave_CreatesThenUpdates(t *testing.T) {
	svc, repo := newTestService(t)

	in := validInput()
	in.IsPublic = false // a private, ownerless snippet from the local editor

	first, err := svc.Save(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	in.ID = first.ID
	in.Code = "print(2)"
	second, err := svc.Save(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.snippets, 1)
	assert.Equal(t, "print(2)", repo.snippets[first.ID].Code)
}

func TestOrigin_CreateAndSave(t *testing.T) {
	svc, _ := newTestService(t)

	viaAPI := mustCreate(t, svc, validInput(), "")
	assert.Equal(t, model.OriginAPI, viaAPI.Origin)

	viaEditor, err := svc.Save(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, model.OriginTerminal, viaEditor.Origin)

	// Later editor saves keep the snippet's origin.
	viaEditor.Code = "print(3)"
	again, err := svc.Save(context.Background(), viaEditor)
	require.NoError(t, err)
	assert.Equal(t, model.OriginTerminal, again.Origin)
}

func TestTerminalSnippets_ReadOnlyThroughAPI(t *testing.T) {
	svc, repo := newTestService(t)
	saved, err := svc.Save(context.Background(), validInput())
	require.NoError(t, err)

	for _, viewer := range []string{"", "someone"} {
		_, err := svc.Update(context.Background(), saved.ID, validInput(), viewer)
		assert.ErrorIs(t, err, apperror.ErrForbidden, "update as %q", viewer)

		err = svc.Delete(context.Background(), saved.ID, viewer)
		assert.ErrorIs(t, err, apperror.ErrForbidden, "delete as %q", viewer)
	}

	require.Contains(t, repo.snippets, saved.ID)
	assert.Equal(t, validInput().Code, repo.snippets[saved.ID].Code)

	// Still readable, and still editable from the terminal.
	_, err = svc.GetByID(context.Background(), saved.ID, "")
	require.NoError(t, err)
	saved.Title = "edited in the terminal"
	_, err = svc.Save(context.Background(), saved)
	require.NoError(t, err)
}

func TestAnonymousAPISnippets_StayEditable(t *testing.T) {
	svc, repo := newTestService(t)
	s := mustCreate(t, svc, validInput(), "")

	in := validInput()
	in.Title = "renamed"
	_, err := svc.Update(context.Background(), s.ID, in, "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), s.ID, ""))
	assert.Empty(t, repo.snippets)
}

func TestSave_OwnerMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	s := mustCreate(t, svc, validInput(), "alice")

	in := *s
	in.UserID = "mallory"
	_, err := svc.Save(context.Background(), in)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestSave_DrivenByEditor(t *testing.T) {
	svc, repo := newTestService(t)
	e := editor.New(nil, nil, nil)
	e.UseSaver(svc)

	e.SetTitle("From the editor")
	e.SetCode("fn main() {}")
	e.SetLanguage(model.LanguageRust)

	require.NoError(t, e.Save(context.Background()))
	id := e.Snapshot().ID
	require.NotEmpty(t, id)

	e.SetCode("fn main() { println!(\"hi\"); }")
	require.NoError(t, e.Save(context.Background()))

	assert.Len(t, repo.snippets, 1)
	assert.Equal(t, id, e.Snapshot().ID)
	assert.Contains(t, repo.snippets[id].Code, "println!")
}
