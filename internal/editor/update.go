package editor

import "github.com/sakif/swiftsnip/internal/model"

// Pure updates. Each takes the current record by value and returns the next
// one with exactly one field changed; s itself is never modified.

func WithTitle(s model.Snippet, text string) model.Snippet {
	s.Title = text
	return s
}

func WithDescription(s model.Snippet, text string) model.Snippet {
	s.Description = text
	return s
}

func WithLanguage(s model.Snippet, lang model.Language) model.Snippet {
	s.Language = lang
	return s
}

func WithCode(s model.Snippet, text string) model.Snippet {
	s.Code = text
	return s
}

func WithPublic(s model.Snippet, flag bool) model.Snippet {
	s.IsPublic = flag
	return s
}

// withIdentity copies storage-assigned fields onto s, leaving the user's
// text exactly as typed.
func withIdentity(s, stored model.Snippet) model.Snippet {
	s.ID = stored.ID
	s.UserID = stored.UserID
	s.Origin = stored.Origin
	s.CreatedAt = stored.CreatedAt
	s.UpdatedAt = stored.UpdatedAt
	return s
}
