// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"strings"
	"time"
)

// Language is one of the fixed set of languages a snippet can be written in.
//
// WHY A NAMED STRING TYPE?
// A plain string would accept "cobol" or "". A named type makes the closed set
// visible in every function signature: SetLanguage(Language) cannot be called
// with arbitrary user text without going through ParseLanguage first.
type Language string

const (
	LanguageC          Language = "c"
	LanguageCPP        Language = "cpp"
	LanguageJava       Language = "java"
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageRust       Language = "rust"
	LanguageTypeScript Language = "typescript"
)

// DefaultLanguage is the language of a freshly created snippet.
const DefaultLanguage = LanguageJavaScript

// languages keeps the enumeration in its display order.
var languages = []Language{
	LanguageC,
	LanguageCPP,
	LanguageJava,
	LanguageJavaScript,
	LanguagePython,
	LanguageRust,
	LanguageTypeScript,
}

var displayNames = map[Language]string{
	LanguageC:          "C",
	LanguageCPP:        "C++",
	LanguageJava:       "Java",
	LanguageJavaScript: "JavaScript",
	LanguagePython:     "Python",
	LanguageRust:       "Rust",
	LanguageTypeScript: "TypeScript",
}

// Languages returns every supported language in display order.
// The returned slice is a copy; callers may modify it freely.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// ParseLanguage converts user-supplied text into a Language.
// Matching is case-insensitive and ignores surrounding whitespace.
// The second return value is false when the text is not in the enumeration.
func ParseLanguage(text string) (Language, bool) {
	candidate := Language(strings.ToLower(strings.TrimSpace(text)))
	if candidate.Valid() {
		return candidate, true
	}
	return "", false
}

// Valid reports whether l is a member of the enumeration.
func (l Language) Valid() bool {
	_, ok := displayNames[l]
	return ok
}

// DisplayName is the label shown in language selectors, e.g. "C++".
func (l Language) DisplayName() string {
	if name, ok := displayNames[l]; ok {
		return name
	}
	return string(l)
}

func (l Language) String() string {
	return string(l)
}

// Origin records which front end first saved a snippet.
type Origin string

const (
	// OriginAPI is a snippet created through the HTTP API.
	OriginAPI Origin = "api"
	// OriginTerminal is a snippet saved from the terminal editor. Without an
	// owner, only the terminal editor may change or delete it.
	OriginTerminal Origin = "terminal"
)

// Snippet represents a code snippet being edited or already saved.
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON.
//
// VALUE SEMANTICS:
// Snippet contains only strings, a bool and times: no pointers, slices or maps.
// Assigning a Snippet copies it completely, so an edit that produces a new value
// can never be observed through an older copy. The editor relies on this.
//
// ID, UserID, Origin, CreatedAt and UpdatedAt stay at their zero values until
// the snippet has been persisted.
type Snippet struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Language    Language  `json:"language"`
	IsPublic    bool      `json:"isPublic"`
	UserID      string    `json:"userId,omitempty"`
	Origin      Origin    `json:"origin,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// NewSnippet returns a snippet with the editor defaults:
// empty text fields, JavaScript, public.
func NewSnippet() Snippet {
	return Snippet{
		Language: DefaultLanguage,
		IsPublic: true,
	}
}

// Persisted reports whether the snippet has been assigned an ID by storage.
func (s Snippet) Persisted() bool {
	return s.ID != ""
}

// VisibleTo reports whether the user with the given ID may read the snippet.
// Public snippets are visible to everyone, private ones only to their owner.
// An empty viewerID means an anonymous caller.
func (s Snippet) VisibleTo(viewerID string) bool {
	if s.IsPublic {
		return true
	}
	return s.UserID != "" && s.UserID == viewerID
}
