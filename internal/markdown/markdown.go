// Package markdown renders snippet descriptions.
//
// The editor treats rendering as a black box behind the Renderer interface.
// Two renderers exist: HTML for the HTTP preview endpoint and Terminal for the
// TUI preview pane.
package markdown

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns markdown source into display output.
type Renderer interface {
	Render(source string) (string, error)
}

// HTML renders GitHub-flavoured markdown to an HTML fragment.
//
// Raw HTML in the source is NOT passed through (goldmark's default, we do not
// enable html.WithUnsafe), so a description cannot inject script tags into the
// page that displays the preview.
type HTML struct {
	md goldmark.Markdown
}

func NewHTML() *HTML {
	return &HTML{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

func (h *HTML) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown: rendering html: %w", err)
	}
	return buf.String(), nil
}

// Terminal renders markdown with ANSI styling for the TUI.
//
// glamour's TermRenderer is not safe for concurrent use, and building one is
// comparatively expensive, so it is created once per wrap width and guarded.
type Terminal struct {
	mu       sync.Mutex
	width    int
	style    string
	renderer *glamour.TermRenderer
}

// NewTerminal creates a terminal renderer. style is a glamour standard style
// name ("dark", "light", "notty", ...); empty means "dark".
func NewTerminal(width int, style string) *Terminal {
	if style == "" {
		style = "dark"
	}
	return &Terminal{width: width, style: style}
}

// SetWidth changes the word-wrap width; the next Render rebuilds the renderer.
func (t *Terminal) SetWidth(width int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if width != t.width {
		t.width = width
		t.renderer = nil
	}
}

func (t *Terminal) Render(source string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(t.style),
			glamour.WithWordWrap(t.width),
		)
		if err != nil {
			return "", fmt.Errorf("markdown: creating terminal renderer: %w", err)
		}
		t.renderer = r
	}

	out, err := t.renderer.Render(source)
	if err != nil {
		return "", fmt.Errorf("markdown: rendering terminal output: %w", err)
	}
	return out, nil
}
