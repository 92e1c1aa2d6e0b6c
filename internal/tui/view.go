package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/notify"
)

type styles struct {
	header    lipgloss.Style
	label     lipgloss.Style
	focused   lipgloss.Style
	selected  lipgloss.Style
	dim       lipgloss.Style
	preview   lipgloss.Style
	toastOK   lipgloss.Style
	toastFail lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		focused:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		selected:  lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1),
		preview:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		toastOK:   lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 1),
		toastFail: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1),
	}
}

// View renders the editor screen top to bottom: title, language, visibility,
// description with its preview, code, toast and key help.
func (m Model) View() string {
	s := m.editor.Snapshot()

	var b strings.Builder
	b.WriteString(m.styles.header.Render("swiftsnip"))
	if s.Persisted() {
		b.WriteString(m.styles.label.Render("  #" + s.ID))
	}
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldTitle, "Title") + "\n")
	b.WriteString(m.title.View() + "\n\n")

	b.WriteString(m.label(fieldLanguage, "Language") + "\n")
	b.WriteString(m.languageRow(s.Language) + "\n\n")

	b.WriteString(m.label(fieldPublic, "Visibility") + " ")
	b.WriteString(publicBox(s.IsPublic) + "\n\n")

	b.WriteString(m.label(fieldDescription, "Description") + "\n")
	b.WriteString(m.description.View() + "\n")
	if p := m.previewView(); p != "" {
		b.WriteString(p + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.label(fieldCode, "Code") + "\n")
	b.WriteString(m.code.View() + "\n\n")

	b.WriteString(m.toastView() + "\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) label(f field, text string) string {
	if m.focus == f {
		return m.styles.focused.Render("› " + text)
	}
	return m.styles.label.Render("  " + text)
}

func (m Model) languageRow(current model.Language) string {
	langs := model.Languages()
	parts := make([]string, 0, len(langs))
	for _, l := range langs {
		if l == current {
			parts = append(parts, m.styles.selected.Render(l.DisplayName()))
		} else {
			parts = append(parts, m.styles.dim.Render(l.DisplayName()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func publicBox(public bool) string {
	if public {
		return "[x] Public"
	}
	return "[ ] Public"
}

func (m Model) previewView() string {
	switch {
	case m.renderer == nil:
		return ""
	case m.previewErr != nil:
		return m.styles.toastFail.Render("preview unavailable")
	case m.preview == "":
		return ""
	}
	return m.styles.preview.Render(strings.TrimRight(m.preview, "\n"))
}

func (m Model) toastView() string {
	if m.toast == nil {
		return ""
	}
	if m.toast.Kind == notify.Success {
		return m.styles.toastOK.Render(m.toast.Message)
	}
	return m.styles.toastFail.Render(m.toast.Message)
}

// Run shows the editor full screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Context == nil {
		opts.Context = ctx
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
