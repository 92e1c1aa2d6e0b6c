// Package tui is the terminal front end of the snippet editor.
//
// KEY CONCEPTS:
//   - The bubbletea Model owns only widgets and layout. The snippet itself
//     lives in an *editor.Editor, and every input event becomes exactly one
//     editor operation (SetTitle, SetLanguage, CopyCode, Save, ...).
//   - Notifications come back asynchronously through a notify.Channel; a
//     tea.Cmd blocks on it and turns each one into a toastMsg.
//   - Update runs on bubbletea's single goroutine, which makes it the single
//     writer the editor expects.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sakif/swiftsnip/internal/editor"
	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/notify"
)

// toastTTL is how long a notification stays on screen.
const toastTTL = 3 * time.Second

type field int

const (
	fieldTitle field = iota
	fieldLanguage
	fieldPublic
	fieldDescription
	fieldCode
	fieldCount
)

// widthSetter is implemented by renderers whose output depends on the
// terminal width (markdown.Terminal).
type widthSetter interface {
	SetWidth(width int)
}

// Options configures New.
type Options struct {
	Editor        *editor.Editor
	Notifications <-chan notify.Notification
	// Preview renders the description; nil hides the preview pane.
	Preview editor.Renderer
	// Context is passed to Editor.Save.
	Context context.Context
	KeyMap  *KeyMap
}

// ===== Messages =====

type toastMsg notify.Notification

type clearToastMsg struct{ at time.Time }

// Model is the bubbletea model of the editor screen.
type Model struct {
	editor   *editor.Editor
	toasts   <-chan notify.Notification
	renderer editor.Renderer
	ctx      context.Context
	keys     KeyMap
	help     help.Model

	title       textinput.Model
	description textarea.Model
	code        textarea.Model
	focus       field

	toast      *notify.Notification
	preview    string
	previewErr error

	width, height int
	styles        styles
}

// New builds the model and loads the editor's current snippet into the widgets.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	keys := DefaultKeyMap()
	if opts.KeyMap != nil {
		keys = *opts.KeyMap
	}

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 100
	title.Prompt = ""

	description := textarea.New()
	description.Placeholder = "Description (markdown)"
	description.ShowLineNumbers = false
	description.CharLimit = 0
	description.SetHeight(4)

	code := textarea.New()
	code.Placeholder = "Code"
	code.CharLimit = 0
	code.MaxHeight = 0
	code.SetHeight(12)

	m := Model{
		editor:      opts.Editor,
		toasts:      opts.Notifications,
		renderer:    opts.Preview,
		ctx:         ctx,
		keys:        keys,
		help:        help.New(),
		title:       title,
		description: description,
		code:        code,
		styles:      defaultStyles(),
	}
	m.syncWidgets()
	m.setFocus(fieldTitle)
	return m
}

// Init starts the cursor blink and the notification listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForToast())
}

// Snippet returns the snippet currently being edited.
func (m Model) Snippet() model.Snippet {
	return m.editor.Snapshot()
}

func (m Model) waitForToast() tea.Cmd {
	if m.toasts == nil {
		return nil
	}
	ch := m.toasts
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return toastMsg(n)
	}
}

// Update handles all TUI interactions.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case toastMsg:
		n := notify.Notification(msg)
		m.toast = &n
		at := n.At
		return m, tea.Batch(
			m.waitForToast(),
			tea.Tick(toastTTL, func(time.Time) tea.Msg { return clearToastMsg{at: at} }),
		)

	case clearToastMsg:
		// A newer toast replaces the timer of an older one.
		if m.toast != nil && m.toast.At.Equal(msg.at) {
			m.toast = nil
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus((m.focus + 1) % fieldCount)

	case key.Matches(msg, m.keys.PrevField):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)

	case key.Matches(msg, m.keys.Copy):
		// Completion arrives as a notification; nothing to wait for here.
		m.editor.CopyCode()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		// Failures are reported through the notifier.
		_ = m.editor.Save(m.ctx)
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.editor.Reset()
		m.syncWidgets()
		return m, m.setFocus(fieldTitle)
	}

	switch m.focus {
	case fieldLanguage:
		switch {
		case key.Matches(msg, m.keys.NextLanguage):
			m.editor.SetLanguage(cycleLanguage(m.editor.Snapshot().Language, 1))
		case key.Matches(msg, m.keys.PrevLanguage):
			m.editor.SetLanguage(cycleLanguage(m.editor.Snapshot().Language, -1))
		}
		return m, nil

	case fieldPublic:
		if key.Matches(msg, m.keys.TogglePublic) {
			m.editor.SetPublic(!m.editor.Snapshot().IsPublic)
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// updateFocused feeds msg to the focused text widget and forwards a changed
// value to the editor.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	current := m.editor.Snapshot()

	switch m.focus {
	case fieldTitle:
		m.title, cmd = m.title.Update(msg)
		if v := m.title.Value(); v != current.Title {
			m.editor.SetTitle(v)
		}
	case fieldDescription:
		m.description, cmd = m.description.Update(msg)
		if v := m.description.Value(); v != current.Description {
			m.editor.SetDescription(v)
			m.renderPreview()
		}
	case fieldCode:
		m.code, cmd = m.code.Update(msg)
		if v := m.code.Value(); v != current.Code {
			m.editor.SetCode(v)
		}
	}

	return m, cmd
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	m.title.Blur()
	m.description.Blur()
	m.code.Blur()

	switch f {
	case fieldTitle:
		return m.title.Focus()
	case fieldDescription:
		return m.description.Focus()
	case fieldCode:
		return m.code.Focus()
	}
	return nil
}

// syncWidgets copies the editor's snippet into the widgets, after Reset or Load.
func (m *Model) syncWidgets() {
	s := m.editor.Snapshot()
	m.title.SetValue(s.Title)
	m.description.SetValue(s.Description)
	m.code.SetValue(s.Code)
	m.renderPreview()
}

func (m *Model) renderPreview() {
	if m.renderer == nil {
		return
	}
	m.preview, _, m.previewErr = m.editor.Preview(m.renderer)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	inner := max(width-4, 20)
	m.title.Width = inner
	m.description.SetWidth(inner)
	m.code.SetWidth(inner)
	m.help.Width = width

	// Title, selector, toggle, help and toast take a fixed 12 rows; the rest
	// goes to the code area.
	m.code.SetHeight(max(height-12-m.description.Height(), 5))

	if ws, ok := m.renderer.(widthSetter); ok {
		ws.SetWidth(inner)
		m.renderPreview()
	}
}

// cycleLanguage steps through model.Languages, wrapping at both ends.
func cycleLanguage(current model.Language, step int) model.Language {
	langs := model.Languages()
	idx := 0
	for i, l := range langs {
		if l == current {
			idx = i
			break
		}
	}
	n := len(langs)
	return langs[((idx+step)%n+n)%n]
}
