// Package editor holds the state of the snippet being edited.
//
// THE EDITOR IN ONE PICTURE:
//
//	input events ──► SetTitle / SetDescription / SetLanguage / SetCode / SetPublic
//	                        │  (each replaces the whole record, one field changed)
//	                        ▼
//	                 current model.Snippet ──► Snapshot() for renderers
//	                        │
//	        ┌───────────────┴───────────────┐
//	   CopyCode()                        Save(ctx)
//	   async, clipboard sink             sync, validation gate (+ optional Saver)
//	        └──────► exactly one notification per call ◄──────┘
//
// The editor never returns user-facing failures as program faults: a failed copy
// or a rejected save is reported to the notification sink and the editor stays
// editable.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/swiftsnip/internal/apperror"
	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/notify"
)

// User-facing notification texts.
const (
	MsgCodeCopied    = "Code Copied To Clipboard."
	MsgCopyFailed    = "Failed to copy code."
	MsgTitleRequired = "Please Enter A Title."
	MsgCodeRequired  = "Please Enter Some Code."
	MsgSaved         = "Snippet Saved Successfully!"
	MsgSaveFailed    = "Failed to save snippet."
)

// Clipboard is the sink CopyCode writes to.
type Clipboard interface {
	WriteText(text string) error
}

// Saver persists a validated snippet and returns the stored record
// (with ID and timestamps filled in).
type Saver interface {
	Save(ctx context.Context, snippet model.Snippet) (model.Snippet, error)
}

// Renderer turns the markdown description into display output.
type Renderer interface {
	Render(source string) (string, error)
}

// Editor owns the in-progress snippet.
//
// OWNERSHIP:
// There is one writer, the goroutine delivering input events (the bubbletea
// update loop, an HTTP request, a test). The mutex exists only because
// CopyCode completes on a separate goroutine and readers may call Snapshot
// from anywhere; it is never held while calling a collaborator.
type Editor struct {
	mu       sync.Mutex
	snippet  model.Snippet
	revision uint64

	clipboard Clipboard
	notifier  notify.Notifier
	saver     Saver
	logger    *slog.Logger
}

// New creates an editor holding a default snippet (see model.NewSnippet).
func New(clipboard Clipboard, notifier notify.Notifier, logger *slog.Logger) *Editor {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Editor{
		snippet:   model.NewSnippet(),
		clipboard: clipboard,
		notifier:  notifier,
		logger:    logger,
	}
}

// UseSaver attaches a persistence collaborator. With no saver, Save is a pure
// validation gate.
func (e *Editor) UseSaver(s Saver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.saver = s
}

// Snapshot returns the current snippet. Being a value, it never changes
// after it has been returned.
func (e *Editor) Snapshot() model.Snippet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snippet
}

// Revision increases by one on every record replacement. Two snapshots taken
// at the same revision are identical.
func (e *Editor) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

func (e *Editor) SetTitle(text string) {
	e.apply(func(s model.Snippet) model.Snippet { return WithTitle(s, text) })
}

func (e *Editor) SetDescription(text string) {
	e.apply(func(s model.Snippet) model.Snippet { return WithDescription(s, text) })
}

// SetLanguage assumes lang has already been checked by the caller
// (model.ParseLanguage or a selector that only offers model.Languages()).
func (e *Editor) SetLanguage(lang model.Language) {
	e.apply(func(s model.Snippet) model.Snippet { return WithLanguage(s, lang) })
}

func (e *Editor) SetCode(text string) {
	e.apply(func(s model.Snippet) model.Snippet { return WithCode(s, text) })
}

func (e *Editor) SetPublic(flag bool) {
	e.apply(func(s model.Snippet) model.Snippet { return WithPublic(s, flag) })
}

// Reset starts over with a fresh default snippet ("New Snippet").
func (e *Editor) Reset() {
	e.apply(func(model.Snippet) model.Snippet { return model.NewSnippet() })
}

// Load replaces the record with a previously saved snippet so it can be edited.
func (e *Editor) Load(s model.Snippet) {
	e.apply(func(model.Snippet) model.Snippet { return s })
}

func (e *Editor) apply(update func(model.Snippet) model.Snippet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snippet = update(e.snippet)
	e.revision++
}

// CopyCode copies the current code to the clipboard without blocking.
//
// The code is read now; the clipboard write and the resulting notification
// happen on another goroutine. Edits made after CopyCode returns do not change
// what gets copied, and may be applied before the notification appears.
//
// The returned channel is closed once the notification has been emitted.
// Callers that don't care (most of them) simply ignore it. If the clipboard
// never returns, the channel is never closed: there is no timeout.
func (e *Editor) CopyCode() <-chan struct{} {
	code := e.Snapshot().Code
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := e.writeClipboard(code); err != nil {
			e.logger.Warn("copy to clipboard failed", slog.String("error", err.Error()))
			e.notifier.Notify(notify.Failure, MsgCopyFailed)
			return
		}
		e.logger.Debug("code copied to clipboard", slog.Int("bytes", len(code)))
		e.notifier.Notify(notify.Success, MsgCodeCopied)
	}()

	return done
}

// writeClipboard turns a missing sink or a panicking one into an ordinary
// clipboard failure; nothing from this goroutine may take the program down.
func (e *Editor) writeClipboard(code string) (err error) {
	if e.clipboard == nil {
		return apperror.ClipboardFailed(errors.New("no clipboard configured"))
	}
	defer func() {
		if r := recover(); r != nil {
			err = apperror.ClipboardFailed(fmt.Errorf("clipboard panic: %v", r))
		}
	}()
	return e.clipboard.WriteText(code)
}

// Save runs the validation gate and, if a Saver is attached, persists the
// snippet. Exactly one notification is emitted per call:
//
//	empty title  → "Please Enter A Title."   (code is not checked)
//	empty code   → "Please Enter Some Code."
//	saver error  → the validation message it returned, or "Failed to save snippet."
//	otherwise    → "Snippet Saved Successfully!"
//
// The returned error mirrors the notification for programmatic callers; the
// editor remains editable either way.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	current := e.snippet
	saver := e.saver
	e.mu.Unlock()

	if err := Validate(current); err != nil {
		e.notifier.Notify(notify.Failure, userMessage(err))
		return err
	}

	if saver != nil {
		stored, err := saver.Save(ctx, current)
		if err != nil {
			e.logger.Error("failed to save snippet",
				slog.String("title", current.Title),
				slog.String("error", err.Error()),
			)
			e.notifier.Notify(notify.Failure, userMessage(err))
			return fmt.Errorf("editor: saving snippet: %w", err)
		}
		e.apply(func(s model.Snippet) model.Snippet { return withIdentity(s, stored) })
		e.logger.Info("snippet saved", slog.String("id", stored.ID))
	}

	e.notifier.Notify(notify.Success, MsgSaved)
	return nil
}

// Preview renders the description. It reports false, without calling the
// renderer, when the description is empty.
func (e *Editor) Preview(r Renderer) (string, bool, error) {
	description := e.Snapshot().Description
	if description == "" {
		return "", false, nil
	}
	out, err := r.Render(description)
	if err != nil {
		return "", false, fmt.Errorf("editor: rendering description: %w", err)
	}
	return out, true, nil
}

// Validate is the save gate. Rules run in order and the first failure wins.
// Language is not checked: a Snippet can only hold an enumeration value.
func Validate(s model.Snippet) error {
	if strings.TrimSpace(s.Title) == "" {
		return apperror.ValidationFailed("title", MsgTitleRequired)
	}
	if strings.TrimSpace(s.Code) == "" {
		return apperror.ValidationFailed("code", MsgCodeRequired)
	}
	return nil
}

// userMessage picks the toast text for a failed save.
func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperror.ErrValidation) {
		return appErr.Message
	}
	return MsgSaveFailed
}
