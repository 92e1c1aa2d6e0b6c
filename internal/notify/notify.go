// Package notify carries short success/failure messages from the editor to
// whatever displays them: a toast line in the terminal UI, the log, or both.
//
// The editor only knows the Notifier interface. Which sink is used is decided
// by the entry point (cmd/swiftsnip wires a Channel for the TUI plus a Logger).
package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Kind distinguishes success toasts from failure toasts.
type Kind int

const (
	Success Kind = iota
	Failure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Notification is one message shown to the user.
type Notification struct {
	Kind    Kind
	Message string
	At      time.Time
}

// Notifier is the notification sink.
//
// Notify may be called from any goroutine (the clipboard copy completes on
// its own goroutine) and must not block for long.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Func adapts a plain function to the Notifier interface,
// the same trick as http.HandlerFunc.
type Func func(kind Kind, message string)

func (f Func) Notify(kind Kind, message string) {
	f(kind, message)
}

// Discard drops every notification.
var Discard Notifier = Func(func(Kind, string) {})

// Logger writes notifications to a structured logger.
// Successes are logged at Info, failures at Warn.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Notify(kind Kind, message string) {
	level := slog.LevelInfo
	if kind == Failure {
		level = slog.LevelWarn
	}
	l.logger.Log(context.Background(), level, "notification",
		slog.String("kind", kind.String()),
		slog.String("message", message),
	)
}

// Channel delivers notifications over a buffered channel.
//
// Sends never block: when the buffer is full the notification is dropped and
// counted. A toast that nobody drains is not worth stalling the editor for.
type Channel struct {
	ch      chan Notification
	dropped atomic.Int64
	now     func() time.Time
}

// NewChannel creates a Channel with the given buffer size (minimum 1).
func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{
		ch:  make(chan Notification, size),
		now: time.Now,
	}
}

func (c *Channel) Notify(kind Kind, message string) {
	n := Notification{Kind: kind, Message: message, At: c.now()}
	select {
	case c.ch <- n:
	default:
		c.dropped.Add(1)
	}
}

// C returns the receive side of the channel.
func (c *Channel) C() <-chan Notification {
	return c.ch
}

// Dropped returns how many notifications were discarded because the buffer was full.
func (c *Channel) Dropped() int64 {
	return c.dropped.Load()
}

// Multi fans each notification out to several sinks, in order.
type Multi []Notifier

func (m Multi) Notify(kind Kind, message string) {
	for _, n := range m {
		n.Notify(kind, message)
	}
}

// Recorder keeps every notification in memory.
// Useful for headless runs and for asserting on what the user would have seen.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Kind: kind, Message: message, At: time.Now()})
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
