// Package clipboard provides the clipboard sinks the editor copies code into.
package clipboard

import (
	"errors"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/sakif/swiftsnip/internal/apperror"
)

// ErrUnsupported is returned by System when the platform has no clipboard
// utility (e.g. a Linux box without xclip, xsel or wl-copy).
var ErrUnsupported = errors.New("clipboard: no clipboard utility available")

// System writes to the operating-system clipboard through atotto/clipboard.
//
// On Linux that library shells out to xclip/xsel/wl-copy, so a write may take
// a noticeable amount of time. The editor always calls WriteText from its own
// goroutine for that reason.
type System struct {
	// write is swapped in tests; nil means clipboard.WriteAll.
	write func(string) error
	// unsupported is swapped in tests; nil means clipboard.Unsupported.
	unsupported func() bool
}

func NewSystem() *System {
	return &System{}
}

func (s *System) WriteText(text string) error {
	unsupported := clipboard.Unsupported
	if s.unsupported != nil {
		unsupported = s.unsupported()
	}
	if unsupported {
		return apperror.ClipboardFailed(ErrUnsupported)
	}

	write := clipboard.WriteAll
	if s.write != nil {
		write = s.write
	}
	if err := write(text); err != nil {
		return apperror.ClipboardFailed(err)
	}
	return nil
}

// Memory is an in-process clipboard for headless runs and tests.
// Set Err to make every write fail.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes int
	Err    error
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return apperror.ClipboardFailed(m.Err)
	}
	m.text = text
	m.writes++
	return nil
}

// Text returns the last successfully written text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns the number of successful writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
