// Package executor defines how snippet code is run in isolation.
// The docker subpackage is the only implementation.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/sakif/swiftsnip/internal/model"
)

// ErrUnsupportedLanguage is returned when no runtime is configured for a language.
var ErrUnsupportedLanguage = errors.New("executor: unsupported language")

// TimeoutExitCode is reported when a run is cut off, like coreutils timeout(1).
const TimeoutExitCode = 124

// ExecutionRequest is one snippet to run.
type ExecutionRequest struct {
	Language model.Language `json:"language"`
	Code     string         `json:"code"`
}

// ExecutionResult is the output and status of one run.
type ExecutionResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	TimedOut bool          `json:"timedOut"`
	Duration time.Duration `json:"duration"`
}

// Executor runs code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
}
