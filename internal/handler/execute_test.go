package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/swiftsnip/internal/executor"
	"github.com/sakif/swiftsnip/internal/handler"
	"github.com/sakif/swiftsnip/internal/model"
)

// MockExecutor is a fast executor for handler tests without Docker.
type MockExecutor struct {
	CapturedReq executor.ExecutionRequest
	Calls       int
	ReturnRes   *executor.ExecutionResult
	ReturnErr   error
}

func (m *MockExecutor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	m.Calls++
	m.CapturedReq = req
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnRes, nil
}

func TestExecuteHandler_HandleExecute(t *testing.T) {
	logger := newTestLogger()

	t.Run("valid execution", func(t *testing.T) {
		mockExec := &MockExecutor{
			ReturnRes: &executor.ExecutionResult{
				Stdout:   "Hello World\n",
				ExitCode: 0,
				Duration: 100 * time.Millisecond,
			},
		}
		h := handler.NewExecuteHandler(mockExec, logger)

		rr := serve(http.HandlerFunc(h.HandleExecute),
			newRequest(http.MethodPost, "/api/execute", `{"language":"python","code":"print('Hello World')"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		var res executor.ExecutionResult
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Hello World\n", res.Stdout)
		assert.Equal(t, 0, res.ExitCode)

		assert.Equal(t, model.LanguagePython, mockExec.CapturedReq.Language)
		assert.Equal(t, "print('Hello World')", mockExec.CapturedReq.Code)
	})

	t.Run("language defaults to javascript", func(t *testing.T) {
		mockExec := &MockExecutor{ReturnRes: &executor.ExecutionResult{}}
		h := handler.NewExecuteHandler(mockExec, logger)

		rr := serve(http.HandlerFunc(h.HandleExecute),
			newRequest(http.MethodPost, "/api/execute", `{"code":"console.log(1)"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, model.LanguageJavaScript, mockExec.CapturedReq.Language)
	})

	t.Run("timeout is still a 200", func(t *testing.T) {
		mockExec := &MockExecutor{ReturnRes: &executor.ExecutionResult{
			ExitCode: executor.TimeoutExitCode, TimedOut: true, Stderr: "\nExecution timed out.\n",
		}}
		h := handler.NewExecuteHandler(mockExec, logger)

		rr := serve(http.HandlerFunc(h.HandleExecute),
			newRequest(http.MethodPost, "/api/execute", `{"language":"python","code":"while True: pass"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"timedOut":true`)
	})

	badRequests := []struct {
		name string
		body string
	}{
		{"invalid request body", `{"invalid_json":`},
		{"empty code", `{"language":"python","code":"  "}`},
		{"unknown language", `{"language":"cobol","code":"DISPLAY 'HI'."}`},
	}
	for _, tt := range badRequests {
		t.Run(tt.name, func(t *testing.T) {
			mockExec := &MockExecutor{}
			h := handler.NewExecuteHandler(mockExec, logger)

			rr := serve(http.HandlerFunc(h.HandleExecute), newRequest(http.MethodPost, "/api/execute", tt.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Zero(t, mockExec.Calls, "executor must not run")
		})
	}

	t.Run("runtime not configured", func(t *testing.T) {
		mockExec := &MockExecutor{ReturnErr: fmt.Errorf("%w: %q", executor.ErrUnsupportedLanguage, "java")}
		h := handler.NewExecuteHandler(mockExec, logger)

		rr := serve(http.HandlerFunc(h.HandleExecute),
			newRequest(http.MethodPost, "/api/execute", `{"language":"java","code":"class Main {}"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "running Java is not supported")
	})

	t.Run("sandbox failure", func(t *testing.T) {
		mockExec := &MockExecutor{ReturnErr: errors.New("docker daemon went away")}
		h := handler.NewExecuteHandler(mockExec, logger)

		rr := serve(http.HandlerFunc(h.HandleExecute),
			newRequest(http.MethodPost, "/api/execute", `{"language":"python","code":"print(1)"}`))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "docker daemon", "internal detail must not leak")
	})

	t.Run("no executor configured", func(t *testing.T) {
		h := handler.NewExecuteHandler(nil, logger)

		rr := serve(http.HandlerFunc(h.HandleExecute),
			newRequest(http.MethodPost, "/api/execute", `{"language":"python","code":"print(1)"}`))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
