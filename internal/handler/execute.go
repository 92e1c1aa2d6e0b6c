package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sakif/swiftsnip/internal/apperror"
	"github.com/sakif/swiftsnip/internal/editor"
	"github.com/sakif/swiftsnip/internal/executor"
	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/service"
)

// ExecuteHandler runs snippet code. exec may be nil when no sandbox is
// available; the route then answers 503 instead of disappearing.
type ExecuteHandler struct {
	exec   executor.Executor
	logger *slog.Logger
}

func NewExecuteHandler(exec executor.Executor, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		exec:   exec,
		logger: logger,
	}
}

type executeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// HandleExecute runs code in the sandbox for its language.
//
// HTTP: POST /api/execute {"language":"python","code":"print(1)"}
// A program that fails or times out is still a 200: the exit code and stderr
// describe the failure. Only a broken sandbox is a 5xx.
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if h.exec == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "code execution is not enabled on this server",
		})
		return
	}

	var body executeRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	req, err := body.toRequest()
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("executing snippet", slog.String("language", string(req.Language)))

	result, err := h.exec.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, executor.ErrUnsupportedLanguage) {
			writeError(w, apperror.ValidationFailed("language",
				fmt.Sprintf("running %s is not supported", req.Language.DisplayName())))
			return
		}
		h.logger.Error("code execution failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "internal server error during execution",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (body executeRequest) toRequest() (executor.ExecutionRequest, error) {
	lang := model.DefaultLanguage
	if body.Language != "" {
		parsed, ok := model.ParseLanguage(body.Language)
		if !ok {
			return executor.ExecutionRequest{}, apperror.ValidationFailed("language",
				fmt.Sprintf("unsupported language %q", body.Language))
		}
		lang = parsed
	}
	if strings.TrimSpace(body.Code) == "" {
		return executor.ExecutionRequest{}, apperror.ValidationFailed("code", editor.MsgCodeRequired)
	}
	if utf8.RuneCountInString(body.Code) > service.MaxCodeLength {
		return executor.ExecutionRequest{}, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", service.MaxCodeLength))
	}
	return executor.ExecutionRequest{Language: lang, Code: body.Code}, nil
}
