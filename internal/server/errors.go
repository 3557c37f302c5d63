package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/internal/collab"
	"github.com/nerdneilsfield/doc-forge/internal/documents"
	"github.com/nerdneilsfield/doc-forge/internal/store"
	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor 将错误映射为 HTTP 状态码和用户可见消息
func statusFor(err error) (int, errorBody) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "Document not found", Code: "NOT_FOUND"}
	case errors.Is(err, documents.ErrNoFile):
		return http.StatusNotFound, errorBody{Error: "File not found", Code: "NOT_FOUND"}
	case errors.Is(err, documents.ErrForbidden):
		return http.StatusForbidden, errorBody{Error: "Forbidden", Code: "FORBIDDEN"}
	case errors.Is(err, collab.ErrClosed):
		return http.StatusServiceUnavailable, errorBody{Error: "Collaboration unavailable", Code: "UNAVAILABLE"}
	case errors.Is(err, documents.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Error: "File too large", Code: pipeline.ErrCodeInvalidInput}
	}

	var perr *pipeline.Error
	if errors.As(err, &perr) {
		body := errorBody{Error: perr.Message, Code: perr.Code, Retryable: perr.IsRetryable()}
		switch perr.Code {
		case pipeline.ErrCodeInvalidInput, pipeline.ErrCodeUnsupportedFileType:
			return http.StatusBadRequest, body
		case pipeline.ErrCodeExtraction:
			return http.StatusUnprocessableEntity, body
		case pipeline.ErrCodeCompletion:
			return http.StatusBadGateway, body
		case pipeline.ErrCodeCompletionTimeout:
			return http.StatusGatewayTimeout, body
		default:
			return http.StatusInternalServerError, body
		}
	}

	return http.StatusInternalServerError, errorBody{Error: "Internal server error"}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message, Code: pipeline.ErrCodeInvalidInput})
}
