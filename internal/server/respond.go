package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
)

var (
	errRouteNotFound    = apperrors.New(apperrors.ErrCodeNotFound, "no such route")
	errMethodNotAllowed = apperrors.New(apperrors.ErrCodeUnsupported, "method not allowed")
)

type errorBody struct {
	Code      apperrors.Code `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// writeError answers with the status and code carried by err. Uncoded
// errors are reported as INTERNAL_ERROR without leaking their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := describe(err)
	if err == errMethodNotAllowed {
		status = http.StatusMethodNotAllowed
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFrom(r.Context()),
	}})
}

func describe(err error) (int, apperrors.Code, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, apperrors.ErrCodeTimeout, "upstream request timed out"
	case errors.Is(err, context.Canceled):
		// Client went away; the status is never seen.
		return 499, apperrors.ErrCodeInternal, "request canceled"
	}
	code := apperrors.GetCode(err)
	if code == "" {
		return http.StatusInternalServerError, apperrors.ErrCodeInternal, "internal error"
	}
	return apperrors.HTTPStatus(err), code, apperrors.UserMessage(err)
}
