package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

// Every response body is the {status, message, data?} envelope; failures
// may add a per-field error map.
type (
	errorResponse struct {
		Status  bool              `json:"status"`
		Message string            `json:"message"`
		Error   map[string]string `json:"error,omitempty"`
	}

	successResponse struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    any    `json:"data,omitempty"`
	}
)

// Optional methods a handler result may implement to shape its envelope.
type (
	statusCoder interface{ StatusCode() int }
	messenger   interface{ Message() string }
	payloader   interface{ Payload() any }
)

const defaultSuccessMessage = "Request processed successfully"

// writeError maps goerror kinds to status codes. Anything else is a 500 with
// a generic message so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}

	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	}
	if len(resp.Error) == 0 {
		resp.Error = nil
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		code = sc.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	out := successResponse{Status: true, Message: defaultSuccessMessage, Data: resp}
	if m, ok := resp.(messenger); ok {
		out.Message = m.Message()
	}
	if p, ok := resp.(payloader); ok {
		out.Data = p.Payload()
	}

	writeJSON(w, out, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: encode response", "error", err)
	}
}
