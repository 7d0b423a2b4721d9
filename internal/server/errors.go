package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/observability"
)

// errorBody is the JSON form of every error response.
type errorBody struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
	Reason  string    `json:"reason,omitempty"` // validation failure reason
	Index   *int      `json:"index,omitempty"`  // offending node or link index
}

func newErrorBody(err error) errorBody {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	body := errorBody{Code: code, Message: errs.UserMessage(err)}

	var verr *descriptor.ValidationError
	if errors.As(err, &verr) {
		body.Reason = string(verr.Reason)
		if verr.Index >= 0 {
			idx := verr.Index
			body.Index = &idx
		}
	}
	return body
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidSchema, errs.ErrCodeDuplicateNodeID:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errs.ErrCodeFileNotFound, errs.ErrCodePresetNotFound:
		return http.StatusNotFound
	case errs.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errs.ErrCodeHostPrecondition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	observability.HTTP().OnError(r.Context(), r.Method, route, err)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "route", route, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "route", route, "status", status, "err", err)
	}
	writeJSON(w, status, newErrorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
